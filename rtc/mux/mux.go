// Package mux shares one udp socket between several consumers (RFC7983).
//
// Endpoints are kept in registration order and a datagram goes to the first
// endpoint whose MatchFunc accepts it, so whoever registers first wins.
package mux

import (
	"errors"
	"net"
	"sync"

	"github.com/gotolive/hammer/rtc/logger"
	"github.com/pion/logging"
)

const (
	defaultBufferSize = 1500
	// The maximum amount of data that can be buffered per endpoint.
	maxBufferSize = 1000 * 1000 // 1MB
)

var (
	ErrMuxClosed      = errors.New("mux closed")
	ErrEndpointClosed = errors.New("endpoint closed")
)

// Config collects the arguments to mux.Mux construction into
// a single structure
type Config struct {
	Conn          net.PacketConn
	BufferSize    int
	LoggerFactory logging.LoggerFactory
}

// Mux owns the socket and its read loop.
type Mux struct {
	lock       sync.RWMutex
	conn       net.PacketConn
	endpoints  []*Endpoint
	bufferSize int
	closed     bool
	closedCh   chan struct{}

	log logging.LeveledLogger
}

// NewMux starts reading from config.Conn right away.
func NewMux(config Config) *Mux {
	if config.BufferSize == 0 {
		config.BufferSize = defaultBufferSize
	}
	if config.LoggerFactory == nil {
		config.LoggerFactory = logger.NewLoggerFactory(logger.LevelInfo)
	}
	m := &Mux{
		conn:       config.Conn,
		bufferSize: config.BufferSize,
		closedCh:   make(chan struct{}),
		log:        config.LoggerFactory.NewLogger("mux"),
	}
	go m.readLoop()
	return m
}

// NewEndpoint appends an endpoint after every existing one.
func (m *Mux) NewEndpoint(f MatchFunc) (*Endpoint, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.closed {
		return nil, ErrMuxClosed
	}
	e := newEndpoint(m, f)
	m.endpoints = append(m.endpoints, e)
	return e, nil
}

// RemoveEndpoint removes an endpoint from the Mux, order of the others is kept.
func (m *Mux) RemoveEndpoint(e *Endpoint) {
	m.lock.Lock()
	defer m.lock.Unlock()
	for i, ep := range m.endpoints {
		if ep == e {
			m.endpoints = append(m.endpoints[:i], m.endpoints[i+1:]...)
			return
		}
	}
}

func (m *Mux) LocalAddr() net.Addr {
	return m.conn.LocalAddr()
}

// WriteTo writes straight to the socket, endpoints share it.
func (m *Mux) WriteTo(b []byte, addr net.Addr) (int, error) {
	return m.conn.WriteTo(b, addr)
}

// Close closes the Mux and all associated Endpoints.
func (m *Mux) Close() error {
	m.lock.Lock()
	if m.closed {
		m.lock.Unlock()
		return nil
	}
	m.closed = true
	endpoints := m.endpoints
	m.endpoints = nil
	m.lock.Unlock()

	for _, e := range endpoints {
		e.closeBuffer()
	}

	err := m.conn.Close()
	// Wait for readLoop to end
	<-m.closedCh
	return err
}

func (m *Mux) readLoop() {
	defer close(m.closedCh)

	buf := make([]byte, m.bufferSize)
	for {
		n, addr, err := m.conn.ReadFrom(buf)
		if err != nil {
			m.log.Debugf("read loop exit: %v", err)
			return
		}
		m.dispatch(buf[:n], addr)
	}
}

func (m *Mux) dispatch(buf []byte, addr net.Addr) {
	var endpoint *Endpoint

	m.lock.RLock()
	for _, e := range m.endpoints {
		if e.match(buf) {
			endpoint = e
			break
		}
	}
	m.lock.RUnlock()

	if endpoint == nil {
		if len(buf) > 0 {
			m.log.Debugf("no endpoint for packet starting with %d", buf[0])
		} else {
			m.log.Debugf("no endpoint for zero length packet")
		}
		return
	}
	if err := endpoint.push(buf, addr); err != nil {
		m.log.Warnf("endpoint drop packet: %v", err)
	}
}
