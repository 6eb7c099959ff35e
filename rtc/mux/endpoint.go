package mux

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pion/transport/v2/packetio"
)

var _ net.PacketConn = new(Endpoint)

// Endpoint is one consumer's view of the shared socket.
type Endpoint struct {
	mux    *Mux
	match  MatchFunc
	buffer *packetio.Buffer

	// source addresses, in the same order as the packets in buffer
	addrMu sync.Mutex
	addrs  []net.Addr
}

func newEndpoint(m *Mux, f MatchFunc) *Endpoint {
	e := &Endpoint{
		mux:    m,
		match:  f,
		buffer: packetio.NewBuffer(),
	}
	// Set a maximum size of the buffer in bytes.
	e.buffer.SetLimitSize(maxBufferSize)
	return e
}

func (e *Endpoint) push(b []byte, addr net.Addr) error {
	e.addrMu.Lock()
	defer e.addrMu.Unlock()
	if _, err := e.buffer.Write(b); err != nil {
		return err
	}
	e.addrs = append(e.addrs, addr)
	return nil
}

func (e *Endpoint) popAddr() net.Addr {
	e.addrMu.Lock()
	defer e.addrMu.Unlock()
	if len(e.addrs) == 0 {
		return nil
	}
	addr := e.addrs[0]
	e.addrs[0] = nil
	e.addrs = e.addrs[1:]
	return addr
}

// ReadFrom reads the next accepted datagram.
func (e *Endpoint) ReadFrom(p []byte) (int, net.Addr, error) {
	n, err := e.buffer.Read(p)
	switch {
	case err == nil:
		return n, e.popAddr(), nil
	case errors.Is(err, io.ErrShortBuffer):
		// packetio drops the packet in that case
		return n, e.popAddr(), err
	case errors.Is(err, io.EOF):
		return 0, nil, ErrEndpointClosed
	}
	return n, nil, err
}

// WriteTo writes through the shared socket.
func (e *Endpoint) WriteTo(p []byte, addr net.Addr) (int, error) {
	return e.mux.WriteTo(p, addr)
}

// Close unregisters the endpoint, the shared socket stays open.
func (e *Endpoint) Close() error {
	e.mux.RemoveEndpoint(e)
	return e.closeBuffer()
}

func (e *Endpoint) closeBuffer() error {
	return e.buffer.Close()
}

func (e *Endpoint) LocalAddr() net.Addr {
	return e.mux.LocalAddr()
}

func (e *Endpoint) SetDeadline(t time.Time) error {
	return e.SetReadDeadline(t)
}

func (e *Endpoint) SetReadDeadline(t time.Time) error {
	return e.buffer.SetReadDeadline(t)
}

// SetWriteDeadline is a stub, writes go straight to the socket.
func (e *Endpoint) SetWriteDeadline(time.Time) error {
	return nil
}

// Conn returns a connected view writing to remote, suitable for dtls.
func (e *Endpoint) Conn(remote net.Addr) net.Conn {
	return &endpointConn{endpoint: e, remote: remote}
}

type endpointConn struct {
	endpoint *Endpoint
	remote   net.Addr
}

func (c *endpointConn) Read(b []byte) (int, error) {
	n, _, err := c.endpoint.ReadFrom(b)
	return n, err
}

func (c *endpointConn) Write(b []byte) (int, error) {
	return c.endpoint.WriteTo(b, c.remote)
}

func (c *endpointConn) Close() error {
	return c.endpoint.Close()
}

func (c *endpointConn) LocalAddr() net.Addr {
	return c.endpoint.LocalAddr()
}

func (c *endpointConn) RemoteAddr() net.Addr {
	return c.remote
}

func (c *endpointConn) SetDeadline(t time.Time) error {
	return c.endpoint.SetDeadline(t)
}

func (c *endpointConn) SetReadDeadline(t time.Time) error {
	return c.endpoint.SetReadDeadline(t)
}

func (c *endpointConn) SetWriteDeadline(t time.Time) error {
	return c.endpoint.SetWriteDeadline(t)
}
