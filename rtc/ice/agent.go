package ice

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gotolive/hammer/rtc"
	"github.com/gotolive/hammer/rtc/logger"
	"github.com/gotolive/hammer/rtc/mux"
	"github.com/pion/logging"
	"github.com/pion/stun"
)

const (
	ufragLength    = 4
	passwordLength = 24

	defaultFailedTimeout     = 30 * time.Second
	localPreferenceDecrement = 100
	receiveMTU               = 1500
)

// ConnectionState represents the state of the ICE connection
// See https://w3c.github.io/webrtc-pc/#dom-rtciceconnectionstate
// We simplify the state for our use case.
type ConnectionState int32

func (c ConnectionState) String() string {
	switch c {
	case ConnectionNew:
		return "new"
	case ConnectionConnected:
		return "connected"
	case ConnectionCompleted:
		return "completed"
	case ConnectionDisconnected:
		return "disconnected"
	case ConnectionFailed:
		return "failed"
	}
	return "unknown"
}

const (
	ConnectionNew          ConnectionState = iota // ConnectionNew indicates new connection
	ConnectionConnected                           // ConnectionConnected indicates a pair answered
	ConnectionCompleted                           // ConnectionCompleted indicates a pair was nominated
	ConnectionDisconnected                        // ConnectionDisconnected indicates the agent closed
	ConnectionFailed                              // ConnectionFailed indicates nothing answered in time
)

// OnState is the callback when state changed.
type OnState func(state ConnectionState)

// Option is the option for create an agent.
type Option struct {
	MinPort uint16
	MaxPort uint16

	EnableIPV6 bool
	IPs        []string // listen ips, if empty or nil, will use all ips available

	// Generation of the candidates this agent accepts and advertises.
	Generation int
	// FailTimeout is how long the agent waits for a binding request, default is 30s.
	FailTimeout time.Duration

	LoggerFactory logging.LoggerFactory
	OnState       OnState
}

// Agent owns the streams of one session.
type Agent struct {
	ufrag       string
	password    string
	generation  int
	ips         []string
	minPort     uint16
	maxPort     uint16
	failTimeout time.Duration
	lf          logging.LoggerFactory
	onState     OnState

	mu      sync.Mutex
	streams map[string]*Stream
	muxes   []*mux.Mux
	closed  bool

	state     int32
	once      sync.Once
	connected chan struct{}
	done      chan struct{}
}

// NewAgent validates the listen ips and mints local credentials.
func NewAgent(option Option) (*Agent, error) {
	ips, err := validateIps(option.IPs, option.EnableIPV6)
	if err != nil {
		return nil, err
	}
	ufrag, err := rtc.RandomString(ufragLength)
	if err != nil {
		return nil, err
	}
	password, err := rtc.RandomString(passwordLength)
	if err != nil {
		return nil, err
	}
	if option.FailTimeout == 0 {
		option.FailTimeout = defaultFailedTimeout
	}
	if option.LoggerFactory == nil {
		option.LoggerFactory = logger.NewLoggerFactory(logger.LevelInfo)
	}
	a := &Agent{
		ufrag:       ufrag,
		password:    password,
		generation:  option.Generation,
		ips:         ips,
		minPort:     option.MinPort,
		maxPort:     option.MaxPort,
		failTimeout: option.FailTimeout,
		lf:          option.LoggerFactory,
		onState:     option.OnState,
		streams:     map[string]*Stream{},
		connected:   make(chan struct{}),
		done:        make(chan struct{}),
	}
	a.start()
	return a, nil
}

func (a *Agent) LocalUfrag() string {
	return a.ufrag
}

func (a *Agent) LocalPassword() string {
	return a.password
}

func (a *Agent) Generation() int {
	return a.generation
}

// Stream returns nil when no stream has that name.
func (a *Agent) Stream(name string) *Stream {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.streams[name]
}

// CreateStream creates a stream and gathers one host candidate per ip for every component.
func (a *Agent) CreateStream(name string, componentIDs ...int) (*Stream, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrAgentClosed
	}
	if _, ok := a.streams[name]; ok {
		return nil, ErrStreamExist
	}
	if len(componentIDs) == 0 {
		componentIDs = []int{ComponentRTP}
	}
	stream := newStream(name, a)
	for _, id := range componentIDs {
		component, err := stream.addComponent(id)
		if err != nil {
			return nil, err
		}
		if err := a.gather(component); err != nil {
			return nil, err
		}
	}
	a.streams[name] = stream
	return stream, nil
}

// gather must be called with a.mu held.
func (a *Agent) gather(component *Component) error {
	var decrement uint32
	for _, ip := range a.ips {
		conn, err := listenUDP(ip, a.minPort, a.maxPort)
		if err != nil {
			return err
		}
		m := mux.NewMux(mux.Config{Conn: conn, BufferSize: receiveMTU, LoggerFactory: a.lf})
		a.muxes = append(a.muxes, m)
		// stun is registered first, nothing bound later can take it over
		endpoint, err := m.NewEndpoint(mux.MatchSTUN)
		if err != nil {
			return err
		}
		port := conn.LocalAddr().(*net.UDPAddr).Port
		local := &Candidate{
			Address:    NewTransportAddress(ip, port, UDP),
			Type:       CandidateHost,
			Foundation: Foundation(CandidateHost, ip, UDP),
			Priority:   Priority(CandidateHost, defaultLocalPreference-decrement, component.id),
			Generation: a.generation,
		}
		decrement += localPreferenceDecrement
		component.AddLocalCandidate(local, m)
		go a.serveStun(component, local, endpoint)
	}
	if len(component.LocalCandidates()) == 0 {
		return ErrNoLocalCandidates
	}
	return nil
}

func (a *Agent) serveStun(component *Component, local *Candidate, endpoint *mux.Endpoint) {
	buf := make([]byte, receiveMTU)
	for {
		n, addr, err := endpoint.ReadFrom(buf)
		if err != nil {
			logger.Debug("stun endpoint closed:", local.Address, err)
			return
		}
		a.handleStun(buf[:n], addr, component, local, endpoint)
	}
}

func (a *Agent) handleStun(data []byte, addr net.Addr, component *Component, local *Candidate, endpoint *mux.Endpoint) {
	var (
		err      error
		response *stun.Message
	)

	m := stun.New()
	if err = stun.Decode(data, m); err != nil {
		logger.Error("Decode stun message fail:", err, " drop it")
		return
	}
	if m.Type.Class == stun.ClassSuccessResponse || m.Type.Class == stun.ClassErrorResponse {
		// we never send requests, nothing to match a response with
		logger.Debug("ignore stun response from", addr)
		return
	}

	b, code := parseBinding(m)
	if code == 0 {
		code = b.authenticate(a.ufrag, a.password)
	}
	if code != 0 {
		logger.Warn("validate stun fail:", code, addr)
		response, err = errorResponse(m, code)
	} else {
		response, err = b.success(addr, a.password)
	}
	if err != nil {
		logger.Error("create stun response fail:", err)
		return
	}
	if _, err = endpoint.WriteTo(response.Raw, addr); err != nil {
		logger.Warnf("Send stun response to %v fail: %v", addr, err)
		return
	}
	if code == 0 {
		a.onBindingSuccess(component, local, addr, b.priority, b.useCandidate)
	}
}

// onBindingSuccess learns a peer reflexive candidate when needed and selects the pair,
// the first answered pair is used until the remote nominates one.
func (a *Agent) onBindingSuccess(component *Component, local *Candidate, addr net.Addr, priority uint32, useCandidate bool) {
	ta, err := TransportAddressFrom(addr)
	if err != nil {
		logger.Warn("binding from non udp address:", err)
		return
	}
	remote := component.FindRemoteCandidate(ta)
	if remote == nil {
		remote = &Candidate{
			Address:    ta,
			Type:       CandidatePeerReflexive,
			Foundation: Foundation(CandidatePeerReflexive, ta.IP, UDP),
			Priority:   priority,
			Generation: a.generation,
		}
		component.AddRemoteCandidate(remote)
	}

	if component.SelectedPair() == nil || useCandidate {
		if _, err = component.SetSelectedPair(local, remote); err != nil {
			logger.Error("select pair fail:", err)
			return
		}
	}

	switch a.State() {
	case ConnectionNew:
		if useCandidate {
			a.setState(ConnectionCompleted)
		} else {
			a.setState(ConnectionConnected)
		}
		a.once.Do(func() { close(a.connected) })
	case ConnectionConnected:
		if useCandidate {
			a.setState(ConnectionCompleted)
		}
	}
}

func (a *Agent) State() ConnectionState {
	return ConnectionState(atomic.LoadInt32(&a.state))
}

func (a *Agent) setState(state ConnectionState) {
	old := ConnectionState(atomic.SwapInt32(&a.state, int32(state)))
	if old != state && a.onState != nil {
		a.onState(state)
	}
}

// WaitConnected blocks until a pair answered, the agent failed or ctx is done.
func (a *Agent) WaitConnected(ctx context.Context) error {
	select {
	case <-a.connected:
		return nil
	case <-a.done:
		return ErrAgentClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// start fails the agent if nothing connects within failTimeout.
func (a *Agent) start() {
	go func() {
		timer := time.NewTimer(a.failTimeout)
		defer timer.Stop()
		select {
		case <-a.connected:
		case <-a.done:
		case <-timer.C:
			if a.State() == ConnectionNew {
				logger.Warnf("ICE failed after %v", a.failTimeout)
				a.setState(ConnectionFailed)
				a.Close()
			}
		}
	}()
}

// Close releases every socket, streams keep their candidates for inspection.
func (a *Agent) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	muxes := a.muxes
	a.muxes = nil
	a.mu.Unlock()

	close(a.done)
	for _, m := range muxes {
		_ = m.Close()
	}
	if a.State() != ConnectionFailed {
		a.setState(ConnectionDisconnected)
	}
}
