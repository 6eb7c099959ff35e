package ice

import (
	"fmt"
	"net"
	"sync"

	"github.com/gotolive/hammer/rtc/mux"
)

// Socket is what a selected pair hands out to bind media on.
// *mux.Mux implements it.
type Socket interface {
	NewEndpoint(f mux.MatchFunc) (*mux.Endpoint, error)
	LocalAddr() net.Addr
}

// Component is a sub channel of a stream, with rtcp-mux there is only ComponentRTP.
type Component struct {
	id     int
	stream *Stream

	mu       sync.Mutex
	local    []*Candidate
	sockets  map[*Candidate]Socket
	remote   []*Candidate
	selected *CandidatePair
}

func newComponent(id int, stream *Stream) *Component {
	return &Component{
		id:      id,
		stream:  stream,
		sockets: map[*Candidate]Socket{},
	}
}

func (c *Component) ID() int {
	return c.id
}

func (c *Component) Stream() *Stream {
	return c.stream
}

// AddLocalCandidate registers a gathered candidate and the socket it lives on.
func (c *Component) AddLocalCandidate(candidate *Candidate, socket Socket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	candidate.ComponentID = c.id
	c.local = append(c.local, candidate)
	c.sockets[candidate] = socket
}

// LocalCandidates returns a copy in gathering order, which is priority order.
func (c *Component) LocalCandidates() []*Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]*Candidate, len(c.local))
	copy(res, c.local)
	return res
}

// AddRemoteCandidate adds candidate unless one with the same address is known,
// it reports whether the candidate was added.
func (c *Component) AddRemoteCandidate(candidate *Candidate) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.findRemoteLocked(candidate.Address) != nil {
		return false
	}
	candidate.ComponentID = c.id
	c.remote = append(c.remote, candidate)
	return true
}

func (c *Component) RemoteCandidates() []*Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]*Candidate, len(c.remote))
	copy(res, c.remote)
	return res
}

// FindRemoteCandidate returns the remote candidate at addr, or nil.
func (c *Component) FindRemoteCandidate(addr TransportAddress) *Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findRemoteLocked(addr)
}

func (c *Component) findRemoteLocked(addr TransportAddress) *Candidate {
	for _, r := range c.remote {
		if r.Address.Equal(addr) {
			return r
		}
	}
	return nil
}

// SelectedPair is nil until checks nominated a pair.
func (c *Component) SelectedPair() *CandidatePair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// SetSelectedPair nominates local and remote, local must have been gathered here.
func (c *Component) SetSelectedPair(local, remote *Candidate) (*CandidatePair, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	socket, ok := c.sockets[local]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCandidate, local)
	}
	if remote == nil {
		return nil, ErrInvalidCandidate
	}
	c.selected = &CandidatePair{Local: local, Remote: remote, socket: socket}
	return c.selected, nil
}

func (c *Component) socketOf(local *Candidate) Socket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sockets[local]
}
