package ice

import (
	"sort"
	"sync"
)

// Stream is a named ice media stream, a bundled session uses exactly one.
type Stream struct {
	name  string
	agent *Agent

	mu             sync.RWMutex
	components     map[int]*Component
	remoteUfrag    string
	remotePassword string
}

func newStream(name string, agent *Agent) *Stream {
	return &Stream{
		name:       name,
		agent:      agent,
		components: map[int]*Component{},
	}
}

func (s *Stream) Name() string {
	return s.name
}

func (s *Stream) addComponent(id int) (*Component, error) {
	if id < 1 || id > 256 {
		return nil, ErrInvalidComponent
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.components[id]; ok {
		return c, nil
	}
	c := newComponent(id, s)
	s.components[id] = c
	return c, nil
}

// Component returns nil for an unknown id.
func (s *Stream) Component(id int) *Component {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.components[id]
}

// Components sorted by id.
func (s *Stream) Components() []*Component {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*Component, 0, len(s.components))
	for _, c := range s.components {
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].id < res[j].id
	})
	return res
}

func (s *Stream) SetRemoteUfrag(ufrag string) {
	s.mu.Lock()
	s.remoteUfrag = ufrag
	s.mu.Unlock()
}

func (s *Stream) SetRemotePassword(password string) {
	s.mu.Lock()
	s.remotePassword = password
	s.mu.Unlock()
}

func (s *Stream) RemoteUfrag() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remoteUfrag
}

func (s *Stream) RemotePassword() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remotePassword
}
