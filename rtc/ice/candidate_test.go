package ice

import (
	"errors"
	"net"
	"testing"

	"github.com/gotolive/hammer/rtc/mux"
)

type fakeSocket struct{}

func (fakeSocket) NewEndpoint(mux.MatchFunc) (*mux.Endpoint, error) {
	return nil, errors.New("not implemented")
}

func (fakeSocket) LocalAddr() net.Addr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 10000}
}

func TestCandidate(t *testing.T) {
	tests := []testHelper{
		{
			name:        "priority",
			description: "host rtp candidate with full local preference",
			method: func(t *testing.T) {
				assert(t, Priority(CandidateHost, defaultLocalPreference, ComponentRTP), uint32(2130706431))
				assert(t, Priority(CandidateServerReflexive, defaultLocalPreference, ComponentRTCP), uint32(1694498814))
				assert(t, Priority(CandidateRelayed, 0, ComponentRTP), uint32(255))
			},
		},
		{
			name: "parse_candidate_type",
			method: func(t *testing.T) {
				for in, expected := range map[string]CandidateType{
					"host":           CandidateHost,
					"SRFLX":          CandidateServerReflexive,
					"prflx":          CandidatePeerReflexive,
					"relay":          CandidateRelayed,
					"relayed":        CandidateRelayed,
					"peer-reflexive": CandidatePeerReflexive,
				} {
					ct, ok := ParseCandidateType(in)
					assert(t, ok, true)
					assert(t, ct, expected)
				}
				_, ok := ParseCandidateType("stun")
				assert(t, ok, false)
			},
		},
		{
			name: "foundation",
			method: func(t *testing.T) {
				a := Foundation(CandidateHost, "10.0.0.1", UDP)
				assert(t, a, Foundation(CandidateHost, "10.0.0.1", UDP))
				assert(t, a == Foundation(CandidateHost, "10.0.0.2", UDP), false)
				assert(t, a == Foundation(CandidateServerReflexive, "10.0.0.1", UDP), false)
			},
		},
		{
			name:        "transport_address_equal",
			description: "ipv4 mapped ipv6 is the same address",
			method: func(t *testing.T) {
				a := NewTransportAddress("127.0.0.1", 5000, "UDP")
				assert(t, a.Protocol, UDP)
				assert(t, a.Equal(NewTransportAddress("::ffff:127.0.0.1", 5000, UDP)), true)
				assert(t, a.Equal(NewTransportAddress("127.0.0.1", 5001, UDP)), false)
				assert(t, a.Equal(NewTransportAddress("127.0.0.1", 5000, TCP)), false)
				assert(t, a.String(), "127.0.0.1:5000/udp")
			},
		},
		{
			name: "transport_address_from",
			method: func(t *testing.T) {
				a, err := TransportAddressFrom(&net.UDPAddr{IP: net.IPv4(10, 1, 1, 1), Port: 9})
				assert(t, err, nil)
				assert(t, a, NewTransportAddress("10.1.1.1", 9, UDP))
				assert(t, a.UDPAddr().Port, 9)
				_, err = TransportAddressFrom(&net.TCPAddr{})
				assert(t, errors.Is(err, ErrNoUDPAddr), true)
				assert(t, NewTransportAddress("bad", 1, UDP).UDPAddr() == nil, true)
			},
		},
		{
			name: "related_address",
			method: func(t *testing.T) {
				base := &Candidate{Address: NewTransportAddress("10.0.0.1", 4000, UDP), Type: CandidateHost}
				srflx := &Candidate{Address: NewTransportAddress("1.2.3.4", 4000, UDP), Type: CandidateServerReflexive, Related: base}
				addr, ok := srflx.RelatedAddress()
				assert(t, ok, true)
				assert(t, addr, base.Address)
				_, ok = base.RelatedAddress()
				assert(t, ok, false)
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, test.method)
	}
}

func TestComponent(t *testing.T) {
	tests := []testHelper{
		{
			name:        "remote_candidates_dedupe",
			description: "a second candidate on the same address is dropped",
			method: func(t *testing.T) {
				c := newComponent(ComponentRTP, newStream("bundle", nil))
				first := &Candidate{Address: NewTransportAddress("10.0.0.1", 4000, UDP), Type: CandidateHost}
				assert(t, c.AddRemoteCandidate(first), true)
				assert(t, first.ComponentID, ComponentRTP)
				assert(t, c.AddRemoteCandidate(&Candidate{Address: NewTransportAddress("10.0.0.1", 4000, UDP)}), false)
				assert(t, len(c.RemoteCandidates()), 1)
				assert(t, c.FindRemoteCandidate(NewTransportAddress("10.0.0.1", 4000, UDP)), first)
				assert(t, c.FindRemoteCandidate(NewTransportAddress("10.0.0.1", 4001, UDP)) == nil, true)
			},
		},
		{
			name: "selected_pair",
			method: func(t *testing.T) {
				c := newComponent(ComponentRTP, newStream("bundle", nil))
				assert(t, c.SelectedPair() == nil, true)
				local := &Candidate{Address: NewTransportAddress("127.0.0.1", 10000, UDP), Type: CandidateHost}
				remote := &Candidate{Address: NewTransportAddress("127.0.0.1", 20000, UDP), Type: CandidateHost}
				_, err := c.SetSelectedPair(local, remote)
				assert(t, errors.Is(err, ErrUnknownCandidate), true)

				c.AddLocalCandidate(local, fakeSocket{})
				_, err = c.SetSelectedPair(local, nil)
				assert(t, err, ErrInvalidCandidate)

				pair, err := c.SetSelectedPair(local, remote)
				assert(t, err, nil)
				assert(t, pair.Local, local)
				assert(t, pair.Remote, remote)
				assert(t, pair.Socket(), Socket(fakeSocket{}))
				assert(t, c.SelectedPair(), pair)
			},
		},
		{
			name: "stream_components",
			method: func(t *testing.T) {
				s := newStream("bundle", nil)
				_, err := s.addComponent(0)
				assert(t, err, ErrInvalidComponent)
				_, err = s.addComponent(257)
				assert(t, err, ErrInvalidComponent)
				c2, _ := s.addComponent(ComponentRTCP)
				c1, _ := s.addComponent(ComponentRTP)
				again, _ := s.addComponent(ComponentRTP)
				assert(t, again, c1)
				assert(t, s.Components(), []*Component{c1, c2})
				assert(t, s.Component(3) == nil, true)
				s.SetRemoteUfrag("u")
				s.SetRemotePassword("p")
				assert(t, s.RemoteUfrag(), "u")
				assert(t, s.RemotePassword(), "p")
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, test.method)
	}
}
