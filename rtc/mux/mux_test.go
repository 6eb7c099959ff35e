package mux

import (
	"errors"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/pion/stun"
)

// endpointsOf returns the registered endpoints in dispatch order.
func endpointsOf(m *Mux) []*Endpoint {
	m.lock.RLock()
	defer m.lock.RUnlock()
	res := make([]*Endpoint, len(m.endpoints))
	copy(res, m.endpoints)
	return res
}

func assert(t *testing.T, actual, expected any) {
	if !reflect.DeepEqual(actual, expected) {
		t.Logf("%v expected: %v, but got: %v", t.Name(), expected, actual)
		t.FailNow()
	}
}

type testHelper struct {
	name        string
	description string
	method      func(t *testing.T)
}

var (
	dtlsPacket = append([]byte{22, 0xfe, 0xfd}, make([]byte, 20)...)
	rtpPacket  = append([]byte{0x80, 96, 0, 1}, make([]byte, 16)...)
	rtcpPacket = append([]byte{0x80, 200, 0, 6}, make([]byte, 24)...)
)

func stunPacket(t *testing.T) []byte {
	m, err := stun.Build(stun.TransactionID, stun.BindingRequest)
	if err != nil {
		t.Fatal(err)
	}
	return m.Raw
}

func TestMatchers(t *testing.T) {
	tests := []struct {
		name   string
		packet []byte
		dtls   bool
		stun   bool
		srtp   bool
		srtcp  bool
	}{
		{name: "dtls", packet: dtlsPacket, dtls: true},
		{name: "rtp", packet: rtpPacket, srtp: true},
		{name: "rtcp", packet: rtcpPacket, srtcp: true},
		{name: "short_dtls", packet: []byte{22, 0xfe, 0xfd}},
		{name: "empty", packet: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert(t, MatchDTLS(tt.packet), tt.dtls)
			assert(t, MatchSTUN(tt.packet), tt.stun)
			assert(t, MatchSRTP(tt.packet), tt.srtp)
			assert(t, MatchSRTCP(tt.packet), tt.srtcp)
			assert(t, RejectAll(tt.packet), false)
		})
	}
	t.Run("stun", func(t *testing.T) {
		p := stunPacket(t)
		assert(t, MatchSTUN(p), true)
		assert(t, MatchDTLS(p), false)
	})
	t.Run("any", func(t *testing.T) {
		f := MatchAny(MatchDTLS, MatchSRTP)
		assert(t, f(dtlsPacket), true)
		assert(t, f(rtpPacket), true)
		assert(t, f(rtcpPacket), false)
	})
}

func newTestMux(t *testing.T) (*Mux, net.PacketConn) {
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	peer, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = peer.Close() })
	return NewMux(Config{Conn: conn}), peer
}

func readWithin(e *Endpoint, d time.Duration) ([]byte, net.Addr, error) {
	_ = e.SetReadDeadline(time.Now().Add(d))
	buf := make([]byte, 1500)
	n, addr, err := e.ReadFrom(buf)
	if err != nil {
		return nil, nil, err
	}
	return buf[:n], addr, nil
}

func TestMux(t *testing.T) {
	tests := []testHelper{
		{
			name:        "dispatch_by_filter",
			description: "each packet class reaches its own endpoint with the source address",
			method: func(t *testing.T) {
				m, peer := newTestMux(t)
				defer m.Close()
				dtlsEp, _ := m.NewEndpoint(MatchDTLS)
				srtpEp, _ := m.NewEndpoint(MatchSRTP)

				_, err := peer.WriteTo(dtlsPacket, m.LocalAddr())
				assert(t, err, nil)
				_, err = peer.WriteTo(rtpPacket, m.LocalAddr())
				assert(t, err, nil)

				b, addr, err := readWithin(dtlsEp, time.Second)
				assert(t, err, nil)
				assert(t, b, dtlsPacket)
				assert(t, addr.String(), peer.LocalAddr().String())

				b, _, err = readWithin(srtpEp, time.Second)
				assert(t, err, nil)
				assert(t, b, rtpPacket)
			},
		},
		{
			name:        "first_registrant_wins",
			description: "two endpoints accepting the same packet, only the earlier one gets it",
			method: func(t *testing.T) {
				m, peer := newTestMux(t)
				defer m.Close()
				first, _ := m.NewEndpoint(MatchDTLS)
				second, _ := m.NewEndpoint(MatchDTLS)
				assert(t, endpointsOf(m), []*Endpoint{first, second})

				_, _ = peer.WriteTo(dtlsPacket, m.LocalAddr())
				b, _, err := readWithin(first, time.Second)
				assert(t, err, nil)
				assert(t, b, dtlsPacket)
				_, _, err = readWithin(second, 100*time.Millisecond)
				if err == nil {
					t.Fatal("second endpoint should not receive anything")
				}

				// once the first is gone the second takes over
				assert(t, first.Close(), nil)
				assert(t, endpointsOf(m), []*Endpoint{second})
				_, _ = peer.WriteTo(dtlsPacket, m.LocalAddr())
				b, _, err = readWithin(second, time.Second)
				assert(t, err, nil)
				assert(t, b, dtlsPacket)
			},
		},
		{
			name:        "reject_all_receives_nothing",
			description: "a bookkeeping endpoint never sees traffic",
			method: func(t *testing.T) {
				m, peer := newTestMux(t)
				defer m.Close()
				bookkeeping, _ := m.NewEndpoint(RejectAll)
				_, _ = peer.WriteTo(rtpPacket, m.LocalAddr())
				_, _ = peer.WriteTo(dtlsPacket, m.LocalAddr())
				_, _, err := readWithin(bookkeeping, 100*time.Millisecond)
				if err == nil {
					t.Fatal("reject all endpoint should not receive anything")
				}
			},
		},
		{
			name: "endpoint_write_through_socket",
			method: func(t *testing.T) {
				m, peer := newTestMux(t)
				defer m.Close()
				e, _ := m.NewEndpoint(MatchDTLS)
				conn := e.Conn(peer.LocalAddr())
				assert(t, conn.RemoteAddr(), peer.LocalAddr())
				_, err := conn.Write([]byte("hello"))
				assert(t, err, nil)
				_ = peer.SetReadDeadline(time.Now().Add(time.Second))
				buf := make([]byte, 100)
				n, addr, err := peer.ReadFrom(buf)
				assert(t, err, nil)
				assert(t, string(buf[:n]), "hello")
				assert(t, addr.String(), m.LocalAddr().String())
			},
		},
		{
			name: "closed_mux",
			method: func(t *testing.T) {
				m, _ := newTestMux(t)
				e, _ := m.NewEndpoint(MatchDTLS)
				assert(t, m.Close(), nil)
				_, err := m.NewEndpoint(MatchSRTP)
				if !errors.Is(err, ErrMuxClosed) {
					t.FailNow()
				}
				_, _, err = e.ReadFrom(make([]byte, 10))
				if !errors.Is(err, ErrEndpointClosed) {
					t.Fatalf("expected ErrEndpointClosed, got %v", err)
				}
				// closing twice is fine
				assert(t, m.Close(), nil)
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.method(t)
		})
	}
}
