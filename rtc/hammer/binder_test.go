package hammer

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/gotolive/hammer/rtc"
	"github.com/gotolive/hammer/rtc/ice"
	"github.com/gotolive/hammer/rtc/logger"
	"github.com/gotolive/hammer/rtc/media"
	"github.com/gotolive/hammer/rtc/mux"
)

var (
	dtlsPacket = append([]byte{22, 0xfe, 0xfd}, make([]byte, 20)...)
	rtpPacket  = append([]byte{0x80, 111, 0, 1}, make([]byte, 16)...)
)

// selectPair nominates the first local candidate with a peer socket and returns that socket.
func selectPair(t *testing.T, stream *ice.Stream) (net.PacketConn, *ice.CandidatePair) {
	peer, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = peer.Close() })
	component := stream.Component(ice.ComponentRTP)
	remote, _ := ice.TransportAddressFrom(peer.LocalAddr())
	pair, err := component.SetSelectedPair(component.LocalCandidates()[0], &ice.Candidate{Address: remote, Type: ice.CandidateHost})
	if err != nil {
		t.Fatal(err)
	}
	return peer, pair
}

// lateSocket fails the first fail endpoints.
type lateSocket struct {
	*mux.Mux
	fail int
}

func (l *lateSocket) NewEndpoint(match mux.MatchFunc) (*mux.Endpoint, error) {
	if l.fail > 0 {
		l.fail--
		return nil, errors.New("socket busy")
	}
	return l.Mux.NewEndpoint(match)
}

func testStreams() map[string]*media.MediaStream {
	return map[string]*media.MediaStream{
		rtc.MediaTypeVideo: media.NewMediaStream(rtc.MediaTypeVideo, 2, nil),
		rtc.MediaTypeAudio: media.NewMediaStream(rtc.MediaTypeAudio, 1, nil),
	}
}

func readWithin(e *mux.Endpoint, d time.Duration) ([]byte, error) {
	_ = e.SetReadDeadline(time.Now().Add(d))
	buf := make([]byte, 1500)
	n, _, err := e.ReadFrom(buf)
	return buf[:n], err
}

func TestBindConnectors(t *testing.T) {
	tests := []testHelper{
		{
			name:        "no_selected_pair",
			description: "binding before checks converged is a precondition error",
			method: func(t *testing.T) {
				agent, _ := newTestAgent(t, 0)
				streams := testStreams()
				_, err := BindConnectors(agent, streams, BindOptions{})
				assert(t, err, ErrNoSelectedPair)
				assert(t, streams[rtc.MediaTypeAudio].Connector() == nil, true)

				_, err = BindConnectors(emptyAgent(t), streams, BindOptions{})
				assert(t, err, ErrStreamNotFound)
			},
		},
		{
			name:        "first_registrant_dtls",
			description: "streams bind in name order, the first gets dtls and the rest read nothing",
			method: func(t *testing.T) {
				agent, stream := newTestAgent(t, 0)
				peer, pair := selectPair(t, stream)
				streams := testStreams()
				results, err := BindConnectors(agent, streams, BindOptions{})
				assert(t, err, nil)
				assert(t, len(results), 2)

				audio, video := results[rtc.MediaTypeAudio], results[rtc.MediaTypeVideo]
				assert(t, audio.Bound(), true)
				assert(t, audio.Handshake, true)
				assert(t, video.Bound(), true)
				assert(t, video.Handshake, false)
				assert(t, audio.Connector.Control == nil, true)
				assert(t, audio.Connector.OwnsSockets, true)
				assert(t, audio.Target.Data, pair.Remote.Address.UDPAddr())
				assert(t, audio.Target.Control, audio.Target.Data)
				assert(t, streams[rtc.MediaTypeAudio].Connector(), audio.Connector)
				assert(t, streams[rtc.MediaTypeVideo].Target(), video.Target)

				local := pair.Local.Address.UDPAddr()
				_, _ = peer.WriteTo(rtpPacket, local)
				_, _ = peer.WriteTo(dtlsPacket, local)
				got, err := readWithin(audio.Connector.Data, time.Second)
				assert(t, err, nil)
				assert(t, got, dtlsPacket)
				_, err = readWithin(video.Connector.Data, 100*time.Millisecond)
				assert(t, err != nil, true)
			},
		},
		{
			name:        "first_registrant_dtls_and_media",
			description: "the alternative policy gives the first stream a feedback endpoint for srtp and srtcp",
			method: func(t *testing.T) {
				agent, stream := newTestAgent(t, 0)
				peer, pair := selectPair(t, stream)
				results, err := BindConnectors(agent, testStreams(), BindOptions{Policy: FirstRegistrantDTLSAndMedia})
				assert(t, err, nil)
				audio, video := results[rtc.MediaTypeAudio], results[rtc.MediaTypeVideo]
				assert(t, audio.Connector.Feedback != nil, true)
				assert(t, video.Connector.Feedback == nil, true)

				local := pair.Local.Address.UDPAddr()
				_, _ = peer.WriteTo(rtpPacket, local)
				_, _ = peer.WriteTo(dtlsPacket, local)
				got, err := readWithin(audio.Connector.Feedback, time.Second)
				assert(t, err, nil)
				assert(t, got, rtpPacket)
				got, err = readWithin(audio.Connector.Data, time.Second)
				assert(t, err, nil)
				assert(t, got, dtlsPacket)
				_, err = readWithin(audio.Connector.Data, 100*time.Millisecond)
				assert(t, err != nil, true)
			},
		},
		{
			name:        "partial_binding",
			description: "a failed endpoint leaves only its stream unbound",
			method: func(t *testing.T) {
				agent, stream := newTestAgent(t, 0)
				component := stream.Component(ice.ComponentRTP)
				conn, err := net.ListenPacket("udp", "127.0.0.1:0")
				if err != nil {
					t.Fatal(err)
				}
				m := mux.NewMux(mux.Config{Conn: conn, LoggerFactory: logger.NewLoggerFactory(logger.LevelError)})
				t.Cleanup(func() { _ = m.Close() })
				local := &ice.Candidate{Address: ice.NewTransportAddress("127.0.0.1", conn.LocalAddr().(*net.UDPAddr).Port, ice.UDP), Type: ice.CandidateHost}
				component.AddLocalCandidate(local, &flakySocket{Mux: m, ok: 1})
				_, err = component.SetSelectedPair(local, &ice.Candidate{Address: ice.NewTransportAddress("127.0.0.1", 9, ice.UDP)})
				assert(t, err, nil)

				streams := testStreams()
				results, err := BindConnectors(agent, streams, BindOptions{})
				assert(t, err, nil)
				assert(t, results[rtc.MediaTypeAudio].Bound(), true)
				assert(t, results[rtc.MediaTypeAudio].Handshake, true)
				video := results[rtc.MediaTypeVideo]
				assert(t, video.Bound(), false)
				assert(t, errors.Is(video.Err, ErrBindFailed), true)
				assert(t, streams[rtc.MediaTypeVideo].Connector() == nil, true)
			},
		},
		{
			name:        "feedback_endpoint_fails",
			description: "the first stream stays bound for dtls when its feedback endpoint cannot be created",
			method: func(t *testing.T) {
				agent, stream := newTestAgent(t, 0)
				component := stream.Component(ice.ComponentRTP)
				conn, err := net.ListenPacket("udp", "127.0.0.1:0")
				if err != nil {
					t.Fatal(err)
				}
				m := mux.NewMux(mux.Config{Conn: conn, LoggerFactory: logger.NewLoggerFactory(logger.LevelError)})
				t.Cleanup(func() { _ = m.Close() })
				local := &ice.Candidate{Address: ice.NewTransportAddress("127.0.0.1", 1, ice.UDP), Type: ice.CandidateHost}
				component.AddLocalCandidate(local, &flakySocket{Mux: m, ok: 1})
				_, _ = component.SetSelectedPair(local, &ice.Candidate{Address: ice.NewTransportAddress("127.0.0.1", 9, ice.UDP)})

				results, err := BindConnectors(agent, testStreams(), BindOptions{Policy: FirstRegistrantDTLSAndMedia})
				assert(t, err, nil)
				audio := results[rtc.MediaTypeAudio]
				assert(t, audio.Bound(), true)
				assert(t, audio.Handshake, true)
				assert(t, audio.Connector.Feedback == nil, true)
				assert(t, results[rtc.MediaTypeVideo].Bound(), false)
			},
		},
		{
			name:        "failed_first_moves_dtls",
			description: "the dtls filter goes to the first stream that actually got an endpoint",
			method: func(t *testing.T) {
				agent, stream := newTestAgent(t, 0)
				component := stream.Component(ice.ComponentRTP)
				conn, err := net.ListenPacket("udp", "127.0.0.1:0")
				if err != nil {
					t.Fatal(err)
				}
				m := mux.NewMux(mux.Config{Conn: conn, LoggerFactory: logger.NewLoggerFactory(logger.LevelError)})
				t.Cleanup(func() { _ = m.Close() })
				local := &ice.Candidate{Address: ice.NewTransportAddress("127.0.0.1", 1, ice.UDP), Type: ice.CandidateHost}
				component.AddLocalCandidate(local, &lateSocket{Mux: m, fail: 1})
				_, _ = component.SetSelectedPair(local, &ice.Candidate{Address: ice.NewTransportAddress("127.0.0.1", 9, ice.UDP)})

				streams := map[string]*media.MediaStream{
					"a": media.NewMediaStream(rtc.MediaTypeAudio, 1, nil),
					"b": media.NewMediaStream(rtc.MediaTypeAudio, 2, nil),
					"c": media.NewMediaStream(rtc.MediaTypeAudio, 3, nil),
				}
				results, err := BindConnectors(agent, streams, BindOptions{})
				assert(t, err, nil)
				assert(t, results["a"].Bound(), false)
				assert(t, results["b"].Handshake, true)
				assert(t, results["c"].Handshake, false)
				assert(t, results["c"].Bound(), true)
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, test.method)
	}
}

func TestDemuxPolicy(t *testing.T) {
	assert(t, FirstRegistrantDTLS.filter(0)(dtlsPacket), true)
	assert(t, FirstRegistrantDTLS.filter(0)(rtpPacket), false)
	assert(t, FirstRegistrantDTLS.filter(1)(dtlsPacket), false)
	assert(t, FirstRegistrantDTLS.Feedback == nil, true)
	assert(t, FirstRegistrantDTLSAndMedia.filter(0)(dtlsPacket), true)
	assert(t, FirstRegistrantDTLSAndMedia.filter(0)(rtpPacket), false)
	assert(t, FirstRegistrantDTLSAndMedia.filter(2)(rtpPacket), false)
	assert(t, FirstRegistrantDTLSAndMedia.Feedback(rtpPacket), true)
	assert(t, FirstRegistrantDTLSAndMedia.Feedback(dtlsPacket), false)
}

func TestParseDemuxPolicy(t *testing.T) {
	policy, err := ParseDemuxPolicy("")
	assert(t, err, nil)
	assert(t, policy.Name, FirstRegistrantDTLS.Name)
	policy, err = ParseDemuxPolicy("first-registrant-dtls-and-media")
	assert(t, err, nil)
	assert(t, policy.Name, FirstRegistrantDTLSAndMedia.Name)
	_, err = ParseDemuxPolicy("round-robin")
	assert(t, errors.Is(err, ErrUnknownPolicy), true)
}
