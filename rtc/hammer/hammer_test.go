package hammer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/gotolive/hammer/rtc/ice"
	"github.com/gotolive/hammer/rtc/jingle"
	"github.com/gotolive/hammer/rtc/logger"
	"github.com/gotolive/hammer/rtc/mux"
)

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

// fakeEngine records what the negotiation committed.
type fakeEngine struct {
	fingerprints map[string]string
	setup        jingle.Setup
	committed    int
	started      net.Conn
}

func (f *fakeEngine) Start(_ context.Context, conn net.Conn) error {
	f.started = conn
	return nil
}

func (f *fakeEngine) SetRemoteFingerprints(fingerprints map[string]string) {
	f.fingerprints = fingerprints
	f.committed++
}

func (f *fakeEngine) SetSetup(setup jingle.Setup) {
	f.setup = setup
}

func (f *fakeEngine) LocalFingerprint() string {
	return "AB:CD:EF"
}

func (f *fakeEngine) LocalFingerprintHashFunction() string {
	return "sha-256"
}

// seqIDs mints id-1, id-2 and so on.
type seqIDs struct {
	n int
}

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

func newTestAgent(t *testing.T, generation int, componentIDs ...int) (*ice.Agent, *ice.Stream) {
	agent, err := ice.NewAgent(ice.Option{
		IPs:           []string{"127.0.0.1"},
		Generation:    generation,
		FailTimeout:   time.Minute,
		LoggerFactory: logger.NewLoggerFactory(logger.LevelError),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(agent.Close)
	stream, err := agent.CreateStream(StreamName, componentIDs...)
	if err != nil {
		t.Fatal(err)
	}
	return agent, stream
}

// emptyAgent has no stream at all.
func emptyAgent(t *testing.T) *ice.Agent {
	agent, err := ice.NewAgent(ice.Option{
		IPs:           []string{"127.0.0.1"},
		FailTimeout:   time.Minute,
		LoggerFactory: logger.NewLoggerFactory(logger.LevelError),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(agent.Close)
	return agent
}

func hostCandidate(foundation string, priority uint32, ip string, port, generation int) *jingle.Candidate {
	return &jingle.Candidate{
		Component:  ice.ComponentRTP,
		Foundation: foundation,
		Generation: generation,
		IP:         ip,
		Port:       port,
		Priority:   priority,
		Protocol:   "udp",
		Type:       jingle.CandidateHost,
	}
}

// flakySocket fails every endpoint after the first ok ones.
type flakySocket struct {
	*mux.Mux
	ok int
}

func (f *flakySocket) NewEndpoint(match mux.MatchFunc) (*mux.Endpoint, error) {
	if f.ok == 0 {
		return nil, errors.New("socket closed")
	}
	f.ok--
	return f.Mux.NewEndpoint(match)
}
