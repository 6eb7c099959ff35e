package hammer

import (
	"fmt"
	"sort"

	"github.com/gotolive/hammer/rtc/ice"
	"github.com/gotolive/hammer/rtc/logger"
	"github.com/gotolive/hammer/rtc/media"
	"github.com/gotolive/hammer/rtc/mux"
)

// DemuxPolicy decides the filter of every stream sharing the selected socket.
// The first stream that gets an endpoint uses First, all later ones use Rest.
// When Feedback is set that stream also gets a second endpoint with it.
// The agent registered its stun endpoint before, so it always wins.
type DemuxPolicy struct {
	Name     string
	First    mux.MatchFunc
	Rest     mux.MatchFunc
	Feedback mux.MatchFunc
}

var (
	// FirstRegistrantDTLS hands dtls to the first stream and gives the others
	// a socket that never reads anything. Those streams only send.
	FirstRegistrantDTLS = DemuxPolicy{
		Name:  "first-registrant-dtls",
		First: mux.MatchDTLS,
		Rest:  mux.RejectAll,
	}
	// FirstRegistrantDTLSAndMedia also delivers srtp and srtcp to the feedback
	// endpoint of the first stream.
	FirstRegistrantDTLSAndMedia = DemuxPolicy{
		Name:     "first-registrant-dtls-and-media",
		First:    mux.MatchDTLS,
		Rest:     mux.RejectAll,
		Feedback: mux.MatchSRTPOrSRTCP,
	}
)

// ParseDemuxPolicy looks a policy up by name, an empty name is FirstRegistrantDTLS.
func ParseDemuxPolicy(name string) (DemuxPolicy, error) {
	switch name {
	case "", FirstRegistrantDTLS.Name:
		return FirstRegistrantDTLS, nil
	case FirstRegistrantDTLSAndMedia.Name:
		return FirstRegistrantDTLSAndMedia, nil
	}
	return DemuxPolicy{}, fmt.Errorf("%w: %s", ErrUnknownPolicy, name)
}

func (p DemuxPolicy) filter(index int) mux.MatchFunc {
	if index == 0 {
		return p.First
	}
	return p.Rest
}

type BindOptions struct {
	// Policy defaults to FirstRegistrantDTLS.
	Policy DemuxPolicy
}

// BindResult is the outcome for one stream, a failed stream keeps Err and stays unbound.
type BindResult struct {
	Connector *media.Connector
	Target    *media.Target
	// Handshake is set on the stream whose endpoint receives dtls.
	Handshake bool
	Err       error
}

func (r BindResult) Bound() bool {
	return r.Err == nil && r.Connector != nil
}

// BindConnectors shares the socket of the selected rtp pair between streams.
// Streams are bound in name order with one endpoint each, all of them target
// the selected remote for rtp and rtcp. Without a selected pair it returns
// ErrNoSelectedPair and binds nothing. An endpoint failure only affects its
// own stream and shows up in the returned results.
func BindConnectors(agent Agent, streams map[string]*media.MediaStream, opts BindOptions) (map[string]BindResult, error) {
	stream := agent.Stream(StreamName)
	if stream == nil {
		return nil, ErrStreamNotFound
	}
	component := stream.Component(ice.ComponentRTP)
	if component == nil {
		return nil, ErrNoSelectedPair
	}
	pair := component.SelectedPair()
	if pair == nil || pair.Socket() == nil {
		return nil, ErrNoSelectedPair
	}
	remote := pair.Remote.Address.UDPAddr()
	if remote == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRemote, pair.Remote.Address)
	}
	socket := pair.Socket()

	policy := opts.Policy
	if policy.First == nil || policy.Rest == nil {
		policy = FirstRegistrantDTLS
	}

	names := make([]string, 0, len(streams))
	for name := range streams {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]BindResult, len(names))
	var bound int
	for _, name := range names {
		ms := streams[name]
		if ms == nil {
			logger.Warn("no media stream for", name)
			continue
		}
		endpoint, err := socket.NewEndpoint(policy.filter(bound))
		if err != nil {
			logger.Error("create connector for", name, "fail:", err)
			results[name] = BindResult{Err: fmt.Errorf("%w: %s: %v", ErrBindFailed, name, err)}
			continue
		}
		connector := &media.Connector{Data: endpoint, Control: nil, OwnsSockets: true}
		if bound == 0 && policy.Feedback != nil {
			if connector.Feedback, err = socket.NewEndpoint(policy.Feedback); err != nil {
				logger.Warn("create feedback endpoint for", name, "fail:", err)
			}
		}
		target := &media.Target{Data: remote, Control: remote}
		logger.Infof("bind stream %s to %s with %s, target %s", name, socket.LocalAddr(), policy.Name, remote)
		ms.SetConnector(connector)
		ms.SetTarget(target)
		results[name] = BindResult{Connector: connector, Target: target, Handshake: bound == 0}
		bound++
	}
	return results, nil
}
