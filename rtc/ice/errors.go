package ice

import (
	"errors"
)

var (
	ErrUnknownIP         = errors.New("unknown ip")                  // ErrUnknownIP will raise if a given listen ip not in local interfaces.
	ErrNoAvailablePort   = errors.New("no available port")           // ErrNoAvailablePort will raise if no available port.
	ErrNoAvailableIP     = errors.New("no available ip")             // ErrNoAvailableIP will raise if no available ip.
	ErrNoUDPAddr         = errors.New("not a udp addr")              // ErrNoUDPAddr will raise if not a udp addr.
	ErrAgentClosed       = errors.New("agent has closed")            // ErrAgentClosed will raise if agent has closed.
	ErrStreamExist       = errors.New("stream already exist")        // ErrStreamExist will raise if the stream name is taken.
	ErrInvalidComponent  = errors.New("invalid component id")        // ErrInvalidComponent will raise for a component id out of 1..256.
	ErrUnknownCandidate  = errors.New("candidate not in component")  // ErrUnknownCandidate will raise if a pair references a foreign candidate.
	ErrInvalidCandidate  = errors.New("invalid candidate")           // ErrInvalidCandidate will raise for a candidate without address.
	ErrNoLocalCandidates = errors.New("no local candidate gathered") // ErrNoLocalCandidates will raise if gathering produced nothing.
)
