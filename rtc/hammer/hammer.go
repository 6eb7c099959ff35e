// Package hammer negotiates the transport of a load testing client against a
// media relay.
//
// The functions here are ordered phases over an ice agent and a dtls engine:
// remote candidates and fingerprints are merged in, the connected socket is
// bound to the media streams, and the local transport, fingerprint and source
// metadata are written into the outgoing contents. They run on the signaling
// goroutine of one session and never overlap.
package hammer

import (
	"errors"

	"github.com/google/uuid"
	"github.com/gotolive/hammer/rtc/ice"
	"github.com/gotolive/hammer/rtc/jingle"
	"github.com/gotolive/hammer/rtc/media"
)

// StreamName is the single bundled ice stream every content shares.
const StreamName = "stream"

// DefaultCNAME is shared by all streams of the process.
var DefaultCNAME = uuid.NewString()

var (
	ErrStreamNotFound = errors.New("ice stream not found")               // ErrStreamNotFound will raise if the agent has no stream named StreamName.
	ErrNoSelectedPair = errors.New("no selected candidate pair")         // ErrNoSelectedPair will raise if binding runs before checks selected a pair.
	ErrBindFailed     = errors.New("create stream connector fail")       // ErrBindFailed wraps the endpoint error of one stream.
	ErrInvalidRemote  = errors.New("selected remote address is invalid") // ErrInvalidRemote will raise if the selected remote has no usable address.
	ErrUnknownPolicy  = errors.New("unknown demux policy")               // ErrUnknownPolicy will raise if a policy name is not registered.
)

// Agent is the part of the ice agent the negotiation reads and writes.
type Agent interface {
	Stream(name string) *ice.Stream
	Generation() int
	LocalUfrag() string
	LocalPassword() string
}

// HandshakeEngine is the dtls side, *dtls.Transport implements it.
type HandshakeEngine interface {
	media.Engine
	SetRemoteFingerprints(fingerprints map[string]string)
	SetSetup(setup jingle.Setup)
	LocalFingerprint() string
	LocalFingerprintHashFunction() string
}

// IDSource mints the opaque stream and track labels.
type IDSource interface {
	NewID() string
}

// UUIDSource is the default IDSource.
type UUIDSource struct{}

func (UUIDSource) NewID() string {
	return uuid.NewString()
}

var (
	_ Agent    = (*ice.Agent)(nil)
	_ IDSource = UUIDSource{}
)
