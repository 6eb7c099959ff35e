package media

import (
	"errors"
)

var (
	ErrNotBound   = errors.New("stream has no connector or target") // ErrNotBound will raise if a stream writes before it was bound.
	ErrNotSending = errors.New("direction does not allow sending")   // ErrNotSending will raise if the direction excludes sending.
	ErrNoFormat   = errors.New("stream has no format")               // ErrNoFormat will raise if a stream writes before it was configured.
	ErrNoEngine   = errors.New("stream has no handshake engine")     // ErrNoEngine will raise if the handshake starts without an engine.
)
