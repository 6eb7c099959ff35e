package rtc

import (
	"errors"
	"sync"
)

type HeaderExtensionID uint8

// one-byte header extension ids, RFC8285
const (
	HeaderExtensionIDMin HeaderExtensionID = 1
	HeaderExtensionIDMax HeaderExtensionID = 14
)

// see https://chromium.googlesource.com/external/webrtc/+/HEAD/api/rtp_parameters.h#298
const (
	HeaderExtensionTimestampOffset         = "urn:ietf:params:rtp-hdrext:toffset"
	HeaderExtensionAudioLevel              = "urn:ietf:params:rtp-hdrext:ssrc-audio-level"
	HeaderExtensionCsrcAudioLevels         = "urn:ietf:params:rtp-hdrext:csrc-audio-level"
	HeaderExtensionAbsSendTime             = "http://www.webrtc.org/experiments/rtp-hdrext/abs-send-time"
	HeaderExtensionVideoRotation           = "urn:3gpp:video-orientation"
	HeaderExtensionTransportSequenceNumber = "http://www.ietf.org/id/draft-holmer-rmcat-transport-wide-cc-extensions-01"
	HeaderExtensionRid                     = "urn:ietf:params:rtp-hdrext:sdes:rtp-stream-id"
	HeaderExtensionMid                     = "urn:ietf:params:rtp-hdrext:sdes:mid"
)

var ErrNoHeaderExtensionID = errors.New("no header extension id left")

type HeaderExtension struct {
	URI string
	ID  HeaderExtensionID
}

// HeaderExtensionRegistry maps extension uris to ids, reusing the ids the remote offered.
type HeaderExtensionRegistry struct {
	mu    sync.Mutex
	byURI map[string]HeaderExtensionID
	taken map[HeaderExtensionID]bool
}

func NewHeaderExtensionRegistry() *HeaderExtensionRegistry {
	return &HeaderExtensionRegistry{
		byURI: map[string]HeaderExtensionID{},
		taken: map[HeaderExtensionID]bool{},
	}
}

// Learn records the id the remote uses for an extension.
func (r *HeaderExtensionRegistry) Learn(ext HeaderExtension) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byURI[ext.URI] = ext.ID
	r.taken[ext.ID] = true
}

// Mapping returns the id of uri, allocating the lowest free one when unknown.
func (r *HeaderExtensionRegistry) Mapping(uri string) (HeaderExtensionID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byURI[uri]; ok {
		return id, nil
	}
	for id := HeaderExtensionIDMin; id <= HeaderExtensionIDMax; id++ {
		if !r.taken[id] {
			r.taken[id] = true
			r.byURI[uri] = id
			return id, nil
		}
	}
	return 0, ErrNoHeaderExtensionID
}
