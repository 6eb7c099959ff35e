package mux

import (
	"github.com/pion/stun"
)

// MatchFunc decides whether a datagram belongs to an endpoint.
type MatchFunc func([]byte) bool

// MatchRange accepts packets whose first byte is in [lower..upper].
func MatchRange(lower, upper byte) MatchFunc {
	return func(buf []byte) bool {
		if len(buf) < 1 {
			return false
		}
		b := buf[0]
		return b >= lower && b <= upper
	}
}

// MatchAny accepts what any of fs accepts.
func MatchAny(fs ...MatchFunc) MatchFunc {
	return func(buf []byte) bool {
		for _, f := range fs {
			if f(buf) {
				return true
			}
		}
		return false
	}
}

// RejectAll never matches, an endpoint registered with it only exists for bookkeeping.
func RejectAll([]byte) bool {
	return false
}

// MatchSTUN accepts stun messages, first byte in [0..3] as RFC7983 says.
func MatchSTUN(buf []byte) bool {
	return MatchRange(0, 3)(buf) && stun.IsMessage(buf)
}

// MatchDTLS accepts records long enough for a dtls header with a content type in [20..63].
func MatchDTLS(buf []byte) bool {
	return len(buf) > 13 && (buf[0] > 19 && buf[0] < 64)
}

// MatchSRTPOrSRTCP is a MatchFunc that accepts packets with the first byte in [128..191]
// as defied in RFC7983.
func MatchSRTPOrSRTCP(buf []byte) bool {
	return MatchRange(128, 191)(buf)
}

func isRTCP(buf []byte) bool {
	// Not long enough to determine RTP/RTCP
	if len(buf) < 4 {
		return false
	}
	return buf[1] >= 192 && buf[1] <= 223
}

// MatchSRTP is a MatchFunc that only matches SRTP and not SRTCP.
func MatchSRTP(buf []byte) bool {
	return MatchSRTPOrSRTCP(buf) && !isRTCP(buf)
}

// MatchSRTCP is a MatchFunc that only matches SRTCP and not SRTP.
func MatchSRTCP(buf []byte) bool {
	return MatchSRTPOrSRTCP(buf) && isRTCP(buf)
}
