package media

import (
	"errors"

	"github.com/gotolive/hammer/rtc/logger"
	"github.com/gotolive/hammer/rtc/mux"
	"github.com/pion/rtcp"
)

const receiveMTU = 1500

// Unprotector decrypts what the remote sends, *dtls.SrtpSession implements it.
type Unprotector interface {
	DecryptSrtp(dst, data []byte) ([]byte, error)
	DecryptSrtcp(dst, data []byte) ([]byte, error)
}

// ServeFeedback reads endpoint until it is closed. Nacks in incoming rtcp are
// answered by the stream with the nacked ssrc, incoming rtp is only
// authenticated. A nil unprotector reads plain rtp and rtcp.
func ServeFeedback(endpoint *mux.Endpoint, unprotector Unprotector, streams []*MediaStream) error {
	buf := make([]byte, receiveMTU)
	for {
		n, _, err := endpoint.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, mux.ErrEndpointClosed) {
				return nil
			}
			return err
		}
		packet := buf[:n]
		switch {
		case mux.MatchSRTCP(packet):
			if unprotector != nil {
				if packet, err = unprotector.DecryptSrtcp(nil, packet); err != nil {
					logger.Debug("decrypt srtcp fail:", err)
					continue
				}
			}
			handleRTCP(packet, streams)
		case mux.MatchSRTP(packet):
			if unprotector != nil {
				if _, err = unprotector.DecryptSrtp(nil, packet); err != nil {
					logger.Debug("decrypt srtp fail:", err)
				}
			}
		}
	}
}

func handleRTCP(raw []byte, streams []*MediaStream) {
	packets, err := rtcp.Unmarshal(raw)
	if err != nil {
		logger.Debug("unmarshal rtcp fail:", err)
		return
	}
	for _, packet := range packets {
		nack, ok := packet.(*rtcp.TransportLayerNack)
		if !ok {
			continue
		}
		for _, s := range streams {
			if s.SSRC() == nack.MediaSSRC {
				s.HandleNack(nack)
			}
		}
	}
}
