package media

import (
	"net"

	"github.com/gotolive/hammer/rtc/mux"
)

// Connector is the local side of a bound stream. With rtcp-mux Control is nil
// and rtcp travels on Data.
type Connector struct {
	Data    *mux.Endpoint
	Control *mux.Endpoint
	// Feedback receives the srtp and srtcp the remote sends, it is only set
	// on the stream the demux policy picked.
	Feedback *mux.Endpoint
	// OwnsSockets closes the endpoints together with the stream.
	OwnsSockets bool
}

// Target is where a bound stream sends rtp and rtcp.
type Target struct {
	Data    net.Addr
	Control net.Addr
}

func (c *Connector) close() error {
	if c == nil || !c.OwnsSockets {
		return nil
	}
	var err error
	if c.Data != nil {
		err = c.Data.Close()
	}
	for _, endpoint := range []*mux.Endpoint{c.Control, c.Feedback} {
		if endpoint == nil {
			continue
		}
		if cerr := endpoint.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// rtcpPath falls back to the data path when there is no separate control one.
func rtcpPath(c *Connector, t *Target) (*mux.Endpoint, net.Addr) {
	endpoint, addr := c.Control, t.Control
	if endpoint == nil {
		endpoint = c.Data
	}
	if addr == nil {
		addr = t.Data
	}
	return endpoint, addr
}
