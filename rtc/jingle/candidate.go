package jingle

import (
	"sort"
	"strings"
)

// CandidateType as carried on the wire.
type CandidateType string

const (
	CandidateHost  CandidateType = "host"
	CandidateSrflx CandidateType = "srflx"
	CandidatePrflx CandidateType = "prflx"
	CandidateRelay CandidateType = "relay"
)

// Candidate is an ice-udp candidate element.
type Candidate struct {
	Component  int           `xml:"component,attr"`
	Foundation string        `xml:"foundation,attr"`
	Generation int           `xml:"generation,attr"`
	ID         string        `xml:"id,attr,omitempty"`
	IP         string        `xml:"ip,attr"`
	Network    int           `xml:"network,attr"`
	Port       int           `xml:"port,attr"`
	Priority   uint32        `xml:"priority,attr"`
	Protocol   string        `xml:"protocol,attr"`
	RelAddr    string        `xml:"rel-addr,attr,omitempty"`
	RelPort    int           `xml:"rel-port,attr,omitempty"`
	Type       CandidateType `xml:"type,attr"`
}

// HasRelated reports whether the candidate declares a usable related address.
func (c *Candidate) HasRelated() bool {
	return c.RelAddr != "" && c.RelPort > 0
}

// Less is the natural ordering: higher priority first, then
// foundation, component, ip and port so equal priorities stay deterministic.
func (c *Candidate) Less(o *Candidate) bool {
	if c.Priority != o.Priority {
		return c.Priority > o.Priority
	}
	if c.Foundation != o.Foundation {
		return c.Foundation < o.Foundation
	}
	if c.Component != o.Component {
		return c.Component < o.Component
	}
	if c.IP != o.IP {
		return c.IP < o.IP
	}
	return c.Port < o.Port
}

// SortCandidates returns a sorted copy, the transport keeps its wire order.
func SortCandidates(candidates []*Candidate) []*Candidate {
	sorted := make([]*Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Less(sorted[j])
	})
	return sorted
}

// NormalizedProtocol lower cases the protocol, relays are not consistent about it.
func (c *Candidate) NormalizedProtocol() string {
	return strings.ToLower(c.Protocol)
}
