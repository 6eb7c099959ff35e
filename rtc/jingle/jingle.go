// Package jingle holds the signaling payload objects exchanged with the relay:
// contents, ice-udp transports, dtls fingerprints and rtp descriptions.
//
// Only the element shapes are modeled here, carrying them over XMPP is
// somebody else's job.
package jingle

import (
	"encoding/xml"
)

const (
	NamespaceJingle     = "urn:xmpp:jingle:1"
	NamespaceIceUDP     = "urn:xmpp:jingle:transports:ice-udp:1"
	NamespaceDtls       = "urn:xmpp:jingle:apps:dtls:0"
	NamespaceRTP        = "urn:xmpp:jingle:apps:rtp:1"
	NamespaceSSMA       = "urn:xmpp:jingle:apps:rtp:ssma:0"
	NamespaceRTPHdrExt  = "urn:xmpp:jingle:apps:rtp:rtp-hdrext:0"
	NamespaceLegacySSRC = "http://estos.de/ns/ssrc"
)

const (
	ActionSessionInitiate  = "session-initiate"
	ActionSessionAccept    = "session-accept"
	ActionTransportInfo    = "transport-info"
	ActionSessionTerminate = "session-terminate"
)

// Creator of a content, initiator or responder of the session.
type Creator string

const (
	CreatorInitiator Creator = "initiator"
	CreatorResponder Creator = "responder"
)

// Senders is the direction of a content.
type Senders string

const (
	SendersBoth      Senders = "both"
	SendersInitiator Senders = "initiator"
	SendersResponder Senders = "responder"
	SendersNone      Senders = "none"
)

// Jingle is the session level envelope.
type Jingle struct {
	XMLName   xml.Name   `xml:"urn:xmpp:jingle:1 jingle"`
	Action    string     `xml:"action,attr"`
	SID       string     `xml:"sid,attr"`
	Initiator string     `xml:"initiator,attr,omitempty"`
	Responder string     `xml:"responder,attr,omitempty"`
	Contents  []*Content `xml:"content"`
}

// Content is one negotiation unit, keyed by Name across every lookup.
type Content struct {
	Creator     Creator      `xml:"creator,attr,omitempty"`
	Name        string       `xml:"name,attr"`
	Senders     Senders      `xml:"senders,attr,omitempty"`
	Description *Description `xml:"urn:xmpp:jingle:apps:rtp:1 description,omitempty"`
	Transport   *Transport   `xml:"urn:xmpp:jingle:transports:ice-udp:1 transport,omitempty"`
}

// Transport is an ice-udp transport with its candidates and dtls fingerprints.
type Transport struct {
	Ufrag        string         `xml:"ufrag,attr,omitempty"`
	Pwd          string         `xml:"pwd,attr,omitempty"`
	Fingerprints []*Fingerprint `xml:"urn:xmpp:jingle:apps:dtls:0 fingerprint"`
	Candidates   []*Candidate   `xml:"candidate"`
}

func (t *Transport) AddCandidate(c *Candidate) {
	t.Candidates = append(t.Candidates, c)
}

func (t *Transport) AddFingerprint(f *Fingerprint) {
	t.Fingerprints = append(t.Fingerprints, f)
}

// Fingerprint of a dtls certificate, Setup is optional.
type Fingerprint struct {
	Hash  string `xml:"hash,attr"`
	Setup string `xml:"setup,attr,omitempty"`
	Value string `xml:",chardata"`
}

// Role returns the setup attribute, ok is false when the attribute is absent
// or not one of the known roles.
func (f *Fingerprint) Role() (Setup, bool) {
	setup := ParseSetup(f.Setup)
	return setup, setup != SetupNone
}

// Description is the rtp application description of a content.
type Description struct {
	Media        string          `xml:"media,attr"`
	SSRC         string          `xml:"ssrc,attr,omitempty"`
	PayloadTypes []*PayloadType  `xml:"payload-type"`
	HdrExts      []*RTPHdrExt    `xml:"urn:xmpp:jingle:apps:rtp:rtp-hdrext:0 rtp-hdrext"`
	Sources      []*Source       `xml:"urn:xmpp:jingle:apps:rtp:ssma:0 source"`
	LegacySSRCs  []*LegacySource `xml:"http://estos.de/ns/ssrc ssrc"`
}

type PayloadType struct {
	ID         uint8        `xml:"id,attr"`
	Name       string       `xml:"name,attr,omitempty"`
	ClockRate  uint32       `xml:"clockrate,attr,omitempty"`
	Channels   uint16       `xml:"channels,attr,omitempty"`
	Parameters []*Parameter `xml:"parameter"`
}

type RTPHdrExt struct {
	ID  uint8  `xml:"id,attr"`
	URI string `xml:"uri,attr"`
}

type Parameter struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// Source describes one synchronization source (XEP-0339).
type Source struct {
	SSRC       string       `xml:"ssrc,attr"`
	Parameters []*Parameter `xml:"parameter"`
}

// Parameter returns the value of the named parameter, empty if missing.
func (s *Source) Parameter(name string) string {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

// LegacySource is the pre XEP-0339 ssrc element, kept for older relays.
type LegacySource struct {
	Cname   string `xml:"cname,attr,omitempty"`
	Msid    string `xml:"msid,attr,omitempty"`
	Mslabel string `xml:"mslabel,attr,omitempty"`
	Label   string `xml:"label,attr,omitempty"`
	SSRC    string `xml:",chardata"`
}

// ContentMap indexes contents by name, later duplicates win.
func ContentMap(contents []*Content) map[string]*Content {
	m := make(map[string]*Content, len(contents))
	for _, c := range contents {
		m[c.Name] = c
	}
	return m
}
