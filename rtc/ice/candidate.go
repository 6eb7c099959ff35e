package ice

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

const (
	UDP = "udp"
	TCP = "tcp"

	ComponentRTP  = 1
	ComponentRTCP = 2

	defaultLocalPreference = 65535
)

// CandidateType is the origin of a candidate, RFC8445 5.1.1.
type CandidateType string

const (
	CandidateHost            CandidateType = "host"
	CandidateServerReflexive CandidateType = "srflx"
	CandidatePeerReflexive   CandidateType = "prflx"
	CandidateRelayed         CandidateType = "relay"
)

// ParseCandidateType accepts both the short wire names and the long forms.
func ParseCandidateType(s string) (CandidateType, bool) {
	switch strings.ToLower(s) {
	case "host":
		return CandidateHost, true
	case "srflx", "server-reflexive", "server_reflexive_candidate":
		return CandidateServerReflexive, true
	case "prflx", "peer-reflexive", "peer_reflexive_candidate":
		return CandidatePeerReflexive, true
	case "relay", "relayed", "relayed_candidate":
		return CandidateRelayed, true
	}
	return "", false
}

// Preference is the type preference of RFC8445 5.1.2.2.
func (t CandidateType) Preference() uint32 {
	switch t {
	case CandidateHost:
		return 126
	case CandidatePeerReflexive:
		return 110
	case CandidateServerReflexive:
		return 100
	}
	return 0
}

// TransportAddress is ip, port and transport protocol.
type TransportAddress struct {
	IP       string
	Port     int
	Protocol string
}

func NewTransportAddress(ip string, port int, protocol string) TransportAddress {
	return TransportAddress{IP: ip, Port: port, Protocol: strings.ToLower(protocol)}
}

// TransportAddressFrom converts a udp address seen on the wire.
func TransportAddressFrom(addr net.Addr) (TransportAddress, error) {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return TransportAddress{}, fmt.Errorf("%w: %v", ErrNoUDPAddr, addr)
	}
	return NewTransportAddress(udpAddr.IP.String(), udpAddr.Port, UDP), nil
}

func (a TransportAddress) String() string {
	return net.JoinHostPort(a.IP, strconv.Itoa(a.Port)) + "/" + a.Protocol
}

// Equal compares ips semantically, 127.0.0.1 and ::ffff:127.0.0.1 are the same.
func (a TransportAddress) Equal(o TransportAddress) bool {
	if a.Port != o.Port || !strings.EqualFold(a.Protocol, o.Protocol) {
		return false
	}
	ip, oip := net.ParseIP(a.IP), net.ParseIP(o.IP)
	if ip == nil || oip == nil {
		return a.IP == o.IP
	}
	return ip.Equal(oip)
}

// UDPAddr is nil when IP does not parse.
func (a TransportAddress) UDPAddr() *net.UDPAddr {
	ip := net.ParseIP(a.IP)
	if ip == nil {
		return nil
	}
	return &net.UDPAddr{IP: ip, Port: a.Port}
}

// Candidate is a local or remote ice candidate.
type Candidate struct {
	Address     TransportAddress
	Type        CandidateType
	Foundation  string
	Priority    uint32
	ComponentID int
	Generation  int
	// Related is the base candidate, for a srflx candidate the host it was
	// derived from. Linking is best effort, it may be nil.
	Related *Candidate
}

// RelatedAddress returns the base address, ok is false without a base.
func (c *Candidate) RelatedAddress() (TransportAddress, bool) {
	if c.Related == nil {
		return TransportAddress{}, false
	}
	return c.Related.Address, true
}

func (c *Candidate) String() string {
	return fmt.Sprintf("%s %d %s %d %s typ %s", c.Foundation, c.ComponentID, c.Address.Protocol, c.Priority, c.Address, c.Type)
}

// Priority computes RFC8445 5.1.2.1:
// priority = (2^24)*(type preference) + (2^8)*(local preference) + (2^0)*(256 - component ID)
func Priority(t CandidateType, localPreference uint32, component int) uint32 {
	return (1<<24)*t.Preference() + (1<<8)*(localPreference&0xffff) + uint32(256-component)
}

// Foundation groups candidates of the same type, base ip and protocol.
func Foundation(t CandidateType, ip, protocol string) string {
	h := uint32(2166136261)
	for _, b := range []byte(string(t) + ip + protocol) {
		h ^= uint32(b)
		h *= 16777619
	}
	return strconv.FormatUint(uint64(h), 10)
}

// CandidatePair is a local and remote candidate proven to reach each other.
type CandidatePair struct {
	Local  *Candidate
	Remote *Candidate
	socket Socket
}

// Socket is the shared socket the local candidate was gathered on.
func (p *CandidatePair) Socket() Socket {
	return p.socket
}
