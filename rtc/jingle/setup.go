package jingle

import (
	"strings"
)

// Setup is the dtls role attribute, see RFC4145 and RFC5763.
type Setup int

const (
	SetupNone Setup = iota // undetermined, distinct from holdconn
	SetupActpass
	SetupActive
	SetupPassive
	SetupHoldconn
)

const (
	setupActpass  = "actpass"
	setupActive   = "active"
	setupPassive  = "passive"
	setupHoldconn = "holdconn"
)

// ParseSetup only accepts the four roles, anything else is SetupNone.
func ParseSetup(s string) Setup {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case setupActpass:
		return SetupActpass
	case setupActive:
		return SetupActive
	case setupPassive:
		return SetupPassive
	case setupHoldconn:
		return SetupHoldconn
	}
	return SetupNone
}

func (s Setup) String() string {
	switch s {
	case SetupActpass:
		return setupActpass
	case SetupActive:
		return setupActive
	case SetupPassive:
		return setupPassive
	case SetupHoldconn:
		return setupHoldconn
	}
	return ""
}
