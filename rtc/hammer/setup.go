package hammer

import (
	"github.com/gotolive/hammer/rtc/jingle"
)

// ResolveSetup answers the remote role. SetupNone means undetermined and is
// returned for anything it does not know, it never becomes holdconn.
func ResolveSetup(remote jingle.Setup) jingle.Setup {
	switch remote {
	case jingle.SetupActpass, jingle.SetupPassive:
		return jingle.SetupActive
	case jingle.SetupActive:
		return jingle.SetupPassive
	case jingle.SetupHoldconn:
		return jingle.SetupHoldconn
	}
	return jingle.SetupNone
}
