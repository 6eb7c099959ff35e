package hammer

import (
	"github.com/gotolive/hammer/rtc/jingle"
)

// IngestRemoteFingerprints commits the fingerprints of the first content that
// carries any, together with our resolved role, and returns that role.
// Bundled contents repeat the same set, later ones are ignored. The role comes
// from the first fingerprint with a known setup attribute, actpass if none has one.
// Without fingerprints nothing is committed and SetupNone is returned.
func IngestRemoteFingerprints(engine HandshakeEngine, contents []*jingle.Content) jingle.Setup {
	for _, content := range contents {
		if content.Transport == nil || len(content.Transport.Fingerprints) == 0 {
			continue
		}
		fingerprints := make(map[string]string, len(content.Transport.Fingerprints))
		remote, found := jingle.SetupActpass, false
		for _, f := range content.Transport.Fingerprints {
			fingerprints[f.Hash] = f.Value
			if found {
				continue
			}
			if role, ok := f.Role(); ok {
				remote, found = role, true
			}
		}
		setup := ResolveSetup(remote)
		engine.SetRemoteFingerprints(fingerprints)
		engine.SetSetup(setup)
		return setup
	}
	return jingle.SetupNone
}

// ExportLocalFingerprint adds our fingerprint and role to the first content
// with a transport, one is enough for a bundle.
func ExportLocalFingerprint(engine HandshakeEngine, setup jingle.Setup, contents []*jingle.Content) {
	for _, content := range contents {
		if content.Transport == nil {
			continue
		}
		content.Transport.AddFingerprint(&jingle.Fingerprint{
			Hash:  engine.LocalFingerprintHashFunction(),
			Setup: setup.String(),
			Value: engine.LocalFingerprint(),
		})
		return
	}
}
