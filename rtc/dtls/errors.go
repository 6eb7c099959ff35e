package dtls

import (
	"errors"
)

var (
	ErrUnsupportedKey      = errors.New("unsupported private key")               // ErrUnsupportedKey will raise for a key that is neither rsa nor ecdsa.
	ErrUndeterminedSetup   = errors.New("setup role is undetermined")            // ErrUndeterminedSetup will raise if Start runs without an active or passive role.
	ErrAlreadyStarted      = errors.New("handshake already started")             // ErrAlreadyStarted will raise if Start is called twice.
	ErrNotConnected        = errors.New("handshake not completed")               // ErrNotConnected will raise if srtp keys are requested too early.
	ErrNoSRTPProfile       = errors.New("no srtp protection profile negotiated") // ErrNoSRTPProfile will raise if use_srtp was not agreed.
	ErrNoRemoteCertificate = errors.New("peer did not provide a certificate")    // ErrNoRemoteCertificate will raise if the peer sent no certificate.
	ErrFingerprintMismatch = errors.New("no matching fingerprint")               // ErrFingerprintMismatch will raise if the certificate matches no signaled fingerprint.
)
