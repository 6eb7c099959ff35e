package dtls

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"strings"
	"sync"

	"github.com/gotolive/hammer/rtc/jingle"
	"github.com/gotolive/hammer/rtc/logger"
	"github.com/pion/dtls/v2"
	"github.com/pion/dtls/v2/pkg/crypto/fingerprint"
	"github.com/pion/logging"
	"github.com/pion/srtp/v2"
)

type State int

const (
	New State = iota + 1
	Connecting
	Connected
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case New:
		return "new"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Transport is the handshake engine of a session. Signaling commits the remote
// fingerprints and our setup role, Start then runs the handshake on the bound socket.
type Transport struct {
	cert    *Certificate
	lf      logging.LoggerFactory
	onState func(State)

	mu                    sync.RWMutex
	state                 State
	setup                 jingle.Setup
	remoteFingerprints    map[string]string
	dtlsConn              *dtls.Conn
	srtpProtectionProfile srtp.ProtectionProfile
}

type Option struct {
	// Certificate is generated when nil.
	Certificate   *Certificate
	LoggerFactory logging.LoggerFactory
	OnState       func(State)
}

func NewTransport(option Option) (*Transport, error) {
	cert := option.Certificate
	if cert == nil {
		var err error
		if cert, err = generateCertificate(); err != nil {
			return nil, err
		}
	}
	if option.LoggerFactory == nil {
		option.LoggerFactory = logger.NewLoggerFactory(logger.LevelWarn)
	}
	return &Transport{
		cert:               cert,
		lf:                 option.LoggerFactory,
		onState:            option.OnState,
		state:              New,
		remoteFingerprints: map[string]string{},
	}, nil
}

// SetRemoteFingerprints replaces the fingerprints keyed by hash function.
func (t *Transport) SetRemoteFingerprints(fingerprints map[string]string) {
	copied := make(map[string]string, len(fingerprints))
	for hash, value := range fingerprints {
		copied[strings.ToLower(hash)] = value
	}
	t.mu.Lock()
	t.remoteFingerprints = copied
	t.mu.Unlock()
}

func (t *Transport) RemoteFingerprints() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	res := make(map[string]string, len(t.remoteFingerprints))
	for k, v := range t.remoteFingerprints {
		res[k] = v
	}
	return res
}

// SetSetup commits our own role, already resolved from the remote one.
func (t *Transport) SetSetup(setup jingle.Setup) {
	t.mu.Lock()
	t.setup = setup
	t.mu.Unlock()
}

func (t *Transport) Setup() jingle.Setup {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.setup
}

func (t *Transport) LocalFingerprint() string {
	return t.cert.Fingerprints()[0].Value
}

func (t *Transport) LocalFingerprintHashFunction() string {
	return t.cert.Fingerprints()[0].Algorithm
}

func (t *Transport) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// isClient, if both are fine we prefer client, the client hello goes out asap.
func isClient(setup jingle.Setup) bool {
	return setup == jingle.SetupActive || setup == jingle.SetupActpass
}

func (t *Transport) config(client bool) *dtls.Config {
	config := &dtls.Config{
		Certificates: []tls.Certificate{t.cert.tlsCertificate()},
		SRTPProtectionProfiles: []dtls.SRTPProtectionProfile{
			dtls.SRTP_AEAD_AES_128_GCM,
			dtls.SRTP_AES128_CM_HMAC_SHA1_80,
		},
		ClientAuth:    dtls.RequireAnyClientCert,
		LoggerFactory: t.lf,
	}
	if client {
		// the certificate is self signed, the fingerprint is what we verify
		config.InsecureSkipVerify = true
	} else {
		config.ExtendedMasterSecret = dtls.RequireExtendedMasterSecret
	}
	return config
}

// Start runs the handshake over conn and blocks until it finished or ctx is done.
func (t *Transport) Start(ctx context.Context, conn net.Conn) error {
	t.mu.Lock()
	if t.state != New {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	setup := t.setup
	if setup != jingle.SetupActive && setup != jingle.SetupPassive && setup != jingle.SetupActpass {
		t.mu.Unlock()
		return ErrUndeterminedSetup
	}
	t.state = Connecting
	t.mu.Unlock()
	t.emit(Connecting)

	client := isClient(setup)
	var (
		dtlsConn *dtls.Conn
		err      error
	)
	if client {
		dtlsConn, err = dtls.ClientWithContext(ctx, conn, t.config(true))
	} else {
		dtlsConn, err = dtls.ServerWithContext(ctx, conn, t.config(false))
	}
	if err == nil {
		err = t.verify(dtlsConn)
	}
	if err != nil {
		logger.Error("dtls handshake fail:", err)
		if dtlsConn != nil {
			_ = dtlsConn.Close()
		}
		t.setState(Failed)
		return err
	}

	t.mu.Lock()
	t.dtlsConn = dtlsConn
	t.mu.Unlock()
	t.setState(Connected)

	go func() {
		// it returns when the peer sends close notify or the socket is gone
		buf := make([]byte, 2048)
		for {
			if _, err := dtlsConn.Read(buf); err != nil {
				t.setState(Closed)
				return
			}
		}
	}()
	return nil
}

func (t *Transport) verify(dtlsConn *dtls.Conn) error {
	profile, ok := dtlsConn.SelectedSRTPProtectionProfile()
	if !ok {
		return ErrNoSRTPProfile
	}
	var srtpProfile srtp.ProtectionProfile
	switch profile {
	case dtls.SRTP_AEAD_AES_128_GCM:
		srtpProfile = srtp.ProtectionProfileAeadAes128Gcm
	case dtls.SRTP_AES128_CM_HMAC_SHA1_80:
		srtpProfile = srtp.ProtectionProfileAes128CmHmacSha1_80
	default:
		return ErrNoSRTPProfile
	}

	remoteCerts := dtlsConn.ConnectionState().PeerCertificates
	if len(remoteCerts) == 0 {
		return ErrNoRemoteCertificate
	}
	if err := t.validateFingerprint(remoteCerts[0]); err != nil {
		return err
	}

	t.mu.Lock()
	t.srtpProtectionProfile = srtpProfile
	t.mu.Unlock()
	return nil
}

// validateFingerprint passes when no fingerprint was signaled, an offerer may
// not know the answer's fingerprints yet.
func (t *Transport) validateFingerprint(remoteCert []byte) error {
	fingerprints := t.RemoteFingerprints()
	if len(fingerprints) == 0 {
		logger.Warn("no remote fingerprint, skip certificate validation")
		return nil
	}
	parsed, err := x509.ParseCertificate(remoteCert)
	if err != nil {
		return err
	}
	for hash, value := range fingerprints {
		algo, err := fingerprint.HashFromString(hash)
		if err != nil {
			logger.Debug("unsupported fingerprint hash:", hash)
			continue
		}
		remoteValue, err := fingerprint.Fingerprint(parsed, algo)
		if err != nil {
			return err
		}
		if strings.EqualFold(remoteValue, value) {
			return nil
		}
	}
	return ErrFingerprintMismatch
}

func (t *Transport) DtlsConn() *dtls.Conn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dtlsConn
}

func (t *Transport) setState(state State) {
	t.mu.Lock()
	if t.state == state || t.state == Closed || (t.state == Failed && state == Closed) {
		t.mu.Unlock()
		return
	}
	t.state = state
	t.mu.Unlock()
	t.emit(state)
}

func (t *Transport) emit(state State) {
	if t.onState != nil {
		t.onState(state)
	}
}

func (t *Transport) Close() error {
	t.mu.RLock()
	conn := t.dtlsConn
	t.mu.RUnlock()
	var err error
	if conn != nil {
		err = conn.Close()
	}
	t.setState(Closed)
	return err
}
