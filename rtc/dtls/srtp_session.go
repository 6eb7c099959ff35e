package dtls

import (
	"sync"

	"github.com/pion/srtp/v2"
)

// SrtpSession protects what a session sends and unprotects what it receives.
// Both directions can be used from different goroutines.
type SrtpSession struct {
	remoteMu      sync.Mutex
	remoteContext *srtp.Context
	localMu       sync.Mutex
	localContext  *srtp.Context
}

func (s *SrtpSession) DecryptSrtp(dst, data []byte) ([]byte, error) {
	s.remoteMu.Lock()
	defer s.remoteMu.Unlock()
	return s.remoteContext.DecryptRTP(dst, data, nil)
}

func (s *SrtpSession) EncryptRtp(dst, packet []byte) ([]byte, error) {
	s.localMu.Lock()
	defer s.localMu.Unlock()
	return s.localContext.EncryptRTP(dst, packet, nil)
}

func (s *SrtpSession) DecryptSrtcp(dst, data []byte) ([]byte, error) {
	s.remoteMu.Lock()
	defer s.remoteMu.Unlock()
	return s.remoteContext.DecryptRTCP(dst, data, nil)
}

func (s *SrtpSession) EncryptRtcp(dst, packet []byte) ([]byte, error) {
	s.localMu.Lock()
	defer s.localMu.Unlock()
	return s.localContext.EncryptRTCP(dst, packet, nil)
}

// NewSrtpSession derives srtp contexts from the keys of a connected transport.
func NewSrtpSession(transport *Transport) (*SrtpSession, error) {
	transport.mu.RLock()
	dtlsConn, profile, setup := transport.dtlsConn, transport.srtpProtectionProfile, transport.setup
	transport.mu.RUnlock()
	if dtlsConn == nil {
		return nil, ErrNotConnected
	}

	config := srtp.Config{
		Profile: profile,
	}
	state := dtlsConn.ConnectionState()
	if err := config.ExtractSessionKeysFromDTLS(&state, isClient(setup)); err != nil {
		return nil, err
	}
	remoteContext, err := srtp.CreateContext(config.Keys.RemoteMasterKey, config.Keys.RemoteMasterSalt, profile, config.RemoteOptions...)
	if err != nil {
		return nil, err
	}
	localContext, err := srtp.CreateContext(config.Keys.LocalMasterKey, config.Keys.LocalMasterSalt, profile, config.LocalOptions...)
	if err != nil {
		return nil, err
	}
	return &SrtpSession{remoteContext: remoteContext, localContext: localContext}, nil
}
