package dtls

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"math/big"
	"strings"
	"time"

	"github.com/pion/dtls/v2/pkg/crypto/fingerprint"
)

// Fingerprint is a certificate digest, Algorithm uses the sdp/jingle name such as "sha-256".
type Fingerprint struct {
	Algorithm string
	Value     string
}

type CertificateGenerator interface {
	GenerateCertificate() (*Certificate, error)
}

type defaultCertificateGenerator struct {
	cert *Certificate
}

func (d *defaultCertificateGenerator) GenerateCertificate() (*Certificate, error) {
	return d.cert, nil
}

type uniqueCertificateGenerator struct{}

func (u *uniqueCertificateGenerator) GenerateCertificate() (*Certificate, error) {
	return generateCertificate()
}

// NewCertManager if unique is true, we generate a cert for every call,
// otherwise we will use only one cert for all sessions.
func NewCertManager(unique bool) (CertificateGenerator, error) {
	if unique {
		return &uniqueCertificateGenerator{}, nil
	}
	cert, err := generateCertificate()
	if err != nil {
		return nil, err
	}
	return &defaultCertificateGenerator{cert: cert}, nil
}

func generateCertificate() (*Certificate, error) {
	secretKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	origin := make([]byte, 16)
	/* #nosec */
	if _, err := rand.Read(origin); err != nil {
		return nil, err
	}

	// Max random value, a 130-bits integer, i.e 2^130 - 1
	maxBigInt := new(big.Int)
	/* #nosec */
	maxBigInt.Exp(big.NewInt(2), big.NewInt(130), nil).Sub(maxBigInt, big.NewInt(1))
	/* #nosec */
	serialNumber, err := rand.Int(rand.Reader, maxBigInt)
	if err != nil {
		return nil, err
	}

	return NewCertificate(secretKey, x509.Certificate{
		ExtKeyUsage: []x509.ExtKeyUsage{
			x509.ExtKeyUsageClientAuth,
			x509.ExtKeyUsageServerAuth,
		},
		BasicConstraintsValid: true,
		NotBefore:             time.Now(),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		NotAfter:              time.Now().AddDate(1, 0, 0),
		SerialNumber:          serialNumber,
		Version:               2,
		Subject:               pkix.Name{CommonName: hex.EncodeToString(origin)},
		IsCA:                  true,
	})
}

type Certificate struct {
	privateKey   crypto.PrivateKey
	x509Cert     *x509.Certificate
	fingerprints []Fingerprint
}

// NewCertificate self signs tpl with key, only rsa and ecdsa keys are supported.
func NewCertificate(key crypto.PrivateKey, tpl x509.Certificate) (*Certificate, error) {
	var (
		err     error
		certDER []byte
	)
	switch sk := key.(type) {
	case *rsa.PrivateKey:
		tpl.SignatureAlgorithm = x509.SHA256WithRSA
		certDER, err = x509.CreateCertificate(rand.Reader, &tpl, &tpl, sk.Public(), sk)
	case *ecdsa.PrivateKey:
		tpl.SignatureAlgorithm = x509.ECDSAWithSHA256
		certDER, err = x509.CreateCertificate(rand.Reader, &tpl, &tpl, sk.Public(), sk)
	default:
		return nil, ErrUnsupportedKey
	}
	if err != nil {
		return nil, err
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, err
	}
	c := &Certificate{privateKey: key, x509Cert: cert}
	if c.fingerprints, err = computeFingerprints(cert); err != nil {
		return nil, err
	}
	return c, nil
}

func computeFingerprints(cert *x509.Certificate) ([]Fingerprint, error) {
	algorithms := []crypto.Hash{crypto.SHA256}
	res := make([]Fingerprint, 0, len(algorithms))
	for _, algo := range algorithms {
		name, err := fingerprint.StringFromHash(algo)
		if err != nil {
			return nil, err
		}
		value, err := fingerprint.Fingerprint(cert, algo)
		if err != nil {
			return nil, err
		}
		res = append(res, Fingerprint{
			Algorithm: name,
			Value:     strings.ToUpper(value), // firefox required up case.
		})
	}
	return res, nil
}

func (c *Certificate) Fingerprints() []Fingerprint {
	return c.fingerprints
}

func (c *Certificate) tlsCertificate() tls.Certificate {
	return tls.Certificate{
		Certificate: [][]byte{c.x509Cert.Raw},
		PrivateKey:  c.privateKey,
	}
}
