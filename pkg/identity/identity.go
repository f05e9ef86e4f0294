// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package identity generates and persists the self-signed certificate and
// private key a peer presents during a pinned TLS handshake. The
// certificate's SubjectPublicKeyInfo is the value the other side pins.
//
// Only the key types the verifier accepts are generated: Ed25519 and ECDSA
// P-256 (signing with SHA-256). Certificates are non-CA leaves carrying both
// server and client authentication extended key usages, so one identity
// serves either end of a mutually authenticated connection.
package identity

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/jeremyhahn/go-keypin/pkg/keypin"
)

// KeyType selects the identity key algorithm.
type KeyType string

const (
	// KeyTypeEd25519 generates an Ed25519 key.
	KeyTypeEd25519 KeyType = "ed25519"

	// KeyTypeECDSAP256 generates an ECDSA key on curve P-256.
	KeyTypeECDSAP256 KeyType = "ecdsa-p256"
)

const (
	// DefaultCommonName is the subject common name when none is set.
	DefaultCommonName = "keypin"

	// DefaultValidity is the certificate lifetime when none is set.
	DefaultValidity = 365 * 24 * time.Hour

	// clockSkew backdates NotBefore to tolerate peers with slow clocks.
	clockSkew = 5 * time.Minute
)

// ParseKeyType converts a name into a KeyType. "ecdsa" and "p256" are
// accepted as aliases for ECDSA P-256.
func ParseKeyType(s string) (KeyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ed25519", "":
		return KeyTypeEd25519, nil
	case "ecdsa-p256", "ecdsa", "p256", "p-256":
		return KeyTypeECDSAP256, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKeyType, s)
	}
}

// Options configures Generate.
type Options struct {
	// KeyType is the key algorithm. Default: KeyTypeEd25519.
	KeyType KeyType

	// CommonName is the subject common name. Default: "keypin".
	CommonName string

	// DNSNames are the subject alternative names a server identity is
	// valid for. Client-only identities may leave this empty.
	DNSNames []string

	// Validity is the certificate lifetime. Default: one year.
	Validity time.Duration

	// Clock returns the issuance time. Default: time.Now.
	Clock func() time.Time
}

// Identity is a self-signed certificate with its private key.
type Identity struct {
	cert    *x509.Certificate
	certDER []byte
	signer  crypto.Signer
}

// Generate creates a new key and a self-signed leaf certificate for it.
func Generate(opts *Options) (*Identity, error) {
	if opts == nil {
		return nil, ErrInvalidConfig
	}

	keyType := opts.KeyType
	if keyType == "" {
		keyType = KeyTypeEd25519
	}
	cn := opts.CommonName
	if cn == "" {
		cn = DefaultCommonName
	}
	validity := opts.Validity
	if validity == 0 {
		validity = DefaultValidity
	}
	if validity < 0 {
		return nil, fmt.Errorf("%w: negative validity", ErrInvalidConfig)
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	signer, err := generateKey(keyType)
	if err != nil {
		return nil, err
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("%w: serial number: %w", ErrGenerate, err)
	}

	now := clock()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: cn},
		DNSNames:              opts.DNSNames,
		NotBefore:             now.Add(-clockSkew),
		NotAfter:              now.Add(validity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  false,
	}
	if keyType == KeyTypeECDSAP256 {
		template.SignatureAlgorithm = x509.ECDSAWithSHA256
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, signer.Public(), signer)
	if err != nil {
		return nil, fmt.Errorf("%w: create certificate: %w", ErrGenerate, err)
	}

	return newIdentity(der, signer)
}

func generateKey(keyType KeyType) (crypto.Signer, error) {
	switch keyType {
	case KeyTypeEd25519:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
		}
		return priv, nil
	case KeyTypeECDSAP256:
		priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
		}
		return priv, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKeyType, keyType)
	}
}

// newIdentity checks that der is a self-signed non-CA certificate for
// signer's public key.
func newIdentity(der []byte, signer crypto.Signer) (*Identity, error) {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	if cert.IsCA {
		return nil, fmt.Errorf("%w: certificate is a CA", ErrInvalidIdentity)
	}
	if err := cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature); err != nil {
		return nil, fmt.Errorf("%w: not self-signed: %w", ErrInvalidIdentity, err)
	}

	type equaler interface{ Equal(crypto.PublicKey) bool }
	pub, ok := signer.Public().(equaler)
	if !ok || !pub.Equal(cert.PublicKey) {
		return nil, ErrKeyMismatch
	}

	return &Identity{cert: cert, certDER: der, signer: signer}, nil
}

// Certificate returns the parsed certificate.
func (id *Identity) Certificate() *x509.Certificate {
	return id.cert
}

// CertificateDER returns a copy of the DER-encoded certificate.
func (id *Identity) CertificateDER() []byte {
	return append([]byte(nil), id.certDER...)
}

// Signer returns the private key.
func (id *Identity) Signer() crypto.Signer {
	return id.signer
}

// PublicKey returns the descriptor peers pin for this identity.
func (id *Identity) PublicKey() (*keypin.PublicKey, error) {
	return keypin.ParsePublicKey(id.cert.RawSubjectPublicKeyInfo)
}

// TLSCertificate returns the identity in the form crypto/tls presents.
func (id *Identity) TLSCertificate() tls.Certificate {
	return tls.Certificate{
		Certificate: [][]byte{id.CertificateDER()},
		PrivateKey:  id.signer,
		Leaf:        id.cert,
	}
}

// Wipe zeros the private key material held in memory. The identity must
// not be used afterwards. ECDSA scalars live in big.Int storage that cannot
// be reliably cleared; only Ed25519 keys are zeroed.
func (id *Identity) Wipe() {
	if priv, ok := id.signer.(ed25519.PrivateKey); ok {
		WipeBytes(priv)
	}
	id.signer = nil
}

// WipeBytes zeros the contents of b in place. The garbage collector may
// have copied the memory earlier, so this does not guarantee erasure.
func WipeBytes(b []byte) {
	clear(b)
}
