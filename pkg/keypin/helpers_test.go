// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package keypin

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testCert is a generated certificate with its private key and descriptor.
type testCert struct {
	der []byte
	key crypto.Signer
	pub *PublicKey
}

type certOptions struct {
	key       crypto.Signer
	dnsNames  []string
	notBefore time.Time
	notAfter  time.Time
	eku       []x509.ExtKeyUsage
	isCA      bool
}

func newEd25519Signer(t *testing.T) crypto.Signer {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return priv
}

func newECDSASigner(t *testing.T, curve elliptic.Curve) crypto.Signer {
	t.Helper()
	key, err := ecdsa.GenerateKey(curve, rand.Reader)
	require.NoError(t, err)
	return key
}

func newRSASigner(t *testing.T) crypto.Signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// selfSignedCert creates a self-signed certificate. By default it uses a
// fresh Ed25519 key, is valid for an hour either side of now, and carries
// both client and server authentication usages.
func selfSignedCert(t *testing.T, opts certOptions) testCert {
	t.Helper()

	if opts.key == nil {
		opts.key = newEd25519Signer(t)
	}
	if opts.notBefore.IsZero() {
		opts.notBefore = time.Now().Add(-time.Hour)
	}
	if opts.notAfter.IsZero() {
		opts.notAfter = time.Now().Add(time.Hour)
	}
	if opts.eku == nil {
		opts.eku = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth}
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "keypin-test"},
		DNSNames:     opts.dnsNames,
		NotBefore:    opts.notBefore,
		NotAfter:     opts.notAfter,
		ExtKeyUsage:  opts.eku,
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	if opts.isCA {
		template.BasicConstraintsValid = true
		template.IsCA = true
		template.KeyUsage |= x509.KeyUsageCertSign
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, opts.key.Public(), opts.key)
	require.NoError(t, err)

	pub, err := NewPublicKey(opts.key.Public())
	require.NoError(t, err)

	return testCert{der: der, key: opts.key, pub: pub}
}

// issuedCert creates a leaf carrying key's public key, named subject and
// issued under issuer's name by signer. Nothing about the result is
// self-signed unless issuer equals subject and signer is key.
func issuedCert(t *testing.T, key crypto.Signer, subject string, issuer *x509.Certificate, signer crypto.Signer) []byte {
	t.Helper()

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: subject},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	if issuer == nil {
		issuer = template
	}

	der, err := x509.CreateCertificate(rand.Reader, template, issuer, key.Public(), signer)
	require.NoError(t, err)
	return der
}

// issuerTemplate returns a CA template named subject for use as the parent
// in issuedCert or x509.CreateCertificate.
func issuerTemplate(subject string) *x509.Certificate {
	return &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: subject},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		BasicConstraintsValid: true,
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
}

func (c testCert) tlsCertificate() tls.Certificate {
	return tls.Certificate{Certificate: [][]byte{c.der}, PrivateKey: c.key}
}

func newTestVerifier(t *testing.T, expected *PublicKey) *Verifier {
	t.Helper()
	v, err := NewVerifier(&VerifierConfig{ExpectedKey: expected})
	require.NoError(t, err)
	return v
}

// flipLastByte returns a copy of der with its final byte inverted. For a
// certificate this corrupts the signature value.
func flipLastByte(der []byte) []byte {
	out := append([]byte(nil), der...)
	out[len(out)-1] ^= 0xff
	return out
}
