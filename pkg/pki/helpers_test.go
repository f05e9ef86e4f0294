// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package pki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// certOpts controls test certificate generation. Zero values produce a
// self-signed, non-CA Ed25519 leaf valid for one hour around now.
type certOpts struct {
	key       crypto.Signer
	parent    *x509.Certificate
	parentKey crypto.Signer
	subject   string
	dnsNames  []string
	notBefore time.Time
	notAfter  time.Time
	isCA      bool
	eku       []x509.ExtKeyUsage
	sigAlg    x509.SignatureAlgorithm
}

var serialCounter int64

func newEd25519Key(t *testing.T) crypto.Signer {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return priv
}

func newECDSAKey(t *testing.T, curve elliptic.Curve) crypto.Signer {
	t.Helper()
	key, err := ecdsa.GenerateKey(curve, rand.Reader)
	require.NoError(t, err)
	return key
}

func newRSAKey(t *testing.T) crypto.Signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// makeCert creates a DER certificate and returns it with its private key.
func makeCert(t *testing.T, o certOpts) ([]byte, crypto.Signer) {
	t.Helper()

	if o.key == nil {
		o.key = newEd25519Key(t)
	}
	if o.subject == "" {
		o.subject = "test"
	}
	if o.notBefore.IsZero() {
		o.notBefore = time.Now().Add(-time.Hour)
	}
	if o.notAfter.IsZero() {
		o.notAfter = time.Now().Add(time.Hour)
	}

	serialCounter++
	template := &x509.Certificate{
		SerialNumber:       big.NewInt(serialCounter),
		Subject:            pkix.Name{CommonName: o.subject},
		DNSNames:           o.dnsNames,
		NotBefore:          o.notBefore,
		NotAfter:           o.notAfter,
		ExtKeyUsage:        o.eku,
		SignatureAlgorithm: o.sigAlg,
	}
	if o.isCA {
		template.BasicConstraintsValid = true
		template.IsCA = true
		template.KeyUsage = x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature
	}

	parent, signer := template, o.key
	if o.parent != nil {
		parent, signer = o.parent, o.parentKey
	}

	der, err := x509.CreateCertificate(rand.Reader, template, parent, o.key.Public(), signer)
	require.NoError(t, err)
	return der, o.key
}

func mustParse(t *testing.T, der []byte) *x509.Certificate {
	t.Helper()
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func selfSignedAnchors(t *testing.T, der []byte) []TrustAnchor {
	t.Helper()
	anchor, err := TrustAnchorFromCertDER(der)
	require.NoError(t, err)
	return []TrustAnchor{anchor}
}

func now(t *testing.T) Time {
	t.Helper()
	ts, err := NewTime(time.Now())
	require.NoError(t, err)
	return ts
}

var defaultAlgs = []*SignatureAlgorithm{ECDSAP256SHA256, ED25519}
