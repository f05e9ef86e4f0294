// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package pki

import (
	"bytes"
	"crypto/x509"
	"fmt"
	"time"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Usage is the TLS role a certificate chain is verified for.
type Usage int

const (
	// UsageServerAuth verifies a certificate presented by a TLS server.
	UsageServerAuth Usage = iota

	// UsageClientAuth verifies a certificate presented by a TLS client.
	UsageClientAuth
)

// String returns a human-readable usage name.
func (u Usage) String() string {
	if name, ok := usageNames[u]; ok {
		return name
	}
	return fmt.Sprintf("Usage(%d)", int(u))
}

var usageNames = map[Usage]string{
	UsageServerAuth: "server-auth",
	UsageClientAuth: "client-auth",
}

// usageEKUs maps a usage to the extended key usage that permits it.
var usageEKUs = map[Usage]x509.ExtKeyUsage{
	UsageServerAuth: x509.ExtKeyUsageServerAuth,
	UsageClientAuth: x509.ExtKeyUsageClientAuth,
}

// Certificate is a parsed X.509 certificate.
type Certificate struct {
	cert *x509.Certificate
}

// ParseCertificate parses a single DER-encoded X.509 certificate.
func ParseCertificate(der []byte) (*Certificate, error) {
	cert, err := parseDER(der)
	if err != nil {
		return nil, err
	}
	return &Certificate{cert: cert}, nil
}

// PublicKey returns the DER-encoded SubjectPublicKeyInfo of the certificate.
func (c *Certificate) PublicKey() []byte {
	return c.cert.RawSubjectPublicKeyInfo
}

// Raw returns the complete DER encoding of the certificate.
func (c *Certificate) Raw() []byte {
	return c.cert.Raw
}

// X509 returns the underlying crypto/x509 representation.
func (c *Certificate) X509() *x509.Certificate {
	return c.cert
}

// EndEntityCert is a certificate in the leaf position of a chain.
type EndEntityCert struct {
	cert *x509.Certificate
}

// NewEndEntityCert parses der as an end-entity certificate.
func NewEndEntityCert(der []byte) (*EndEntityCert, error) {
	cert, err := parseDER(der)
	if err != nil {
		return nil, err
	}
	return &EndEntityCert{cert: cert}, nil
}

// TrustAnchor is a root of trust: a subject name and the public key that
// signs certificates issued under that name.
type TrustAnchor struct {
	// Subject is the DER-encoded subject distinguished name.
	Subject []byte

	// SPKI is the DER-encoded SubjectPublicKeyInfo.
	SPKI []byte
}

// TrustAnchorFromCertDER builds a trust anchor from the subject and public
// key of a DER-encoded certificate. The certificate does not need to be a CA
// certificate and its validity period is not consulted.
func TrustAnchorFromCertDER(der []byte) (TrustAnchor, error) {
	cert, err := parseDER(der)
	if err != nil {
		return TrustAnchor{}, err
	}
	return TrustAnchor{
		Subject: bytes.Clone(cert.RawSubject),
		SPKI:    bytes.Clone(cert.RawSubjectPublicKeyInfo),
	}, nil
}

// parseDER parses der as a certificate, classifying failures as ErrBadDER
// or ErrBadDERTime.
func parseDER(der []byte) (*x509.Certificate, error) {
	if len(der) == 0 {
		return nil, fmt.Errorf("%w: empty certificate", ErrBadDER)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		if isTimeError(der) {
			return nil, fmt.Errorf("%w: %w", ErrBadDERTime, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrBadDER, err)
	}
	return cert, nil
}

// isTimeError reports whether der is a certificate whose structure is
// intact up to a validity period that does not decode. crypto/x509 does not
// export typed parse errors, so the validity field is read directly.
func isTimeError(der []byte) bool {
	input := cryptobyte.String(der)
	var cert, tbs, validity cryptobyte.String
	if !input.ReadASN1(&cert, cbasn1.SEQUENCE) ||
		!cert.ReadASN1(&tbs, cbasn1.SEQUENCE) ||
		!tbs.SkipOptionalASN1(cbasn1.Tag(0).Constructed().ContextSpecific()) ||
		!tbs.SkipASN1(cbasn1.INTEGER) ||
		!tbs.SkipASN1(cbasn1.SEQUENCE) ||
		!tbs.SkipASN1(cbasn1.SEQUENCE) ||
		!tbs.ReadASN1(&validity, cbasn1.SEQUENCE) {
		return false
	}
	return !readValidityTime(&validity) || !readValidityTime(&validity) || !validity.Empty()
}

// readValidityTime reads a UTCTime or GeneralizedTime.
func readValidityTime(s *cryptobyte.String) bool {
	var t time.Time
	switch {
	case s.PeekASN1Tag(cbasn1.UTCTime):
		return s.ReadASN1UTCTime(&t)
	case s.PeekASN1Tag(cbasn1.GeneralizedTime):
		return s.ReadASN1GeneralizedTime(&t)
	default:
		return false
	}
}
