// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package keypin

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jeremyhahn/go-keypin/pkg/pki"
)

// ClientCertVerifier is the capability a TLS server needs to authenticate
// client certificates.
type ClientCertVerifier interface {
	// OfferClientAuth reports whether the server requests a client
	// certificate.
	OfferClientAuth() bool

	// ClientAuthMandatory reports whether a client certificate is required.
	ClientAuthMandatory() bool

	// ClientAuthRootSubjects returns the DER subjects advertised to clients
	// as acceptable issuers. The boolean is false when the set is
	// unspecified.
	ClientAuthRootSubjects() ([][]byte, bool)

	// VerifyClientCert verifies a client certificate chain as of now. A nil
	// return means the certificate is accepted.
	VerifyClientCert(endEntity []byte, intermediates [][]byte, now time.Time) error
}

// ServerCertVerifier is the capability a TLS client needs to authenticate
// server certificates.
type ServerCertVerifier interface {
	// VerifyServerCert verifies a server certificate chain for serverName as
	// of now. A nil return means the certificate is accepted.
	VerifyServerCert(endEntity []byte, intermediates [][]byte, serverName ServerName,
		scts [][]byte, ocspResponse []byte, now time.Time) error
}

// supportedSignatureAlgorithms is the fixed allowlist applied to every
// signature on a verified path.
var supportedSignatureAlgorithms = []*pki.SignatureAlgorithm{
	pki.ECDSAP256SHA256,
	pki.ED25519,
}

// SupportedSignatureAlgorithms returns the signature algorithms accepted on
// peer certificates: ECDSA P-256 with SHA-256, and Ed25519.
func SupportedSignatureAlgorithms() []*pki.SignatureAlgorithm {
	return slices.Clone(supportedSignatureAlgorithms)
}

// VerifierConfig configures a Verifier.
type VerifierConfig struct {
	// ExpectedKey is the pinned public key. Required.
	ExpectedKey *PublicKey

	// Clock supplies the current time to the crypto/tls adapters. The
	// Verify methods take the time as an argument and never call it.
	// Default: time.Now.
	Clock func() time.Time

	// Logger for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Verifier authenticates TLS peers whose certificate carries the expected
// public key. It implements both ClientCertVerifier and ServerCertVerifier
// and is safe for concurrent use.
type Verifier struct {
	expected *PublicKey
	clock    func() time.Time
	logger   *slog.Logger
}

var (
	_ ClientCertVerifier = (*Verifier)(nil)
	_ ServerCertVerifier = (*Verifier)(nil)
)

// NewVerifier creates a Verifier pinned to cfg.ExpectedKey.
func NewVerifier(cfg *VerifierConfig) (*Verifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if cfg.ExpectedKey == nil {
		return nil, fmt.Errorf("%w: expected key is required", ErrInvalidConfig)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Verifier{
		expected: cfg.ExpectedKey,
		clock:    clock,
		logger:   logger.With("component", "keypin_verifier"),
	}, nil
}

// ExpectedKey returns the pinned public key.
func (v *Verifier) ExpectedKey() *PublicKey {
	return v.expected
}

// OfferClientAuth always returns true.
func (v *Verifier) OfferClientAuth() bool {
	return true
}

// ClientAuthMandatory always returns true.
func (v *Verifier) ClientAuthMandatory() bool {
	return true
}

// ClientAuthRootSubjects returns (nil, false). The acceptable key is only
// known once the certificate has been received, so no issuer names are
// advertised.
func (v *Verifier) ClientAuthRootSubjects() ([][]byte, bool) {
	return nil, false
}

// VerifyClientCert verifies that endEntity carries the expected key and is
// a valid self-signed TLS client certificate at now.
func (v *Verifier) VerifyClientCert(endEntity []byte, intermediates [][]byte, now time.Time) error {
	chain, t, err := v.prepare(endEntity, intermediates, now)
	if err != nil {
		return v.reject("client", err)
	}
	if err := chain.verify(t, pki.UsageClientAuth); err != nil {
		return v.reject("client", err)
	}
	v.logger.Debug("client certificate verified", "key", v.expected.Fingerprint())
	return nil
}

// VerifyServerCert verifies that endEntity carries the expected key, is a
// valid self-signed TLS server certificate at now, and covers serverName,
// which must be a DNS name.
//
// The SCT list and OCSP response are not validated. Their presence is
// logged at debug level and never affects the result, so this method
// provides no revocation or certificate transparency guarantees.
func (v *Verifier) VerifyServerCert(
	endEntity []byte,
	intermediates [][]byte,
	serverName ServerName,
	scts [][]byte,
	ocspResponse []byte,
	now time.Time,
) error {
	chain, t, err := v.prepare(endEntity, intermediates, now)
	if err != nil {
		return v.reject("server", err)
	}

	if !serverName.IsDNS() {
		return v.reject("server", fmt.Errorf("%w: %s is not a DNS name", ErrUnsupportedNameType, serverName))
	}
	name, err := pki.ParseDNSName(serverName.DNSName())
	if err != nil {
		return v.reject("server", fmt.Errorf("%w: %w", ErrUnsupportedNameType, err))
	}

	if err := chain.verify(t, pki.UsageServerAuth); err != nil {
		return v.reject("server", err)
	}

	if len(scts) > 0 {
		v.logger.Debug("unvalidated certificate transparency data", "scts", len(scts))
	}
	if len(ocspResponse) > 0 {
		v.logger.Debug("unvalidated OCSP response", "bytes", len(ocspResponse))
	}

	if err := chain.endEntity.VerifyIsValidForDNSName(name); err != nil {
		return v.reject("server", MapPKIError(err))
	}

	v.logger.Debug("server certificate verified",
		"server_name", name.String(),
		"key", v.expected.Fingerprint())
	return nil
}

// prepare runs the steps shared by both directions: decode, key pinning,
// trust anchor construction and time conversion.
func (v *Verifier) prepare(endEntity []byte, intermediates [][]byte, now time.Time) (*selfSigned, pki.Time, error) {
	received, err := PublicKeyFromCertificate(endEntity)
	if err != nil {
		return nil, pki.Time{}, err
	}
	if !received.Equal(v.expected) {
		return nil, pki.Time{}, &KeyMismatchError{Received: received, Expected: v.expected}
	}

	chain, err := prepareSelfSigned(endEntity, intermediates)
	if err != nil {
		return nil, pki.Time{}, err
	}

	t, err := pki.NewTime(now)
	if err != nil {
		return nil, pki.Time{}, fmt.Errorf("%w: %w", ErrFailedToGetCurrentTime, err)
	}
	return chain, t, nil
}

func (v *Verifier) reject(direction string, err error) error {
	v.logger.Debug("peer certificate rejected", "direction", direction, "error", err)
	return err
}
