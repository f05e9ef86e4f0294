// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package keypin verifies TLS peer certificates against a single pinned
// public key. Instead of trusting a certificate authority hierarchy, a
// Verifier trusts exactly one expected SubjectPublicKeyInfo and treats the
// peer's own certificate as the sole trust anchor (a self-signed trust
// model).
//
// Every verification first compares the peer's public key to the expected
// key, then checks that the certificate is a validly self-signed
// certificate for the requested TLS usage, signed with ECDSA P-256/SHA-256
// or Ed25519, and, for servers, that it covers the claimed DNS name. The key
// comparison is the source of trust; the chain check only proves possession
// of the private key and validity of the certificate.
//
// Signed certificate timestamps and OCSP responses supplied by servers are
// accepted but never validated. Their presence is logged at debug level and
// does not influence the result. Integrators relying on revocation or
// certificate transparency must enforce it elsewhere.
package keypin

import (
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-keypin/pkg/pki"
)

// ErrDecode is returned when DER input (a public key descriptor or a
// certificate) is malformed.
var ErrDecode = errors.New("keypin: malformed DER")

// Handshake errors. Each one aborts the handshake being verified.
var (
	// ErrInvalidCertificateEncoding indicates the peer certificate is not a
	// well-formed X.509 certificate. It matches ErrDecode.
	ErrInvalidCertificateEncoding = fmt.Errorf("%w: invalid certificate encoding", ErrDecode)

	// ErrInvalidCertificateSignature indicates a certificate signature did
	// not verify with the signer's key.
	ErrInvalidCertificateSignature = errors.New("keypin: invalid certificate signature")

	// ErrInvalidCertificateSignatureType indicates a certificate was signed
	// with an algorithm outside the supported set.
	ErrInvalidCertificateSignatureType = errors.New("keypin: unsupported certificate signature type")

	// ErrInvalidCertificateData indicates any other certificate validation
	// failure, including a key mismatch.
	ErrInvalidCertificateData = errors.New("keypin: invalid certificate data")

	// ErrKeyMismatch indicates the peer certificate is well-formed but its
	// public key is not the expected key. It always accompanies
	// ErrInvalidCertificateData.
	ErrKeyMismatch = errors.New("keypin: public key mismatch")

	// ErrUnsupportedNameType indicates the claimed server identity is not a
	// syntactically valid DNS name.
	ErrUnsupportedNameType = errors.New("keypin: unsupported server name type")

	// ErrFailedToGetCurrentTime indicates the supplied time cannot be used
	// for verification.
	ErrFailedToGetCurrentTime = errors.New("keypin: failed to get current time")

	// ErrNoCertificates indicates the peer presented no certificates.
	ErrNoCertificates = errors.New("keypin: no certificates presented")
)

// Configuration errors.
var (
	// ErrInvalidConfig indicates a nil or incomplete configuration.
	ErrInvalidConfig = errors.New("keypin: invalid configuration")

	// ErrUnsupportedKeyType indicates a crypto.PublicKey could not be
	// encoded as a SubjectPublicKeyInfo.
	ErrUnsupportedKeyType = errors.New("keypin: unsupported public key type")
)

// KeyMismatchError reports a peer certificate whose public key differs from
// the expected key. It matches both ErrKeyMismatch and
// ErrInvalidCertificateData.
type KeyMismatchError struct {
	// Received is the public key found in the peer certificate.
	Received *PublicKey

	// Expected is the pinned public key.
	Expected *PublicKey
}

// Error identifies both keys by algorithm and fingerprint.
func (e *KeyMismatchError) Error() string {
	return fmt.Sprintf("keypin: invalid peer certificate: received %s instead of expected %s",
		e.Received, e.Expected)
}

// Unwrap returns ErrKeyMismatch and ErrInvalidCertificateData.
func (e *KeyMismatchError) Unwrap() []error {
	return []error{ErrKeyMismatch, ErrInvalidCertificateData}
}

// CertificateDataError reports a certificate validation failure that has no
// more specific handshake error. It matches ErrInvalidCertificateData and
// the underlying cause.
type CertificateDataError struct {
	// Cause is the validation failure reported by the PKI layer.
	Cause error
}

// Error embeds the underlying cause.
func (e *CertificateDataError) Error() string {
	return fmt.Sprintf("keypin: invalid peer certificate: %v", e.Cause)
}

// Unwrap returns ErrInvalidCertificateData and the cause.
func (e *CertificateDataError) Unwrap() []error {
	return []error{ErrInvalidCertificateData, e.Cause}
}

// MapPKIError translates a pki package error into the handshake error
// vocabulary. A nil error maps to nil.
func MapPKIError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pki.ErrBadDER), errors.Is(err, pki.ErrBadDERTime):
		return fmt.Errorf("%w: %w", ErrInvalidCertificateEncoding, err)
	case errors.Is(err, pki.ErrInvalidSignatureForPublicKey):
		return fmt.Errorf("%w: %w", ErrInvalidCertificateSignature, err)
	case errors.Is(err, pki.ErrUnsupportedSignatureAlgorithm),
		errors.Is(err, pki.ErrUnsupportedSignatureAlgorithmForPublicKey):
		return fmt.Errorf("%w: %w", ErrInvalidCertificateSignatureType, err)
	default:
		return &CertificateDataError{Cause: err}
	}
}
