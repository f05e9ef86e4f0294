// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package pki provides the certificate path validation capability used by
// the key-pinned verifiers: certificate parsing, trust anchor construction,
// chain verification for TLS client and server usage against a fixed set of
// signature algorithms, and DNS name binding. It is built on crypto/x509
// for DER parsing and on the standard library signature primitives.
package pki

import "errors"

// Encoding errors indicate malformed DER input.
var (
	// ErrBadDER indicates a certificate or structure is not well-formed DER.
	ErrBadDER = errors.New("pki: bad DER")

	// ErrBadDERTime indicates a certificate validity time is malformed.
	ErrBadDERTime = errors.New("pki: bad DER time")

	// ErrBadTime indicates a wall-clock time cannot be represented as a
	// verification time (for example, it precedes the Unix epoch).
	ErrBadTime = errors.New("pki: time out of range")
)

// Validity errors indicate a certificate is outside its validity window or
// is used in a role it does not permit.
var (
	// ErrCertExpired indicates the verification time is after NotAfter.
	ErrCertExpired = errors.New("pki: certificate expired")

	// ErrCertNotValidYet indicates the verification time is before NotBefore.
	ErrCertNotValidYet = errors.New("pki: certificate not valid yet")

	// ErrCAUsedAsEndEntity indicates the end-entity certificate asserts cA=true.
	ErrCAUsedAsEndEntity = errors.New("pki: CA certificate used as end-entity")

	// ErrEndEntityUsedAsCA indicates an intermediate is not a CA certificate.
	ErrEndEntityUsedAsCA = errors.New("pki: end-entity certificate used as CA")

	// ErrRequiredEKUNotFound indicates the extended key usage extension does
	// not permit the requested usage.
	ErrRequiredEKUNotFound = errors.New("pki: required extended key usage not found")

	// ErrCertNotValidForName indicates the certificate does not cover the
	// requested DNS name.
	ErrCertNotValidForName = errors.New("pki: certificate not valid for name")

	// ErrInvalidDNSName indicates a reference name is not a syntactically
	// valid DNS name.
	ErrInvalidDNSName = errors.New("pki: invalid DNS name")
)

// Path errors indicate no acceptable path to a trust anchor exists.
var (
	// ErrUnknownIssuer indicates no trust anchor or intermediate issued the
	// certificate.
	ErrUnknownIssuer = errors.New("pki: unknown issuer")

	// ErrMaximumPathDepthExceeded indicates path building gave up after too
	// many intermediates.
	ErrMaximumPathDepthExceeded = errors.New("pki: maximum path depth exceeded")

	// ErrMaximumSignatureChecksExceeded indicates path building gave up
	// after verifying too many signatures.
	ErrMaximumSignatureChecksExceeded = errors.New("pki: maximum number of signature checks exceeded")

	// ErrMaximumPathBuildCallsExceeded indicates path building gave up
	// after considering too many candidate issuers.
	ErrMaximumPathBuildCallsExceeded = errors.New("pki: maximum number of path building calls exceeded")
)

// Signature errors indicate a certificate signature could not be verified.
var (
	// ErrInvalidSignatureForPublicKey indicates the signature is not valid
	// for the issuer's public key.
	ErrInvalidSignatureForPublicKey = errors.New("pki: invalid signature for public key")

	// ErrUnsupportedSignatureAlgorithm indicates the certificate's signature
	// algorithm is not in the allowed set.
	ErrUnsupportedSignatureAlgorithm = errors.New("pki: unsupported signature algorithm")

	// ErrUnsupportedSignatureAlgorithmForPublicKey indicates the signature
	// algorithm is allowed but not for the issuer's key type or curve.
	ErrUnsupportedSignatureAlgorithmForPublicKey = errors.New("pki: unsupported signature algorithm for public key")
)
