// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package dane publishes and resolves pinned public keys as DANE TLSA
// records (RFC 6698). A pinned key is carried as a DANE-EE SubjectPublicKeyInfo
// record: usage 3, selector 1. Matching type 0 carries the full key and is
// the only form from which a key can be recovered; matching types 1 and 2
// carry SHA-256 and SHA-512 digests that can only confirm a key obtained
// elsewhere.
package dane

import "errors"

// DNS lookup errors.
var (
	// ErrNoTLSARecords indicates no TLSA records were found for the queried name.
	ErrNoTLSARecords = errors.New("dane: no TLSA records found")

	// ErrDNSLookupFailed indicates the DNS query for TLSA records failed.
	ErrDNSLookupFailed = errors.New("dane: DNS lookup failed")

	// ErrDNSSECRequired indicates DNSSEC validation is required but the
	// Authenticated Data (AD) flag was not set in the DNS response.
	ErrDNSSECRequired = errors.New("dane: DNSSEC validation required but AD flag not set")
)

// Record matching errors.
var (
	// ErrKeyNotPublished indicates no DANE-EE SPKI record matched the key.
	ErrKeyNotPublished = errors.New("dane: key does not match any published TLSA record")

	// ErrNoFullKeyRecord indicates the record set has no DANE-EE SPKI record
	// with matching type 0, so no key can be recovered from it.
	ErrNoFullKeyRecord = errors.New("dane: no full SubjectPublicKeyInfo record (3 1 0)")

	// ErrAmbiguousKey indicates the record set publishes more than one full
	// key.
	ErrAmbiguousKey = errors.New("dane: multiple distinct keys published")

	// ErrDigestMismatch indicates a published key contradicts a digest
	// record in the same set.
	ErrDigestMismatch = errors.New("dane: published key does not match published digest")

	// ErrUnsupportedSelector indicates the TLSA selector field value is not supported.
	ErrUnsupportedSelector = errors.New("dane: unsupported TLSA selector")

	// ErrUnsupportedMatching indicates the TLSA matching type field value is not supported.
	ErrUnsupportedMatching = errors.New("dane: unsupported TLSA matching type")

	// ErrUnsupportedUsage indicates the TLSA certificate usage field value is not supported.
	ErrUnsupportedUsage = errors.New("dane: unsupported TLSA usage")
)

// Input validation errors.
var (
	// ErrInvalidKey indicates a nil public key was provided.
	ErrInvalidKey = errors.New("dane: invalid public key")

	// ErrInvalidHostname indicates an empty or malformed hostname was provided.
	ErrInvalidHostname = errors.New("dane: invalid hostname")

	// ErrInvalidPort indicates port number zero was provided.
	ErrInvalidPort = errors.New("dane: invalid port")

	// ErrInvalidRecord indicates a nil or unparseable TLSA record.
	ErrInvalidRecord = errors.New("dane: invalid TLSA record")

	// ErrResolverConfig indicates the resolver configuration is invalid.
	ErrResolverConfig = errors.New("dane: invalid resolver configuration")
)
