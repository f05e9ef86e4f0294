// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package keysource loads the expected public key for a keypin.Verifier
// from a trusted out-of-band location. The key is loaded once at setup and
// then shared, read-only, by every handshake.
//
// Four sources are provided:
//
//   - EmbeddedSource: reads the key from an in-process KeyProvider. No I/O.
//
//   - FileSource: reads a PEM "PUBLIC KEY" or "CERTIFICATE" block, or raw
//     DER, from a local file provisioned by configuration management.
//
//   - DANESource: resolves the DANE-EE 3 1 0 TLSA record published for the
//     peer service. DNSSEC authentication is always required.
//
//   - HTTPSSource: downloads the key over HTTPS validated by the system
//     trust store, optionally checked against a SHA-256 fingerprint
//     distributed separately.
//
// AutoSource tries the configured sources in priority order and returns the
// first key obtained.
package keysource

import (
	"context"
	"encoding/pem"

	"github.com/jeremyhahn/go-keypin/pkg/keypin"
)

// Source loads the expected public key.
type Source interface {
	// PublicKey returns the expected public key.
	PublicKey(ctx context.Context) (*keypin.PublicKey, error)

	// Close releases resources held by the source.
	Close() error
}

// KeyProvider supplies a DER-encoded SubjectPublicKeyInfo from within the
// process, for example from a key manager that owns the peer's identity.
type KeyProvider interface {
	PublicKeyDER() ([]byte, error)
}

// KeyResolver resolves a published key for a TCP service. *dane.Resolver
// implements it.
type KeyResolver interface {
	LookupKey(ctx context.Context, hostname string, port uint16) (*keypin.PublicKey, error)
}

// decodeKey accepts PEM (PUBLIC KEY or CERTIFICATE) or raw DER
// (SubjectPublicKeyInfo or certificate).
func decodeKey(data []byte) (*keypin.PublicKey, error) {
	if block, _ := pem.Decode(data); block != nil {
		return keypin.ParsePublicKeyPEM(data)
	}
	if key, err := keypin.ParsePublicKey(data); err == nil {
		return key, nil
	}
	return keypin.PublicKeyFromCertificate(data)
}
