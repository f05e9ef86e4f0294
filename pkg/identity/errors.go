// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package identity

import "errors"

var (
	// ErrInvalidConfig indicates invalid identity options.
	ErrInvalidConfig = errors.New("identity: invalid configuration")

	// ErrUnsupportedKeyType indicates a key type other than Ed25519 or
	// ECDSA P-256.
	ErrUnsupportedKeyType = errors.New("identity: unsupported key type")

	// ErrGenerate indicates key or certificate generation failed.
	ErrGenerate = errors.New("identity: generation failed")

	// ErrInvalidIdentity indicates persisted identity material could not be
	// decoded or is not a self-signed leaf certificate.
	ErrInvalidIdentity = errors.New("identity: invalid identity")

	// ErrKeyMismatch indicates the private key does not belong to the
	// certificate.
	ErrKeyMismatch = errors.New("identity: private key does not match certificate")
)
