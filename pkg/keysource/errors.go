// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package keysource

import "errors"

var (
	// ErrInvalidConfig indicates the source configuration is invalid or
	// missing required fields.
	ErrInvalidConfig = errors.New("keysource: invalid configuration")

	// ErrLoadFailed indicates the key could not be read from its source.
	ErrLoadFailed = errors.New("keysource: load failed")

	// ErrProviderNil indicates a nil KeyProvider was given to the embedded
	// source.
	ErrProviderNil = errors.New("keysource: provider is nil")

	// ErrFingerprintMismatch indicates a downloaded key does not match the
	// configured fingerprint.
	ErrFingerprintMismatch = errors.New("keysource: fingerprint mismatch")

	// ErrAllMethodsFailed indicates every configured method was attempted
	// and none produced a key.
	ErrAllMethodsFailed = errors.New("keysource: all methods failed")

	// ErrNoMethodsConfigured indicates no method in the order has a
	// configuration.
	ErrNoMethodsConfigured = errors.New("keysource: no methods configured")
)
