// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package transport serves and fetches a peer's identity over a mutually
// authenticated TLS channel where each side pins the other's public key.
package transport

import "errors"

// Sentinel errors for the transport package.
var (
	// ErrInvalidConfig indicates a nil or incomplete configuration.
	ErrInvalidConfig = errors.New("transport: invalid configuration")

	// ErrServerNotStarted indicates an operation was attempted before the server was started.
	ErrServerNotStarted = errors.New("transport: server not started")

	// ErrServerAlreadyStarted indicates Start was called on an already-running server.
	ErrServerAlreadyStarted = errors.New("transport: server already started")

	// ErrFetchFailed indicates the identity request did not complete.
	ErrFetchFailed = errors.New("transport: fetch failed")

	// ErrEmptyResponse indicates the server returned an empty body.
	ErrEmptyResponse = errors.New("transport: empty response")
)
