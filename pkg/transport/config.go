// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package transport

import (
	"log/slog"
	"time"

	"github.com/jeremyhahn/go-keypin/pkg/identity"
	"github.com/jeremyhahn/go-keypin/pkg/keypin"
)

// Default configuration values for the server and client.
const (
	// DefaultListenAddr is the default TCP address the server binds to.
	DefaultListenAddr = ":8443"

	// DefaultMaxConnections is the default maximum number of concurrent connections.
	DefaultMaxConnections = 100

	// MaxMaxConnections is the upper bound for the MaxConnections configuration value.
	MaxMaxConnections = 10000

	// DefaultReadTimeout is the default deadline for reading a request,
	// including the TLS handshake.
	DefaultReadTimeout = 10 * time.Second

	// DefaultWriteTimeout is the default deadline for writing a response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultRateLimit is the default token refill rate (requests per second per IP).
	DefaultRateLimit = 10.0

	// DefaultRateBurst is the default maximum burst size for the rate limiter.
	DefaultRateBurst = 20

	// DefaultConnectTimeout is the default client request timeout.
	DefaultConnectTimeout = 10 * time.Second

	// IdentityPath is the REST API path of the identity endpoint.
	IdentityPath = "/v1/identity"

	// MaxResponseSize is the maximum allowed response body size (1 MB).
	MaxResponseSize = 1 << 20

	rateLimiterIdle = 10 * time.Minute
)

// ServerConfig configures a pinned identity server.
type ServerConfig struct {
	// ListenAddr is the TCP address to bind the listener to (e.g., ":8443").
	// Empty is replaced with DefaultListenAddr.
	ListenAddr string

	// Identity is the certificate and key the server presents. Required.
	Identity *identity.Identity

	// Verifier authenticates clients against their pinned key. Required.
	Verifier *keypin.Verifier

	// MaxConnections limits the number of simultaneous client connections.
	// Zero or negative values are replaced with DefaultMaxConnections;
	// values above MaxMaxConnections are capped.
	MaxConnections int

	// ReadTimeout bounds reading a request. Zero value is replaced with
	// DefaultReadTimeout.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing a response. Zero value is replaced with
	// DefaultWriteTimeout.
	WriteTimeout time.Duration

	// RateLimit is the per-IP token refill rate in requests per second.
	// Zero value is replaced with DefaultRateLimit.
	RateLimit float64

	// RateBurst is the maximum number of requests that can be made in a
	// burst before rate limiting kicks in. Zero value is replaced with
	// DefaultRateBurst.
	RateBurst int

	// Logger is the structured logger for the server. If nil,
	// slog.Default() is used.
	Logger *slog.Logger
}

// ClientConfig configures a pinned identity client.
type ClientConfig struct {
	// ServerURL is the base URL of the server (e.g., "https://svc.internal:8443").
	ServerURL string

	// ServerName is the DNS name the server certificate must cover. Empty
	// uses the host of ServerURL.
	ServerName string

	// Identity is presented when the server requests a client certificate.
	// Optional, but pinned servers reject clients without one.
	Identity *identity.Identity

	// Verifier authenticates the server against its pinned key. Required.
	Verifier *keypin.Verifier

	// ConnectTimeout is the timeout for the HTTP request. Zero value is
	// replaced with DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// Logger for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// applyDefaults returns a copy of cfg with zero values replaced.
func (cfg ServerConfig) applyDefaults() ServerConfig {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = DefaultMaxConnections
	}
	if cfg.MaxConnections > MaxMaxConnections {
		cfg.MaxConnections = MaxMaxConnections
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = DefaultRateBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}
