// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package keysource

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jeremyhahn/go-keypin/pkg/dane"
	"github.com/jeremyhahn/go-keypin/pkg/keypin"
)

// DefaultDANETimeout is the default DNS query timeout.
const DefaultDANETimeout = 5 * time.Second

// DANEConfig configures a DANESource.
type DANEConfig struct {
	// Hostname is the service whose TLSA records are queried. Required.
	Hostname string

	// Port is the service port. Default: 443.
	Port uint16

	// DNSServer is the resolver address. When empty, the system resolver
	// is used.
	DNSServer string

	// DNSOverTLS queries the resolver over DNS-over-TLS.
	DNSOverTLS bool

	// DNSTLSServerName is the SNI value for DNS-over-TLS.
	DNSTLSServerName string

	// Timeout is the DNS query timeout. Default: 5s.
	Timeout time.Duration

	// Resolver overrides the resolver built from the DNS fields.
	Resolver KeyResolver

	// Logger for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DANESource resolves the key from the service's DANE-EE 3 1 0 record.
// The built-in resolver always requires DNSSEC-authenticated answers; a
// key from unauthenticated DNS is no better than one from the network
// path itself.
type DANESource struct {
	hostname string
	port     uint16
	resolver KeyResolver
	logger   *slog.Logger
}

// NewDANESource creates a DANE source.
func NewDANESource(cfg *DANEConfig) (*DANESource, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if cfg.Hostname == "" {
		return nil, fmt.Errorf("%w: hostname required", ErrInvalidConfig)
	}

	port := cfg.Port
	if port == 0 {
		port = 443
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	resolver := cfg.Resolver
	if resolver == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultDANETimeout
		}
		r, err := dane.NewResolver(&dane.ResolverConfig{
			Server:        cfg.DNSServer,
			UseTLS:        cfg.DNSOverTLS,
			TLSServerName: cfg.DNSTLSServerName,
			RequireAD:     true,
			Timeout:       timeout,
			Logger:        logger,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		resolver = r
	}

	return &DANESource{
		hostname: cfg.Hostname,
		port:     port,
		resolver: resolver,
		logger:   logger.With("component", "dane_keysource"),
	}, nil
}

// PublicKey resolves the published key.
func (s *DANESource) PublicKey(ctx context.Context) (*keypin.PublicKey, error) {
	key, err := s.resolver.LookupKey(ctx, s.hostname, s.port)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	s.logger.Debug("resolved key from DANE",
		"hostname", s.hostname,
		"port", s.port,
		"key", key.Fingerprint())
	return key, nil
}

// Close is a no-op.
func (s *DANESource) Close() error {
	return nil
}
