// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package keysource

import (
	"context"
	"crypto/subtle"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jeremyhahn/go-keypin/pkg/keypin"
)

// DefaultHTTPSTimeout is the default HTTP request timeout.
const DefaultHTTPSTimeout = 10 * time.Second

// HTTPSConfig configures an HTTPSSource.
type HTTPSConfig struct {
	// URL of the key document. The response body may hold a PEM
	// "PUBLIC KEY" or "CERTIFICATE" block, or raw DER. Required.
	URL string

	// Fingerprint, when set, is the hex SHA-256 of the expected
	// SubjectPublicKeyInfo. A downloaded key with any other fingerprint is
	// rejected.
	Fingerprint string

	// TLSConfig overrides the client TLS configuration. The default
	// validates the server with the system trust store.
	TLSConfig *tls.Config

	// Timeout is the HTTP request timeout. Default: 10s.
	Timeout time.Duration

	// Logger for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// HTTPSSource downloads the key over HTTPS.
type HTTPSSource struct {
	url         string
	fingerprint string
	client      *http.Client
	logger      *slog.Logger
}

// NewHTTPSSource creates an HTTPS source. Plain http URLs are rejected.
func NewHTTPSSource(cfg *HTTPSConfig) (*HTTPSSource, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if !strings.HasPrefix(cfg.URL, "https://") {
		return nil, fmt.Errorf("%w: https URL required", ErrInvalidConfig)
	}
	fingerprint := strings.ToLower(strings.TrimSpace(cfg.Fingerprint))
	if fingerprint != "" && len(fingerprint) != 64 {
		return nil, fmt.Errorf("%w: fingerprint must be 64 hex characters", ErrInvalidConfig)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultHTTPSTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.TLSConfig != nil {
		transport.TLSClientConfig = cfg.TLSConfig.Clone()
	}

	return &HTTPSSource{
		url:         cfg.URL,
		fingerprint: fingerprint,
		client:      &http.Client{Timeout: timeout, Transport: transport},
		logger:      logger.With("component", "https_keysource"),
	}, nil
}

// PublicKey downloads and decodes the key.
func (s *HTTPSSource) PublicKey(ctx context.Context) (*keypin.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	s.logger.Debug("fetching key", "url", s.url)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: server returned %d", ErrLoadFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxKeyFileSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrLoadFailed, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrLoadFailed)
	}

	key, err := decodeKey(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	if s.fingerprint != "" &&
		subtle.ConstantTimeCompare([]byte(key.Fingerprint()), []byte(s.fingerprint)) != 1 {
		return nil, fmt.Errorf("%w: got %s", ErrFingerprintMismatch, key.Fingerprint())
	}

	s.logger.Debug("fetched key", "url", s.url, "key", key.Fingerprint())
	return key, nil
}

// Close releases idle connections.
func (s *HTTPSSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
