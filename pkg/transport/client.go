// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package transport

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Client fetches a server's identity over a pinned TLS channel.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a pinned client.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if cfg.Verifier == nil {
		return nil, fmt.Errorf("%w: verifier is required", ErrInvalidConfig)
	}
	u, err := url.Parse(cfg.ServerURL)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("%w: https server URL is required", ErrInvalidConfig)
	}

	serverName := cfg.ServerName
	if serverName == "" {
		serverName = u.Hostname()
	}
	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var clientCert *tls.Certificate
	if cfg.Identity != nil {
		tc := cfg.Identity.TLSCertificate()
		clientCert = &tc
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.ServerURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: cfg.Verifier.ClientTLSConfig(clientCert, serverName),
			},
		},
		logger: logger.With("component", "transport_client"),
	}, nil
}

// FetchIdentity retrieves the server's identity document. The server key
// has already been checked against the pin during the handshake.
func (c *Client) FetchIdentity(ctx context.Context) (*IdentityResponse, error) {
	endpoint := c.baseURL + IdentityPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	c.logger.Debug("fetching identity", "url", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: server returned %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if len(body) == 0 {
		return nil, ErrEmptyResponse
	}

	var identity IdentityResponse
	if err := json.Unmarshal(body, &identity); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrFetchFailed, err)
	}
	if identity.PublicKey == nil {
		return nil, fmt.Errorf("%w: response has no public key", ErrFetchFailed)
	}

	c.logger.Info("identity fetched", "key", identity.PublicKey.Fingerprint())
	return &identity, nil
}

// Close releases resources held by the client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
