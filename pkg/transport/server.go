// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/netutil"

	"github.com/jeremyhahn/go-keypin/pkg/keypin"
)

// IdentityResponse is the JSON body served at IdentityPath.
type IdentityResponse struct {
	// PublicKey is the server's SubjectPublicKeyInfo, base64 in JSON.
	PublicKey *keypin.PublicKey `json:"public_key"`

	// Algorithm names the server key algorithm.
	Algorithm string `json:"algorithm"`

	// Fingerprint is the hex SHA-256 of the server's SubjectPublicKeyInfo.
	Fingerprint string `json:"fingerprint"`

	// Peer describes the client key the server verified for this request.
	Peer *PeerInfo `json:"peer,omitempty"`
}

// PeerInfo identifies a verified peer key.
type PeerInfo struct {
	Algorithm   string `json:"algorithm"`
	Fingerprint string `json:"fingerprint"`
}

// Server serves its identity to clients whose certificates carry the
// pinned key.
type Server struct {
	cfg       ServerConfig
	tlsConfig *tls.Config
	publicKey *keypin.PublicKey
	logger    *slog.Logger

	mu         sync.Mutex
	listener   net.Listener
	httpServer *http.Server
	serveErr   chan error
}

// NewServer validates cfg and creates a stopped server.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if cfg.Identity == nil {
		return nil, fmt.Errorf("%w: identity is required", ErrInvalidConfig)
	}
	if cfg.Verifier == nil {
		return nil, fmt.Errorf("%w: verifier is required", ErrInvalidConfig)
	}

	resolved := cfg.applyDefaults()

	pub, err := resolved.Identity.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return &Server{
		cfg:       resolved,
		tlsConfig: resolved.Verifier.ServerTLSConfig(resolved.Identity.TLSCertificate()),
		publicKey: pub,
		logger:    resolved.Logger.With("component", "transport_server"),
	}, nil
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return ErrServerAlreadyStarted
	}

	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("transport: listen %s: %w", s.cfg.ListenAddr, err)
	}
	limited := netutil.LimitListener(ln, s.cfg.MaxConnections)

	s.httpServer = &http.Server{
		Handler:      s.router(),
		TLSConfig:    s.tlsConfig,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelDebug),
	}
	s.listener = limited
	s.serveErr = make(chan error, 1)

	srv := s.httpServer
	go func() {
		err := srv.Serve(tls.NewListener(limited, s.tlsConfig))
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.serveErr <- err
	}()

	s.logger.Info("server started",
		"addr", ln.Addr().String(),
		"key", s.publicKey.Fingerprint(),
		"max_connections", s.cfg.MaxConnections)
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop gracefully shuts the server down, waiting for in-flight requests
// until ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ErrServerNotStarted
	}

	err := s.httpServer.Shutdown(ctx)
	if serveErr := <-s.serveErr; err == nil {
		err = serveErr
	}

	s.listener = nil
	s.httpServer = nil
	s.logger.Info("server stopped")
	return err
}

// router builds the gin engine for one run of the server. Each run gets a
// fresh rate limiter.
func (s *Server) router() *gin.Engine {
	r := gin.New()
	// Rate limiting keys on the TCP peer; forwarding headers are ignored.
	_ = r.SetTrustedProxies(nil)
	r.Use(gin.Recovery())
	r.Use(newClientLimiter(s.cfg.RateLimit, s.cfg.RateBurst, rateLimiterIdle).middleware(s.logger))
	r.GET(IdentityPath, s.handleIdentity)
	return r
}

func (s *Server) handleIdentity(c *gin.Context) {
	resp := IdentityResponse{
		PublicKey:   s.publicKey,
		Algorithm:   s.publicKey.AlgorithmName(),
		Fingerprint: s.publicKey.Fingerprint(),
	}

	if tlsState := c.Request.TLS; tlsState != nil && len(tlsState.PeerCertificates) > 0 {
		peer, err := keypin.PublicKeyFromCertificate(tlsState.PeerCertificates[0].Raw)
		if err == nil {
			resp.Peer = &PeerInfo{Algorithm: peer.AlgorithmName(), Fingerprint: peer.Fingerprint()}
		}
	}

	c.JSON(http.StatusOK, resp)

	remote := slog.String("remote", c.ClientIP())
	if resp.Peer != nil {
		s.logger.Debug("served identity", remote, slog.String("peer", resp.Peer.Fingerprint))
	} else {
		s.logger.Debug("served identity", remote)
	}
}
