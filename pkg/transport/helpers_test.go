// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-keypin/pkg/identity"
	"github.com/jeremyhahn/go-keypin/pkg/keypin"
)

const testServerName = "svc.internal"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newIdentity(t *testing.T, keyType identity.KeyType, dnsNames ...string) *identity.Identity {
	t.Helper()
	id, err := identity.Generate(&identity.Options{KeyType: keyType, DNSNames: dnsNames})
	require.NoError(t, err)
	return id
}

// pinnedTo returns a verifier that trusts only id's key.
func pinnedTo(t *testing.T, id *identity.Identity) *keypin.Verifier {
	t.Helper()
	pub, err := id.PublicKey()
	require.NoError(t, err)
	v, err := keypin.NewVerifier(&keypin.VerifierConfig{ExpectedKey: pub, Logger: discardLogger()})
	require.NoError(t, err)
	return v
}

// startServer starts a server presenting serverID that accepts only
// clients holding clientID's key.
func startServer(t *testing.T, serverID, clientID *identity.Identity, mutate func(*ServerConfig)) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &ServerConfig{
		ListenAddr:   "127.0.0.1:0",
		Identity:     serverID,
		Verifier:     pinnedTo(t, clientID),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		Logger:       discardLogger(),
	}
	if mutate != nil {
		mutate(cfg)
	}

	srv, err := NewServer(cfg)
	require.NoError(t, err)
	require.NoError(t, srv.Start())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})
	return srv
}

func serverURL(srv *Server) string {
	return fmt.Sprintf("https://%s", srv.Addr().String())
}

func newClient(t *testing.T, srv *Server, clientID, pinnedServer *identity.Identity, serverName string) *Client {
	t.Helper()
	c, err := NewClient(&ClientConfig{
		ServerURL:      serverURL(srv),
		ServerName:     serverName,
		Identity:       clientID,
		Verifier:       pinnedTo(t, pinnedServer),
		ConnectTimeout: 5 * time.Second,
		Logger:         discardLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}
