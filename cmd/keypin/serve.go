// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keypin/pkg/identity"
	"github.com/jeremyhahn/go-keypin/pkg/transport"
)

// shutdownContext is done when the server should stop. Tests replace it.
var shutdownContext = func() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// serveCmd runs a mutually pinned identity server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a mutually pinned identity server",
	Long: `Run an HTTPS server that presents a self-signed identity and accepts only
clients whose certificate carries the pinned key located with the --pin*
flags. Clients retrieve the server identity from ` + transport.IdentityPath + `.

The identity is loaded from --cert-file and --key-file. If neither file
exists, a new identity is generated for the --dns-name values and saved.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("cert-file", "keypin.crt", "path to identity certificate PEM file")
	serveCmd.Flags().String("key-file", "keypin.key", "path to identity private key PEM file")
	serveCmd.Flags().String("key-type", string(identity.KeyTypeEd25519), "key type when generating (ed25519|ecdsa-p256)")
	serveCmd.Flags().StringSlice("dns-name", nil, "DNS name for a generated identity (repeatable)")
	serveCmd.Flags().String("listen", transport.DefaultListenAddr, "TCP listen address")
	serveCmd.Flags().Int("max-connections", transport.DefaultMaxConnections, "maximum concurrent connections")
	serveCmd.Flags().Float64("rate-limit", transport.DefaultRateLimit, "requests per second per client IP")
	serveCmd.Flags().Int("rate-burst", transport.DefaultRateBurst, "request burst per client IP")
	addPinFlags(serveCmd.Flags())
}

// runServe loads the identity and pinned client key, starts the server
// and waits for a termination signal.
func runServe(cmd *cobra.Command, args []string) error {
	certFile, _ := cmd.Flags().GetString("cert-file")
	keyFile, _ := cmd.Flags().GetString("key-file")
	keyType, _ := cmd.Flags().GetString("key-type")
	dnsNames, _ := cmd.Flags().GetStringSlice("dns-name")
	listenAddr, _ := cmd.Flags().GetString("listen")
	maxConns, _ := cmd.Flags().GetInt("max-connections")
	rateLimit, _ := cmd.Flags().GetFloat64("rate-limit")
	rateBurst, _ := cmd.Flags().GetInt("rate-burst")

	if certFile == "" || keyFile == "" {
		return fmt.Errorf("%w: --cert-file and --key-file are required", ErrInvalidInput)
	}

	id, err := loadOrGenerateIdentity(certFile, keyFile, keyType, dnsNames)
	if err != nil {
		return err
	}
	defer id.Wipe()

	verifier, err := newVerifier(commandContext(cmd), cmd)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	server, err := transport.NewServer(&transport.ServerConfig{
		ListenAddr:     listenAddr,
		Identity:       id,
		Verifier:       verifier,
		MaxConnections: maxConns,
		RateLimit:      rateLimit,
		RateBurst:      rateBurst,
		Logger:         slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServerStart, err)
	}

	if err := server.Start(); err != nil {
		return fmt.Errorf("%w: %w", ErrServerStart, err)
	}

	slog.Info("listening", "addr", server.Addr().String(), "client_key", verifier.ExpectedKey().Fingerprint())

	sigCtx, sigStop := shutdownContext()
	defer sigStop()

	<-sigCtx.Done()
	slog.Info("shutdown signal received")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	if err := server.Stop(stopCtx); err != nil {
		return fmt.Errorf("%w: %w", ErrServerStart, err)
	}

	slog.Info("server stopped")
	return nil
}

// loadOrGenerateIdentity loads the identity files, or generates and saves
// a new identity when neither file exists.
func loadOrGenerateIdentity(certFile, keyFile, keyTypeName string, dnsNames []string) (*identity.Identity, error) {
	_, certErr := os.Stat(certFile)
	_, keyErr := os.Stat(keyFile)

	if os.IsNotExist(certErr) && os.IsNotExist(keyErr) {
		keyType, err := identity.ParseKeyType(keyTypeName)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return generateIdentity(keyType, identity.DefaultCommonName, dnsNames, identity.DefaultValidity, certFile, keyFile)
	}

	id, err := identity.Load(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: loading identity: %w", ErrKeyOperation, err)
	}

	slog.Info("loaded identity", "cert", certFile)
	return id, nil
}
