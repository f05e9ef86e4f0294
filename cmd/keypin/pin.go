// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jeremyhahn/go-keypin/pkg/keypin"
	"github.com/jeremyhahn/go-keypin/pkg/keysource"
)

const defaultPinOrder = "embedded,file,dane,https"

// addPinFlags registers the flags that locate the pinned public key.
func addPinFlags(flags *pflag.FlagSet) {
	flags.String("pin", "", "pinned key as base64 DER SubjectPublicKeyInfo")
	flags.String("pin-file", "", "file holding the pinned key (PEM or DER public key or certificate)")
	flags.String("pin-dane-host", "", "hostname whose DANE-EE TLSA record publishes the pinned key")
	flags.Int("pin-dane-port", 443, "service port for the TLSA lookup")
	flags.String("pin-dns-server", "", "DNS server for the TLSA lookup (e.g., 9.9.9.9:53)")
	flags.Bool("pin-dns-over-tls", false, "use DNS-over-TLS for the TLSA lookup")
	flags.String("pin-url", "", "HTTPS URL serving the pinned key")
	flags.String("pin-fingerprint", "", "hex SHA-256 fingerprint the --pin-url key must match")
	flags.String("pin-order", defaultPinOrder, "comma-separated pinned key source priority order")
	flags.Duration("pin-timeout", keysource.DefaultPerMethodTimeout, "timeout per pinned key source")
}

// pinConfig builds the key source configuration from the pin flags.
func pinConfig(cmd *cobra.Command) (*keysource.AutoConfig, error) {
	flags := cmd.Flags()
	pin, _ := flags.GetString("pin")
	pinFile, _ := flags.GetString("pin-file")
	daneHost, _ := flags.GetString("pin-dane-host")
	danePort, _ := flags.GetInt("pin-dane-port")
	dnsServer, _ := flags.GetString("pin-dns-server")
	dnsOverTLS, _ := flags.GetBool("pin-dns-over-tls")
	pinURL, _ := flags.GetString("pin-url")
	fingerprint, _ := flags.GetString("pin-fingerprint")
	order, _ := flags.GetString("pin-order")
	timeout, _ := flags.GetDuration("pin-timeout")

	if timeout <= 0 {
		return nil, fmt.Errorf("%w: --pin-timeout must be positive", ErrInvalidInput)
	}
	if danePort <= 0 || danePort > 65535 {
		return nil, fmt.Errorf("%w: --pin-dane-port out of range", ErrInvalidInput)
	}

	cfg := &keysource.AutoConfig{
		PerMethodTimeout: timeout,
		Logger:           slog.Default(),
	}

	for _, name := range strings.Split(order, ",") {
		m, err := keysource.ParseMethod(name)
		if err != nil {
			return nil, fmt.Errorf("%w: --pin-order: %w", ErrInvalidInput, err)
		}
		cfg.MethodOrder = append(cfg.MethodOrder, m)
	}

	if pin != "" {
		der, err := base64.StdEncoding.DecodeString(strings.TrimSpace(pin))
		if err != nil {
			return nil, fmt.Errorf("%w: --pin is not base64: %w", ErrInvalidInput, err)
		}
		cfg.Embedded = keysource.StaticProvider(der)
	}
	if pinFile != "" {
		cfg.File = &keysource.FileConfig{Path: pinFile}
	}
	if daneHost != "" {
		cfg.DANE = &keysource.DANEConfig{
			Hostname:   daneHost,
			Port:       uint16(danePort),
			DNSServer:  dnsServer,
			DNSOverTLS: dnsOverTLS,
		}
	}
	if pinURL != "" {
		cfg.HTTPS = &keysource.HTTPSConfig{URL: pinURL, Fingerprint: fingerprint}
	}

	if cfg.Embedded == nil && cfg.File == nil && cfg.DANE == nil && cfg.HTTPS == nil {
		return nil, fmt.Errorf("%w: no pinned key source; set --pin, --pin-file, --pin-dane-host or --pin-url",
			ErrInvalidInput)
	}
	return cfg, nil
}

// loadPinnedKey resolves the pinned key from the pin flags.
func loadPinnedKey(ctx context.Context, cmd *cobra.Command) (*keypin.PublicKey, error) {
	cfg, err := pinConfig(cmd)
	if err != nil {
		return nil, err
	}

	src, err := keysource.NewAutoSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	defer src.Close()

	key, err := src.PublicKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: pinned key: %w", ErrFetchFailed, err)
	}

	slog.Debug("pinned key loaded", "key", key.String())
	return key, nil
}

// newVerifier loads the pinned key and builds a verifier for it.
func newVerifier(ctx context.Context, cmd *cobra.Command) (*keypin.Verifier, error) {
	key, err := loadPinnedKey(ctx, cmd)
	if err != nil {
		return nil, err
	}
	v, err := keypin.NewVerifier(&keypin.VerifierConfig{ExpectedKey: key, Logger: slog.Default()})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return v, nil
}
