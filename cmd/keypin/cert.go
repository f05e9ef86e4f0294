// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keypin/pkg/identity"
)

// certCmd is the parent command for identity certificate operations.
var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Self-signed identity management",
	Long:  "Tools for generating the self-signed certificates and keys peers present during pinned handshakes.",
}

var certGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a self-signed identity",
	Long: `Generate a private key and a self-signed, non-CA certificate valid for
both server and client authentication. The certificate and PKCS #8 key are
written as PEM files; the public key, which peers pin, is written to the
output in PEM form.`,
	RunE: runCertGenerate,
}

func init() {
	certCmd.AddCommand(certGenerateCmd)

	certGenerateCmd.Flags().String("key-type", string(identity.KeyTypeEd25519), "key type (ed25519|ecdsa-p256)")
	certGenerateCmd.Flags().String("common-name", identity.DefaultCommonName, "subject common name")
	certGenerateCmd.Flags().StringSlice("dns-name", nil, "DNS subject alternative name (repeatable)")
	certGenerateCmd.Flags().Duration("validity", identity.DefaultValidity, "certificate lifetime")
	certGenerateCmd.Flags().String("cert-file", "", "output certificate PEM file (required)")
	certGenerateCmd.Flags().String("key-file", "", "output private key PEM file (required)")
}

func runCertGenerate(cmd *cobra.Command, args []string) error {
	keyTypeName, _ := cmd.Flags().GetString("key-type")
	commonName, _ := cmd.Flags().GetString("common-name")
	dnsNames, _ := cmd.Flags().GetStringSlice("dns-name")
	validity, _ := cmd.Flags().GetDuration("validity")
	certFile, _ := cmd.Flags().GetString("cert-file")
	keyFile, _ := cmd.Flags().GetString("key-file")

	if certFile == "" || keyFile == "" {
		return fmt.Errorf("%w: --cert-file and --key-file are required", ErrInvalidInput)
	}
	if validity <= 0 {
		return fmt.Errorf("%w: --validity must be positive", ErrInvalidInput)
	}
	keyType, err := identity.ParseKeyType(keyTypeName)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	id, err := generateIdentity(keyType, commonName, dnsNames, validity, certFile, keyFile)
	if err != nil {
		return err
	}
	defer id.Wipe()

	pub, err := id.PublicKey()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeyOperation, err)
	}
	return writeOutput(pub.PEM())
}

// generateIdentity creates and saves a new identity.
func generateIdentity(
	keyType identity.KeyType, commonName string, dnsNames []string, validity time.Duration,
	certFile, keyFile string,
) (*identity.Identity, error) {
	slog.Debug("generating identity", "key_type", keyType, "dns_names", dnsNames)

	id, err := identity.Generate(&identity.Options{
		KeyType:    keyType,
		CommonName: commonName,
		DNSNames:   dnsNames,
		Validity:   validity,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyOperation, err)
	}

	if err := id.Save(certFile, keyFile); err != nil {
		id.Wipe()
		return nil, fmt.Errorf("%w: %w", ErrFileOperation, err)
	}

	pub, err := id.PublicKey()
	if err != nil {
		id.Wipe()
		return nil, fmt.Errorf("%w: %w", ErrKeyOperation, err)
	}
	slog.Info("identity written", "cert", certFile, "key", keyFile, "fingerprint", pub.Fingerprint())
	return id, nil
}
