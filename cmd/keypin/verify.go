// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/pem"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keypin/pkg/keypin"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a certificate against a pinned key",
	Long: `Verify a peer certificate exactly as a pinned handshake would. The first
certificate in --cert-file is the end entity; any further certificates are
treated as presented intermediates.

With --server-name the certificate is checked as a TLS server certificate
for that DNS name; otherwise it is checked as a TLS client certificate.

The pinned key is located with the --pin* flags.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().String("cert-file", "", "path to PEM or DER certificate chain (required)")
	verifyCmd.Flags().String("server-name", "", "verify as a server certificate for this DNS name")
	verifyCmd.Flags().String("at", "", "verification time in RFC 3339 format (default: now)")
	addPinFlags(verifyCmd.Flags())
}

func runVerify(cmd *cobra.Command, args []string) error {
	certFile, _ := cmd.Flags().GetString("cert-file")
	serverName, _ := cmd.Flags().GetString("server-name")
	at, _ := cmd.Flags().GetString("at")

	if certFile == "" {
		return fmt.Errorf("%w: --cert-file is required", ErrInvalidInput)
	}

	now := time.Now()
	if at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return fmt.Errorf("%w: --at: %w", ErrInvalidInput, err)
		}
		now = parsed
	}

	chain, err := readCertChain(certFile)
	if err != nil {
		return err
	}

	v, err := newVerifier(commandContext(cmd), cmd)
	if err != nil {
		return err
	}

	direction := "client"
	if serverName != "" {
		direction = "server"
		err = v.VerifyServerCert(chain[0], chain[1:], keypin.ParseServerName(serverName), nil, nil, now)
	} else {
		err = v.VerifyClientCert(chain[0], chain[1:], now)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}

	slog.Info("certificate verified", "direction", direction, "key", v.ExpectedKey().Fingerprint())
	fmt.Fprintf(cmd.OutOrStdout(), "OK: %s certificate holds pinned key %s\n", direction, v.ExpectedKey())
	return nil
}

// readCertChain reads every CERTIFICATE block from a PEM file, or the
// whole file as a single DER certificate when it holds no PEM.
func readCertChain(path string) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrFileOperation, path, err)
	}

	var chain [][]byte
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type == keypin.PEMTypeCertificate {
			chain = append(chain, block.Bytes)
		}
	}

	if len(chain) == 0 {
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: %s is empty", ErrInvalidInput, path)
		}
		chain = [][]byte{data}
	}
	return chain, nil
}
