// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keypin/pkg/identity"
	"github.com/jeremyhahn/go-keypin/pkg/transport"
)

const defaultProbeTimeout = 10 * time.Second

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Fetch a server identity over a mutually pinned channel",
	Long: `Connect to a keypin server, authenticate it against the pinned key located
with the --pin* flags, present the client identity from --cert-file and
--key-file, and print the identity the server reports, including the client
key it verified.`,
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().String("server-url", "", "server URL (e.g., https://svc.internal:8443) (required)")
	probeCmd.Flags().String("server-name", "", "DNS name the server certificate must cover (default: URL host)")
	probeCmd.Flags().String("cert-file", "", "client identity certificate PEM file")
	probeCmd.Flags().String("key-file", "", "client identity private key PEM file")
	probeCmd.Flags().Duration("timeout", defaultProbeTimeout, "request timeout")
	addPinFlags(probeCmd.Flags())
}

func runProbe(cmd *cobra.Command, args []string) error {
	serverURL, _ := cmd.Flags().GetString("server-url")
	serverName, _ := cmd.Flags().GetString("server-name")
	certFile, _ := cmd.Flags().GetString("cert-file")
	keyFile, _ := cmd.Flags().GetString("key-file")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if serverURL == "" {
		return fmt.Errorf("%w: --server-url is required", ErrInvalidInput)
	}
	if (certFile == "") != (keyFile == "") {
		return fmt.Errorf("%w: --cert-file and --key-file must be given together", ErrInvalidInput)
	}
	if timeout <= 0 {
		return fmt.Errorf("%w: --timeout must be positive", ErrInvalidInput)
	}

	var id *identity.Identity
	if certFile != "" {
		loaded, err := identity.Load(certFile, keyFile)
		if err != nil {
			return fmt.Errorf("%w: loading identity: %w", ErrKeyOperation, err)
		}
		defer loaded.Wipe()
		id = loaded
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), timeout)
	defer cancel()

	verifier, err := newVerifier(ctx, cmd)
	if err != nil {
		return err
	}

	client, err := transport.NewClient(&transport.ClientConfig{
		ServerURL:      serverURL,
		ServerName:     serverName,
		Identity:       id,
		Verifier:       verifier,
		ConnectTimeout: timeout,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	defer client.Close()

	resp, err := client.FetchIdentity(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	if format == "json" {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		return writeOutput(append(data, '\n'))
	}

	text := fmt.Sprintf("Server key:  %s SHA256:%s\n", resp.Algorithm, resp.Fingerprint)
	if resp.Peer != nil {
		text += fmt.Sprintf("Client key:  %s SHA256:%s\n", resp.Peer.Algorithm, resp.Peer.Fingerprint)
	}
	return writeOutput([]byte(text))
}
