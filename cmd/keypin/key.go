// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keypin/pkg/keypin"
	"github.com/jeremyhahn/go-keypin/pkg/keysource"
)

// keyCmd is the parent command for public key operations.
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Inspect and export pinned public keys",
	Long:  "Tools for reading the SubjectPublicKeyInfo that peers pin from key or certificate files.",
}

var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display a public key's algorithm and fingerprint",
	Long: `Read a public key from a PEM or DER file holding a SubjectPublicKeyInfo
or a certificate, and display its algorithm, SHA-256 fingerprint and the
base64 value accepted by --pin.`,
	RunE: runKeyShow,
}

var keyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a public key",
	Long: `Read a public key from a PEM or DER file holding a SubjectPublicKeyInfo
or a certificate, and write it in the format selected by --format
(pem, der or base64).`,
	RunE: runKeyExport,
}

func init() {
	keyCmd.AddCommand(keyShowCmd)
	keyCmd.AddCommand(keyExportCmd)

	keyShowCmd.Flags().String("file", "", "path to key or certificate file (required)")
	keyExportCmd.Flags().String("file", "", "path to key or certificate file (required)")
}

// keyInfo is the JSON form of key show.
type keyInfo struct {
	Algorithm   string            `json:"algorithm"`
	Fingerprint string            `json:"fingerprint"`
	PublicKey   *keypin.PublicKey `json:"public_key"`
}

// readKeyFile decodes a key or certificate file.
func readKeyFile(ctx context.Context, path string) (*keypin.PublicKey, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: --file is required", ErrInvalidInput)
	}
	src, err := keysource.NewFileSource(&keysource.FileConfig{Path: path})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	key, err := src.PublicKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyOperation, err)
	}
	return key, nil
}

func runKeyShow(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")

	key, err := readKeyFile(commandContext(cmd), path)
	if err != nil {
		return err
	}

	if format == "json" {
		data, err := json.MarshalIndent(keyInfo{
			Algorithm:   key.AlgorithmName(),
			Fingerprint: key.Fingerprint(),
			PublicKey:   key,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("%w: %w", ErrKeyOperation, err)
		}
		return writeOutput(append(data, '\n'))
	}

	text := fmt.Sprintf("Algorithm:   %s\nFingerprint: SHA256:%s\nPin:         %s\n",
		key.AlgorithmName(), key.Fingerprint(), base64.StdEncoding.EncodeToString(key.Bytes()))
	return writeOutput([]byte(text))
}

// keyEncoders maps --format values to key encodings.
var keyEncoders = map[string]func(*keypin.PublicKey) []byte{
	"pem": func(k *keypin.PublicKey) []byte { return k.PEM() },
	"der": func(k *keypin.PublicKey) []byte { return k.Bytes() },
	"base64": func(k *keypin.PublicKey) []byte {
		return []byte(base64.StdEncoding.EncodeToString(k.Bytes()) + "\n")
	},
}

func runKeyExport(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")

	encode, ok := keyEncoders[format]
	if !ok {
		return fmt.Errorf("%w: unsupported --format %q for key export", ErrInvalidInput, format)
	}

	key, err := readKeyFile(commandContext(cmd), path)
	if err != nil {
		return err
	}
	return writeOutput(encode(key))
}
