// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keypin/pkg/dane"
	"github.com/jeremyhahn/go-keypin/pkg/keypin"
)

const (
	// defaultDANEPort is the default TLS port for DANE/TLSA records.
	defaultDANEPort = 443

	// defaultDANEResolveTimeout bounds a complete TLSA resolution.
	defaultDANEResolveTimeout = 10 * time.Second
)

// daneCmd is the parent command for DANE/TLSA operations.
var daneCmd = &cobra.Command{
	Use:   "dane",
	Short: "DANE/TLSA pinned key publishing",
	Long: `Tools for publishing a pinned public key as DANE-EE TLSA records
(usage 3, selector 1; RFC 6698) and resolving it back from DNS.`,
}

var daneGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate TLSA record(s) for DNS publishing",
	Long: `Generate DANE-EE SPKI TLSA record(s) for a public key or certificate file.
By default a single "3 1 1" (SHA-256) record is generated. Use --all to
generate the full key (3 1 0), SHA-256 (3 1 1) and SHA-512 (3 1 2) records;
the full key record is what "dane resolve" and the DANE key source need.`,
	RunE: runDANEGenerate,
}

var daneShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display TLSA records for a service",
	Long: `Query and display the TLSA records published at _<port>._tcp.<hostname>.
DNSSEC authentication is not required unless --require-dnssec is set.

With --key-file or --cert-file each record is matched against the given key
or certificate, and the command fails unless at least one record matches.`,
	RunE: runDANEShow,
}

var daneResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a pinned key from DNSSEC-authenticated TLSA records",
	Long: `Resolve the public key published in a DANE-EE 3 1 0 TLSA record and check
it against any 3 1 1 and 3 1 2 records at the same name. The answer must
carry the DNSSEC Authenticated Data flag. The key is written in the format
selected by --format (pem, der or base64).`,
	RunE: runDANEResolve,
}

func init() {
	daneCmd.AddCommand(daneGenerateCmd)
	daneCmd.AddCommand(daneShowCmd)
	daneCmd.AddCommand(daneResolveCmd)

	daneGenerateCmd.Flags().String("key-file", "", "path to public key or certificate file (required)")
	daneGenerateCmd.Flags().String("hostname", "", "hostname for the TLSA record (required)")
	daneGenerateCmd.Flags().Int("port", defaultDANEPort, "port number for the TLSA record")
	daneGenerateCmd.Flags().Int("matching-type", int(dane.MatchingSHA256), "TLSA matching type (0=full, 1=SHA-256, 2=SHA-512)")
	daneGenerateCmd.Flags().Bool("all", false, "generate records for every matching type")

	for _, c := range []*cobra.Command{daneShowCmd, daneResolveCmd} {
		c.Flags().String("hostname", "", "hostname to query TLSA records for (required)")
		c.Flags().Int("port", defaultDANEPort, "port number for the TLSA record")
		c.Flags().String("dns-server", "", "DNS server address (e.g., 9.9.9.9:53)")
		c.Flags().Bool("dns-over-tls", false, "use DNS-over-TLS (DoT) for TLSA lookups")
		c.Flags().String("dns-tls-server-name", "", "TLS server name for DNS-over-TLS")
	}
	daneShowCmd.Flags().Bool("require-dnssec", false, "require DNSSEC-authenticated answers")
	daneShowCmd.Flags().String("key-file", "", "check the records against this public key or certificate file")
	daneShowCmd.Flags().String("cert-file", "", "check the records against the first certificate in this file")
	daneShowCmd.MarkFlagsMutuallyExclusive("key-file", "cert-file")
}

func runDANEGenerate(cmd *cobra.Command, args []string) error {
	keyFile, _ := cmd.Flags().GetString("key-file")
	hostname, _ := cmd.Flags().GetString("hostname")
	port, _ := cmd.Flags().GetInt("port")
	matchingType, _ := cmd.Flags().GetInt("matching-type")
	all, _ := cmd.Flags().GetBool("all")

	if hostname == "" {
		return fmt.Errorf("%w: --hostname is required", ErrInvalidInput)
	}
	if err := validatePort(port); err != nil {
		return err
	}
	if matchingType < 0 || matchingType > 255 {
		return fmt.Errorf("%w: --matching-type out of range", ErrInvalidInput)
	}

	key, err := readKeyFile(commandContext(cmd), keyFile)
	if err != nil {
		return err
	}

	slog.Debug("generating TLSA records", "key", key.Fingerprint(), "hostname", hostname, "port", port, "all", all)

	var entries []*dane.ZoneEntry
	if all {
		entries, err = dane.GenerateRecords(key, hostname, uint16(port))
	} else {
		var entry *dane.ZoneEntry
		entry, err = dane.GenerateRecord(key, hostname, uint16(port), uint8(matchingType))
		entries = []*dane.ZoneEntry{entry}
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Line)
		b.WriteByte('\n')
	}
	return writeOutput([]byte(b.String()))
}

func runDANEShow(cmd *cobra.Command, args []string) error {
	requireAD, _ := cmd.Flags().GetBool("require-dnssec")
	keyFile, _ := cmd.Flags().GetString("key-file")
	certFile, _ := cmd.Flags().GetString("cert-file")

	resolver, hostname, port, err := daneResolver(cmd, requireAD)
	if err != nil {
		return err
	}

	var (
		key   *keypin.PublicKey
		match func(*dane.Record) bool
	)
	switch {
	case keyFile != "":
		if key, err = readKeyFile(commandContext(cmd), keyFile); err != nil {
			return err
		}
		match = func(rec *dane.Record) bool { return rec.MatchesKey(key) }
	case certFile != "":
		chain, err := readCertChain(certFile)
		if err != nil {
			return err
		}
		match = func(rec *dane.Record) bool { return rec.MatchesCertificate(chain[0]) }
	}

	ctx, cancel := daneContext()
	defer cancel()

	slog.Debug("querying TLSA records", "hostname", hostname, "port", port)

	records, err := resolver.Lookup(ctx, hostname, port)
	if err != nil {
		return fmt.Errorf("%w: TLSA lookup: %w", ErrFetchFailed, err)
	}

	out := cmd.OutOrStdout()
	matched := 0
	fmt.Fprintf(out, "TLSA records for _%d._tcp.%s:\n\n", port, hostname)
	for i, rec := range records {
		fmt.Fprintf(out, "Record %d:\n", i+1)
		fmt.Fprintf(out, "  Usage:        %d (%s)\n", rec.Usage, tlsaName(usageNames, rec.Usage))
		fmt.Fprintf(out, "  Selector:     %d (%s)\n", rec.Selector, tlsaName(selectorNames, rec.Selector))
		fmt.Fprintf(out, "  MatchingType: %d (%s)\n", rec.MatchingType, tlsaName(matchingNames, rec.MatchingType))
		fmt.Fprintf(out, "  Data:         %s\n", hex.EncodeToString(rec.Data))
		if match != nil {
			ok := match(rec)
			if ok {
				matched++
			}
			fmt.Fprintf(out, "  Matches:      %t\n", ok)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "Total: %d record(s)\n", len(records))

	switch {
	case key != nil:
		if err := dane.VerifyKey(key, records); err != nil {
			return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
		}
		fmt.Fprintf(out, "OK: key %s is published\n", key)
	case match != nil:
		if matched == 0 {
			return fmt.Errorf("%w: no TLSA record matches %s", ErrVerificationFailed, certFile)
		}
		fmt.Fprintf(out, "OK: %d record(s) match %s\n", matched, certFile)
	}
	return nil
}

func runDANEResolve(cmd *cobra.Command, args []string) error {
	encode, ok := keyEncoders[format]
	if !ok {
		return fmt.Errorf("%w: unsupported --format %q for dane resolve", ErrInvalidInput, format)
	}

	resolver, hostname, port, err := daneResolver(cmd, true)
	if err != nil {
		return err
	}

	ctx, cancel := daneContext()
	defer cancel()

	key, err := resolver.LookupKey(ctx, hostname, port)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	slog.Info("resolved pinned key", "hostname", hostname, "port", port, "key", key.String())
	return writeOutput(encode(key))
}

// daneResolver builds a resolver from the shared DNS flags.
func daneResolver(cmd *cobra.Command, requireAD bool) (*dane.Resolver, string, uint16, error) {
	hostname, _ := cmd.Flags().GetString("hostname")
	port, _ := cmd.Flags().GetInt("port")
	dnsServer, _ := cmd.Flags().GetString("dns-server")
	dnsOverTLS, _ := cmd.Flags().GetBool("dns-over-tls")
	dnsTLSServerName, _ := cmd.Flags().GetString("dns-tls-server-name")

	if hostname == "" {
		return nil, "", 0, fmt.Errorf("%w: --hostname is required", ErrInvalidInput)
	}
	if err := validatePort(port); err != nil {
		return nil, "", 0, err
	}

	resolver, err := dane.NewResolver(&dane.ResolverConfig{
		Server:        dnsServer,
		UseTLS:        dnsOverTLS,
		TLSServerName: dnsTLSServerName,
		RequireAD:     requireAD,
		Logger:        slog.Default(),
	})
	if err != nil {
		return nil, "", 0, fmt.Errorf("%w: resolver: %w", ErrInvalidInput, err)
	}
	return resolver, hostname, uint16(port), nil
}

func daneContext() (context.Context, context.CancelFunc) {
	sigCtx, sigStop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(sigCtx, defaultDANEResolveTimeout)
	return ctx, func() {
		cancel()
		sigStop()
	}
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidInput, port)
	}
	return nil
}

// usageNames provides O(1) lookup for TLSA usage field descriptions.
var usageNames = map[uint8]string{
	dane.UsagePKIXTA: "PKIX-TA",
	dane.UsagePKIXEE: "PKIX-EE",
	dane.UsageDANETA: "DANE-TA",
	dane.UsageDANEEE: "DANE-EE",
}

// selectorNames provides O(1) lookup for TLSA selector field descriptions.
var selectorNames = map[uint8]string{
	dane.SelectorFullCert: "Full Certificate",
	dane.SelectorSPKI:     "SubjectPublicKeyInfo",
}

// matchingNames provides O(1) lookup for TLSA matching type field descriptions.
var matchingNames = map[uint8]string{
	dane.MatchingFull:   "Full",
	dane.MatchingSHA256: "SHA-256",
	dane.MatchingSHA512: "SHA-512",
}

func tlsaName(names map[uint8]string, v uint8) string {
	if name, ok := names[v]; ok {
		return name
	}
	return "Unknown"
}
