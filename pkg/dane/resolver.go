// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package dane

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/miekg/dns"

	"github.com/jeremyhahn/go-keypin/pkg/keypin"
)

const (
	// defaultTimeout is the default DNS query timeout.
	defaultTimeout = 5 * time.Second

	defaultDNSPort = "53"
	defaultDoTPort = "853"

	// resolvConfPath is consulted when no server is configured.
	resolvConfPath = "/etc/resolv.conf"
)

// Resolver looks up TLSA records, optionally over DNS-over-TLS and with
// DNSSEC authentication required.
type Resolver struct {
	client    *dns.Client
	server    string
	requireAD bool
	logger    *slog.Logger
}

// NewResolver creates a resolver from cfg. A zero Timeout defaults to five
// seconds, and an empty Server falls back to the system resolver.
func NewResolver(cfg *ResolverConfig) (*Resolver, error) {
	if cfg == nil {
		return nil, ErrResolverConfig
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := &dns.Client{Net: "udp", Timeout: timeout}
	port := defaultDNSPort
	if cfg.UseTLS {
		client.Net = "tcp-tls"
		client.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: cfg.TLSServerName,
		}
		port = defaultDoTPort
	}

	server := cfg.Server
	if server == "" {
		systemCfg, err := dns.ClientConfigFromFile(resolvConfPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrResolverConfig, err)
		}
		if len(systemCfg.Servers) == 0 {
			return nil, fmt.Errorf("%w: no nameservers in %s", ErrResolverConfig, resolvConfPath)
		}
		server = systemCfg.Servers[0]
		if systemCfg.Port != "" && !cfg.UseTLS {
			port = systemCfg.Port
		}
	}
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, port)
	}

	return &Resolver{
		client:    client,
		server:    server,
		requireAD: cfg.RequireAD,
		logger:    logger.With("component", "dane_resolver"),
	}, nil
}

// Lookup queries the TLSA records at "_<port>._tcp.<hostname>.". Answers
// that are not TLSA records, or whose association data is not valid hex,
// are skipped.
func (r *Resolver) Lookup(ctx context.Context, hostname string, port uint16) ([]*Record, error) {
	if _, ok := dns.IsDomainName(hostname); !ok || hostname == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHostname, hostname)
	}
	if port == 0 {
		return nil, ErrInvalidPort
	}

	qname := formatTLSAName(hostname, port)

	msg := new(dns.Msg)
	msg.SetQuestion(qname, dns.TypeTLSA)
	msg.SetEdns0(4096, true)
	msg.RecursionDesired = true

	r.logger.Debug("querying TLSA records", "name", qname, "server", r.server)

	resp, rtt, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDNSLookupFailed, err)
	}
	if resp == nil {
		return nil, ErrDNSLookupFailed
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%w: rcode %s", ErrDNSLookupFailed, dns.RcodeToString[resp.Rcode])
	}
	if r.requireAD && !resp.AuthenticatedData {
		return nil, ErrDNSSECRequired
	}

	records := make([]*Record, 0, len(resp.Answer))
	for _, rr := range resp.Answer {
		tlsa, ok := rr.(*dns.TLSA)
		if !ok {
			continue
		}
		rec, err := recordFromRR(tlsa)
		if err != nil {
			r.logger.Warn("skipping malformed TLSA record", "name", qname, "error", err)
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrNoTLSARecords
	}

	r.logger.Debug("TLSA records resolved",
		"name", qname,
		"records", len(records),
		"authenticated", resp.AuthenticatedData,
		"rtt", rtt)
	return records, nil
}

// LookupKey resolves the pinned key published for a service. See
// KeyFromRecords for the record set requirements.
func (r *Resolver) LookupKey(ctx context.Context, hostname string, port uint16) (*keypin.PublicKey, error) {
	records, err := r.Lookup(ctx, hostname, port)
	if err != nil {
		return nil, err
	}
	return KeyFromRecords(records)
}
