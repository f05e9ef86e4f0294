// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package dane

import (
	"log/slog"
	"time"
)

// Certificate usage values (RFC 6698, section 2.1.1).
const (
	UsagePKIXTA uint8 = 0
	UsagePKIXEE uint8 = 1
	UsageDANETA uint8 = 2

	// UsageDANEEE binds the service directly to a certificate or key
	// without any CA validation. It is the only usage a pinned key
	// publishes.
	UsageDANEEE uint8 = 3
)

// Selector values (RFC 6698, section 2.1.2).
const (
	SelectorFullCert uint8 = 0
	SelectorSPKI     uint8 = 1
)

// Matching type values (RFC 6698, section 2.1.3).
const (
	MatchingFull   uint8 = 0
	MatchingSHA256 uint8 = 1
	MatchingSHA512 uint8 = 2
)

// DefaultTTL is the TTL given to generated zone entries.
const DefaultTTL uint32 = 3600

// Record is a parsed TLSA resource record.
type Record struct {
	Usage        uint8
	Selector     uint8
	MatchingType uint8

	// Data is the certificate association data: the selected bytes
	// themselves for MatchingFull, otherwise their digest.
	Data []byte
}

// ZoneEntry is a TLSA record rendered for a DNS zone file.
type ZoneEntry struct {
	// Name is the absolute owner name, e.g. "_443._tcp.svc.example.com.".
	Name string

	Record Record

	// Line is the full zone file line in miekg/dns presentation format.
	Line string
}

// ResolverConfig configures the DNS resolver used for TLSA lookups.
type ResolverConfig struct {
	// Server is the DNS resolver address (e.g., "8.8.8.8:53").
	// When empty, the first nameserver in /etc/resolv.conf is used.
	Server string

	// UseTLS enables DNS-over-TLS. The default port becomes 853.
	UseTLS bool

	// TLSServerName is the SNI value for DNS-over-TLS connections.
	TLSServerName string

	// RequireAD requires the Authenticated Data flag in responses, meaning
	// the resolver validated DNSSEC. A key pulled from unauthenticated DNS
	// is only as trustworthy as the network path.
	RequireAD bool

	// Timeout is the maximum duration for a DNS query.
	// Default: 5 seconds.
	Timeout time.Duration

	// Logger for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}
