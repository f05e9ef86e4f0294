// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package dane

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/miekg/dns"

	"github.com/jeremyhahn/go-keypin/pkg/keypin"
)

// pinnedKeyMatchingTypes are the record variants generated for a key:
// 3 1 0 first so resolvers can recover the key, then the digests.
var pinnedKeyMatchingTypes = []uint8{MatchingFull, MatchingSHA256, MatchingSHA512}

// GenerateRecord returns the DANE-EE SPKI zone entry (3 1 matchingType) for
// key, published at "_<port>._tcp.<hostname>.".
func GenerateRecord(key *keypin.PublicKey, hostname string, port uint16, matchingType uint8) (*ZoneEntry, error) {
	rec, err := NewRecord(key, matchingType)
	if err != nil {
		return nil, err
	}
	return newZoneEntry(hostname, port, rec)
}

// GenerateRecords returns the 3 1 0, 3 1 1 and 3 1 2 zone entries for key.
func GenerateRecords(key *keypin.PublicKey, hostname string, port uint16) ([]*ZoneEntry, error) {
	entries := make([]*ZoneEntry, 0, len(pinnedKeyMatchingTypes))
	for _, mt := range pinnedKeyMatchingTypes {
		entry, err := GenerateRecord(key, hostname, port, mt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GenerateCertificateRecord returns a DANE-EE zone entry for a DER
// certificate with the given selector and matching type.
func GenerateCertificateRecord(certDER []byte, hostname string, port uint16, selector, matchingType uint8) (*ZoneEntry, error) {
	data, err := CertificateAssociationData(certDER, selector, matchingType)
	if err != nil {
		return nil, err
	}
	return newZoneEntry(hostname, port, &Record{
		Usage:        UsageDANEEE,
		Selector:     selector,
		MatchingType: matchingType,
		Data:         data,
	})
}

// ParseZoneEntry parses a single TLSA line in zone file presentation format.
func ParseZoneEntry(line string) (*ZoneEntry, error) {
	rr, err := dns.NewRR(strings.TrimSpace(line))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	tlsa, ok := rr.(*dns.TLSA)
	if !ok {
		return nil, fmt.Errorf("%w: not a TLSA record", ErrInvalidRecord)
	}
	rec, err := recordFromRR(tlsa)
	if err != nil {
		return nil, err
	}
	return &ZoneEntry{Name: tlsa.Hdr.Name, Record: *rec, Line: tlsa.String()}, nil
}

func newZoneEntry(hostname string, port uint16, rec *Record) (*ZoneEntry, error) {
	if _, ok := dns.IsDomainName(hostname); !ok || hostname == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHostname, hostname)
	}
	if port == 0 {
		return nil, ErrInvalidPort
	}

	name := formatTLSAName(hostname, port)
	rr := &dns.TLSA{
		Hdr: dns.RR_Header{
			Name:   name,
			Rrtype: dns.TypeTLSA,
			Class:  dns.ClassINET,
			Ttl:    DefaultTTL,
		},
		Usage:        rec.Usage,
		Selector:     rec.Selector,
		MatchingType: rec.MatchingType,
		Certificate:  hex.EncodeToString(rec.Data),
	}
	return &ZoneEntry{Name: name, Record: *rec, Line: rr.String()}, nil
}

func recordFromRR(rr *dns.TLSA) (*Record, error) {
	data, err := hex.DecodeString(rr.Certificate)
	if err != nil {
		return nil, fmt.Errorf("%w: association data: %w", ErrInvalidRecord, err)
	}
	return &Record{
		Usage:        rr.Usage,
		Selector:     rr.Selector,
		MatchingType: rr.MatchingType,
		Data:         data,
	}, nil
}

// formatTLSAName returns the absolute TLSA owner name for a TCP service
// (RFC 6698, section 3).
func formatTLSAName(hostname string, port uint16) string {
	return fmt.Sprintf("_%d._tcp.%s", port, dns.Fqdn(strings.ToLower(hostname)))
}
