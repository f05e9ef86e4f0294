// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package pki

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/miekg/dns"
)

const (
	maxNameLength  = 253
	maxLabelLength = 63
)

// DNSName is a validated reference DNS name: lower-case ASCII, no trailing
// dot, no wildcard.
type DNSName string

// ParseDNSName validates s as a reference DNS name. IP address literals,
// wildcards, labels outside letters, digits, hyphen and underscore, and
// names whose last label is all digits are rejected with ErrInvalidDNSName.
// A single trailing dot is accepted and removed.
func ParseDNSName(s string) (DNSName, error) {
	if s == "" || len(s) > maxNameLength+1 {
		return "", fmt.Errorf("%w: bad length", ErrInvalidDNSName)
	}
	if _, err := netip.ParseAddr(s); err == nil {
		return "", fmt.Errorf("%w: %q is an IP address", ErrInvalidDNSName, s)
	}
	if _, ok := dns.IsDomainName(s); !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidDNSName, s)
	}

	labels := dns.SplitDomainName(s)
	if len(labels) == 0 {
		return "", fmt.Errorf("%w: %q has no labels", ErrInvalidDNSName, s)
	}
	for _, label := range labels {
		if !validLabel(label) {
			return "", fmt.Errorf("%w: bad label %q", ErrInvalidDNSName, label)
		}
	}
	if allDigits(labels[len(labels)-1]) {
		return "", fmt.Errorf("%w: numeric top-level label in %q", ErrInvalidDNSName, s)
	}

	name := strings.ToLower(strings.TrimSuffix(s, "."))
	if len(name) > maxNameLength {
		return "", fmt.Errorf("%w: bad length", ErrInvalidDNSName)
	}
	return DNSName(name), nil
}

// String returns the name.
func (n DNSName) String() string {
	return string(n)
}

func validLabel(label string) bool {
	if len(label) == 0 || len(label) > maxLabelLength {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

func allDigits(label string) bool {
	for i := 0; i < len(label); i++ {
		if label[i] < '0' || label[i] > '9' {
			return false
		}
	}
	return true
}
