// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package keypin

import (
	"net/netip"
	"strings"
)

// ServerName is the identity a client claims for the server it is
// connecting to: either a DNS name or an IP address.
type ServerName struct {
	dns string
	ip  netip.Addr
}

// DNSServerName returns a DNS-form server name. The name is not validated
// until verification.
func DNSServerName(name string) ServerName {
	return ServerName{dns: name}
}

// IPServerName returns an IP-form server name.
func IPServerName(ip netip.Addr) ServerName {
	return ServerName{ip: ip}
}

// ParseServerName classifies s as an IP address (optionally in brackets)
// or a DNS name.
func ParseServerName(s string) ServerName {
	if ip, err := netip.ParseAddr(strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")); err == nil {
		return IPServerName(ip)
	}
	return DNSServerName(s)
}

// IsDNS reports whether n is the DNS form.
func (n ServerName) IsDNS() bool {
	return !n.ip.IsValid()
}

// DNSName returns the DNS name, or "" for the IP form.
func (n ServerName) DNSName() string {
	return n.dns
}

// IP returns the address, or the zero Addr for the DNS form.
func (n ServerName) IP() netip.Addr {
	return n.ip
}

func (n ServerName) String() string {
	if n.ip.IsValid() {
		return n.ip.String()
	}
	return n.dns
}
