// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package dane

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-keypin/pkg/keypin"
)

// newTestKey returns a fresh Ed25519 key descriptor and a self-signed
// certificate carrying it.
func newTestKey(t *testing.T) (*keypin.PublicKey, []byte) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "svc.example.com"},
		DNSNames:     []string{"svc.example.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, pub, priv)
	require.NoError(t, err)

	key, err := keypin.NewPublicKey(pub)
	require.NoError(t, err)
	return key, der
}

// toRR converts a record into a miekg/dns TLSA answer for name.
func toRR(name string, rec *Record) *dns.TLSA {
	return &dns.TLSA{
		Hdr: dns.RR_Header{
			Name:   name,
			Rrtype: dns.TypeTLSA,
			Class:  dns.ClassINET,
			Ttl:    300,
		},
		Usage:        rec.Usage,
		Selector:     rec.Selector,
		MatchingType: rec.MatchingType,
		Certificate:  hexString(rec.Data),
	}
}

// startMockDNS starts an in-process DNS server on a random localhost port.
// answer builds the answer section for each question; setAD controls the
// Authenticated Data flag and rcode the response code.
func startMockDNS(t *testing.T, network string, rcode int, setAD bool, answer func(q dns.Question) []dns.RR) string {
	t.Helper()

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		m.Authoritative = true
		m.AuthenticatedData = setAD
		m.Rcode = rcode
		if answer != nil {
			for _, q := range req.Question {
				m.Answer = append(m.Answer, answer(q)...)
			}
		}
		if err := w.WriteMsg(m); err != nil {
			t.Logf("mock DNS: failed to write response: %v", err)
		}
	})

	server := &dns.Server{Handler: handler, Net: network}
	var addr string
	if network == "tcp" {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		server.Listener = ln
		addr = ln.Addr().String()
	} else {
		pc, err := net.ListenPacket("udp", "127.0.0.1:0")
		require.NoError(t, err)
		server.PacketConn = pc
		addr = pc.LocalAddr().String()
	}

	started := make(chan struct{})
	server.NotifyStartedFunc = func() { close(started) }
	go func() {
		_ = server.ActivateAndServe()
	}()
	<-started
	t.Cleanup(func() {
		_ = server.Shutdown()
	})

	return addr
}

// serveRecords answers TLSA questions with recs.
func serveRecords(recs ...*Record) func(q dns.Question) []dns.RR {
	return func(q dns.Question) []dns.RR {
		if q.Qtype != dns.TypeTLSA {
			return nil
		}
		out := make([]dns.RR, 0, len(recs))
		for _, rec := range recs {
			out = append(out, toRR(q.Name, rec))
		}
		return out
	}
}

func mustRecord(t *testing.T, key *keypin.PublicKey, matchingType uint8) *Record {
	t.Helper()
	rec, err := NewRecord(key, matchingType)
	require.NoError(t, err)
	return rec
}
