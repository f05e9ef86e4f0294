// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/base64"
	"encoding/hex"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/miekg/dns"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-keypin/pkg/identity"
	"github.com/jeremyhahn/go-keypin/pkg/keypin"
)

// resetFlags restores every local flag of cmds to its default when the
// test finishes. The commands are package globals shared by all tests.
func resetFlags(t *testing.T, cmds ...*cobra.Command) {
	t.Helper()
	t.Cleanup(func() {
		for _, c := range cmds {
			c.Flags().VisitAll(func(f *pflag.Flag) {
				if sv, ok := f.Value.(pflag.SliceValue); ok {
					_ = sv.Replace(nil)
				} else {
					_ = f.Value.Set(f.DefValue)
				}
				f.Changed = false
			})
		}
	})
}

// setFlags sets name/value pairs on cmd and resets them after the test.
func setFlags(t *testing.T, cmd *cobra.Command, kv ...string) {
	t.Helper()
	resetFlags(t, cmd)
	for i := 0; i+1 < len(kv); i += 2 {
		require.NoError(t, cmd.Flags().Set(kv[i], kv[i+1]), "flag %s", kv[i])
	}
}

// captureOutput redirects writeOutput to a temp file and returns its path.
func captureOutput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out")
	outputFile = path
	t.Cleanup(func() { outputFile = "" })
	return path
}

func readOutput(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// withFormat sets the global --format value for one test.
func withFormat(t *testing.T, f string) {
	t.Helper()
	old := format
	format = f
	t.Cleanup(func() { format = old })
}

// testIdentity is an identity saved to a temp directory.
type testIdentity struct {
	id       *identity.Identity
	key      *keypin.PublicKey
	certFile string
	keyFile  string
}

func newTestIdentity(t *testing.T, keyType identity.KeyType, dnsNames ...string) *testIdentity {
	t.Helper()

	id, err := identity.Generate(&identity.Options{KeyType: keyType, DNSNames: dnsNames})
	require.NoError(t, err)
	t.Cleanup(id.Wipe)

	dir := t.TempDir()
	certFile := filepath.Join(dir, "id.crt")
	keyFile := filepath.Join(dir, "id.key")
	require.NoError(t, id.Save(certFile, keyFile))

	key, err := id.PublicKey()
	require.NoError(t, err)

	return &testIdentity{id: id, key: key, certFile: certFile, keyFile: keyFile}
}

// pin returns the --pin value for the identity's key.
func (ti *testIdentity) pin() string {
	return base64.StdEncoding.EncodeToString(ti.key.Bytes())
}

// startMockDNS serves TLSA answers from a local UDP DNS server and returns
// its address. setAD controls the Authenticated Data flag.
func startMockDNS(t *testing.T, setAD bool, answer func(name string) []dns.RR) string {
	t.Helper()

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		m.Authoritative = true
		m.AuthenticatedData = setAD
		for _, q := range req.Question {
			if q.Qtype == dns.TypeTLSA {
				m.Answer = append(m.Answer, answer(q.Name)...)
			}
		}
		_ = w.WriteMsg(m)
	})

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	server := &dns.Server{PacketConn: pc, Handler: handler}
	started := make(chan struct{})
	server.NotifyStartedFunc = func() { close(started) }
	go func() {
		_ = server.ActivateAndServe()
	}()
	<-started
	t.Cleanup(func() { _ = server.Shutdown() })

	return pc.LocalAddr().String()
}

// tlsaAnswers answers with a DANE-EE 3 1 0 record carrying key.
func tlsaAnswers(key *keypin.PublicKey) func(name string) []dns.RR {
	return func(name string) []dns.RR {
		return []dns.RR{&dns.TLSA{
			Hdr: dns.RR_Header{
				Name:   name,
				Rrtype: dns.TypeTLSA,
				Class:  dns.ClassINET,
				Ttl:    300,
			},
			Usage:        3,
			Selector:     1,
			MatchingType: 0,
			Certificate:  hex.EncodeToString(key.Bytes()),
		}}
	}
}
