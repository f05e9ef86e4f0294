// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package keysource

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeremyhahn/go-keypin/pkg/keypin"
)

// testKey holds a generated Ed25519 key in every encoding the sources
// accept.
type testKey struct {
	key     *keypin.PublicKey
	certDER []byte
	certPEM []byte
}

func newTestKey(t *testing.T) *testKey {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "keysource test"},
		DNSNames:     []string{"svc.internal"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	certDER, err := x509.CreateCertificate(rand.Reader, template, template, pub, priv)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	key, err := keypin.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("NewPublicKey() error = %v", err)
	}

	return &testKey{
		key:     key,
		certDER: certDER,
		certPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}),
	}
}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubResolver implements KeyResolver.
type stubResolver struct {
	key   *keypin.PublicKey
	err   error
	block bool

	gotHost string
	gotPort uint16
}

func (r *stubResolver) LookupKey(ctx context.Context, hostname string, port uint16) (*keypin.PublicKey, error) {
	r.gotHost, r.gotPort = hostname, port
	if r.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return r.key, r.err
}

// errProvider implements KeyProvider and always fails.
type errProvider struct{ err error }

func (p errProvider) PublicKeyDER() ([]byte, error) {
	return nil, p.err
}
