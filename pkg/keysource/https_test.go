// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package keysource

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newKeyServer serves body at /key and returns the server plus a TLS config
// trusting it.
func newKeyServer(t *testing.T, status int, body []byte) (*httptest.Server, *tls.Config) {
	t.Helper()

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/key" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())
	return srv, &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
}

func TestNewHTTPSSource_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  *HTTPSConfig
	}{
		{"nil", nil},
		{"empty URL", &HTTPSConfig{}},
		{"plain http", &HTTPSConfig{URL: "http://keys.example.com/key"}},
		{"short fingerprint", &HTTPSConfig{URL: "https://keys.example.com/key", Fingerprint: "abcd"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewHTTPSSource(tt.cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error = %v, want %v", err, ErrInvalidConfig)
			}
		})
	}
}

func TestNewHTTPSSource_DefaultTimeout(t *testing.T) {
	src, err := NewHTTPSSource(&HTTPSConfig{URL: "https://keys.example.com/key"})
	if err != nil {
		t.Fatalf("NewHTTPSSource() error = %v", err)
	}
	if src.client.Timeout != DefaultHTTPSTimeout {
		t.Errorf("timeout = %v, want %v", src.client.Timeout, DefaultHTTPSTimeout)
	}
}

func TestHTTPSSource_PublicKey(t *testing.T) {
	tk := newTestKey(t)
	srv, tlsCfg := newKeyServer(t, http.StatusOK, tk.key.PEM())

	src, err := NewHTTPSSource(&HTTPSConfig{
		URL:       srv.URL + "/key",
		TLSConfig: tlsCfg,
		Logger:    discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewHTTPSSource() error = %v", err)
	}
	defer src.Close()

	got, err := src.PublicKey(context.Background())
	if err != nil {
		t.Fatalf("PublicKey() error = %v", err)
	}
	if !got.Equal(tk.key) {
		t.Errorf("PublicKey() = %s, want %s", got, tk.key)
	}
}

func TestHTTPSSource_Fingerprint(t *testing.T) {
	tk := newTestKey(t)
	other := newTestKey(t)
	srv, tlsCfg := newKeyServer(t, http.StatusOK, tk.certDER)

	t.Run("match", func(t *testing.T) {
		src, _ := NewHTTPSSource(&HTTPSConfig{
			URL:         srv.URL + "/key",
			TLSConfig:   tlsCfg,
			Fingerprint: strings.ToUpper(tk.key.Fingerprint()),
			Logger:      discardLogger(),
		})
		got, err := src.PublicKey(context.Background())
		if err != nil {
			t.Fatalf("PublicKey() error = %v", err)
		}
		if !got.Equal(tk.key) {
			t.Errorf("PublicKey() = %s, want %s", got, tk.key)
		}
	})

	t.Run("mismatch", func(t *testing.T) {
		src, _ := NewHTTPSSource(&HTTPSConfig{
			URL:         srv.URL + "/key",
			TLSConfig:   tlsCfg,
			Fingerprint: other.key.Fingerprint(),
			Logger:      discardLogger(),
		})
		if _, err := src.PublicKey(context.Background()); !errors.Is(err, ErrFingerprintMismatch) {
			t.Errorf("error = %v, want %v", err, ErrFingerprintMismatch)
		}
	})
}

func TestHTTPSSource_Failures(t *testing.T) {
	tk := newTestKey(t)

	tests := []struct {
		name   string
		status int
		body   []byte
	}{
		{"not found", http.StatusNotFound, tk.key.PEM()},
		{"server error", http.StatusInternalServerError, nil},
		{"empty body", http.StatusOK, nil},
		{"garbage body", http.StatusOK, []byte("<html>hello</html>")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, tlsCfg := newKeyServer(t, tt.status, tt.body)
			src, _ := NewHTTPSSource(&HTTPSConfig{
				URL:       srv.URL + "/key",
				TLSConfig: tlsCfg,
				Logger:    discardLogger(),
			})
			if _, err := src.PublicKey(context.Background()); !errors.Is(err, ErrLoadFailed) {
				t.Errorf("error = %v, want %v", err, ErrLoadFailed)
			}
		})
	}
}

func TestHTTPSSource_UntrustedServer(t *testing.T) {
	tk := newTestKey(t)
	srv, _ := newKeyServer(t, http.StatusOK, tk.key.PEM())

	src, _ := NewHTTPSSource(&HTTPSConfig{
		URL:     srv.URL + "/key",
		Timeout: 5 * time.Second,
		Logger:  discardLogger(),
	})
	if _, err := src.PublicKey(context.Background()); !errors.Is(err, ErrLoadFailed) {
		t.Errorf("error = %v, want %v", err, ErrLoadFailed)
	}
}
