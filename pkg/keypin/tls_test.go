// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package keypin

import (
	"crypto/elliptic"
	"crypto/tls"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// handshake runs a TLS handshake over loopback TCP and returns the server
// and client results.
func handshake(t *testing.T, serverCfg, clientCfg *tls.Config) (serverErr, clientErr error) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()
		_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
		srv := tls.Server(conn, serverCfg)
		if err := srv.Handshake(); err != nil {
			done <- err
			return
		}
		_, err = srv.Write([]byte("ok"))
		done <- err
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	client := tls.Client(conn, clientCfg)
	clientErr = client.Handshake()
	if clientErr == nil {
		// The server verifies the client certificate after the client
		// considers the TLS 1.3 handshake complete; a read surfaces the
		// server's verdict.
		buf := make([]byte, 2)
		_, clientErr = io.ReadFull(client, buf)
	}

	return <-done, clientErr
}

func TestTLS_MutualAuthentication(t *testing.T) {
	for _, version := range []uint16{tls.VersionTLS12, tls.VersionTLS13} {
		server := selfSignedCert(t, certOptions{dnsNames: []string{"svc.internal"}})
		client := selfSignedCert(t, certOptions{key: newECDSASigner(t, elliptic.P256())})

		serverCfg := newTestVerifier(t, client.pub).ServerTLSConfig(server.tlsCertificate())
		clientIdentity := client.tlsCertificate()
		clientCfg := newTestVerifier(t, server.pub).ClientTLSConfig(&clientIdentity, "svc.internal")
		clientCfg.MaxVersion = version

		serverErr, clientErr := handshake(t, serverCfg, clientCfg)
		assert.NoError(t, serverErr, "version %x", version)
		assert.NoError(t, clientErr, "version %x", version)
	}
}

func TestTLS_ServerConfigRequiresClientCert(t *testing.T) {
	v := newTestVerifier(t, selfSignedCert(t, certOptions{}).pub)
	cfg := v.ServerTLSConfig(selfSignedCert(t, certOptions{}).tlsCertificate())

	assert.Equal(t, tls.RequireAnyClientCert, cfg.ClientAuth)
	assert.Nil(t, cfg.ClientCAs)
	assert.ErrorIs(t, cfg.VerifyPeerCertificate(nil, nil), ErrNoCertificates)
}

func TestTLS_ClientRejectsUnpinnedServer(t *testing.T) {
	server := selfSignedCert(t, certOptions{dnsNames: []string{"svc.internal"}})
	impostor := selfSignedCert(t, certOptions{dnsNames: []string{"svc.internal"}})
	client := selfSignedCert(t, certOptions{})

	serverCfg := newTestVerifier(t, client.pub).ServerTLSConfig(impostor.tlsCertificate())
	clientIdentity := client.tlsCertificate()
	clientCfg := newTestVerifier(t, server.pub).ClientTLSConfig(&clientIdentity, "svc.internal")

	serverErr, clientErr := handshake(t, serverCfg, clientCfg)
	assert.ErrorIs(t, clientErr, ErrKeyMismatch)
	assert.Error(t, serverErr)
}

func TestTLS_ClientRejectsWrongName(t *testing.T) {
	server := selfSignedCert(t, certOptions{dnsNames: []string{"svc.internal"}})
	client := selfSignedCert(t, certOptions{})

	serverCfg := newTestVerifier(t, client.pub).ServerTLSConfig(server.tlsCertificate())
	clientIdentity := client.tlsCertificate()

	clientCfg := newTestVerifier(t, server.pub).ClientTLSConfig(&clientIdentity, "other.internal")
	_, clientErr := handshake(t, serverCfg, clientCfg)
	assert.ErrorIs(t, clientErr, ErrInvalidCertificateData)

	clientCfg = newTestVerifier(t, server.pub).ClientTLSConfig(&clientIdentity, "127.0.0.1")
	_, clientErr = handshake(t, serverCfg, clientCfg)
	assert.ErrorIs(t, clientErr, ErrUnsupportedNameType)
}

func TestTLS_ServerRejectsUnpinnedClient(t *testing.T) {
	server := selfSignedCert(t, certOptions{dnsNames: []string{"svc.internal"}})
	pinnedClient := selfSignedCert(t, certOptions{})
	otherClient := selfSignedCert(t, certOptions{})

	serverCfg := newTestVerifier(t, pinnedClient.pub).ServerTLSConfig(server.tlsCertificate())
	clientIdentity := otherClient.tlsCertificate()
	clientCfg := newTestVerifier(t, server.pub).ClientTLSConfig(&clientIdentity, "svc.internal")

	serverErr, clientErr := handshake(t, serverCfg, clientCfg)
	assert.ErrorIs(t, serverErr, ErrKeyMismatch)
	assert.Error(t, clientErr)
}

func TestTLS_ServerRejectsMissingClientCert(t *testing.T) {
	server := selfSignedCert(t, certOptions{dnsNames: []string{"svc.internal"}})
	client := selfSignedCert(t, certOptions{})

	serverCfg := newTestVerifier(t, client.pub).ServerTLSConfig(server.tlsCertificate())
	clientCfg := newTestVerifier(t, server.pub).ClientTLSConfig(nil, "svc.internal")

	serverErr, clientErr := handshake(t, serverCfg, clientCfg)
	assert.Error(t, serverErr)
	assert.Error(t, clientErr)
}

func TestTLS_ClockIsUsed(t *testing.T) {
	server := selfSignedCert(t, certOptions{dnsNames: []string{"svc.internal"}})
	client := selfSignedCert(t, certOptions{})

	serverCfg := newTestVerifier(t, client.pub).ServerTLSConfig(server.tlsCertificate())

	future := func() time.Time { return time.Now().Add(72 * time.Hour) }
	v, err := NewVerifier(&VerifierConfig{ExpectedKey: server.pub, Clock: future})
	require.NoError(t, err)
	clientIdentity := client.tlsCertificate()

	_, clientErr := handshake(t, serverCfg, v.ClientTLSConfig(&clientIdentity, "svc.internal"))
	assert.ErrorIs(t, clientErr, ErrInvalidCertificateData)
}
