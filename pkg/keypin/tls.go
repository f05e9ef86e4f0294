// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package keypin

import (
	"crypto/tls"
	"crypto/x509"
)

// ServerTLSConfig returns a server configuration that presents identity and
// requires every client to present a certificate accepted by
// VerifyClientCert. No ClientCAs are configured, so no acceptable issuers
// are advertised.
func (v *Verifier) ServerTLSConfig(identity tls.Certificate) *tls.Config {
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{identity},
		ClientAuth:   v.clientAuthType(),
		VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			if len(rawCerts) == 0 {
				return ErrNoCertificates
			}
			return v.VerifyClientCert(rawCerts[0], rawCerts[1:], v.clock())
		},
	}
}

// ClientTLSConfig returns a client configuration that accepts only servers
// whose certificate passes VerifyServerCert for serverName. When identity
// is non-nil it is presented to servers that request a client certificate.
//
// The returned config disables crypto/tls certificate authority checks;
// trust comes solely from the pinned key.
func (v *Verifier) ClientTLSConfig(identity *tls.Certificate, serverName string) *tls.Config {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         serverName,
		InsecureSkipVerify: true, //nolint:gosec // replaced by VerifyConnection
		VerifyConnection: func(cs tls.ConnectionState) error {
			if len(cs.PeerCertificates) == 0 {
				return ErrNoCertificates
			}
			intermediates := make([][]byte, 0, len(cs.PeerCertificates)-1)
			for _, cert := range cs.PeerCertificates[1:] {
				intermediates = append(intermediates, cert.Raw)
			}
			return v.VerifyServerCert(
				cs.PeerCertificates[0].Raw,
				intermediates,
				ParseServerName(serverName),
				cs.SignedCertificateTimestamps,
				cs.OCSPResponse,
				v.clock(),
			)
		},
	}
	if identity != nil {
		cfg.Certificates = []tls.Certificate{*identity}
	}
	return cfg
}

func (v *Verifier) clientAuthType() tls.ClientAuthType {
	switch {
	case !v.OfferClientAuth():
		return tls.NoClientCert
	case v.ClientAuthMandatory():
		return tls.RequireAnyClientCert
	default:
		return tls.RequestClientCert
	}
}
