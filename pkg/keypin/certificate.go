// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package keypin

import (
	"fmt"

	"github.com/jeremyhahn/go-keypin/pkg/pki"
)

// PublicKeyFromCertificate extracts the public key descriptor from a
// DER-encoded X.509 certificate. Malformed certificates return
// ErrInvalidCertificateEncoding.
func PublicKeyFromCertificate(der []byte) (*PublicKey, error) {
	cert, err := pki.ParseCertificate(der)
	if err != nil {
		return nil, MapPKIError(err)
	}
	key, err := ParsePublicKey(cert.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCertificateEncoding, err)
	}
	return key, nil
}
