// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package identity

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
)

const (
	pemTypeCertificate = "CERTIFICATE"
	pemTypePrivateKey  = "PRIVATE KEY"

	certFileMode = 0o644
	keyFileMode  = 0o600
)

// CertificatePEM returns the certificate as a "CERTIFICATE" PEM block.
func (id *Identity) CertificatePEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: pemTypeCertificate, Bytes: id.certDER})
}

// PrivateKeyPEM returns the private key as a PKCS #8 "PRIVATE KEY" PEM
// block. Callers should wipe the result with WipeBytes when done.
func (id *Identity) PrivateKeyPEM() ([]byte, error) {
	if id.signer == nil {
		return nil, fmt.Errorf("%w: private key wiped", ErrInvalidIdentity)
	}
	der, err := x509.MarshalPKCS8PrivateKey(id.signer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedKeyType, err)
	}
	defer WipeBytes(der)
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePrivateKey, Bytes: der}), nil
}

// Save writes the certificate and private key PEM files. The key file is
// created with mode 0600 and must not already exist.
func (id *Identity) Save(certPath, keyPath string) error {
	if certPath == "" || keyPath == "" {
		return fmt.Errorf("%w: certificate and key paths required", ErrInvalidConfig)
	}

	keyPEM, err := id.PrivateKeyPEM()
	if err != nil {
		return err
	}
	defer WipeBytes(keyPEM)

	if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	f, err := os.OpenFile(keyPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, keyFileMode)
	if err != nil {
		return fmt.Errorf("create key file: %w", err)
	}
	if _, err := f.Write(keyPEM); err != nil {
		_ = f.Close()
		return fmt.Errorf("write key file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close key file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(certPath), 0o755); err != nil {
		return fmt.Errorf("create certificate directory: %w", err)
	}
	if err := os.WriteFile(certPath, id.CertificatePEM(), certFileMode); err != nil {
		return fmt.Errorf("write certificate file: %w", err)
	}
	return nil
}

// Load reads an identity saved by Save.
func Load(certPath, keyPath string) (*Identity, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	defer WipeBytes(keyPEM)
	return Parse(certPEM, keyPEM)
}

// Parse decodes a certificate PEM block and a PKCS #8 private key PEM
// block and checks that they belong together.
func Parse(certPEM, keyPEM []byte) (*Identity, error) {
	certDER, err := decodePEM(certPEM, pemTypeCertificate)
	if err != nil {
		return nil, err
	}
	keyDER, err := decodePEM(keyPEM, pemTypePrivateKey)
	if err != nil {
		return nil, err
	}
	defer WipeBytes(keyDER)

	key, err := x509.ParsePKCS8PrivateKey(keyDER)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
	}
	return newIdentity(certDER, signer)
}

func decodePEM(data []byte, blockType string) ([]byte, error) {
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, fmt.Errorf("%w: no %s PEM block", ErrInvalidIdentity, blockType)
		}
		if block.Type == blockType {
			return block.Bytes, nil
		}
	}
}

// Exists reports whether both identity files are present.
func Exists(certPath, keyPath string) bool {
	for _, p := range []string{certPath, keyPath} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}
