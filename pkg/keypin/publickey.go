// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package keypin

import (
	"bytes"
	"crypto"
	"crypto/sha256"
	"crypto/subtle"
	"crypto/x509"
	"encoding/asn1"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

const (
	// PEMTypePublicKey is the PEM block type of a SubjectPublicKeyInfo.
	PEMTypePublicKey = "PUBLIC KEY"

	// PEMTypeCertificate is the PEM block type of an X.509 certificate.
	PEMTypeCertificate = "CERTIFICATE"
)

var (
	oidPublicKeyRSA     = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	oidPublicKeyECDSA   = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidPublicKeyX25519  = asn1.ObjectIdentifier{1, 3, 101, 110}
	oidPublicKeyEd25519 = asn1.ObjectIdentifier{1, 3, 101, 112}
	oidPublicKeyEd448   = asn1.ObjectIdentifier{1, 3, 101, 113}

	oidNamedCurveP256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
	oidNamedCurveP384 = asn1.ObjectIdentifier{1, 3, 132, 0, 34}
	oidNamedCurveP521 = asn1.ObjectIdentifier{1, 3, 132, 0, 35}
)

// PublicKey is the expected public key descriptor: a parsed X.509
// SubjectPublicKeyInfo (RFC 5280, section 4.1.2.7).
//
//	SubjectPublicKeyInfo  ::=  SEQUENCE  {
//	     algorithm            AlgorithmIdentifier,
//	     subjectPublicKey     BIT STRING  }
//
// A PublicKey is immutable; it is safe to share between goroutines.
type PublicKey struct {
	raw        []byte
	algorithm  asn1.ObjectIdentifier
	parameters []byte
	key        []byte
	keyBits    int
}

// ParsePublicKey decodes a DER-encoded SubjectPublicKeyInfo. Any well-formed
// structure is accepted regardless of algorithm. Malformed input, including
// trailing data, returns ErrDecode.
func ParsePublicKey(der []byte) (*PublicKey, error) {
	input := cryptobyte.String(der)

	var spki, algID cryptobyte.String
	if !input.ReadASN1(&spki, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, fmt.Errorf("%w: expected a single SubjectPublicKeyInfo SEQUENCE", ErrDecode)
	}
	if !spki.ReadASN1(&algID, cbasn1.SEQUENCE) {
		return nil, fmt.Errorf("%w: malformed AlgorithmIdentifier", ErrDecode)
	}

	var oid asn1.ObjectIdentifier
	if !algID.ReadASN1ObjectIdentifier(&oid) {
		return nil, fmt.Errorf("%w: malformed algorithm OID", ErrDecode)
	}

	var params cryptobyte.String
	if !algID.Empty() {
		var tag cbasn1.Tag
		if !algID.ReadAnyASN1Element(&params, &tag) || !algID.Empty() {
			return nil, fmt.Errorf("%w: malformed algorithm parameters", ErrDecode)
		}
	}

	var bits asn1.BitString
	if !spki.ReadASN1BitString(&bits) || !spki.Empty() {
		return nil, fmt.Errorf("%w: malformed subjectPublicKey", ErrDecode)
	}

	return &PublicKey{
		raw:        bytes.Clone(der),
		algorithm:  oid,
		parameters: bytes.Clone(params),
		key:        bytes.Clone(bits.Bytes),
		keyBits:    bits.BitLength,
	}, nil
}

// NewPublicKey builds a descriptor from a Go public key such as
// ed25519.PublicKey or *ecdsa.PublicKey.
func NewPublicKey(pub crypto.PublicKey) (*PublicKey, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedKeyType, err)
	}
	return ParsePublicKey(der)
}

// ParsePublicKeyPEM decodes the first "PUBLIC KEY" or "CERTIFICATE" block in
// data. For a certificate the descriptor is its SubjectPublicKeyInfo.
func ParsePublicKeyPEM(data []byte) (*PublicKey, error) {
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, fmt.Errorf("%w: no %s or %s PEM block found", ErrDecode, PEMTypePublicKey, PEMTypeCertificate)
		}
		switch block.Type {
		case PEMTypePublicKey:
			return ParsePublicKey(block.Bytes)
		case PEMTypeCertificate:
			return PublicKeyFromCertificate(block.Bytes)
		}
	}
}

// Equal reports whether k and other have the same algorithm identifier and
// the same key bits. All fields are compared regardless of where the first
// difference lies.
func (k *PublicKey) Equal(other *PublicKey) bool {
	if k == nil || other == nil {
		return k == other
	}
	algorithm := k.algorithm.Equal(other.algorithm)
	params := subtle.ConstantTimeCompare(k.parameters, other.parameters) == 1
	key := subtle.ConstantTimeCompare(k.key, other.key) == 1
	bits := k.keyBits == other.keyBits
	return algorithm && params && key && bits
}

// Bytes returns a copy of the DER-encoded SubjectPublicKeyInfo.
func (k *PublicKey) Bytes() []byte {
	return bytes.Clone(k.raw)
}

// Algorithm returns the algorithm OID.
func (k *PublicKey) Algorithm() asn1.ObjectIdentifier {
	return append(asn1.ObjectIdentifier(nil), k.algorithm...)
}

// Parameters returns a copy of the DER-encoded algorithm parameters, or nil
// when absent.
func (k *PublicKey) Parameters() []byte {
	return bytes.Clone(k.parameters)
}

// KeyBytes returns a copy of the subjectPublicKey bit string contents.
func (k *PublicKey) KeyBytes() []byte {
	return bytes.Clone(k.key)
}

// AlgorithmName returns a short human-readable algorithm name, falling back
// to the dotted OID for unknown algorithms.
func (k *PublicKey) AlgorithmName() string {
	switch {
	case k.algorithm.Equal(oidPublicKeyEd25519):
		return "Ed25519"
	case k.algorithm.Equal(oidPublicKeyEd448):
		return "Ed448"
	case k.algorithm.Equal(oidPublicKeyX25519):
		return "X25519"
	case k.algorithm.Equal(oidPublicKeyRSA):
		return "RSA"
	case k.algorithm.Equal(oidPublicKeyECDSA):
		return "ECDSA " + curveName(k.parameters)
	default:
		return k.algorithm.String()
	}
}

func curveName(params []byte) string {
	var curve asn1.ObjectIdentifier
	if _, err := asn1.Unmarshal(params, &curve); err != nil {
		return "(unknown curve)"
	}
	switch {
	case curve.Equal(oidNamedCurveP256):
		return "P-256"
	case curve.Equal(oidNamedCurveP384):
		return "P-384"
	case curve.Equal(oidNamedCurveP521):
		return "P-521"
	default:
		return curve.String()
	}
}

// Fingerprint returns the hex-encoded SHA-256 digest of the DER-encoded
// SubjectPublicKeyInfo. This is the same value as an SPKI SHA-256 pin.
func (k *PublicKey) Fingerprint() string {
	sum := sha256.Sum256(k.raw)
	return hex.EncodeToString(sum[:])
}

// String identifies the key by algorithm and fingerprint without exposing
// key material.
func (k *PublicKey) String() string {
	if k == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s SHA256:%s", k.AlgorithmName(), k.Fingerprint())
}

// PEM returns the key as a "PUBLIC KEY" PEM block.
func (k *PublicKey) PEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: PEMTypePublicKey, Bytes: k.raw})
}

// MarshalBinary returns the DER-encoded SubjectPublicKeyInfo.
func (k *PublicKey) MarshalBinary() ([]byte, error) {
	return k.Bytes(), nil
}

// UnmarshalBinary decodes a DER-encoded SubjectPublicKeyInfo into k.
func (k *PublicKey) UnmarshalBinary(data []byte) error {
	parsed, err := ParsePublicKey(data)
	if err != nil {
		return err
	}
	*k = *parsed
	return nil
}

// MarshalText returns the standard base64 encoding of the DER bytes, which
// is how the key appears in JSON and YAML configuration.
func (k *PublicKey) MarshalText() ([]byte, error) {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(k.raw)))
	base64.StdEncoding.Encode(out, k.raw)
	return out, nil
}

// UnmarshalText decodes the base64 form produced by MarshalText.
func (k *PublicKey) UnmarshalText(text []byte) error {
	der := make([]byte, base64.StdEncoding.DecodedLen(len(text)))
	n, err := base64.StdEncoding.Decode(der, bytes.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("%w: invalid base64: %w", ErrDecode, err)
	}
	return k.UnmarshalBinary(der[:n])
}
