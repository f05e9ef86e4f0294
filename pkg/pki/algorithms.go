// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package pki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
)

// SignatureAlgorithm describes one certificate signature algorithm that a
// chain verification may accept. The set of algorithms passed to
// VerifyForUsage is the allowlist; certificates signed with anything else
// are rejected.
type SignatureAlgorithm struct {
	name      string
	algorithm x509.SignatureAlgorithm
	accepts   func(pub crypto.PublicKey) bool
	verify    func(pub crypto.PublicKey, signed, signature []byte) bool
}

// String returns the algorithm name.
func (a *SignatureAlgorithm) String() string {
	return a.name
}

var (
	// ECDSAP256SHA256 is ECDSA over NIST P-256 with SHA-256.
	ECDSAP256SHA256 = &SignatureAlgorithm{
		name:      "ECDSA_P256_SHA256",
		algorithm: x509.ECDSAWithSHA256,
		accepts:   ecdsaCurve(elliptic.P256()),
		verify:    ecdsaVerify(crypto.SHA256),
	}

	// ECDSAP384SHA384 is ECDSA over NIST P-384 with SHA-384.
	ECDSAP384SHA384 = &SignatureAlgorithm{
		name:      "ECDSA_P384_SHA384",
		algorithm: x509.ECDSAWithSHA384,
		accepts:   ecdsaCurve(elliptic.P384()),
		verify:    ecdsaVerify(crypto.SHA384),
	}

	// ED25519 is the pure Ed25519 signature scheme.
	ED25519 = &SignatureAlgorithm{
		name:      "ED25519",
		algorithm: x509.PureEd25519,
		accepts: func(pub crypto.PublicKey) bool {
			_, ok := pub.(ed25519.PublicKey)
			return ok
		},
		verify: func(pub crypto.PublicKey, signed, signature []byte) bool {
			return ed25519.Verify(pub.(ed25519.PublicKey), signed, signature)
		},
	}

	// RSAPKCS1SHA256 is RSASSA-PKCS1-v1_5 with SHA-256 and a modulus of
	// 2048 to 8192 bits.
	RSAPKCS1SHA256 = &SignatureAlgorithm{
		name:      "RSA_PKCS1_2048_8192_SHA256",
		algorithm: x509.SHA256WithRSA,
		accepts: func(pub crypto.PublicKey) bool {
			k, ok := pub.(*rsa.PublicKey)
			return ok && k.N.BitLen() >= 2048 && k.N.BitLen() <= 8192
		},
		verify: func(pub crypto.PublicKey, signed, signature []byte) bool {
			digest := digest(crypto.SHA256, signed)
			return rsa.VerifyPKCS1v15(pub.(*rsa.PublicKey), crypto.SHA256, digest, signature) == nil
		},
	}
)

func ecdsaCurve(curve elliptic.Curve) func(crypto.PublicKey) bool {
	return func(pub crypto.PublicKey) bool {
		k, ok := pub.(*ecdsa.PublicKey)
		return ok && k.Curve == curve
	}
}

func ecdsaVerify(hash crypto.Hash) func(crypto.PublicKey, []byte, []byte) bool {
	return func(pub crypto.PublicKey, signed, signature []byte) bool {
		return ecdsa.VerifyASN1(pub.(*ecdsa.PublicKey), digest(hash, signed), signature)
	}
}

func digest(hash crypto.Hash, data []byte) []byte {
	h := hash.New()
	h.Write(data)
	return h.Sum(nil)
}

// verifySignedData checks signature over signed, produced with sigAlg, using
// the issuer's SubjectPublicKeyInfo. Only algorithms in algs are considered.
func verifySignedData(
	algs []*SignatureAlgorithm,
	sigAlg x509.SignatureAlgorithm,
	issuerSPKI []byte,
	signed, signature []byte,
) error {
	var candidates []*SignatureAlgorithm
	for _, alg := range algs {
		if alg != nil && alg.algorithm == sigAlg {
			candidates = append(candidates, alg)
		}
	}
	if len(candidates) == 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedSignatureAlgorithm, sigAlg)
	}

	pub, err := x509.ParsePKIXPublicKey(issuerSPKI)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedSignatureAlgorithmForPublicKey, sigAlg)
	}

	for _, alg := range candidates {
		if !alg.accepts(pub) {
			continue
		}
		if !alg.verify(pub, signed, signature) {
			return ErrInvalidSignatureForPublicKey
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedSignatureAlgorithmForPublicKey, sigAlg)
}
