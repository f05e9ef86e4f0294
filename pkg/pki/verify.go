// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package pki

import (
	"bytes"
	"crypto/x509"
	"errors"
	"fmt"
	"slices"
	"time"
)

// Path building limits.
const (
	// MaxSubCACount bounds the number of intermediates in a path.
	MaxSubCACount = 6

	// MaxSignatureChecks bounds the signatures verified while building
	// paths for one end-entity certificate.
	MaxSignatureChecks = 100

	// MaxBuildChainCalls bounds the issuer lookups made while building
	// paths for one end-entity certificate.
	MaxBuildChainCalls = 200_000
)

// VerifyForUsage verifies that the end-entity certificate chains to one of
// the trust anchors, optionally through the given DER-encoded intermediates,
// as of time t and for the given TLS usage. Every signature on the path must
// use one of algs.
//
// The end-entity checks (validity window, not a CA, extended key usage) run
// before path building. Path building tries trust anchors first, then
// intermediates, and reports the most specific failure seen. An intermediate
// is never used twice on one path, and the whole search shares a budget of
// MaxSignatureChecks and MaxBuildChainCalls.
func (e *EndEntityCert) VerifyForUsage(
	algs []*SignatureAlgorithm,
	anchors []TrustAnchor,
	intermediates [][]byte,
	t Time,
	usage Usage,
) error {
	if err := checkValidity(e.cert, t); err != nil {
		return err
	}
	if e.cert.BasicConstraintsValid && e.cert.IsCA {
		return ErrCAUsedAsEndEntity
	}
	if err := checkEKU(e.cert, usage); err != nil {
		return err
	}

	inters := make([]*x509.Certificate, 0, len(intermediates))
	for i, der := range intermediates {
		cert, err := parseDER(der)
		if err != nil {
			return fmt.Errorf("intermediate %d: %w", i, err)
		}
		inters = append(inters, cert)
	}

	p := &pathBuilder{
		algs:    algs,
		anchors: anchors,
		inters:  inters,
		time:    t,
		usage:   usage,
		budget: budget{
			signatures: MaxSignatureChecks,
			buildCalls: MaxBuildChainCalls,
		},
	}
	return p.build(e.cert)
}

// VerifyIsValidForDNSName verifies that the certificate's subject
// alternative names cover name. The common name is not consulted.
func (e *EndEntityCert) VerifyIsValidForDNSName(name DNSName) error {
	if err := e.cert.VerifyHostname(string(name)); err != nil {
		return fmt.Errorf("%w: %w", ErrCertNotValidForName, err)
	}
	return nil
}

// pathBuilder walks issuer links from a certificate to a trust anchor.
type pathBuilder struct {
	algs    []*SignatureAlgorithm
	anchors []TrustAnchor
	inters  []*x509.Certificate
	time    Time
	usage   Usage
	budget  budget

	// path holds the intermediates between the end-entity certificate and
	// the certificate currently being built from.
	path []*x509.Certificate
}

// budget counts the work left for one path search.
type budget struct {
	signatures int
	buildCalls int
}

func (b *budget) consumeBuildCall() error {
	if b.buildCalls == 0 {
		return ErrMaximumPathBuildCallsExceeded
	}
	b.buildCalls--
	return nil
}

func (b *budget) consumeSignature() error {
	if b.signatures == 0 {
		return ErrMaximumSignatureChecksExceeded
	}
	b.signatures--
	return nil
}

// build finds an issuer for cert and verifies cert's signature with it.
// Budget exhaustion ends the whole search.
func (p *pathBuilder) build(cert *x509.Certificate) error {
	if len(p.path) > MaxSubCACount {
		return ErrMaximumPathDepthExceeded
	}
	if err := p.budget.consumeBuildCall(); err != nil {
		return err
	}

	var result error = ErrUnknownIssuer

	for _, anchor := range p.anchors {
		if !bytes.Equal(cert.RawIssuer, anchor.Subject) {
			continue
		}
		err := p.verifySignature(cert, anchor.SPKI)
		if err == nil {
			return nil
		}
		if isBudgetError(err) {
			return err
		}
		result = preferError(result, err)
	}

	for _, issuer := range p.inters {
		if !bytes.Equal(cert.RawIssuer, issuer.RawSubject) || p.onPath(issuer) {
			continue
		}
		if err := p.checkIssuer(issuer); err != nil {
			result = preferError(result, err)
			continue
		}
		if err := p.verifySignature(cert, issuer.RawSubjectPublicKeyInfo); err != nil {
			if isBudgetError(err) {
				return err
			}
			result = preferError(result, err)
			continue
		}

		p.path = append(p.path, issuer)
		err := p.build(issuer)
		p.path = p.path[:len(p.path)-1]
		if err == nil {
			return nil
		}
		if isBudgetError(err) {
			return err
		}
		result = preferError(result, err)
	}

	return result
}

func (p *pathBuilder) verifySignature(cert *x509.Certificate, spki []byte) error {
	if err := p.budget.consumeSignature(); err != nil {
		return err
	}
	return verifySignedData(p.algs, cert.SignatureAlgorithm, spki,
		cert.RawTBSCertificate, cert.Signature)
}

// onPath reports whether an intermediate with the same encoding is already
// on the current path.
func (p *pathBuilder) onPath(cert *x509.Certificate) bool {
	return slices.ContainsFunc(p.path, func(c *x509.Certificate) bool {
		return bytes.Equal(c.Raw, cert.Raw)
	})
}

func isBudgetError(err error) bool {
	return errors.Is(err, ErrMaximumSignatureChecksExceeded) ||
		errors.Is(err, ErrMaximumPathBuildCallsExceeded)
}

// checkIssuer applies the issuer-independent checks to an intermediate.
func (p *pathBuilder) checkIssuer(cert *x509.Certificate) error {
	if err := checkValidity(cert, p.time); err != nil {
		return err
	}
	if !cert.BasicConstraintsValid || !cert.IsCA {
		return ErrEndEntityUsedAsCA
	}
	return checkEKU(cert, p.usage)
}

// preferError keeps the more informative of two path building failures.
// Anything beats ErrUnknownIssuer.
func preferError(current, next error) error {
	if errors.Is(current, ErrUnknownIssuer) {
		return next
	}
	return current
}

func checkValidity(cert *x509.Certificate, t Time) error {
	if t.before(cert.NotBefore) {
		return fmt.Errorf("%w: valid from %s", ErrCertNotValidYet, cert.NotBefore.UTC().Format(time.RFC3339))
	}
	if t.after(cert.NotAfter) {
		return fmt.Errorf("%w: valid until %s", ErrCertExpired, cert.NotAfter.UTC().Format(time.RFC3339))
	}
	return nil
}

// checkEKU accepts a certificate without the extension, or one whose
// extension lists the usage or anyExtendedKeyUsage.
func checkEKU(cert *x509.Certificate, usage Usage) error {
	if len(cert.ExtKeyUsage) == 0 && len(cert.UnknownExtKeyUsage) == 0 {
		return nil
	}
	if slices.Contains(cert.ExtKeyUsage, x509.ExtKeyUsageAny) {
		return nil
	}
	if slices.Contains(cert.ExtKeyUsage, usageEKUs[usage]) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrRequiredEKUNotFound, usage)
}
