// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package dane

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/jeremyhahn/go-keypin/pkg/keypin"
)

// certSelectors extract the selected bytes from a DER certificate.
var certSelectors = map[uint8]func(der []byte) ([]byte, error){
	SelectorFullCert: func(der []byte) ([]byte, error) {
		if _, err := keypin.PublicKeyFromCertificate(der); err != nil {
			return nil, err
		}
		return der, nil
	},
	SelectorSPKI: func(der []byte) ([]byte, error) {
		key, err := keypin.PublicKeyFromCertificate(der)
		if err != nil {
			return nil, err
		}
		return key.Bytes(), nil
	},
}

var matchers = map[uint8]func(data []byte) []byte{
	MatchingFull:   func(d []byte) []byte { return d },
	MatchingSHA256: func(d []byte) []byte { h := sha256.Sum256(d); return h[:] },
	MatchingSHA512: func(d []byte) []byte { h := sha512.Sum512(d); return h[:] },
}

// AssociationData computes the association data of a DANE-EE SPKI record
// for key.
func AssociationData(key *keypin.PublicKey, matchingType uint8) ([]byte, error) {
	if key == nil {
		return nil, ErrInvalidKey
	}
	match, ok := matchers[matchingType]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMatching, matchingType)
	}
	return match(key.Bytes()), nil
}

// CertificateAssociationData computes association data for a DER
// certificate with the given selector and matching type.
func CertificateAssociationData(certDER []byte, selector, matchingType uint8) ([]byte, error) {
	sel, ok := certSelectors[selector]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSelector, selector)
	}
	match, ok := matchers[matchingType]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMatching, matchingType)
	}
	selected, err := sel(certDER)
	if err != nil {
		return nil, err
	}
	return match(selected), nil
}

// NewRecord returns the DANE-EE SPKI record (3 1 matchingType) for key.
func NewRecord(key *keypin.PublicKey, matchingType uint8) (*Record, error) {
	data, err := AssociationData(key, matchingType)
	if err != nil {
		return nil, err
	}
	return &Record{
		Usage:        UsageDANEEE,
		Selector:     SelectorSPKI,
		MatchingType: matchingType,
		Data:         data,
	}, nil
}

// MatchesKey reports whether r is a DANE-EE SPKI record for key.
func (r *Record) MatchesKey(key *keypin.PublicKey) bool {
	if r == nil || key == nil || r.Usage != UsageDANEEE || r.Selector != SelectorSPKI {
		return false
	}
	data, err := AssociationData(key, r.MatchingType)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(data, r.Data) == 1
}

// MatchesCertificate reports whether r is a DANE-EE record for the DER
// certificate, with either selector.
func (r *Record) MatchesCertificate(certDER []byte) bool {
	if r == nil || r.Usage != UsageDANEEE {
		return false
	}
	data, err := CertificateAssociationData(certDER, r.Selector, r.MatchingType)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(data, r.Data) == 1
}

// String renders the record's RDATA, e.g. "3 1 1 ab12...".
func (r *Record) String() string {
	return fmt.Sprintf("%d %d %d %s", r.Usage, r.Selector, r.MatchingType, hex.EncodeToString(r.Data))
}

// VerifyKey checks that at least one record publishes key.
func VerifyKey(key *keypin.PublicKey, records []*Record) error {
	if key == nil {
		return ErrInvalidKey
	}
	if len(records) == 0 {
		return ErrNoTLSARecords
	}
	for _, r := range records {
		if r.MatchesKey(key) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrKeyNotPublished, key)
}

// KeyFromRecords recovers the pinned key from a record set. The set must
// contain exactly one distinct 3 1 0 key, and every 3 1 1 and 3 1 2 record
// in the set must match it. Records with other usages or selectors are
// ignored.
func KeyFromRecords(records []*Record) (*keypin.PublicKey, error) {
	if len(records) == 0 {
		return nil, ErrNoTLSARecords
	}

	var key *keypin.PublicKey
	for _, r := range records {
		if r == nil || r.Usage != UsageDANEEE || r.Selector != SelectorSPKI || r.MatchingType != MatchingFull {
			continue
		}
		parsed, err := keypin.ParsePublicKey(r.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
		}
		if key != nil && !key.Equal(parsed) {
			return nil, ErrAmbiguousKey
		}
		key = parsed
	}
	if key == nil {
		return nil, ErrNoFullKeyRecord
	}

	for _, r := range records {
		if r == nil || r.Usage != UsageDANEEE || r.Selector != SelectorSPKI || r.MatchingType == MatchingFull {
			continue
		}
		if !r.MatchesKey(key) {
			return nil, fmt.Errorf("%w: %s", ErrDigestMismatch, r)
		}
	}
	return key, nil
}
