// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package keypin

import (
	"github.com/jeremyhahn/go-keypin/pkg/pki"
)

// selfSigned holds the inputs for chain verification in which the
// end-entity certificate is its own trust anchor.
type selfSigned struct {
	endEntity     *pki.EndEntityCert
	intermediates [][]byte
	anchors       []pki.TrustAnchor
}

// prepareSelfSigned reinterprets the end-entity certificate as the only
// trust anchor. Callers must have compared its key to the expected key
// first; the anchor carries no trust of its own.
func prepareSelfSigned(endEntity []byte, intermediates [][]byte) (*selfSigned, error) {
	ee, err := pki.NewEndEntityCert(endEntity)
	if err != nil {
		return nil, MapPKIError(err)
	}
	root, err := pki.TrustAnchorFromCertDER(endEntity)
	if err != nil {
		return nil, MapPKIError(err)
	}

	chain := make([][]byte, len(intermediates))
	copy(chain, intermediates)

	return &selfSigned{
		endEntity:     ee,
		intermediates: chain,
		anchors:       []pki.TrustAnchor{root},
	}, nil
}

func (s *selfSigned) verify(t pki.Time, usage pki.Usage) error {
	return MapPKIError(s.endEntity.VerifyForUsage(
		supportedSignatureAlgorithms, s.anchors, s.intermediates, t, usage))
}
