// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package keysource

import (
	"context"
	"fmt"

	"github.com/jeremyhahn/go-keypin/pkg/keypin"
)

// EmbeddedSource reads the key from an in-process KeyProvider.
type EmbeddedSource struct {
	provider KeyProvider
}

// NewEmbeddedSource creates a source backed by provider.
func NewEmbeddedSource(provider KeyProvider) (*EmbeddedSource, error) {
	if provider == nil {
		return nil, ErrProviderNil
	}
	return &EmbeddedSource{provider: provider}, nil
}

// PublicKey decodes the provider's SubjectPublicKeyInfo.
func (s *EmbeddedSource) PublicKey(ctx context.Context) (*keypin.PublicKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	der, err := s.provider.PublicKeyDER()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	key, err := keypin.ParsePublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return key, nil
}

// Close is a no-op.
func (s *EmbeddedSource) Close() error {
	return nil
}

// StaticProvider is a KeyProvider returning fixed DER bytes.
type StaticProvider []byte

// PublicKeyDER returns a copy of the bytes.
func (p StaticProvider) PublicKeyDER() ([]byte, error) {
	return append([]byte(nil), p...), nil
}
