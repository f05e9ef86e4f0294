// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package keysource

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jeremyhahn/go-keypin/pkg/keypin"
)

// maxKeyFileSize bounds key files and HTTP responses (64 KiB).
const maxKeyFileSize = 64 << 10

// FileConfig configures a FileSource.
type FileConfig struct {
	// Path is the key file. It may hold a PEM "PUBLIC KEY" or
	// "CERTIFICATE" block, or raw DER. Required.
	Path string

	// Logger for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// FileSource reads the key from a local file.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a file source. The file is read on each call to
// PublicKey.
func NewFileSource(cfg *FileConfig) (*FileSource, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: path required", ErrInvalidConfig)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:   cfg.Path,
		logger: logger.With("component", "file_keysource"),
	}, nil
}

// PublicKey reads and decodes the key file.
func (s *FileSource) PublicKey(ctx context.Context) (*keypin.PublicKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxKeyFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrLoadFailed, s.path, err)
	}
	if len(data) > maxKeyFileSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrLoadFailed, s.path, maxKeyFileSize)
	}

	key, err := decodeKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadFailed, s.path, err)
	}

	s.logger.Debug("loaded key from file", "path", s.path, "key", key.Fingerprint())
	return key, nil
}

// Close is a no-op.
func (s *FileSource) Close() error {
	return nil
}
