// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package keysource

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jeremyhahn/go-keypin/pkg/keypin"
)

// DefaultPerMethodTimeout bounds each method attempt.
const DefaultPerMethodTimeout = 15 * time.Second

// AutoConfig configures an AutoSource. A nil method config skips that
// method.
type AutoConfig struct {
	// MethodOrder is the priority order. Default: DefaultMethodOrder.
	MethodOrder []Method

	// PerMethodTimeout bounds each attempt. Default: 15s.
	PerMethodTimeout time.Duration

	Embedded KeyProvider
	File     *FileConfig
	DANE     *DANEConfig
	HTTPS    *HTTPSConfig

	// Logger for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// sourceFactory creates a fresh Source for a single attempt.
type sourceFactory func() (Source, error)

// AutoSource tries several sources in priority order.
type AutoSource struct {
	factories  map[Method]sourceFactory
	order      []Method
	perTimeout time.Duration
	logger     *slog.Logger
}

// NewAutoSource builds an AutoSource from the non-nil method configs. At
// least one method in the order must be configured.
func NewAutoSource(cfg *AutoConfig) (*AutoSource, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	perTimeout := cfg.PerMethodTimeout
	if perTimeout == 0 {
		perTimeout = DefaultPerMethodTimeout
	}
	order := cfg.MethodOrder
	if len(order) == 0 {
		order = DefaultMethodOrder
	}

	factories := make(map[Method]sourceFactory)
	if cfg.Embedded != nil {
		provider := cfg.Embedded
		factories[MethodEmbedded] = func() (Source, error) { return NewEmbeddedSource(provider) }
	}
	if cfg.File != nil {
		fileCfg := *cfg.File
		if fileCfg.Logger == nil {
			fileCfg.Logger = logger
		}
		factories[MethodFile] = func() (Source, error) { return NewFileSource(&fileCfg) }
	}
	if cfg.DANE != nil {
		daneCfg := *cfg.DANE
		if daneCfg.Logger == nil {
			daneCfg.Logger = logger
		}
		factories[MethodDANE] = func() (Source, error) { return NewDANESource(&daneCfg) }
	}
	if cfg.HTTPS != nil {
		httpsCfg := *cfg.HTTPS
		if httpsCfg.Logger == nil {
			httpsCfg.Logger = logger
		}
		factories[MethodHTTPS] = func() (Source, error) { return NewHTTPSSource(&httpsCfg) }
	}

	configured := false
	for _, m := range order {
		if _, ok := factories[m]; ok {
			configured = true
			break
		}
	}
	if !configured {
		return nil, ErrNoMethodsConfigured
	}

	return &AutoSource{
		factories:  factories,
		order:      order,
		perTimeout: perTimeout,
		logger:     logger.With("component", "auto_keysource"),
	}, nil
}

// PublicKey returns the key from the first method that succeeds. When all
// fail the result is an *AggregateError.
func (a *AutoSource) PublicKey(ctx context.Context) (*keypin.PublicKey, error) {
	attempts := make([]AttemptError, 0, len(a.order))

	for _, method := range a.order {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAllMethodsFailed, err)
		}

		factory, ok := a.factories[method]
		if !ok {
			a.logger.Debug("skipping unconfigured method", "method", method)
			continue
		}

		key, err := a.try(ctx, method, factory)
		if err == nil {
			a.logger.Info("expected key loaded", "method", method, "key", key.Fingerprint())
			return key, nil
		}

		a.logger.Warn("key source failed", "method", method, "error", err)
		attempts = append(attempts, AttemptError{Method: method, Err: err})
	}

	return nil, &AggregateError{Attempts: attempts}
}

// Close is a no-op; sources are created and closed per attempt.
func (a *AutoSource) Close() error {
	return nil
}

func (a *AutoSource) try(ctx context.Context, method Method, factory sourceFactory) (*keypin.PublicKey, error) {
	src, err := factory()
	if err != nil {
		return nil, fmt.Errorf("create %s source: %w", method, err)
	}
	defer src.Close()

	methodCtx, cancel := context.WithTimeout(ctx, a.perTimeout)
	defer cancel()

	return src.PublicKey(methodCtx)
}

// Load creates an AutoSource, loads the key and releases the source.
func Load(ctx context.Context, cfg *AutoConfig) (*keypin.PublicKey, error) {
	src, err := NewAutoSource(cfg)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return src.PublicKey(ctx)
}
