// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package keysource

import (
	"fmt"
	"strings"
)

// Method identifies a key source.
type Method string

const (
	// MethodEmbedded reads the key from an in-process provider.
	MethodEmbedded Method = "embedded"

	// MethodFile reads the key from a local file.
	MethodFile Method = "file"

	// MethodDANE resolves the key from DNSSEC-authenticated TLSA records.
	MethodDANE Method = "dane"

	// MethodHTTPS downloads the key over HTTPS.
	MethodHTTPS Method = "https"
)

// DefaultMethodOrder is the default priority order for AutoSource: local
// sources first, then DNS, then the network fetch.
var DefaultMethodOrder = []Method{MethodEmbedded, MethodFile, MethodDANE, MethodHTTPS}

// ParseMethod converts a method name into a Method.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range DefaultMethodOrder {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown method %q", ErrInvalidConfig, s)
}

// AttemptError records a single failed method.
type AttemptError struct {
	Method Method
	Err    error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("keysource method %s: %v", e.Method, e.Err)
}

// Unwrap returns the underlying error.
func (e *AttemptError) Unwrap() error {
	return e.Err
}

// AggregateError collects the failures of every attempted method. It
// matches ErrAllMethodsFailed and each attempt's error.
type AggregateError struct {
	Attempts []AttemptError
}

func (e *AggregateError) Error() string {
	var b strings.Builder
	b.WriteString("keysource: all methods failed: [")
	for i, a := range e.Attempts {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", a.Method, a.Err)
	}
	b.WriteString("]")
	return b.String()
}

// Unwrap returns ErrAllMethodsFailed followed by each attempt.
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts)+1)
	errs = append(errs, ErrAllMethodsFailed)
	for i := range e.Attempts {
		errs = append(errs, &e.Attempts[i])
	}
	return errs
}
