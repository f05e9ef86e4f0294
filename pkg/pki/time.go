// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package pki

import (
	"fmt"
	"time"
)

// Time is a verification instant with one-second resolution, counted from
// the Unix epoch.
type Time struct {
	secs uint64
}

// NewTime converts a wall-clock time into a verification time. Times before
// the Unix epoch cannot be represented and return ErrBadTime.
func NewTime(t time.Time) (Time, error) {
	secs := t.Unix()
	if secs < 0 {
		return Time{}, fmt.Errorf("%w: %s precedes the Unix epoch", ErrBadTime, t.UTC().Format(time.RFC3339))
	}
	return Time{secs: uint64(secs)}, nil
}

// TimeFromSecondsSinceUnixEpoch returns the verification time secs seconds
// after the Unix epoch.
func TimeFromSecondsSinceUnixEpoch(secs uint64) Time {
	return Time{secs: secs}
}

// Unix returns the number of seconds since the Unix epoch.
func (t Time) Unix() uint64 {
	return t.secs
}

// before reports whether t is strictly before the given instant.
func (t Time) before(u time.Time) bool {
	s := u.Unix()
	return s > 0 && t.secs < uint64(s)
}

// after reports whether t is strictly after the given instant.
func (t Time) after(u time.Time) bool {
	s := u.Unix()
	return s < 0 || t.secs > uint64(s)
}
