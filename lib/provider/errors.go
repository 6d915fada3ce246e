// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"errors"
	"fmt"
)

// OperationError is a structural failure: the operation cannot succeed
// by waiting or retrying (corrupt bundle, unknown location, disk
// full). The navigator fails the current navigation when it sees one.
type OperationError struct {
	// Op names the failing operation ("download", "load", ...).
	Op string
	// Target is the bundle or unit the operation was working on.
	Target string
	Err    error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// RemoteError is a transient transport failure. The provider may retry
// internally, so by default the navigator only logs these.
type RemoteError struct {
	// URL is the remote resource that failed.
	URL string
	// Attempt is the 1-based attempt number that failed.
	Attempt int
	Err     error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s (attempt %d): %v", e.URL, e.Attempt, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a RemoteError.
func IsTransient(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote)
}
