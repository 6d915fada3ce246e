// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package navigator

import "errors"

var (
	// ErrNotInitialized is returned by navigation calls made before a
	// successful Initialize.
	ErrNotInitialized = errors.New("navigator: not initialized")

	// ErrAlreadyInitialized is returned by a second Initialize.
	ErrAlreadyInitialized = errors.New("navigator: already initialized")
)
