// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for scenenav packages.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern that every test waiting on a subscriber goroutine needs, so
// individual tests never call time.After themselves. The timeout is a
// hang guard, not a synchronization mechanism: a passing test never
// waits for it.
//
// Helpers call Fatalf on failure since a test cannot continue past a
// missing event.
package testutil
