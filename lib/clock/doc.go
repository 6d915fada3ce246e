// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used by every
// scenenav component that waits or timestamps.
//
// The navigator's cooperative poll loops suspend through
// [Clock.After] rather than calling time.Sleep, so tests can drive a
// navigation deterministically with [Fake]:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go navigator.Navigate(ctx, "/stage1")
//	fake.WaitForTimers(1)              // the poll loop is parked
//	fake.Advance(16 * time.Millisecond) // release one poll tick
//
// A non-positive duration passed to After fires immediately on both
// implementations, which is how a zero poll interval turns every
// suspension point into a plain context check.
package clock
