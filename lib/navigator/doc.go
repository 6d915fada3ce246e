// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package navigator sequences route changes for an application whose
// content arrives in downloadable bundles.
//
// A route is the set of content units a logical path ("/title",
// "/stage1") resolves to. The [Navigator] keeps exactly one route
// resident at a time (the root route stays resident underneath it),
// plus an optional transition overlay while a navigation runs.
//
// # Navigation protocol
//
// [Navigator.Navigate] runs these phases strictly in order:
//
//  1. Fail with [ErrNotInitialized] before touching anything.
//  2. Publish [NavigationStarted] unless the path is the root or the
//     configured entry path.
//  3. Probe for a transition overlay at "<path>:transition", then
//     "<root>:transition". A resolved overlay is loaded and activated,
//     and [TransitionStarted] is published.
//  4. Resolve the path. An empty resolution is a valid outcome: the
//     path becomes the current route and nothing is loaded.
//  5. Download everything the route still needs. Downloads finish
//     before anything is unloaded, so a failed download leaves the
//     previous route resident.
//  6. Unload the previous route (never the root). On the first
//     navigation, unload stray non-primary units instead.
//  7. Load the route, report [LoadingStatus], then activate every
//     newly loaded unit in load order.
//  8. Publish [TransitionEnded] and unload the overlay.
//  9. Publish [NavigationEnded], always, with the outcome.
//
// # Concurrency
//
// The navigator runs on its caller's goroutine and is not safe for
// concurrent navigation calls: callers serialize Navigate, PushNavigate,
// BackNavigate, and ClearHistory themselves. Every wait on a provider
// operation yields through the configured clock and honours ctx.
// Events are published fire-and-forget.
//
// # Failure policy
//
// Nothing is rolled back. A download failure aborts the call before the
// previous route is unloaded, so CurrentRoute and history are
// unchanged. A load failure after the unload leaves CurrentRoute empty;
// retry by navigating to the same path or to the root.
package navigator
