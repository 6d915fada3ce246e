// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package contentprovider is the production provider.ResourceProvider:
// catalogs and bundles come from a fetch.Fetcher, downloaded bundles
// are kept in a bundle cache, and loaded units live in a
// scene.Registry.
//
// Every provider operation runs on its own goroutine and is exposed to
// the navigator as a pollable provider.Task.
//
// # Catalogs
//
// Initialize fetches each configured catalog, validates it, and merges
// them in order (later catalogs override earlier ones). After a
// successful fetch the catalog is saved as a CBOR snapshot; when the
// source is unreachable the snapshot is used instead, so an
// application that has run once can start offline.
//
// # Errors
//
// Transport failures are retried with exponential backoff on the
// configured clock. Each failed attempt is reported to error
// subscribers as a *provider.RemoteError. Content failures (a missing
// bundle, a hash mismatch, a unit absent from its bundle) are reported
// as *provider.OperationError and are not retried.
package contentprovider
