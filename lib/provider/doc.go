// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package provider defines the contract between the navigator and the
// component that actually stores, downloads, loads, and unloads
// content units.
//
// The navigator never touches bundles, files, or the network. It asks a
// [ResourceProvider] to resolve a logical key ("/title",
// "/stage1:transition") into [Location] values, to report how many
// bytes of those locations still need downloading, and to start
// long-running operations. Every long-running call returns a pollable
// handle ([Operation], [LoadOperation], [DownloadOperation]) rather
// than blocking: the navigator owns the poll loop and its yield point.
//
// Providers report failures that happen off the caller's stack (a
// background transfer failing, a retry giving up) through the callback
// registered with [ResourceProvider.SubscribeErrors]. Errors are
// classified with [OperationError] (structural: the operation cannot
// succeed) and [RemoteError] (transient: the transport may retry).
//
// lib/contentprovider implements this contract over a catalog file, a
// fetcher, and a local bundle cache. lib/provider/providertest has a
// scriptable in-memory implementation for tests.
package provider
