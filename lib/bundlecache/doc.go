// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bundlecache stores downloaded bundles on local disk so a
// route's content is fetched at most once.
//
// Layout of the cache directory:
//
//	<dir>/.lock          exclusive flock held while the cache is open
//	<dir>/index.db       SQLite index (name, hash, sizes, timestamps)
//	<dir>/blobs/<hash>   stored bundle bytes, named by payload hash
//
// Bundles are verified against their catalog entry before they are
// admitted, and addressed by hash, so a catalog that republishes a
// bundle under the same name with new content simply misses. Only one
// process may open a cache directory at a time; a second Open fails
// with [ErrLocked].
package bundlecache
