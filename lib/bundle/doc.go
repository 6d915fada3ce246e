// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bundle implements the on-disk format of scenenav content
// bundles.
//
// A bundle is an [Archive] of content units encoded as CBOR (the
// payload), optionally compressed with zstd or LZ4 block compression
// (the stored form). Catalogs describe each bundle with its stored
// size, uncompressed size, compression, and the BLAKE3 keyed hash of
// the payload. [Pack] produces a stored bundle and its catalog entry;
// [Open] verifies and decodes one.
//
// Hashes are computed on the uncompressed payload, so changing a
// bundle's compression does not change its identity.
package bundle
