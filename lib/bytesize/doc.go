// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bytesize provides [ByteSize], a non-negative byte count with
// binary-prefix formatting.
//
// A ByteSize is constructed explicitly with [New] (which rejects
// negative counts) or [Must], and converted back with
// [ByteSize.Int64]. The zero value is zero bytes.
//
// Formatting divides by 1024 until the magnitude drops below 1024 or
// the largest suffix (YB) is reached, and prints at most two decimal
// places with trailing zeros removed:
//
//	bytesize.Must(0).String()    // "0 B"
//	bytesize.Must(1536).String() // "1.5 KB"
//
// This package depends on no other scenenav packages.
package bytesize
