// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides scenenav's CBOR encoding configuration.
//
// Human-authored files (configuration, catalogs) are YAML or JSONC.
// Machine-written state is CBOR: the catalog snapshot kept next to the
// bundle cache and the resident-unit manifest written by lib/scene.
// Both go through this package so every writer encodes identically.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the
// same logical value always produces the same bytes. That property is
// what lets the content provider compare a freshly parsed catalog to
// its snapshot byte-for-byte when checking for catalog updates.
//
// Types use `cbor` struct tags when they are only ever CBOR, and
// `json` tags when they are also read from JSON or JSONC (fxamacker
// falls back to `json` tags when no `cbor` tag is present).
package codec
