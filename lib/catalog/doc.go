// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog describes the content a scenenav deployment can
// navigate to: which logical paths exist, which content units each path
// resolves to, and which downloadable bundles carry those units.
//
// Catalogs are authored as JSONC (JSON with comments and trailing
// commas) or YAML, selected by file extension. A parsed catalog can be
// saved as a CBOR snapshot so a provider can start offline from the
// last catalog it saw.
//
// The typical flow:
//
//  1. ReadFile or Parse: JSONC/YAML bytes → *Catalog
//  2. Validate: structural checks (unknown bundles, bad hashes, ...)
//  3. Resolve / Bundle: lookups used by the content provider
//  4. WriteSnapshot / ReadSnapshot: CBOR persistence of the last good catalog
package catalog
