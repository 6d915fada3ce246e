// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fetch retrieves catalog and bundle files from a content
// source: a local directory or an HTTP(S) base URL.
//
// A source is laid out as
//
//	<source>/catalogs/<name>.jsonc|.yaml
//	<source>/bundles/<name>.bundle
//
// and every fetch is addressed by a slash-separated path relative to
// the source root. Fetchers report bytes read as they go so callers
// can drive download progress.
package fetch
