// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"slices"
	"sort"

	"github.com/bureau-foundation/scenenav/lib/provider"
)

// Compression names accepted in Bundle.Compression.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
	CompressionLZ4  = "lz4"
)

// Catalog is one content catalog.
type Catalog struct {
	// Name identifies the catalog among the catalogs a provider loads.
	// Defaults to the file name without extension.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Version increases every time the catalog is republished. The
	// content provider treats a higher remote version as an update.
	Version int64 `json:"version" yaml:"version"`

	// Bundles lists the downloadable bundles referenced by Routes.
	Bundles []Bundle `json:"bundles,omitempty" yaml:"bundles,omitempty"`

	// Routes maps resolvable keys ("/title", "/stage1:transition") to
	// the locations they resolve to, in load order.
	Routes map[string][]provider.Location `json:"routes" yaml:"routes"`
}

// Bundle describes one downloadable archive of content units.
type Bundle struct {
	Name string `json:"name" yaml:"name"`

	// Size is the byte length of the stored (possibly compressed)
	// bundle, which is what a download transfers.
	Size int64 `json:"size" yaml:"size"`

	// Hash is the lowercase hex BLAKE3 digest of the uncompressed
	// payload.
	Hash string `json:"hash" yaml:"hash"`

	// Compression is one of the Compression constants. Empty means
	// CompressionNone.
	Compression string `json:"compression,omitempty" yaml:"compression,omitempty"`

	// UncompressedSize is the payload length after decompression.
	UncompressedSize int64 `json:"uncompressed_size,omitempty" yaml:"uncompressed_size,omitempty"`
}

// Keys returns every route key, sorted.
func (c *Catalog) Keys() provider.KeySet {
	keys := make(provider.KeySet, 0, len(c.Routes))
	for key := range c.Routes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Resolve returns a copy of the locations for key. Unknown keys
// resolve to nil.
func (c *Catalog) Resolve(key string) []provider.Location {
	return slices.Clone(c.Routes[key])
}

// Bundle returns the bundle named name.
func (c *Catalog) Bundle(name string) (Bundle, bool) {
	for _, bundle := range c.Bundles {
		if bundle.Name == name {
			return bundle, true
		}
	}
	return Bundle{}, false
}

// Merge combines catalogs into one. Later catalogs override routes and
// bundles of earlier ones with the same key or name. The merged
// version is the highest input version.
func Merge(catalogs ...*Catalog) *Catalog {
	merged := &Catalog{Routes: make(map[string][]provider.Location)}
	bundleIndex := make(map[string]int)
	for _, c := range catalogs {
		merged.Version = max(merged.Version, c.Version)
		for key, locations := range c.Routes {
			merged.Routes[key] = locations
		}
		for _, bundle := range c.Bundles {
			if index, ok := bundleIndex[bundle.Name]; ok {
				merged.Bundles[index] = bundle
				continue
			}
			bundleIndex[bundle.Name] = len(merged.Bundles)
			merged.Bundles = append(merged.Bundles, bundle)
		}
	}
	return merged
}
