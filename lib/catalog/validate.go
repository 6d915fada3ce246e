// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"regexp"
	"sort"
)

var hashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Validate checks a catalog for structural issues and returns
// human-readable descriptions. An empty list means the catalog is
// valid.
//
// Checks:
//   - bundle names are non-empty and unique
//   - bundle sizes are non-negative and hashes are 64 lowercase hex digits
//   - compression is empty, none, zstd, or lz4
//   - every location has an ID and names only declared bundles
//   - a unit ID appears with one bundle across the whole catalog
func Validate(c *Catalog) []string {
	var issues []string

	bundles := make(map[string]int, len(c.Bundles))
	for index, bundle := range c.Bundles {
		if bundle.Name == "" {
			issues = append(issues, fmt.Sprintf("bundles[%d]: name is required", index))
			continue
		}
		if first, exists := bundles[bundle.Name]; exists {
			issues = append(issues, fmt.Sprintf("bundles[%d] %q: duplicate name (first used at bundles[%d])", index, bundle.Name, first))
			continue
		}
		bundles[bundle.Name] = index

		if bundle.Size < 0 || bundle.UncompressedSize < 0 {
			issues = append(issues, fmt.Sprintf("bundle %q: negative size", bundle.Name))
		}
		if !hashPattern.MatchString(bundle.Hash) {
			issues = append(issues, fmt.Sprintf("bundle %q: hash must be 64 lowercase hex digits", bundle.Name))
		}
		switch bundle.Compression {
		case "", CompressionNone, CompressionZstd, CompressionLZ4:
		default:
			issues = append(issues, fmt.Sprintf("bundle %q: unknown compression %q", bundle.Name, bundle.Compression))
		}
	}

	keys := make([]string, 0, len(c.Routes))
	for key := range c.Routes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	unitBundles := make(map[string]string)
	for _, key := range keys {
		if key == "" {
			issues = append(issues, "route with empty key")
		}
		for index, location := range c.Routes[key] {
			if location.ID == "" {
				issues = append(issues, fmt.Sprintf("route %q locations[%d]: id is required", key, index))
				continue
			}
			if location.Bundle != "" {
				if _, ok := bundles[location.Bundle]; !ok {
					issues = append(issues, fmt.Sprintf("route %q unit %q: unknown bundle %q", key, location.ID, location.Bundle))
				}
			}
			if previous, seen := unitBundles[location.ID]; seen && previous != location.Bundle {
				issues = append(issues, fmt.Sprintf("unit %q: listed with bundle %q and %q", location.ID, previous, location.Bundle))
				continue
			}
			unitBundles[location.ID] = location.Bundle
		}
	}
	return issues
}
