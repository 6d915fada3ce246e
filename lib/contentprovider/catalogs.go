// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package contentprovider

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bureau-foundation/scenenav/lib/catalog"
	"github.com/bureau-foundation/scenenav/lib/fetch"
	"github.com/bureau-foundation/scenenav/lib/provider"
)

// Initialize implements provider.ResourceProvider. It loads every
// configured catalog, falling back to its snapshot when the source
// cannot deliver it, and returns the merged key set. A catalog that
// arrives but fails to parse or validate is an error even when a
// snapshot exists.
func (p *Provider) Initialize(ctx context.Context) (provider.KeySet, error) {
	loaded := make(map[string]*catalog.Catalog, len(p.catalogNames))
	for _, file := range p.catalogNames {
		c, err := p.fetchCatalog(ctx, file)
		var invalid *provider.OperationError
		if errors.As(err, &invalid) {
			return nil, fmt.Errorf("loading catalog %s: %w", file, err)
		}
		if err != nil {
			snapshot, snapshotErr := p.readSnapshot(file)
			if snapshotErr != nil {
				return nil, fmt.Errorf("loading catalog %s: %w", file, err)
			}
			p.logger.Warn("catalog source unavailable, using snapshot",
				"catalog", file,
				"version", snapshot.Version,
				"error", err,
			)
			c = snapshot
		} else {
			p.writeSnapshot(file, c)
		}
		loaded[file] = c
	}

	merged := p.install(loaded)
	p.logger.Info("catalogs loaded",
		"catalogs", len(loaded),
		"routes", len(merged.Routes),
		"bundles", len(merged.Bundles),
	)
	return merged.Keys(), nil
}

// CheckForCatalogUpdates implements provider.CatalogUpdater. It
// returns the configured catalog files whose remote version is higher
// than the loaded one.
func (p *Provider) CheckForCatalogUpdates(ctx context.Context) ([]string, error) {
	if _, err := p.current(); err != nil {
		return nil, err
	}
	var updated []string
	for _, file := range p.catalogNames {
		remote, err := p.fetchCatalog(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("checking catalog %s: %w", file, err)
		}
		p.mu.RLock()
		loaded := p.catalogs[file]
		p.mu.RUnlock()
		if loaded == nil || remote.Version > loaded.Version {
			updated = append(updated, file)
		}
	}
	return updated, nil
}

// UpdateCatalogs implements provider.CatalogUpdater. Either every
// named catalog is replaced or none is.
func (p *Provider) UpdateCatalogs(ctx context.Context, files []string) error {
	if _, err := p.current(); err != nil {
		return err
	}
	fetched := make(map[string]*catalog.Catalog, len(files))
	for _, file := range files {
		if !slices.Contains(p.catalogNames, file) {
			return fmt.Errorf("updating catalogs: %q is not a configured catalog", file)
		}
		c, err := p.fetchCatalog(ctx, file)
		if err != nil {
			return fmt.Errorf("updating catalog %s: %w", file, err)
		}
		fetched[file] = c
	}

	p.mu.RLock()
	next := make(map[string]*catalog.Catalog, len(p.catalogs))
	for file, c := range p.catalogs {
		next[file] = c
	}
	p.mu.RUnlock()
	for file, c := range fetched {
		previous := next[file]
		next[file] = c
		p.writeSnapshot(file, c)
		if previous != nil {
			p.logger.Info("catalog updated", "catalog", file, "from", previous.Version, "to", c.Version)
		}
	}
	p.install(next)
	return nil
}

// install replaces the loaded catalogs and rebuilds the merged view in
// configuration order.
func (p *Provider) install(loaded map[string]*catalog.Catalog) *catalog.Catalog {
	ordered := make([]*catalog.Catalog, 0, len(p.catalogNames))
	for _, file := range p.catalogNames {
		if c := loaded[file]; c != nil {
			ordered = append(ordered, c)
		}
	}
	merged := catalog.Merge(ordered...)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.catalogs = loaded
	p.merged = merged
	return merged
}

// fetchCatalog fetches, parses, and validates one catalog file.
func (p *Provider) fetchCatalog(ctx context.Context, file string) (*catalog.Catalog, error) {
	data, err := p.fetchWithRetry(ctx, fetch.CatalogPath(file), nil)
	if err != nil {
		return nil, err
	}
	c, err := catalog.Parse(data, catalog.FormatForPath(file))
	if err != nil {
		return nil, &provider.OperationError{Op: "catalog", Target: file, Err: err}
	}
	if c.Name == "" {
		c.Name = catalog.NameFromPath(file)
	}
	if issues := catalog.Validate(c); len(issues) > 0 {
		return nil, &provider.OperationError{
			Op:     "catalog",
			Target: file,
			Err:    errors.New("invalid catalog:\n  " + strings.Join(issues, "\n  ")),
		}
	}
	return c, nil
}

func (p *Provider) snapshotPath(file string) string {
	return filepath.Join(p.snapshotDirectory, catalog.NameFromPath(file)+".cbor")
}

func (p *Provider) readSnapshot(file string) (*catalog.Catalog, error) {
	if p.snapshotDirectory == "" {
		return nil, errors.New("snapshots disabled")
	}
	return catalog.ReadSnapshot(p.snapshotPath(file))
}

// writeSnapshot saves c for offline starts. Failure only costs the
// fallback, so it is logged rather than returned.
func (p *Provider) writeSnapshot(file string, c *catalog.Catalog) {
	if p.snapshotDirectory == "" {
		return
	}
	if err := catalog.WriteSnapshot(p.snapshotPath(file), c); err != nil {
		p.logger.Warn("writing catalog snapshot failed", "catalog", file, "error", err)
	}
}
