// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package contentprovider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bureau-foundation/scenenav/lib/bytesize"
	"github.com/bureau-foundation/scenenav/lib/catalog"
	"github.com/bureau-foundation/scenenav/lib/clock"
	"github.com/bureau-foundation/scenenav/lib/fetch"
	"github.com/bureau-foundation/scenenav/lib/provider"
	"github.com/bureau-foundation/scenenav/lib/scene"
)

// ErrNotInitialized is returned by calls that need catalogs before
// Initialize has succeeded.
var ErrNotInitialized = errors.New("contentprovider: not initialized")

// BundleStore keeps downloaded bundles. *bundlecache.Cache satisfies
// it.
type BundleStore interface {
	Has(ctx context.Context, entry catalog.Bundle) (bool, error)
	Put(ctx context.Context, entry catalog.Bundle, stored []byte) error
	Get(ctx context.Context, entry catalog.Bundle) ([]byte, error)
}

// RetryPolicy bounds retries of transient fetch failures.
type RetryPolicy struct {
	// Attempts is the total number of tries per fetch. Zero means
	// DefaultRetryPolicy.Attempts.
	Attempts int
	// Backoff is the wait after the first failure; it doubles after
	// each further failure up to MaxBackoff.
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// DefaultRetryPolicy is used for zero fields of Config.Retry.
var DefaultRetryPolicy = RetryPolicy{Attempts: 4, Backoff: 500 * time.Millisecond, MaxBackoff: 8 * time.Second}

// Config holds the provider's collaborators. Fetcher, Store, and Scene
// are required.
type Config struct {
	Fetcher fetch.Fetcher
	Store   BundleStore
	Scene   *scene.Registry

	// Catalogs are catalog file names under the source's catalogs/
	// directory, merged in order.
	Catalogs []string

	// SnapshotDirectory holds CBOR snapshots of the last good catalogs.
	// Empty disables snapshots.
	SnapshotDirectory string

	Retry RetryPolicy

	// Clock paces retries. Nil uses the real clock.
	Clock clock.Clock

	// Logger receives provider activity. Nil discards.
	Logger *slog.Logger
}

// Provider implements provider.ResourceProvider and
// provider.CatalogUpdater.
type Provider struct {
	fetcher           fetch.Fetcher
	store             BundleStore
	scene             *scene.Registry
	catalogNames      []string
	snapshotDirectory string
	retry             RetryPolicy
	clock             clock.Clock
	logger            *slog.Logger

	fetches singleflight.Group

	mu       sync.RWMutex
	catalogs map[string]*catalog.Catalog
	merged   *catalog.Catalog

	subscribersMu sync.Mutex
	subscribers   map[uint64]func(error)
	nextID        uint64
}

var (
	_ provider.ResourceProvider = (*Provider)(nil)
	_ provider.CatalogUpdater   = (*Provider)(nil)
)

// New returns a provider for config.
func New(config Config) (*Provider, error) {
	switch {
	case config.Fetcher == nil:
		return nil, fmt.Errorf("contentprovider: Fetcher is required")
	case config.Store == nil:
		return nil, fmt.Errorf("contentprovider: Store is required")
	case config.Scene == nil:
		return nil, fmt.Errorf("contentprovider: Scene is required")
	case len(config.Catalogs) == 0:
		return nil, fmt.Errorf("contentprovider: at least one catalog is required")
	}

	retry := config.Retry
	if retry.Attempts <= 0 {
		retry.Attempts = DefaultRetryPolicy.Attempts
	}
	if retry.Backoff <= 0 {
		retry.Backoff = DefaultRetryPolicy.Backoff
	}
	if retry.MaxBackoff < retry.Backoff {
		retry.MaxBackoff = max(DefaultRetryPolicy.MaxBackoff, retry.Backoff)
	}
	timeSource := config.Clock
	if timeSource == nil {
		timeSource = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Provider{
		fetcher:           config.Fetcher,
		store:             config.Store,
		scene:             config.Scene,
		catalogNames:      config.Catalogs,
		snapshotDirectory: config.SnapshotDirectory,
		retry:             retry,
		clock:             timeSource,
		logger:            logger,
		catalogs:          make(map[string]*catalog.Catalog),
		subscribers:       make(map[uint64]func(error)),
	}, nil
}

// Catalog returns the merged catalog, or nil before Initialize.
func (p *Provider) Catalog() *catalog.Catalog {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.merged
}

func (p *Provider) current() (*catalog.Catalog, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.merged == nil {
		return nil, ErrNotInitialized
	}
	return p.merged, nil
}

// ResolveLocations implements provider.ResourceProvider.
func (p *Provider) ResolveLocations(ctx context.Context, key string) ([]provider.Location, error) {
	merged, err := p.current()
	if err != nil {
		return nil, err
	}
	locations := merged.Resolve(key)
	if locations == nil {
		locations = []provider.Location{}
	}
	return locations, nil
}

// bundlesFor returns the distinct catalog entries the locations need,
// in first-use order.
func bundlesFor(merged *catalog.Catalog, locations []provider.Location) ([]catalog.Bundle, error) {
	var entries []catalog.Bundle
	seen := make(map[string]bool)
	for _, location := range locations {
		if location.Bundle == "" || seen[location.Bundle] {
			continue
		}
		seen[location.Bundle] = true
		entry, ok := merged.Bundle(location.Bundle)
		if !ok {
			return nil, &provider.OperationError{Op: "resolve", Target: location.Bundle, Err: errors.New("bundle not in catalog")}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// missingBundles returns the entries the store does not hold yet.
func (p *Provider) missingBundles(ctx context.Context, locations []provider.Location) ([]catalog.Bundle, error) {
	merged, err := p.current()
	if err != nil {
		return nil, err
	}
	entries, err := bundlesFor(merged, locations)
	if err != nil {
		return nil, err
	}
	var missing []catalog.Bundle
	for _, entry := range entries {
		cached, err := p.store.Has(ctx, entry)
		if err != nil {
			return nil, err
		}
		if !cached {
			missing = append(missing, entry)
		}
	}
	return missing, nil
}

// GetDownloadSize implements provider.ResourceProvider.
func (p *Provider) GetDownloadSize(ctx context.Context, locations []provider.Location) (bytesize.ByteSize, error) {
	missing, err := p.missingBundles(ctx, locations)
	if err != nil {
		return bytesize.ByteSize{}, err
	}
	var total int64
	for _, entry := range missing {
		total += entry.Size
	}
	return bytesize.New(total)
}

// ResidentUnits implements provider.ResourceProvider.
func (p *Provider) ResidentUnits(ctx context.Context) ([]provider.ResidentUnit, error) {
	resident := p.scene.Resident()
	units := make([]provider.ResidentUnit, 0, len(resident))
	for _, unit := range resident {
		units = append(units, provider.ResidentUnit{ID: unit.ID, Primary: unit.Primary})
	}
	return units, nil
}

// SubscribeErrors implements provider.ResourceProvider.
func (p *Provider) SubscribeErrors(handler func(error)) func() {
	p.subscribersMu.Lock()
	defer p.subscribersMu.Unlock()
	p.nextID++
	id := p.nextID
	p.subscribers[id] = handler
	var once sync.Once
	return func() {
		once.Do(func() {
			p.subscribersMu.Lock()
			defer p.subscribersMu.Unlock()
			delete(p.subscribers, id)
		})
	}
}

// emit delivers err to every error subscriber.
func (p *Provider) emit(err error) {
	p.subscribersMu.Lock()
	handlers := make([]func(error), 0, len(p.subscribers))
	for _, handler := range p.subscribers {
		handlers = append(handlers, handler)
	}
	p.subscribersMu.Unlock()
	for _, handler := range handlers {
		handler(err)
	}
}
