// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"context"
	"slices"

	"github.com/bureau-foundation/scenenav/lib/bytesize"
)

// Location identifies one loadable content unit. Locations are values
// produced by ResolveLocations and are never mutated.
type Location struct {
	// ID is the unit identifier. It is the key used in the resident
	// set, so two locations with the same ID are the same unit.
	ID string `json:"id"`

	// Type is the provider's type tag for the unit (e.g. "scene").
	Type string `json:"type"`

	// Bundle names the downloadable bundle that carries the unit.
	// Empty for units that need no download.
	Bundle string `json:"bundle,omitempty"`
}

// String returns the location ID.
func (location Location) String() string {
	return location.ID
}

// KeySet is the set of resolvable keys a provider discovered during
// initialization, sorted.
type KeySet []string

// Contains reports whether key is in the set.
func (keys KeySet) Contains(key string) bool {
	_, found := slices.BinarySearch(keys, key)
	return found
}

// Unit is a loaded but possibly not yet activated content unit,
// returned by a completed LoadOperation.
type Unit struct {
	// ID matches the Location.ID the unit was loaded from.
	ID string
}

// ResidentUnit describes one unit currently held by the provider's
// scene manager.
type ResidentUnit struct {
	ID string

	// Primary marks the bootstrap unit that exists before any
	// navigation and must never be unloaded.
	Primary bool
}

// ResourceProvider is the navigator's view of the content system.
// Implementations must be safe to call from the navigator's goroutine
// while their own background work runs concurrently.
type ResourceProvider interface {
	// Initialize prepares the provider (loads catalogs) and returns
	// the discovered keys.
	Initialize(ctx context.Context) (KeySet, error)

	// ResolveLocations returns the locations for key. An unknown key
	// resolves to an empty list, not an error.
	ResolveLocations(ctx context.Context, key string) ([]Location, error)

	// GetDownloadSize returns the number of bytes that must still be
	// fetched before every location can load.
	GetDownloadSize(ctx context.Context, locations []Location) (bytesize.ByteSize, error)

	// DownloadAll starts fetching everything the locations need. The
	// caller must Release the returned operation.
	DownloadAll(ctx context.Context, locations []Location) (DownloadOperation, error)

	// LoadUnit starts loading a location without activating it.
	LoadUnit(ctx context.Context, location Location) (LoadOperation, error)

	// UnloadUnit starts unloading the resident unit with the given ID.
	UnloadUnit(ctx context.Context, unitID string) (Operation, error)

	// ActivateUnit starts activating a loaded unit.
	ActivateUnit(ctx context.Context, unit Unit) (Operation, error)

	// ResidentUnits returns the units currently held, including the
	// primary unit.
	ResidentUnits(ctx context.Context) ([]ResidentUnit, error)

	// SubscribeErrors registers handler for asynchronous failures and
	// returns a function that removes the registration. The returned
	// function is safe to call more than once.
	SubscribeErrors(handler func(error)) (unsubscribe func())
}

// CatalogUpdater is implemented by providers whose catalogs can change
// while the application runs.
type CatalogUpdater interface {
	// CheckForCatalogUpdates returns the identifiers of catalogs with
	// newer content than the one loaded. An empty result means the
	// loaded catalogs are current.
	CheckForCatalogUpdates(ctx context.Context) ([]string, error)

	// UpdateCatalogs replaces the named catalogs with their newer
	// content. Resolutions obtained before the update may be stale.
	UpdateCatalogs(ctx context.Context, catalogs []string) error
}
