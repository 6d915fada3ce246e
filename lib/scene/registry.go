// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/bureau-foundation/scenenav/lib/atomicfile"
	"github.com/bureau-foundation/scenenav/lib/clock"
	"github.com/bureau-foundation/scenenav/lib/codec"
)

var (
	// ErrResident is returned when loading a unit that is already
	// resident.
	ErrResident = errors.New("scene: unit already resident")

	// ErrNotResident is returned when activating or unloading a unit
	// that is not resident.
	ErrNotResident = errors.New("scene: unit not resident")

	// ErrPrimary is returned when unloading the primary unit.
	ErrPrimary = errors.New("scene: the primary unit cannot be unloaded")
)

// Unit is a snapshot of one resident unit.
type Unit struct {
	ID       string    `cbor:"id"`
	Type     string    `cbor:"type,omitempty"`
	Bundle   string    `cbor:"bundle,omitempty"`
	Size     int64     `cbor:"size"`
	Primary  bool      `cbor:"primary,omitempty"`
	Active   bool      `cbor:"active,omitempty"`
	LoadedAt time.Time `cbor:"loaded_at"`

	order int
}

// manifest is the persisted form of the registry.
type manifest struct {
	Units []Unit `cbor:"units"`
}

// Config configures a Registry.
type Config struct {
	// Primary is the ID of the bootstrap unit. Required.
	Primary string

	// ManifestPath, when set, is where the resident set is persisted.
	ManifestPath string

	// Clock stamps LoadedAt. Nil uses the real clock.
	Clock clock.Clock

	// Logger receives load and unload messages. Nil discards.
	Logger *slog.Logger
}

// Registry is the set of resident units. It is safe for concurrent use.
type Registry struct {
	primary      string
	manifestPath string
	clock        clock.Clock
	logger       *slog.Logger

	mu        sync.Mutex
	units     map[string]*Unit
	nextOrder int
}

// Open returns a registry holding the primary unit plus, when the
// manifest exists, every unit it lists.
func Open(config Config) (*Registry, error) {
	if config.Primary == "" {
		return nil, fmt.Errorf("scene: Primary is required")
	}
	timeSource := config.Clock
	if timeSource == nil {
		timeSource = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	registry := &Registry{
		primary:      config.Primary,
		manifestPath: config.ManifestPath,
		clock:        timeSource,
		logger:       logger,
		units:        make(map[string]*Unit),
	}

	if config.ManifestPath != "" {
		restored, err := readManifest(config.ManifestPath)
		if err != nil {
			return nil, err
		}
		for _, unit := range restored {
			if unit.ID == config.Primary {
				continue
			}
			unit.Primary = false
			registry.add(unit)
		}
		if len(restored) > 0 {
			logger.Info("restored resident units from manifest", "path", config.ManifestPath, "units", len(restored))
		}
	}

	registry.add(Unit{ID: config.Primary, Primary: true, Active: true, LoadedAt: timeSource.Now()})
	// The primary sorts first regardless of restore order.
	registry.units[config.Primary].order = -1
	return registry, nil
}

func readManifest(path string) ([]Unit, error) {
	data, err := atomicfile.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scene: reading manifest: %w", err)
	}
	var stored manifest
	if err := codec.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("scene: decoding manifest %s: %w", path, err)
	}
	return stored.Units, nil
}

// add inserts unit with the next load order. Caller holds mu or owns
// the registry exclusively.
func (r *Registry) add(unit Unit) {
	r.nextOrder++
	unit.order = r.nextOrder
	r.units[unit.ID] = &unit
}

// Primary returns the primary unit's ID.
func (r *Registry) Primary() string { return r.primary }

// Load records id as resident but not yet active.
func (r *Registry) Load(id, unitType, bundle string, size int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.units[id]; ok {
		return fmt.Errorf("%w: %s", ErrResident, id)
	}
	r.add(Unit{ID: id, Type: unitType, Bundle: bundle, Size: size, LoadedAt: r.clock.Now()})
	r.logger.Debug("unit loaded", "unit", id, "bundle", bundle)
	return r.persistLocked()
}

// Activate marks a resident unit active.
func (r *Registry) Activate(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	unit, ok := r.units[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotResident, id)
	}
	if unit.Active {
		return nil
	}
	unit.Active = true
	r.logger.Debug("unit activated", "unit", id)
	return r.persistLocked()
}

// Unload removes a resident unit.
func (r *Registry) Unload(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	unit, ok := r.units[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotResident, id)
	}
	if unit.Primary {
		return fmt.Errorf("%w: %s", ErrPrimary, id)
	}
	delete(r.units, id)
	r.logger.Debug("unit unloaded", "unit", id)
	return r.persistLocked()
}

// Get returns the resident unit with the given ID.
func (r *Registry) Get(id string) (Unit, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	unit, ok := r.units[id]
	if !ok {
		return Unit{}, false
	}
	return *unit, true
}

// Resident returns every resident unit in load order, primary first.
func (r *Registry) Resident() []Unit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() []Unit {
	units := make([]Unit, 0, len(r.units))
	for _, unit := range r.units {
		units = append(units, *unit)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].order < units[j].order })
	return units
}

// persistLocked writes the manifest. Caller holds mu.
func (r *Registry) persistLocked() error {
	if r.manifestPath == "" {
		return nil
	}
	units := slices.DeleteFunc(r.snapshotLocked(), func(unit Unit) bool { return unit.Primary })
	data, err := codec.Marshal(manifest{Units: units})
	if err != nil {
		return fmt.Errorf("scene: encoding manifest: %w", err)
	}
	if err := atomicfile.Write(r.manifestPath, data, 0o644); err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	return nil
}
