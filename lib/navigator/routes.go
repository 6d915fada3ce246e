// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package navigator

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bureau-foundation/scenenav/lib/provider"
)

// locations resolves path through the cache. Empty resolutions are
// cached too, so a path is resolved by the provider at most once until
// ClearHistory.
func (n *Navigator) locations(ctx context.Context, path string) ([]provider.Location, error) {
	if cached, ok := n.locationCache[path]; ok {
		return cached, nil
	}
	locations, err := n.provider.ResolveLocations(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", path, err)
	}
	if locations == nil {
		locations = []provider.Location{}
	}
	n.locationCache[path] = locations
	return locations, nil
}

// residentSet returns the IDs of every unit the provider currently
// holds. It is recomputed for every decision.
func (n *Navigator) residentSet(ctx context.Context) (map[string]provider.ResidentUnit, error) {
	units, err := n.provider.ResidentUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing resident units: %w", err)
	}
	resident := make(map[string]provider.ResidentUnit, len(units))
	for _, unit := range units {
		resident[unit.ID] = unit
	}
	return resident, nil
}

// loadRoute loads every location of path that is not already resident,
// one at a time, then activates them in the order their loads started.
func (n *Navigator) loadRoute(ctx context.Context, path string, progress Progress[LoadingStatus], logger *slog.Logger) error {
	ctx, span := n.tracer.Start(ctx, "navigator.loadRoute", trace.WithAttributes(
		attribute.String("scenenav.path", path),
	))
	defer span.End()

	locations, err := n.locations(ctx, path)
	if err != nil {
		return err
	}
	resident, err := n.residentSet(ctx)
	if err != nil {
		return err
	}

	var pending []provider.Location
	for _, location := range locations {
		if _, ok := resident[location.ID]; !ok {
			pending = append(pending, location)
		}
	}
	span.SetAttributes(attribute.Int("scenenav.units", len(pending)))

	n.publisher.Publish(PreLoadRoute{Path: path})

	if len(pending) == 0 {
		report(progress, LoadingStatus{})
		n.publisher.Publish(PostLoadRoute{Path: path})
		return nil
	}

	n.inflight = n.inflight[:0]
	defer func() { n.inflight = nil }()

	total := len(pending)
	for index, location := range pending {
		operation, err := n.provider.LoadUnit(ctx, location)
		if err != nil {
			return fmt.Errorf("loading %s: %w", location.ID, err)
		}
		if operation == nil {
			return fmt.Errorf("loading %s: %w", location.ID, errNoOperation)
		}
		n.inflight = append(n.inflight, operation)

		for !operation.Done() {
			report(progress, LoadingStatus{Total: total, Loaded: index, Current: operation.Progress()})
			if err := n.yield(ctx); err != nil {
				return fmt.Errorf("loading %s: %w", location.ID, err)
			}
		}
		if err := operation.Err(); err != nil {
			return fmt.Errorf("loading %s: %w", location.ID, err)
		}
		report(progress, LoadingStatus{Total: total, Loaded: index + 1})
		logger.Debug("unit loaded", "unit", location.ID)
	}

	for _, loaded := range n.inflight {
		unit := loaded.Unit()
		operation, err := n.provider.ActivateUnit(ctx, unit)
		if err != nil {
			return fmt.Errorf("activating %s: %w", unit.ID, err)
		}
		if operation == nil {
			return fmt.Errorf("activating %s: %w", unit.ID, errNoOperation)
		}
		if err := n.await(ctx, operation); err != nil {
			return fmt.Errorf("activating %s: %w", unit.ID, err)
		}
	}

	n.publisher.Publish(PostLoadRoute{Path: path})
	return nil
}

// unloadRoute unloads the locations of path that are resident.
// Locations that are not resident are skipped.
func (n *Navigator) unloadRoute(ctx context.Context, path string, logger *slog.Logger) error {
	ctx, span := n.tracer.Start(ctx, "navigator.unloadRoute", trace.WithAttributes(
		attribute.String("scenenav.path", path),
	))
	defer span.End()

	locations, err := n.locations(ctx, path)
	if err != nil {
		return err
	}
	resident, err := n.residentSet(ctx)
	if err != nil {
		return err
	}

	n.publisher.Publish(PreUnloadRoute{Path: path})

	for _, location := range locations {
		unit, ok := resident[location.ID]
		if !ok || unit.Primary {
			continue
		}
		if err := n.unloadUnit(ctx, location.ID); err != nil {
			return err
		}
		logger.Debug("unit unloaded", "unit", location.ID)
	}
	return nil
}

// unloadStrays unloads every non-primary resident unit except those in
// keep and those of the root route. It runs when no route is recorded,
// which happens on the first navigation of a session and after a
// failed load.
func (n *Navigator) unloadStrays(ctx context.Context, keep map[string]bool, logger *slog.Logger) error {
	units, err := n.provider.ResidentUnits(ctx)
	if err != nil {
		return fmt.Errorf("listing resident units: %w", err)
	}
	rootUnits := make(map[string]bool)
	for _, location := range n.locationCache[n.options.Root] {
		rootUnits[location.ID] = true
	}
	for _, unit := range units {
		if unit.Primary || keep[unit.ID] || rootUnits[unit.ID] {
			continue
		}
		if err := n.unloadUnit(ctx, unit.ID); err != nil {
			return err
		}
		logger.Info("stray unit unloaded", "unit", unit.ID)
	}
	return nil
}

func (n *Navigator) unloadUnit(ctx context.Context, unitID string) error {
	operation, err := n.provider.UnloadUnit(ctx, unitID)
	if err != nil {
		return fmt.Errorf("unloading %s: %w", unitID, err)
	}
	if operation == nil {
		return fmt.Errorf("unloading %s: %w", unitID, errNoOperation)
	}
	if err := n.await(ctx, operation); err != nil {
		return fmt.Errorf("unloading %s: %w", unitID, err)
	}
	return nil
}
