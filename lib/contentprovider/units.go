// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package contentprovider

import (
	"context"
	"errors"

	"github.com/bureau-foundation/scenenav/lib/bundle"
	"github.com/bureau-foundation/scenenav/lib/catalog"
	"github.com/bureau-foundation/scenenav/lib/provider"
	"github.com/bureau-foundation/scenenav/lib/scene"
)

// ErrUnitNotInBundle is returned when a location names a unit its
// bundle does not carry.
var ErrUnitNotInBundle = errors.New("contentprovider: unit not in bundle")

func operationError(op, target string, err error) error {
	if err == nil {
		return nil
	}
	return &provider.OperationError{Op: op, Target: target, Err: err}
}

// LoadUnit implements provider.ResourceProvider. A location with a
// bundle is read from the store, verified, and looked up in the
// archive; a location without one is registered directly.
func (p *Provider) LoadUnit(ctx context.Context, location provider.Location) (provider.LoadOperation, error) {
	merged, err := p.current()
	if err != nil {
		return nil, err
	}
	task := &provider.Task{}
	go func() {
		err := p.loadUnit(ctx, merged, location, task)
		if err == nil {
			task.SetUnit(provider.Unit{ID: location.ID})
		}
		task.Finish(operationError("load", location.ID, err))
	}()
	return task, nil
}

func (p *Provider) loadUnit(ctx context.Context, merged *catalog.Catalog, location provider.Location, task *provider.Task) error {
	if location.Bundle == "" {
		return p.scene.Load(location.ID, location.Type, "", 0)
	}

	entry, ok := merged.Bundle(location.Bundle)
	if !ok {
		return errors.New("bundle " + location.Bundle + " not in catalog")
	}
	stored, err := p.store.Get(ctx, entry)
	if err != nil {
		return err
	}
	task.SetProgress(0.25)

	archive, err := bundle.Open(stored, entry)
	if err != nil {
		return err
	}
	task.SetProgress(0.75)

	unit, ok := archive.Unit(location.ID)
	if !ok {
		return ErrUnitNotInBundle
	}
	unitType := location.Type
	if unitType == "" {
		unitType = unit.Type
	}
	return p.scene.Load(location.ID, unitType, location.Bundle, int64(len(unit.Data)))
}

// UnloadUnit implements provider.ResourceProvider. Unloading a unit
// that is not resident fails immediately.
func (p *Provider) UnloadUnit(ctx context.Context, unitID string) (provider.Operation, error) {
	if _, resident := p.scene.Get(unitID); !resident {
		return nil, operationError("unload", unitID, scene.ErrNotResident)
	}
	task := &provider.Task{}
	go func() {
		task.Finish(operationError("unload", unitID, p.scene.Unload(unitID)))
	}()
	return task, nil
}

// ActivateUnit implements provider.ResourceProvider.
func (p *Provider) ActivateUnit(ctx context.Context, unit provider.Unit) (provider.Operation, error) {
	task := &provider.Task{}
	go func() {
		task.Finish(operationError("activate", unit.ID, p.scene.Activate(unit.ID)))
	}()
	return task, nil
}
