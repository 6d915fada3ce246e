// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package navigator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bureau-foundation/scenenav/lib/eventbus"
	"github.com/bureau-foundation/scenenav/lib/provider"
)

// Initializer starts a navigator at most once and lets other
// goroutines wait for startup to finish.
type Initializer struct {
	navigator *Navigator

	once        sync.Once
	err         error
	postStartup chan struct{}
	unsubscribe func()
}

// NewInitializer returns an Initializer for navigator. When router is
// non-nil, WaitPostStartup completes on the router's PostStartup event,
// so it works even if Initialize is driven elsewhere; otherwise it
// completes when Start returns.
func NewInitializer(navigator *Navigator, router *eventbus.Router) *Initializer {
	initializer := &Initializer{
		navigator:   navigator,
		postStartup: make(chan struct{}),
	}
	if router != nil {
		var closeOnce sync.Once
		initializer.unsubscribe = eventbus.Subscribe(router, func(PostStartup) {
			closeOnce.Do(func() { close(initializer.postStartup) })
		})
	}
	return initializer
}

// Start initializes the navigator. Only the first call does anything;
// later calls return the first call's result.
func (initializer *Initializer) Start(ctx context.Context) error {
	initializer.once.Do(func() {
		initializer.err = initializer.navigator.Initialize(ctx)
		if initializer.unsubscribe == nil {
			close(initializer.postStartup)
		}
	})
	return initializer.err
}

// WaitPostStartup blocks until startup has finished or ctx ends.
func (initializer *Initializer) WaitPostStartup(ctx context.Context) error {
	select {
	case <-initializer.postStartup:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the router subscription, if any.
func (initializer *Initializer) Close() {
	if initializer.unsubscribe != nil {
		initializer.unsubscribe()
	}
}

// WaitPostStartup blocks until the next PostStartup event is published
// on router. Subscribe before the navigator can publish it.
func WaitPostStartup(ctx context.Context, router *eventbus.Router) error {
	_, err := eventbus.First[PostStartup](ctx, router)
	return err
}

// ErrNoCatalogUpdater is returned by CheckForUpdates when the provider
// cannot update its catalogs.
var ErrNoCatalogUpdater = errors.New("navigator: provider does not support catalog updates")

// CheckForUpdates asks the provider for newer catalogs. When some are
// found it applies them, clears history, and navigates back to the
// root. It returns whether an update was applied.
func (n *Navigator) CheckForUpdates(ctx context.Context) (bool, error) {
	if !n.initialized {
		return false, fmt.Errorf("check for updates: %w", ErrNotInitialized)
	}
	updater, ok := n.provider.(provider.CatalogUpdater)
	if !ok {
		return false, ErrNoCatalogUpdater
	}

	catalogs, err := updater.CheckForCatalogUpdates(ctx)
	if err != nil {
		return false, fmt.Errorf("check for updates: %w", err)
	}
	if len(catalogs) == 0 {
		n.logger.Debug("catalogs are current")
		return false, nil
	}

	n.logger.Info("updating catalogs", "catalogs", catalogs)
	if err := updater.UpdateCatalogs(ctx, catalogs); err != nil {
		return false, fmt.Errorf("updating catalogs: %w", err)
	}
	if err := n.ClearHistory(ctx); err != nil {
		return true, err
	}
	// Resolutions of the old route may name units the new catalogs no
	// longer list, so the restart sweeps everything but the new root.
	n.forgetRoute()
	n.locationCache = make(map[string][]provider.Location)
	if err := n.Startup(ctx); err != nil {
		return true, fmt.Errorf("restarting after catalog update: %w", err)
	}
	return true, nil
}
