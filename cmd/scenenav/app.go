// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/scenenav/lib/bundlecache"
	"github.com/bureau-foundation/scenenav/lib/config"
	"github.com/bureau-foundation/scenenav/lib/contentprovider"
	"github.com/bureau-foundation/scenenav/lib/eventbus"
	"github.com/bureau-foundation/scenenav/lib/fetch"
	"github.com/bureau-foundation/scenenav/lib/navigator"
	"github.com/bureau-foundation/scenenav/lib/scene"
)

// environment is what every command closes over.
type environment struct {
	environ config.Environ
	logger  *slog.Logger
	stdout  io.Writer
	stderr  io.Writer
}

// loadConfig reads the file named by path, or by SCENENAV_CONFIG when
// path is empty, and validates it.
func (env *environment) loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = env.environ.ConfigPath
	}
	if path == "" {
		return nil, fmt.Errorf("no config file: pass --config or set SCENENAV_CONFIG")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s:\n%w", path, err)
	}
	return cfg, nil
}

// app is a fully wired navigator stack.
type app struct {
	config    *config.Config
	logger    *slog.Logger
	fetcher   fetch.Fetcher
	cache     *bundlecache.Cache
	scene     *scene.Registry
	provider  *contentprovider.Provider
	router    *eventbus.Router
	navigator *navigator.Navigator
}

// appOptions adjust the navigator for commands that only inspect.
type appOptions struct {
	// skipStartup disables startup navigation regardless of config.
	skipStartup bool
}

// openApp builds the stack described by cfg. The navigator is not
// initialized.
func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, options appOptions) (*app, error) {
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}
	fetcher, err := fetch.New(cfg.Content.Source, fetch.HTTPOptions{Timeout: cfg.ContentTimeout()})
	if err != nil {
		return nil, err
	}
	cache, err := bundlecache.Open(ctx, bundlecache.Config{
		Directory: cfg.Paths.Cache,
		Logger:    logger.With("component", "bundlecache"),
	})
	if err != nil {
		return nil, err
	}
	registry, err := scene.Open(scene.Config{
		Primary:      cfg.Scene.Primary,
		ManifestPath: cfg.ManifestPath(),
		Logger:       logger.With("component", "scene"),
	})
	if err != nil {
		cache.Close()
		return nil, err
	}
	content, err := contentprovider.New(contentprovider.Config{
		Fetcher:           fetcher,
		Store:             cache,
		Scene:             registry,
		Catalogs:          cfg.Content.Catalogs,
		SnapshotDirectory: cfg.SnapshotDirectory(),
		Retry: contentprovider.RetryPolicy{
			Attempts: cfg.Content.RetryAttempts,
			Backoff:  cfg.RetryBackoff(),
		},
		Logger: logger.With("component", "contentprovider"),
	})
	if err != nil {
		cache.Close()
		return nil, err
	}

	router := eventbus.New(logger.With("component", "eventbus"))
	navOptions := navigator.Options{
		Root:        cfg.Navigator.Root,
		StartupRoot: cfg.Navigator.StartupRoot,
		EntryPath:   cfg.Navigator.EntryPath,
	}
	if options.skipStartup {
		navOptions.StartupRoot = false
		navOptions.EntryPath = ""
	}
	nav, err := navigator.New(navigator.Config{
		Options:                 navOptions,
		Provider:                content,
		Publisher:               router,
		PollInterval:            cfg.PollInterval(),
		EscalateTransientErrors: cfg.Navigator.EscalateTransientErrors,
		Logger:                  logger.With("component", "navigator"),
	})
	if err != nil {
		router.Close()
		cache.Close()
		return nil, err
	}

	return &app{
		config:    cfg,
		logger:    logger,
		fetcher:   fetcher,
		cache:     cache,
		scene:     registry,
		provider:  content,
		router:    router,
		navigator: nav,
	}, nil
}

// Close stops event delivery and releases the bundle cache.
func (a *app) Close() error {
	a.router.Close()
	return a.cache.Close()
}

// initialize initializes the navigator.
func (a *app) initialize(ctx context.Context) error {
	if err := a.navigator.Initialize(ctx); err != nil {
		return fmt.Errorf("initializing from %s: %w", a.fetcher.Location(), err)
	}
	return nil
}

// withApp loads config, opens the stack, runs fn, and closes the stack.
func (env *environment) withApp(ctx context.Context, configPath string, options appOptions, fn func(*app) error) error {
	cfg, err := env.loadConfig(configPath)
	if err != nil {
		return err
	}
	a, err := openApp(ctx, cfg, env.logger, options)
	if err != nil {
		return err
	}
	return errors.Join(fn(a), a.Close())
}
