// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bureau-foundation/scenenav/lib/fetch"
)

// settleDelay coalesces the burst of events one catalog publish
// produces (create, write, rename) into a single update check.
const settleDelay = 200 * time.Millisecond

// watchCatalogs calls CheckForUpdates whenever the catalogs may have
// changed: on file events for a directory source, every interval for
// any other source. It returns when ctx ends.
func watchCatalogs(ctx context.Context, a *app, out *console, interval time.Duration) error {
	var changed <-chan struct{}
	if directory, ok := a.fetcher.(*fetch.Directory); ok {
		watched, stop, err := watchCatalogFiles(directory, a.config.Content.Catalogs, a.logger)
		if err != nil {
			return err
		}
		defer stop()
		changed = watched
		out.Printf("watching %s for catalog changes\n", directory.Location())
	} else {
		if interval <= 0 {
			return fmt.Errorf("--interval must be positive for %s", a.fetcher.Location())
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		ticks := make(chan struct{})
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					select {
					case ticks <- struct{}{}:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
		changed = ticks
		out.Printf("polling %s every %s for catalog changes\n", a.fetcher.Location(), interval)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
			updated, err := a.navigator.CheckForUpdates(ctx)
			switch {
			case err != nil:
				out.Printf("%s %v\n", out.styles.Warning.Render("update check failed:"), err)
			case updated:
				out.Printf("%s now on %s\n", out.styles.Success.Render("catalogs reloaded;"), a.navigator.CurrentRoute())
			}
		}
	}
}

// watchCatalogFiles reports changes to the named catalog files of a
// directory source. The parent directory is watched rather than the
// files so atomic replacement by rename is seen.
func watchCatalogFiles(directory *fetch.Directory, catalogs []string, logger *slog.Logger) (<-chan struct{}, func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("creating watcher: %w", err)
	}

	names := make(map[string]bool, len(catalogs))
	directories := make(map[string]bool)
	for _, file := range catalogs {
		path, err := directory.Path(fetch.CatalogPath(file))
		if err != nil {
			watcher.Close()
			return nil, nil, err
		}
		names[path] = true
		directories[filepath.Dir(path)] = true
	}
	for watched := range directories {
		if err := watcher.Add(watched); err != nil {
			watcher.Close()
			return nil, nil, fmt.Errorf("watching %s: %w", watched, err)
		}
	}

	changed := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		var settle <-chan time.Time
		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if names[filepath.Clean(event.Name)] && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					settle = time.After(settleDelay)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("catalog watcher error", "error", err)
			case <-settle:
				settle = nil
				select {
				case changed <- struct{}{}:
				default:
				}
			}
		}
	}()

	stop := func() {
		close(done)
		watcher.Close()
	}
	return changed, stop, nil
}
