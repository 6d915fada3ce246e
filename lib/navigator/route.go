// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package navigator

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/scenenav/lib/provider"
)

// Route is a deferred navigation to one path. It lets a caller ask
// what a route would download, download it ahead of time, and execute
// the navigation later.
type Route struct {
	navigator *Navigator
	path      string
}

// To returns a deferred handle for path. Nothing is resolved until a
// method is called.
func (n *Navigator) To(path string) *Route {
	return &Route{navigator: n, path: path}
}

// Path returns the route's path.
func (route *Route) Path() string { return route.path }

func (route *Route) String() string { return route.path }

// GetDownloadInfo reports how many of the route's locations still need
// bytes fetched and the combined size.
func (route *Route) GetDownloadInfo(ctx context.Context) (DownloadInfo, error) {
	n := route.navigator
	if !n.initialized {
		return DownloadInfo{}, fmt.Errorf("download info for %q: %w", route.path, ErrNotInitialized)
	}
	locations, err := n.locations(ctx, route.path)
	if err != nil {
		return DownloadInfo{}, err
	}

	var info DownloadInfo
	for _, location := range locations {
		size, err := n.provider.GetDownloadSize(ctx, []provider.Location{location})
		if err != nil {
			return DownloadInfo{}, fmt.Errorf("download info for %q: %w", route.path, err)
		}
		if !size.IsZero() {
			info.Count++
		}
	}
	total, err := n.provider.GetDownloadSize(ctx, locations)
	if err != nil {
		return DownloadInfo{}, fmt.Errorf("download info for %q: %w", route.path, err)
	}
	info.Bytes = total
	return info, nil
}

// Download fetches everything the route needs without navigating.
// Cancelling ctx stops the download early and returns completed=false
// with a nil error; the provider operation is still released.
func (route *Route) Download(ctx context.Context, progress Progress[DownloadStatus]) (completed bool, err error) {
	n := route.navigator
	if !n.initialized {
		return false, fmt.Errorf("download %q: %w", route.path, ErrNotInitialized)
	}
	locations, err := n.locations(ctx, route.path)
	if err != nil {
		return false, err
	}
	size, err := n.provider.GetDownloadSize(ctx, locations)
	if err != nil {
		return false, fmt.Errorf("download %q: %w", route.path, err)
	}
	if size.IsZero() {
		report(progress, DownloadStatus{})
		return true, nil
	}

	logger := n.logger.With("path", route.path)
	completed, err = n.download(context.WithoutCancel(ctx), locations, progress, ctx.Done(), logger)
	if err != nil {
		return false, fmt.Errorf("download %q: %w", route.path, err)
	}
	return completed, nil
}

// Execute navigates to the route.
func (route *Route) Execute(ctx context.Context, options ...NavigateOption) error {
	return route.navigator.Navigate(ctx, route.path, options...)
}

// Push navigates to the route and records it on the history stack.
func (route *Route) Push(ctx context.Context, options ...NavigateOption) error {
	return route.navigator.PushNavigate(ctx, route.path, options...)
}
