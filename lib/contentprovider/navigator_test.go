// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package contentprovider

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/bureau-foundation/scenenav/lib/navigator"
)

func residentIDs(h *harness) []string {
	var ids []string
	for _, unit := range h.scene.Resident() {
		ids = append(ids, unit.ID)
	}
	return ids
}

func TestNavigatorOverContentProvider(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	h := newHarness(t, directoryFetcher(t, newSource(t)), "")
	nav, err := navigator.New(navigator.Config{
		Options:      navigator.Options{StartupRoot: true},
		Provider:     h.provider,
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := nav.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got, want := residentIDs(h), []string{"Bootstrap", "Root/Hud"}; !slices.Equal(got, want) {
		t.Fatalf("resident after startup = %v, want %v", got, want)
	}

	var downloads []navigator.DownloadStatus
	err = nav.PushNavigate(ctx, "/stage1", navigator.WithDownloadProgress(
		navigator.ProgressFunc[navigator.DownloadStatus](func(status navigator.DownloadStatus) {
			downloads = append(downloads, status)
		})))
	if err != nil {
		t.Fatalf("PushNavigate(/stage1): %v", err)
	}
	if got, want := residentIDs(h), []string{"Bootstrap", "Root/Hud", "Stage1/Terrain", "Stage1/Actors"}; !slices.Equal(got, want) {
		t.Fatalf("resident on /stage1 = %v, want %v", got, want)
	}
	if len(downloads) == 0 || downloads[len(downloads)-1].Percent() != 100 {
		t.Errorf("download statuses = %v", downloads)
	}
	for _, id := range []string{"Stage1/Terrain", "Stage1/Actors"} {
		if unit, _ := h.scene.Get(id); !unit.Active {
			t.Errorf("%s not active", id)
		}
	}

	if err := nav.PushNavigate(ctx, "/title"); err != nil {
		t.Fatalf("PushNavigate(/title): %v", err)
	}
	if got, want := residentIDs(h), []string{"Bootstrap", "Root/Hud", "Title/Main"}; !slices.Equal(got, want) {
		t.Fatalf("resident on /title = %v, want %v", got, want)
	}

	// Back to /stage1 loads from the cache without downloading again.
	info, err := nav.To("/stage1").GetDownloadInfo(ctx)
	if err != nil || info.Count != 0 {
		t.Fatalf("GetDownloadInfo(/stage1) = %+v, %v", info, err)
	}
	if err := nav.BackNavigate(ctx); err != nil {
		t.Fatalf("BackNavigate: %v", err)
	}
	if nav.CurrentRoute() != "/stage1" {
		t.Errorf("current route = %q", nav.CurrentRoute())
	}
	if got, want := residentIDs(h), []string{"Bootstrap", "Root/Hud", "Stage1/Terrain", "Stage1/Actors"}; !slices.Equal(got, want) {
		t.Fatalf("resident after back = %v, want %v", got, want)
	}
}
