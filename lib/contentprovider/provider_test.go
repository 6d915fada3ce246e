// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package contentprovider

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/scenenav/lib/bundle"
	"github.com/bureau-foundation/scenenav/lib/bundlecache"
	"github.com/bureau-foundation/scenenav/lib/catalog"
	"github.com/bureau-foundation/scenenav/lib/fetch"
	"github.com/bureau-foundation/scenenav/lib/provider"
	"github.com/bureau-foundation/scenenav/lib/scene"
)

// source is a content directory laid out the way a CDN serves it.
type source struct {
	root    string
	bundles map[string]catalog.Bundle
}

func newSource(t *testing.T) *source {
	t.Helper()
	s := &source{root: t.TempDir(), bundles: make(map[string]catalog.Bundle)}
	s.pack(t, "title", catalog.CompressionZstd, bundle.Unit{ID: "Title/Main", Type: "scene", Data: []byte("logo logo logo logo logo logo logo logo")})
	s.pack(t, "stage1", catalog.CompressionNone,
		bundle.Unit{ID: "Stage1/Terrain", Type: "scene", Data: []byte("terrain")},
		bundle.Unit{ID: "Stage1/Actors", Type: "scene", Data: []byte("actors")},
	)
	s.writeCatalog(t, 1, nil)
	return s
}

func (s *source) pack(t *testing.T, name, compression string, units ...bundle.Unit) {
	t.Helper()
	stored, entry, err := bundle.Pack(name, units, compression)
	if err != nil {
		t.Fatalf("Pack(%s): %v", name, err)
	}
	s.write(t, fetch.BundlePath(name), stored)
	s.bundles[name] = entry
}

// writeCatalog publishes main.jsonc at version with the standard routes
// plus extra.
func (s *source) writeCatalog(t *testing.T, version int64, extra map[string][]provider.Location) {
	t.Helper()
	c := catalog.Catalog{
		Version: version,
		Bundles: []catalog.Bundle{s.bundles["title"], s.bundles["stage1"]},
		Routes: map[string][]provider.Location{
			"/":                  {{ID: "Root/Hud", Type: "scene"}},
			"/title":             {{ID: "Title/Main", Type: "scene", Bundle: "title"}},
			"/stage1":            {{ID: "Stage1/Terrain", Bundle: "stage1"}, {ID: "Stage1/Actors", Bundle: "stage1"}},
			"/stage1:transition": {{ID: "Fade", Type: "overlay"}},
		},
	}
	for key, locations := range extra {
		c.Routes[key] = locations
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	s.write(t, fetch.CatalogPath("main.jsonc"), append([]byte("// generated\n"), data...))
}

func (s *source) write(t *testing.T, name string, data []byte) {
	t.Helper()
	path := filepath.Join(s.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// flakyFetcher fails the first failures fetches of paths matching
// prefix with a 503.
type flakyFetcher struct {
	fetch.Fetcher
	prefix   string
	failures int32
	attempts atomic.Int32
}

func (f *flakyFetcher) Fetch(ctx context.Context, name string, progress func(read int64)) ([]byte, error) {
	if len(name) >= len(f.prefix) && name[:len(f.prefix)] == f.prefix {
		if f.attempts.Add(1) <= f.failures {
			return nil, &fetch.StatusError{URL: name, StatusCode: 503}
		}
	}
	return f.Fetcher.Fetch(ctx, name, progress)
}

type harness struct {
	provider *Provider
	scene    *scene.Registry
	cache    *bundlecache.Cache
}

func newHarness(t *testing.T, fetcher fetch.Fetcher, snapshots string) *harness {
	t.Helper()
	cache, err := bundlecache.Open(context.Background(), bundlecache.Config{Directory: t.TempDir()})
	if err != nil {
		t.Fatalf("bundlecache.Open: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	registry, err := scene.Open(scene.Config{Primary: "Bootstrap"})
	if err != nil {
		t.Fatalf("scene.Open: %v", err)
	}
	p, err := New(Config{
		Fetcher:           fetcher,
		Store:             cache,
		Scene:             registry,
		Catalogs:          []string{"main.jsonc"},
		SnapshotDirectory: snapshots,
		Retry:             RetryPolicy{Attempts: 3, Backoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &harness{provider: p, scene: registry, cache: cache}
}

func directoryFetcher(t *testing.T, s *source) *fetch.Directory {
	t.Helper()
	fetcher, err := fetch.NewDirectory(s.root)
	if err != nil {
		t.Fatalf("NewDirectory: %v", err)
	}
	return fetcher
}

func waitDone(t *testing.T, op provider.Operation) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !op.Done() {
		if time.Now().After(deadline) {
			t.Fatal("operation did not finish")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New with empty config succeeded")
	}
}

func TestResolveBeforeInitialize(t *testing.T) {
	h := newHarness(t, directoryFetcher(t, newSource(t)), "")
	if _, err := h.provider.ResolveLocations(context.Background(), "/title"); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("ResolveLocations before Initialize = %v, want ErrNotInitialized", err)
	}
}

func TestInitializeAndResolve(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, directoryFetcher(t, newSource(t)), "")

	keys, err := h.provider.Initialize(ctx)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	want := provider.KeySet{"/", "/stage1", "/stage1:transition", "/title"}
	if !slices.Equal(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}

	locations, err := h.provider.ResolveLocations(ctx, "/stage1")
	if err != nil || len(locations) != 2 || locations[0].ID != "Stage1/Terrain" {
		t.Errorf("ResolveLocations(/stage1) = %v, %v", locations, err)
	}
	unknown, err := h.provider.ResolveLocations(ctx, "/nowhere")
	if err != nil || unknown == nil || len(unknown) != 0 {
		t.Errorf("ResolveLocations(unknown) = %#v, %v; want empty non-nil", unknown, err)
	}
}

func TestDownloadLoadActivateUnload(t *testing.T) {
	ctx := context.Background()
	s := newSource(t)
	h := newHarness(t, directoryFetcher(t, s), "")
	if _, err := h.provider.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	locations, _ := h.provider.ResolveLocations(ctx, "/title")

	size, err := h.provider.GetDownloadSize(ctx, locations)
	if err != nil || size.Int64() != s.bundles["title"].Size {
		t.Fatalf("GetDownloadSize = %v, %v; want %d", size, err, s.bundles["title"].Size)
	}

	download, err := h.provider.DownloadAll(ctx, locations)
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	waitDone(t, download)
	download.Release()
	if download.Err() != nil {
		t.Fatalf("download: %v", download.Err())
	}
	downloaded, total, ok := download.Bytes()
	if !ok || downloaded != total || total != s.bundles["title"].Size {
		t.Errorf("Bytes = %d, %d, %v", downloaded, total, ok)
	}
	if size, _ := h.provider.GetDownloadSize(ctx, locations); !size.IsZero() {
		t.Errorf("GetDownloadSize after download = %v, want 0", size)
	}

	load, err := h.provider.LoadUnit(ctx, locations[0])
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, load)
	if load.Err() != nil || load.Unit().ID != "Title/Main" {
		t.Fatalf("load: unit %+v, err %v", load.Unit(), load.Err())
	}
	unit, ok := h.scene.Get("Title/Main")
	if !ok || unit.Active || unit.Bundle != "title" || unit.Type != "scene" {
		t.Fatalf("registry after load = %+v, %v", unit, ok)
	}

	activate, _ := h.provider.ActivateUnit(ctx, load.Unit())
	waitDone(t, activate)
	if unit, _ := h.scene.Get("Title/Main"); activate.Err() != nil || !unit.Active {
		t.Fatalf("activate: %v, active=%v", activate.Err(), unit.Active)
	}

	resident, _ := h.provider.ResidentUnits(ctx)
	if len(resident) != 2 || !resident[0].Primary || resident[1].ID != "Title/Main" {
		t.Errorf("ResidentUnits = %+v", resident)
	}

	unload, err := h.provider.UnloadUnit(ctx, "Title/Main")
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, unload)
	if _, ok := h.scene.Get("Title/Main"); unload.Err() != nil || ok {
		t.Errorf("unload: err %v, still resident %v", unload.Err(), ok)
	}
}

func TestUnloadNonResidentFailsImmediately(t *testing.T) {
	h := newHarness(t, directoryFetcher(t, newSource(t)), "")
	_, err := h.provider.UnloadUnit(context.Background(), "Ghost")
	var structural *provider.OperationError
	if !errors.As(err, &structural) || !errors.Is(err, scene.ErrNotResident) {
		t.Fatalf("UnloadUnit(non-resident) = %v", err)
	}
}

func TestUnloadPrimaryFails(t *testing.T) {
	h := newHarness(t, directoryFetcher(t, newSource(t)), "")
	unload, err := h.provider.UnloadUnit(context.Background(), "Bootstrap")
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, unload)
	if !errors.Is(unload.Err(), scene.ErrPrimary) {
		t.Fatalf("unload primary = %v, want ErrPrimary", unload.Err())
	}
}

func TestLoadWithoutDownloadFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, directoryFetcher(t, newSource(t)), "")
	if _, err := h.provider.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	load, err := h.provider.LoadUnit(ctx, provider.Location{ID: "Title/Main", Bundle: "title"})
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, load)
	if !errors.Is(load.Err(), bundlecache.ErrNotCached) || provider.IsTransient(load.Err()) {
		t.Fatalf("load of uncached unit = %v", load.Err())
	}
}

func TestLoadUnitMissingFromBundle(t *testing.T) {
	ctx := context.Background()
	s := newSource(t)
	s.writeCatalog(t, 1, map[string][]provider.Location{"/broken": {{ID: "Nope", Bundle: "stage1"}}})
	h := newHarness(t, directoryFetcher(t, s), "")
	if _, err := h.provider.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	locations, _ := h.provider.ResolveLocations(ctx, "/broken")
	download, _ := h.provider.DownloadAll(ctx, locations)
	waitDone(t, download)
	download.Release()

	load, _ := h.provider.LoadUnit(ctx, locations[0])
	waitDone(t, load)
	if !errors.Is(load.Err(), ErrUnitNotInBundle) {
		t.Fatalf("load = %v, want ErrUnitNotInBundle", load.Err())
	}
}

func TestRetryReportsRemoteErrors(t *testing.T) {
	ctx := context.Background()
	s := newSource(t)
	fetcher := &flakyFetcher{Fetcher: directoryFetcher(t, s), prefix: "bundles/", failures: 2}
	h := newHarness(t, fetcher, "")
	if _, err := h.provider.Initialize(ctx); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var reported []error
	unsubscribe := h.provider.SubscribeErrors(func(err error) {
		mu.Lock()
		reported = append(reported, err)
		mu.Unlock()
	})
	defer unsubscribe()

	locations, _ := h.provider.ResolveLocations(ctx, "/stage1")
	download, _ := h.provider.DownloadAll(ctx, locations)
	waitDone(t, download)
	download.Release()
	if download.Err() != nil {
		t.Fatalf("download after retries: %v", download.Err())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reported) != 2 {
		t.Fatalf("reported %d errors, want 2: %v", len(reported), reported)
	}
	for index, err := range reported {
		var remote *provider.RemoteError
		if !errors.As(err, &remote) || remote.Attempt != index+1 {
			t.Errorf("reported[%d] = %v", index, err)
		}
	}
}

func TestRetryExhaustedFailsTransiently(t *testing.T) {
	ctx := context.Background()
	s := newSource(t)
	fetcher := &flakyFetcher{Fetcher: directoryFetcher(t, s), prefix: "bundles/", failures: 100}
	h := newHarness(t, fetcher, "")
	if _, err := h.provider.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	locations, _ := h.provider.ResolveLocations(ctx, "/title")
	download, _ := h.provider.DownloadAll(ctx, locations)
	waitDone(t, download)
	download.Release()
	if !provider.IsTransient(download.Err()) {
		t.Fatalf("download = %v, want RemoteError", download.Err())
	}
	if got := fetcher.attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestCorruptBundleIsStructural(t *testing.T) {
	ctx := context.Background()
	s := newSource(t)
	path := filepath.Join(s.root, "bundles", "stage1.bundle")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-1] ^= 0xff
	s.write(t, fetch.BundlePath("stage1"), data)

	h := newHarness(t, directoryFetcher(t, s), "")
	if _, err := h.provider.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	locations, _ := h.provider.ResolveLocations(ctx, "/stage1")
	download, _ := h.provider.DownloadAll(ctx, locations)
	waitDone(t, download)
	download.Release()

	var structural *provider.OperationError
	if !errors.As(download.Err(), &structural) || !errors.Is(download.Err(), bundle.ErrHashMismatch) {
		t.Fatalf("download of corrupt bundle = %v", download.Err())
	}
}

func TestMissingBundleIsStructural(t *testing.T) {
	ctx := context.Background()
	s := newSource(t)
	if err := os.Remove(filepath.Join(s.root, "bundles", "title.bundle")); err != nil {
		t.Fatal(err)
	}
	h := newHarness(t, directoryFetcher(t, s), "")
	if _, err := h.provider.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	locations, _ := h.provider.ResolveLocations(ctx, "/title")
	download, _ := h.provider.DownloadAll(ctx, locations)
	waitDone(t, download)
	download.Release()
	if !errors.Is(download.Err(), fetch.ErrNotFound) || provider.IsTransient(download.Err()) {
		t.Fatalf("download of missing bundle = %v", download.Err())
	}
}

func TestDownloadNothingMissing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, directoryFetcher(t, newSource(t)), "")
	if _, err := h.provider.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	download, err := h.provider.DownloadAll(ctx, []provider.Location{{ID: "Root/Hud"}})
	if err != nil {
		t.Fatal(err)
	}
	defer download.Release()
	if !download.Done() || download.Err() != nil {
		t.Fatalf("empty download: done=%v err=%v", download.Done(), download.Err())
	}
	if _, _, ok := download.Bytes(); ok {
		t.Error("empty download reports a total")
	}
}

func TestSnapshotFallback(t *testing.T) {
	ctx := context.Background()
	s := newSource(t)
	snapshots := t.TempDir()

	online := newHarness(t, directoryFetcher(t, s), snapshots)
	if _, err := online.provider.Initialize(ctx); err != nil {
		t.Fatal(err)
	}

	unreachable := &flakyFetcher{Fetcher: directoryFetcher(t, s), prefix: "catalogs/", failures: 100}
	offline := newHarness(t, unreachable, snapshots)
	keys, err := offline.provider.Initialize(ctx)
	if err != nil {
		t.Fatalf("Initialize from snapshot: %v", err)
	}
	if !keys.Contains("/stage1") {
		t.Errorf("snapshot keys = %v", keys)
	}

	cold := newHarness(t, unreachable, t.TempDir())
	if _, err := cold.provider.Initialize(ctx); err == nil {
		t.Error("Initialize with no source and no snapshot succeeded")
	}
}

func TestInvalidCatalogIgnoresSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newSource(t)
	snapshots := t.TempDir()
	if _, err := newHarness(t, directoryFetcher(t, s), snapshots).provider.Initialize(ctx); err != nil {
		t.Fatal(err)
	}

	s.writeCatalog(t, 2, map[string][]provider.Location{"/bad": {{ID: "X", Bundle: "undeclared"}}})
	_, err := newHarness(t, directoryFetcher(t, s), snapshots).provider.Initialize(ctx)
	var structural *provider.OperationError
	if !errors.As(err, &structural) {
		t.Fatalf("Initialize with invalid catalog = %v, want OperationError", err)
	}
}

func TestCatalogUpdates(t *testing.T) {
	ctx := context.Background()
	s := newSource(t)
	h := newHarness(t, directoryFetcher(t, s), "")
	if _, err := h.provider.Initialize(ctx); err != nil {
		t.Fatal(err)
	}

	updates, err := h.provider.CheckForCatalogUpdates(ctx)
	if err != nil || len(updates) != 0 {
		t.Fatalf("CheckForCatalogUpdates (current) = %v, %v", updates, err)
	}

	s.writeCatalog(t, 2, map[string][]provider.Location{"/credits": {{ID: "Credits"}}})
	updates, err = h.provider.CheckForCatalogUpdates(ctx)
	if err != nil || !slices.Equal(updates, []string{"main.jsonc"}) {
		t.Fatalf("CheckForCatalogUpdates (newer) = %v, %v", updates, err)
	}
	if locations, _ := h.provider.ResolveLocations(ctx, "/credits"); len(locations) != 0 {
		t.Fatal("new route visible before UpdateCatalogs")
	}

	if err := h.provider.UpdateCatalogs(ctx, updates); err != nil {
		t.Fatalf("UpdateCatalogs: %v", err)
	}
	if locations, _ := h.provider.ResolveLocations(ctx, "/credits"); len(locations) != 1 {
		t.Errorf("ResolveLocations(/credits) after update = %v", locations)
	}
	if h.provider.Catalog().Version != 2 {
		t.Errorf("merged version = %d, want 2", h.provider.Catalog().Version)
	}

	if err := h.provider.UpdateCatalogs(ctx, []string{"other.yaml"}); err == nil {
		t.Error("UpdateCatalogs accepted an unconfigured catalog")
	}
}
