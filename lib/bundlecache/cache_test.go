// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundlecache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/bureau-foundation/scenenav/lib/bundle"
	"github.com/bureau-foundation/scenenav/lib/catalog"
	"github.com/bureau-foundation/scenenav/lib/clock"
)

func packed(t *testing.T, name string, data string) ([]byte, catalog.Bundle) {
	t.Helper()
	stored, entry, err := bundle.Pack(name, []bundle.Unit{{ID: name, Type: "scene", Data: []byte(data)}}, catalog.CompressionZstd)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	return stored, entry
}

func openCache(t *testing.T, directory string, timeSource clock.Clock) *Cache {
	t.Helper()
	cache, err := Open(context.Background(), Config{Directory: directory, Clock: timeSource})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return cache
}

func TestPutGetAcrossReopen(t *testing.T) {
	directory := t.TempDir()
	ctx := context.Background()
	stored, entry := packed(t, "stage1", "grass grass grass grass grass grass grass grass")

	cache := openCache(t, directory, nil)
	if cached, err := cache.Has(ctx, entry); err != nil || cached {
		t.Fatalf("Has before Put = %v, %v", cached, err)
	}
	if _, err := cache.Get(ctx, entry); !errors.Is(err, ErrNotCached) {
		t.Fatalf("Get before Put = %v, want ErrNotCached", err)
	}
	if err := cache.Put(ctx, entry, stored); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := openCache(t, directory, nil)
	defer reopened.Close()
	if cached, err := reopened.Has(ctx, entry); err != nil || !cached {
		t.Fatalf("Has after reopen = %v, %v", cached, err)
	}
	data, err := reopened.Get(ctx, entry)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(data, stored) {
		t.Error("Get returned different bytes")
	}
	if _, err := bundle.Open(data, entry); err != nil {
		t.Errorf("cached bundle does not open: %v", err)
	}
}

func TestPutRejectsCorruptBundle(t *testing.T) {
	cache := openCache(t, t.TempDir(), nil)
	defer cache.Close()
	stored, entry := packed(t, "stage1", "content content content content content")

	corrupted := bytes.Clone(stored)
	corrupted[0] ^= 0xff
	if err := cache.Put(context.Background(), entry, corrupted); err == nil {
		t.Fatal("Put accepted a corrupted bundle")
	}
	if cached, _ := cache.Has(context.Background(), entry); cached {
		t.Error("corrupted bundle was admitted")
	}
}

func TestHasDetectsMissingBlob(t *testing.T) {
	cache := openCache(t, t.TempDir(), nil)
	defer cache.Close()
	ctx := context.Background()
	stored, entry := packed(t, "stage1", "content content content content content")
	if err := cache.Put(ctx, entry, stored); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(cache.blobPath(entry.Hash)); err != nil {
		t.Fatal(err)
	}
	if cached, err := cache.Has(ctx, entry); err != nil || cached {
		t.Errorf("Has with missing blob = %v, %v; want false", cached, err)
	}
}

func TestSecondOpenIsLocked(t *testing.T) {
	directory := t.TempDir()
	cache := openCache(t, directory, nil)

	if _, err := Open(context.Background(), Config{Directory: directory}); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Open = %v, want ErrLocked", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatal(err)
	}
	again := openCache(t, directory, nil)
	again.Close()
}

func TestListStatsPrune(t *testing.T) {
	fake := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	cache := openCache(t, t.TempDir(), fake)
	defer cache.Close()
	ctx := context.Background()

	firstStored, first := packed(t, "first", "one one one one one one one one one one")
	secondStored, second := packed(t, "second", "two two two two two two two two two two")
	if err := cache.Put(ctx, first, firstStored); err != nil {
		t.Fatal(err)
	}
	fake.Advance(time.Minute)
	if err := cache.Put(ctx, second, secondStored); err != nil {
		t.Fatal(err)
	}

	entries, err := cache.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Name != "second" || entries[1].Name != "first" {
		t.Fatalf("List = %+v, want second then first", entries)
	}
	if !entries[1].StoredAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("StoredAt = %v", entries[1].StoredAt)
	}

	fake.Advance(time.Minute)
	if _, err := cache.Get(ctx, first); err != nil {
		t.Fatal(err)
	}
	entries, err = cache.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].Name != "first" {
		t.Errorf("Get did not refresh last_used: %+v", entries)
	}

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Bundles != 2 || stats.Bytes.Int64() != first.Size+second.Size {
		t.Errorf("Stats = %+v", stats)
	}

	removed, err := cache.Prune(ctx, map[string]bool{first.Hash: true})
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("Prune removed %d, want 1", removed)
	}
	if cached, _ := cache.Has(ctx, second); cached {
		t.Error("pruned bundle still cached")
	}
	if cached, _ := cache.Has(ctx, first); !cached {
		t.Error("kept bundle was pruned")
	}
	if _, err := os.Stat(cache.blobPath(second.Hash)); !os.IsNotExist(err) {
		t.Errorf("pruned blob still on disk: %v", err)
	}
}
