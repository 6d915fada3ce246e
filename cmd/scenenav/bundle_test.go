// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/scenenav/cmd/scenenav/cli"
	"github.com/bureau-foundation/scenenav/lib/bundle"
)

func TestPackBundle(t *testing.T) {
	directory := t.TempDir()
	terrain := filepath.Join(directory, "terrain.bin")
	if err := os.WriteFile(terrain, []byte("terrain data"), 0o644); err != nil {
		t.Fatal(err)
	}

	params := packParams{Name: "stage1", Compression: "zstd", Type: "scene", Output: directory}
	entry, path, err := packBundle(params, []string{"Stage1/Terrain=" + terrain})
	if err != nil {
		t.Fatalf("packBundle: %v", err)
	}
	if path != filepath.Join(directory, "bundles", "stage1.bundle") {
		t.Errorf("path = %q", path)
	}

	stored, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	archive, err := bundle.Open(stored, entry)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	unit, ok := archive.Unit("Stage1/Terrain")
	if !ok || string(unit.Data) != "terrain data" || unit.Type != "scene" {
		t.Errorf("unit = %+v, %v", unit, ok)
	}

	var output bytes.Buffer
	if err := writeEntry(&output, &cli.JSONOutput{}, entry); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(output.String(), "name: stage1") || !strings.Contains(output.String(), entry.Hash) {
		t.Errorf("YAML entry = %q", output.String())
	}
}

func TestPackBundleErrors(t *testing.T) {
	tests := []struct {
		name   string
		params packParams
		args   []string
	}{
		{"no name", packParams{Compression: "none"}, []string{"a=b"}},
		{"no units", packParams{Name: "x", Compression: "none"}, nil},
		{"malformed argument", packParams{Name: "x", Compression: "none"}, []string{"just-a-file"}},
		{"missing file", packParams{Name: "x", Compression: "none", Output: t.TempDir()}, []string{"a=/nonexistent/unit.bin"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, _, err := packBundle(test.params, test.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}
