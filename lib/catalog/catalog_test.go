// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/bureau-foundation/scenenav/lib/provider"
)

const testHash = "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"

const jsoncCatalog = `{
	// Main game content.
	"version": 3,
	"bundles": [
		{"name": "stage1", "size": 2048, "hash": "` + testHash + `", "compression": "zstd", "uncompressed_size": 4096},
	],
	"routes": {
		"/": [{"id": "root", "type": "scene"}],
		"/stage1": [
			{"id": "stage1", "type": "scene", "bundle": "stage1"},
			{"id": "stage1-ui", "type": "scene", "bundle": "stage1"}, // trailing comma
		],
	},
}`

const yamlCatalog = `
name: extras
version: 5
bundles:
  - name: bonus
    size: 100
    hash: ` + testHash + `
routes:
  /bonus:
    - id: bonus
      type: scene
      bundle: bonus
`

func TestParseJSONC(t *testing.T) {
	c, err := Parse([]byte(jsoncCatalog), FormatJSONC)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Version != 3 {
		t.Errorf("Version = %d, want 3", c.Version)
	}
	if !slices.Equal(c.Keys(), provider.KeySet{"/", "/stage1"}) {
		t.Errorf("Keys = %v", c.Keys())
	}
	locations := c.Resolve("/stage1")
	if len(locations) != 2 || locations[1].ID != "stage1-ui" || locations[1].Bundle != "stage1" {
		t.Errorf("Resolve(/stage1) = %+v", locations)
	}
	bundle, ok := c.Bundle("stage1")
	if !ok || bundle.Compression != CompressionZstd || bundle.UncompressedSize != 4096 {
		t.Errorf("Bundle(stage1) = %+v, %v", bundle, ok)
	}
	if issues := Validate(c); len(issues) != 0 {
		t.Errorf("Validate = %v", issues)
	}
}

func TestParseYAML(t *testing.T) {
	c, err := Parse([]byte(yamlCatalog), FormatYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Name != "extras" || c.Version != 5 {
		t.Errorf("Name, Version = %q, %d", c.Name, c.Version)
	}
	locations := c.Resolve("/bonus")
	if len(locations) != 1 || locations[0] != (provider.Location{ID: "bonus", Type: "scene", Bundle: "bonus"}) {
		t.Errorf("Resolve(/bonus) = %+v", locations)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"malformed json", `{"routes": `, FormatJSONC},
		{"no routes", `{"version": 1}`, FormatJSONC},
		{"unknown yaml field", "routes: {}\nextra: 1\n", FormatYAML},
		{"unknown format", `{}`, Format("toml")},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Parse([]byte(test.data), test.format); err == nil {
				t.Error("Parse succeeded")
			}
		})
	}
}

func TestResolveReturnsCopy(t *testing.T) {
	c, err := Parse([]byte(jsoncCatalog), FormatJSONC)
	if err != nil {
		t.Fatal(err)
	}
	c.Resolve("/")[0].ID = "mutated"
	if c.Resolve("/")[0].ID != "root" {
		t.Error("Resolve exposed the catalog's slice")
	}
	if c.Resolve("/missing") != nil {
		t.Error("unknown key resolved to a non-nil slice")
	}
}

func TestReadFileChoosesFormat(t *testing.T) {
	directory := t.TempDir()
	jsoncPath := filepath.Join(directory, "main.jsonc")
	yamlPath := filepath.Join(directory, "extras.yml")
	if err := os.WriteFile(jsoncPath, []byte(jsoncCatalog), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, []byte(yamlCatalog), 0o644); err != nil {
		t.Fatal(err)
	}

	main, err := ReadFile(jsoncPath)
	if err != nil {
		t.Fatal(err)
	}
	if main.Name != "main" {
		t.Errorf("Name = %q, want main", main.Name)
	}
	extras, err := ReadFile(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	if extras.Name != "extras" {
		t.Errorf("Name = %q, want extras", extras.Name)
	}

	if _, err := ReadFile(filepath.Join(directory, "missing.jsonc")); err == nil || !strings.Contains(err.Error(), "missing.jsonc") {
		t.Errorf("ReadFile of missing file = %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	c, err := Parse([]byte(jsoncCatalog), FormatJSONC)
	if err != nil {
		t.Fatal(err)
	}
	c.Name = "main"
	path := filepath.Join(t.TempDir(), "snapshots", "main.cbor")

	if err := WriteSnapshot(path, c); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	restored, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if restored.Name != "main" || restored.Version != 3 {
		t.Errorf("restored = %q v%d", restored.Name, restored.Version)
	}
	if !slices.Equal(restored.Resolve("/stage1"), c.Resolve("/stage1")) {
		t.Errorf("restored routes differ: %+v", restored.Routes)
	}
	if !slices.Equal(restored.Bundles, c.Bundles) {
		t.Errorf("restored bundles differ: %+v", restored.Bundles)
	}
}

func TestMerge(t *testing.T) {
	base, err := Parse([]byte(jsoncCatalog), FormatJSONC)
	if err != nil {
		t.Fatal(err)
	}
	extras, err := Parse([]byte(yamlCatalog), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	override := &Catalog{Version: 1, Routes: map[string][]provider.Location{
		"/": {{ID: "root-v2", Type: "scene"}},
	}}

	merged := Merge(base, extras, override)
	if merged.Version != 5 {
		t.Errorf("Version = %d, want 5", merged.Version)
	}
	if !slices.Equal(merged.Keys(), provider.KeySet{"/", "/bonus", "/stage1"}) {
		t.Errorf("Keys = %v", merged.Keys())
	}
	if merged.Resolve("/")[0].ID != "root-v2" {
		t.Errorf("later catalog did not override /")
	}
	if len(merged.Bundles) != 2 {
		t.Errorf("Bundles = %+v, want 2", merged.Bundles)
	}
}

func TestValidate(t *testing.T) {
	c := &Catalog{
		Bundles: []Bundle{
			{Name: "a", Hash: testHash},
			{Name: "a", Hash: testHash},
			{Name: "b", Hash: "XYZ", Compression: "gzip", Size: -1},
			{Hash: testHash},
		},
		Routes: map[string][]provider.Location{
			"/one": {{ID: "u1", Bundle: "a"}, {ID: ""}},
			"/two": {{ID: "u1", Bundle: "b"}, {ID: "u2", Bundle: "missing"}},
		},
	}

	issues := Validate(c)
	wantFragments := []string{
		"bundles[1] \"a\": duplicate name",
		"bundle \"b\": negative size",
		"bundle \"b\": hash must be",
		"unknown compression \"gzip\"",
		"bundles[3]: name is required",
		"locations[1]: id is required",
		"unit \"u1\": listed with bundle \"a\" and \"b\"",
		"unknown bundle \"missing\"",
	}
	for _, fragment := range wantFragments {
		found := false
		for _, issue := range issues {
			if strings.Contains(issue, fragment) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no issue containing %q in %v", fragment, issues)
		}
	}
}
