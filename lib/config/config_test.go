// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenenav.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Navigator.Root != "/" || !cfg.Navigator.StartupRoot {
		t.Errorf("navigator defaults = %+v", cfg.Navigator)
	}
	if cfg.Scene.Primary != "Bootstrap" || !cfg.Scene.PersistManifest {
		t.Errorf("scene defaults = %+v", cfg.Scene)
	}
	if cfg.PollInterval() != 16*time.Millisecond {
		t.Errorf("poll interval = %v", cfg.PollInterval())
	}
}

func TestLoad_RequiresScenenavConfig(t *testing.T) {
	t.Setenv("SCENENAV_CONFIG", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when SCENENAV_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "SCENENAV_CONFIG environment variable not set") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_WithScenenavConfig(t *testing.T) {
	path := writeConfig(t, `
environment: staging
content:
  source: https://cdn.example.com/game
  catalogs: [main.jsonc, dlc.yaml]
navigator:
  entry_path: /title
`)
	t.Setenv("SCENENAV_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}
	if cfg.Content.Source != "https://cdn.example.com/game" {
		t.Errorf("content.source = %q", cfg.Content.Source)
	}
	if len(cfg.Content.Catalogs) != 2 || cfg.Content.Catalogs[1] != "dlc.yaml" {
		t.Errorf("content.catalogs = %v", cfg.Content.Catalogs)
	}
	if cfg.Navigator.EntryPath != "/title" || cfg.Navigator.Root != "/" {
		t.Errorf("navigator = %+v", cfg.Navigator)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	path := writeConfig(t, "content: [unterminated")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
environment: development
content:
  source: /srv/content
development:
  content:
    source: ./content
    retry_attempts: 1
  navigator:
    poll_interval: 1ms
production:
  content:
    source: https://cdn.example.com
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Content.Source != "./content" {
		t.Errorf("content.source = %q, want development override", cfg.Content.Source)
	}
	if cfg.Content.RetryAttempts != 1 {
		t.Errorf("retry_attempts = %d", cfg.Content.RetryAttempts)
	}
	if cfg.PollInterval() != time.Millisecond {
		t.Errorf("poll interval = %v", cfg.PollInterval())
	}
}

func TestProductionEscalatesByDefault(t *testing.T) {
	path := writeConfig(t, `
environment: production
content:
  source: https://cdn.example.com
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Navigator.EscalateTransientErrors {
		t.Error("production should escalate transient errors by default")
	}
}

func TestExpandVariables(t *testing.T) {
	t.Setenv("CONTENT_HOST", "cdn.internal")
	path := writeConfig(t, `
paths:
  root: /var/lib/scenenav
  cache: ${SCENENAV_ROOT}/bundles
  state: ${SCENENAV_STATE:-/tmp/scenenav-state}
content:
  source: https://${CONTENT_HOST}/game
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Paths.Cache != "/var/lib/scenenav/bundles" {
		t.Errorf("paths.cache = %q", cfg.Paths.Cache)
	}
	if cfg.Paths.State != "/tmp/scenenav-state" {
		t.Errorf("paths.state = %q", cfg.Paths.State)
	}
	if cfg.Content.Source != "https://cdn.internal/game" {
		t.Errorf("content.source = %q", cfg.Content.Source)
	}
}

func TestExpandVars(t *testing.T) {
	vars := map[string]string{"A": "alpha", "EMPTY": ""}
	tests := []struct {
		input string
		want  string
	}{
		{"${A}/x", "alpha/x"},
		{"${MISSING_SCENENAV_VAR:-fallback}", "fallback"},
		{"${EMPTY:-used}", "used"},
		{"${MISSING_SCENENAV_VAR}", ""},
		{"plain", "plain"},
	}
	for _, test := range tests {
		if got := expandVars(test.input, vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Content.Source = "./content"
		return cfg
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"environment", func(c *Config) { c.Environment = "qa" }, "invalid environment"},
		{"source", func(c *Config) { c.Content.Source = "" }, "content.source"},
		{"catalogs", func(c *Config) { c.Content.Catalogs = nil }, "content.catalogs"},
		{"retries", func(c *Config) { c.Content.RetryAttempts = 0 }, "retry_attempts"},
		{"duration", func(c *Config) { c.Navigator.PollInterval = "fast" }, "navigator.poll_interval"},
		{"negative duration", func(c *Config) { c.Content.RetryBackoff = "-1s" }, "content.retry_backoff"},
		{"entry without startup", func(c *Config) {
			c.Navigator.StartupRoot = false
			c.Navigator.EntryPath = "/title"
		}, "entry_path"},
		{"primary", func(c *Config) { c.Scene.Primary = "" }, "scene.primary"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := valid()
			test.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("Validate() = %v, want mention of %q", err, test.want)
			}
		})
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.State = "/state"
	if cfg.SnapshotDirectory() != "/state/catalogs" {
		t.Errorf("SnapshotDirectory = %q", cfg.SnapshotDirectory())
	}
	if cfg.ManifestPath() != "/state/scene.cbor" {
		t.Errorf("ManifestPath = %q", cfg.ManifestPath())
	}
	cfg.Scene.PersistManifest = false
	if cfg.ManifestPath() != "" {
		t.Errorf("ManifestPath with persistence off = %q", cfg.ManifestPath())
	}
}

func TestEnsurePaths(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Paths = PathsConfig{Root: root, Cache: filepath.Join(root, "c"), State: filepath.Join(root, "s")}
	if err := cfg.EnsurePaths(); err != nil {
		t.Fatal(err)
	}
	for _, dir := range []string{cfg.Paths.Cache, cfg.Paths.State} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
}

func TestLoadEnviron(t *testing.T) {
	t.Setenv("SCENENAV_CONFIG", "/etc/scenenav.yaml")
	t.Setenv("SCENENAV_OTEL_ENDPOINT", "localhost:4318")
	t.Setenv("SCENENAV_LOG_LEVEL", "")

	environ, err := LoadEnviron()
	if err != nil {
		t.Fatal(err)
	}
	if environ.ConfigPath != "/etc/scenenav.yaml" || environ.OTelEndpoint != "localhost:4318" {
		t.Errorf("environ = %+v", environ)
	}
}
