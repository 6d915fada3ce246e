// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local iteration on content.
	Development Environment = "development"
	// Staging is for testing a content release before it ships.
	Staging Environment = "staging"
	// Production is for shipped builds.
	Production Environment = "production"
)

// Config is the scenenav configuration.
type Config struct {
	// Environment selects which override section applies.
	Environment Environment `yaml:"environment"`

	// Paths configures local directories.
	Paths PathsConfig `yaml:"paths"`

	// Content configures where catalogs and bundles come from.
	Content ContentConfig `yaml:"content"`

	// Navigator configures routing behavior.
	Navigator NavigatorConfig `yaml:"navigator"`

	// Scene configures the resident-unit registry.
	Scene SceneConfig `yaml:"scene"`

	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths     *PathsConfig     `yaml:"paths,omitempty"`
	Content   *ContentConfig   `yaml:"content,omitempty"`
	Navigator *NavigatorConfig `yaml:"navigator,omitempty"`
}

// PathsConfig configures local directories.
type PathsConfig struct {
	// Root is the base directory for scenenav data.
	Root string `yaml:"root"`

	// Cache holds downloaded bundles and their index.
	Cache string `yaml:"cache"`

	// State holds catalog snapshots and the resident-unit manifest.
	State string `yaml:"state"`
}

// ContentConfig configures the content source.
type ContentConfig struct {
	// Source is an http(s):// base URL, a file:// URL, or a directory.
	Source string `yaml:"source"`

	// Catalogs are catalog files under the source's catalogs/
	// directory, merged in order.
	Catalogs []string `yaml:"catalogs"`

	// Timeout bounds each HTTP request. Default: 2m
	Timeout string `yaml:"timeout"`

	// RetryAttempts is the number of tries per fetch. Default: 4
	RetryAttempts int `yaml:"retry_attempts"`

	// RetryBackoff is the wait after the first failed try; it doubles
	// per retry. Default: 500ms
	RetryBackoff string `yaml:"retry_backoff"`
}

// NavigatorConfig configures the navigator.
type NavigatorConfig struct {
	// Root is the route that stays resident. Default: /
	Root string `yaml:"root"`

	// StartupRoot navigates to Root during initialization.
	StartupRoot bool `yaml:"startup_root"`

	// EntryPath is navigated to after Root during initialization.
	EntryPath string `yaml:"entry_path"`

	// PollInterval is the wait between polls of a provider
	// operation. Default: 16ms
	PollInterval string `yaml:"poll_interval"`

	// EscalateTransientErrors fails downloads on the first transient
	// error. Default: false (development), true (production)
	EscalateTransientErrors bool `yaml:"escalate_transient_errors"`
}

// SceneConfig configures the scene registry.
type SceneConfig struct {
	// Primary is the ID of the bootstrap unit. Default: Bootstrap
	Primary string `yaml:"primary"`

	// PersistManifest saves the resident set under paths.state so a
	// restart sees the previous session's units. Default: true
	PersistManifest bool `yaml:"persist_manifest"`
}

// Default returns the configuration every file is loaded on top of.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "scenenav")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:  defaultRoot,
			Cache: filepath.Join(defaultRoot, "bundles"),
			State: filepath.Join(defaultRoot, "state"),
		},
		Content: ContentConfig{
			Catalogs:      []string{"main.jsonc"},
			Timeout:       "2m",
			RetryAttempts: 4,
			RetryBackoff:  "500ms",
		},
		Navigator: NavigatorConfig{
			Root:         "/",
			StartupRoot:  true,
			PollInterval: "16ms",
		},
		Scene: SceneConfig{
			Primary:         "Bootstrap",
			PersistManifest: true,
		},
	}
}

// Load loads the file named by SCENENAV_CONFIG.
func Load() (*Config, error) {
	environ, err := LoadEnviron()
	if err != nil {
		return nil, err
	}
	if environ.ConfigPath == "" {
		return nil, fmt.Errorf("SCENENAV_CONFIG environment variable not set; " +
			"set it to the path of your scenenav.yaml config file, or use --config flag")
	}
	return LoadFile(environ.ConfigPath)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

// applyEnvironmentOverrides applies the section matching Environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: escalate transient errors.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Navigator: &NavigatorConfig{EscalateTransientErrors: true},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.Cache != "" {
			c.Paths.Cache = overrides.Paths.Cache
		}
		if overrides.Paths.State != "" {
			c.Paths.State = overrides.Paths.State
		}
	}

	if overrides.Content != nil {
		if overrides.Content.Source != "" {
			c.Content.Source = overrides.Content.Source
		}
		if len(overrides.Content.Catalogs) > 0 {
			c.Content.Catalogs = overrides.Content.Catalogs
		}
		if overrides.Content.Timeout != "" {
			c.Content.Timeout = overrides.Content.Timeout
		}
		if overrides.Content.RetryAttempts != 0 {
			c.Content.RetryAttempts = overrides.Content.RetryAttempts
		}
		if overrides.Content.RetryBackoff != "" {
			c.Content.RetryBackoff = overrides.Content.RetryBackoff
		}
	}

	if overrides.Navigator != nil {
		if overrides.Navigator.Root != "" {
			c.Navigator.Root = overrides.Navigator.Root
		}
		if overrides.Navigator.EntryPath != "" {
			c.Navigator.EntryPath = overrides.Navigator.EntryPath
		}
		if overrides.Navigator.PollInterval != "" {
			c.Navigator.PollInterval = overrides.Navigator.PollInterval
		}
		// A bool, so the override always applies.
		c.Navigator.EscalateTransientErrors = overrides.Navigator.EscalateTransientErrors
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"SCENENAV_ROOT": c.Paths.Root,
		"HOME":          os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["SCENENAV_ROOT"] = c.Paths.Root

	c.Paths.Cache = expandVars(c.Paths.Cache, vars)
	c.Paths.State = expandVars(c.Paths.State, vars)
	c.Content.Source = expandVars(c.Content.Source, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Paths.Cache == "" {
		errs = append(errs, fmt.Errorf("paths.cache is required"))
	}
	if c.Paths.State == "" {
		errs = append(errs, fmt.Errorf("paths.state is required"))
	}
	if c.Content.Source == "" {
		errs = append(errs, fmt.Errorf("content.source is required"))
	}
	if len(c.Content.Catalogs) == 0 {
		errs = append(errs, fmt.Errorf("content.catalogs must list at least one catalog"))
	}
	if c.Content.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("content.retry_attempts must be at least 1"))
	}
	for field, value := range map[string]string{
		"content.timeout":         c.Content.Timeout,
		"content.retry_backoff":   c.Content.RetryBackoff,
		"navigator.poll_interval": c.Navigator.PollInterval,
	} {
		if _, err := parseDuration(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}
	if c.Navigator.Root == "" {
		errs = append(errs, fmt.Errorf("navigator.root is required"))
	}
	if c.Navigator.EntryPath != "" && !c.Navigator.StartupRoot {
		errs = append(errs, fmt.Errorf("navigator.entry_path requires navigator.startup_root"))
	}
	if c.Scene.Primary == "" {
		errs = append(errs, fmt.Errorf("scene.primary is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// parseDuration accepts an empty string as zero.
func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if duration < 0 {
		return 0, fmt.Errorf("negative duration %s", value)
	}
	return duration, nil
}

// ContentTimeout returns content.timeout. Call after Validate.
func (c *Config) ContentTimeout() time.Duration {
	duration, _ := parseDuration(c.Content.Timeout)
	return duration
}

// RetryBackoff returns content.retry_backoff. Call after Validate.
func (c *Config) RetryBackoff() time.Duration {
	duration, _ := parseDuration(c.Content.RetryBackoff)
	return duration
}

// PollInterval returns navigator.poll_interval. Call after Validate.
func (c *Config) PollInterval() time.Duration {
	duration, _ := parseDuration(c.Navigator.PollInterval)
	return duration
}

// EnsurePaths creates the configured directories.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Root, c.Paths.Cache, c.Paths.State} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}

// SnapshotDirectory is where catalog snapshots are kept.
func (c *Config) SnapshotDirectory() string {
	return filepath.Join(c.Paths.State, "catalogs")
}

// ManifestPath is where the resident-unit manifest is kept, or empty
// when persistence is off.
func (c *Config) ManifestPath() string {
	if !c.Scene.PersistManifest {
		return ""
	}
	return filepath.Join(c.Paths.State, "scene.cbor")
}
