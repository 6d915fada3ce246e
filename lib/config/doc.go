// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads scenenav configuration.
//
// Configuration comes from a single YAML file named by the --config flag
// or the SCENENAV_CONFIG environment variable. There is no discovery
// and no merging of several files: what the file says is what runs.
//
// The file may carry development, staging, and production sections
// whose non-empty fields override the base values when the
// environment matches. Path fields expand ${VAR} and ${VAR:-default},
// with ${SCENENAV_ROOT} bound to paths.root.
//
// The process environment is read once, into [Environ], with
// github.com/caarlos0/env. It selects the config file and the tracing
// endpoint; it never overrides values from the file.
package config
