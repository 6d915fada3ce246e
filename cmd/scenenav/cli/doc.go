// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework behind the scenenav
// binary: a tree of [Command] values dispatched by name, pflag flag
// sets built from tagged parameter structs ([FlagsFromParams]), typo
// suggestions for unknown commands and flags, and shared output
// helpers (JSON output, lipgloss styles, the command logger).
package cli
