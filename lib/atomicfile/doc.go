// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package atomicfile replaces small state files so readers never see a
// partial write: data goes to a temporary file in the same directory,
// is fsynced, and is renamed into place, and the parent directory is
// synced so the rename survives power loss.
//
// The catalog snapshot and the scene manifest are written this way.
package atomicfile
