// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for scenenav binaries.
//
// [GitCommit], [GitDirty], [BuildTime], and [Version] are injected with
// -ldflags -X. When they are not (go install, go run, tests), the
// commit and time fall back to the VCS stamps the Go toolchain embeds
// in the binary.
package version
