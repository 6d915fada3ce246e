// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestResolvePrefersLinkerValues(t *testing.T) {
	build := resolve("abc1234", "true", "2026-03-01T00:00:00Z", map[string]string{
		"vcs.revision": "ffffffffffffffffffff",
		"vcs.time":     "2020-01-01T00:00:00Z",
	})
	if build.Commit != "abc1234" || !build.Dirty || build.Time != "2026-03-01T00:00:00Z" {
		t.Errorf("resolve = %+v", build)
	}
}

func TestResolveFallsBackToVCSStamps(t *testing.T) {
	build := resolve("unknown", "false", "unknown", map[string]string{
		"vcs.revision": "0123456789abcdef0123",
		"vcs.modified": "true",
		"vcs.time":     "2026-02-10T08:00:00Z",
	})
	if build.Commit != "0123456789ab" {
		t.Errorf("Commit = %q, want a 12-character prefix", build.Commit)
	}
	if !build.Dirty {
		t.Error("Dirty = false, want true from vcs.modified")
	}
	if build.Time != "2026-02-10T08:00:00Z" {
		t.Errorf("Time = %q", build.Time)
	}
}

func TestResolveWithoutStamps(t *testing.T) {
	build := resolve("unknown", "false", "unknown", map[string]string{})
	if build.Commit != "unknown" || build.Time != "unknown" {
		t.Errorf("resolve = %+v", build)
	}
}

func TestInfoFormats(t *testing.T) {
	if !strings.HasPrefix(Info(), Version+" (") {
		t.Errorf("Info = %q", Info())
	}
	if !strings.Contains(Full(), "Go: ") {
		t.Errorf("Full = %q", Full())
	}
	if Short() != Version {
		t.Errorf("Short = %q", Short())
	}
}
