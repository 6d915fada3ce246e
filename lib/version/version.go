// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// These variables are set via -ldflags at build time, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/scenenav/lib/version.GitCommit=$(git rev-parse --short HEAD)"
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// Build is the resolved build information.
type Build struct {
	Version   string
	Commit    string
	Dirty     bool
	Time      string
	GoVersion string
	Platform  string
}

var (
	resolveOnce sync.Once
	resolved    Build
)

// Current returns the build information, consulting embedded VCS
// stamps for anything -ldflags left unset.
func Current() Build {
	resolveOnce.Do(func() {
		resolved = resolve(GitCommit, GitDirty, BuildTime, readSettings())
	})
	return resolved
}

func readSettings() map[string]string {
	settings := map[string]string{}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			settings[setting.Key] = setting.Value
		}
	}
	return settings
}

func resolve(commit, dirty, buildTime string, settings map[string]string) Build {
	build := Build{
		Version:   Version,
		Commit:    commit,
		Dirty:     dirty == "true",
		Time:      buildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if build.Commit == "unknown" {
		if revision := settings["vcs.revision"]; revision != "" {
			build.Commit = revision[:min(len(revision), 12)]
			build.Dirty = settings["vcs.modified"] == "true"
		}
	}
	if build.Time == "unknown" && settings["vcs.time"] != "" {
		build.Time = settings["vcs.time"]
	}
	return build
}

// Info returns a formatted version string suitable for --version output.
func Info() string {
	build := Current()
	dirty := ""
	if build.Dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", build.Version, build.Commit, dirty, build.Time)
}

// Full returns detailed version information including Go version.
func Full() string {
	build := Current()
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s", Info(), build.GoVersion, build.Platform)
}

// Short returns just the version number.
func Short() string {
	return Version
}
