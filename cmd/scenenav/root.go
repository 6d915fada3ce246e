// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/bureau-foundation/scenenav/cmd/scenenav/cli"

func root(env *environment) *cli.Command {
	return &cli.Command{
		Name:    "scenenav",
		Summary: "Scene navigation orchestrator",
		Description: `scenenav maps logical paths to downloadable content units and keeps
exactly one route resident at a time.

Configuration is read from --config or $SCENENAV_CONFIG.`,
		Subcommands: []*cli.Command{
			runCommand(env),
			browseCommand(env),
			infoCommand(env),
			keysCommand(env),
			bundleCommand(env),
			cacheCommand(env),
			versionCommand(env),
		},
	}
}
