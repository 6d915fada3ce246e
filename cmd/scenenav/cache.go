// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/scenenav/cmd/scenenav/cli"
	"github.com/bureau-foundation/scenenav/lib/bundlecache"
)

type cacheParams struct {
	cli.ConfigParams
	cli.JSONOutput
}

func cacheCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:    "cache",
		Summary: "Inspect and prune the downloaded-bundle cache",
		Subcommands: []*cli.Command{
			cacheStatsCommand(env),
			cacheListCommand(env),
			cachePruneCommand(env),
		},
	}
}

// withCache opens only the bundle cache named by the config.
func (env *environment) withCache(ctx context.Context, configPath string, fn func(*bundlecache.Cache) error) error {
	cfg, err := env.loadConfig(configPath)
	if err != nil {
		return err
	}
	cache, err := bundlecache.Open(ctx, bundlecache.Config{Directory: cfg.Paths.Cache, Logger: env.logger})
	if err != nil {
		return err
	}
	defer cache.Close()
	return fn(cache)
}

func cacheStatsCommand(env *environment) *cli.Command {
	var params cacheParams
	return &cli.Command{
		Name:    "stats",
		Summary: "Show the number and size of cached bundles",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("stats", &params) },
		Run: func(ctx context.Context, args []string) error {
			return env.withCache(ctx, params.ConfigPath, func(cache *bundlecache.Cache) error {
				stats, err := cache.Stats(ctx)
				if err != nil {
					return err
				}
				if done, err := params.EmitJSON(env.stdout, stats); done {
					return err
				}
				fmt.Fprintf(env.stdout, "%s: %d bundles, %s\n", cache.Directory(), stats.Bundles, stats.Bytes)
				return nil
			})
		},
	}
}

func cacheListCommand(env *environment) *cli.Command {
	var params cacheParams
	return &cli.Command{
		Name:    "list",
		Summary: "List cached bundles, most recently used first",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("list", &params) },
		Run: func(ctx context.Context, args []string) error {
			return env.withCache(ctx, params.ConfigPath, func(cache *bundlecache.Cache) error {
				entries, err := cache.List(ctx)
				if err != nil {
					return err
				}
				if done, err := params.EmitJSON(env.stdout, entries); done {
					return err
				}
				tw := tabwriter.NewWriter(env.stdout, 2, 0, 3, ' ', 0)
				fmt.Fprintf(tw, "NAME\tSIZE\tCOMPRESSION\tLAST USED\tHASH\n")
				for _, entry := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", entry.Name, entry.Size, entry.Compression,
						entry.LastUsed.Local().Format(time.DateTime), entry.Hash[:min(len(entry.Hash), 12)])
				}
				return tw.Flush()
			})
		},
	}
}

func cachePruneCommand(env *environment) *cli.Command {
	var params cacheParams
	return &cli.Command{
		Name:    "prune",
		Summary: "Remove cached bundles the current catalogs no longer reference",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("prune", &params) },
		Run: func(ctx context.Context, args []string) error {
			return env.withApp(ctx, params.ConfigPath, appOptions{skipStartup: true}, func(a *app) error {
				if err := a.initialize(ctx); err != nil {
					return err
				}
				keep := make(map[string]bool)
				for _, entry := range a.provider.Catalog().Bundles {
					keep[entry.Hash] = true
				}
				removed, err := a.cache.Prune(ctx, keep)
				if err != nil {
					return err
				}
				if done, err := params.EmitJSON(env.stdout, map[string]int{"removed": removed}); done {
					return err
				}
				fmt.Fprintf(env.stdout, "removed %d bundles\n", removed)
				return nil
			})
		},
	}
}
