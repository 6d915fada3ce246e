// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/scenenav/cmd/scenenav/cli"
	"github.com/bureau-foundation/scenenav/lib/bytesize"
)

// maxPathWidth bounds the path column of tables.
const maxPathWidth = 48

type infoParams struct {
	cli.ConfigParams
	cli.JSONOutput
}

type routeInfo struct {
	Path      string            `json:"path"`
	Locations int               `json:"locations"`
	Pending   int               `json:"pending"`
	Bytes     bytesize.ByteSize `json:"bytes"`
}

func infoCommand(env *environment) *cli.Command {
	var params infoParams
	return &cli.Command{
		Name:    "info",
		Summary: "Show what navigating to each path would download",
		Usage:   "scenenav info <path>... [flags]",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("info", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("at least one path is required")
			}
			return env.withApp(ctx, params.ConfigPath, appOptions{skipStartup: true}, func(a *app) error {
				if err := a.initialize(ctx); err != nil {
					return err
				}
				var results []routeInfo
				for _, path := range args {
					locations, err := a.provider.ResolveLocations(ctx, path)
					if err != nil {
						return err
					}
					info, err := a.navigator.To(path).GetDownloadInfo(ctx)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					results = append(results, routeInfo{Path: path, Locations: len(locations), Pending: info.Count, Bytes: info.Bytes})
				}
				if done, err := params.EmitJSON(env.stdout, results); done {
					return err
				}

				tw := tabwriter.NewWriter(env.stdout, 2, 0, 3, ' ', 0)
				fmt.Fprintf(tw, "PATH\tUNITS\tPENDING\tDOWNLOAD\n")
				for _, result := range results {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", ansi.Truncate(result.Path, maxPathWidth, "…"),
						result.Locations, result.Pending, result.Bytes)
				}
				return tw.Flush()
			})
		},
	}
}

type keysParams struct {
	cli.ConfigParams
	cli.JSONOutput
	Overlays bool `flag:"overlays" desc:"include transition overlay keys"`
}

type keyInfo struct {
	Key   string   `json:"key"`
	Units []string `json:"units"`
}

func keysCommand(env *environment) *cli.Command {
	var params keysParams
	return &cli.Command{
		Name:    "keys",
		Summary: "List the routes the catalogs define",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("keys", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("keys takes no arguments")
			}
			return env.withApp(ctx, params.ConfigPath, appOptions{skipStartup: true}, func(a *app) error {
				if err := a.initialize(ctx); err != nil {
					return err
				}
				merged := a.provider.Catalog()
				var keys []keyInfo
				for _, key := range merged.Keys() {
					if isOverlayKey(key) && !params.Overlays {
						continue
					}
					units := []string{}
					for _, location := range merged.Routes[key] {
						units = append(units, location.ID)
					}
					keys = append(keys, keyInfo{Key: key, Units: units})
				}
				if done, err := params.EmitJSON(env.stdout, keys); done {
					return err
				}

				styles := cli.NewStyles(env.stdout)
				for _, key := range keys {
					fmt.Fprintf(env.stdout, "%s  %s\n", styles.Path.Render(key.Key),
						styles.Faint.Render(ansi.Truncate(strings.Join(key.Units, ", "), 72, "…")))
				}
				return nil
			})
		},
	}
}

// isOverlayKey reports whether key names a transition overlay route.
func isOverlayKey(key string) bool {
	return strings.HasSuffix(key, ":transition")
}
