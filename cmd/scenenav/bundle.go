// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/scenenav/cmd/scenenav/cli"
	"github.com/bureau-foundation/scenenav/lib/atomicfile"
	"github.com/bureau-foundation/scenenav/lib/bundle"
	"github.com/bureau-foundation/scenenav/lib/catalog"
	"github.com/bureau-foundation/scenenav/lib/fetch"
)

type packParams struct {
	cli.JSONOutput
	Name        string `flag:"name,n" desc:"bundle name (required)"`
	Compression string `flag:"compression" desc:"none, zstd, or lz4" default:"zstd"`
	Type        string `flag:"type,t" desc:"type tag for every unit" default:"scene"`
	Output      string `flag:"out,o" desc:"content root; the bundle is written to <out>/bundles/<name>.bundle" default:"."`
}

func bundleCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:        "bundle",
		Summary:     "Build content bundles",
		Subcommands: []*cli.Command{bundlePackCommand(env)},
	}
}

func bundlePackCommand(env *environment) *cli.Command {
	var params packParams
	return &cli.Command{
		Name:    "pack",
		Summary: "Pack unit files into a bundle and print its catalog entry",
		Description: `Pack unit files into a bundle and print the catalog entry that
describes it (YAML by default, JSON with --json). Each argument is
UNIT-ID=FILE.`,
		Usage: "scenenav bundle pack --name <name> <unit-id>=<file>... [flags]",
		Examples: []cli.Example{
			{
				Description: "Pack the stage 1 scenes into ./content/bundles/stage1.bundle",
				Command:     "scenenav bundle pack -n stage1 -o ./content Stage1/Terrain=terrain.bin Stage1/Actors=actors.bin",
			},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("pack", &params) },
		Run: func(ctx context.Context, args []string) error {
			entry, path, err := packBundle(params, args)
			if err != nil {
				return err
			}
			fmt.Fprintf(env.stderr, "wrote %s (%d bytes)\n", path, entry.Size)
			return writeEntry(env.stdout, &params.JSONOutput, entry)
		},
	}
}

// packBundle reads the unit files named in args and writes the bundle
// under params.Output.
func packBundle(params packParams, args []string) (catalog.Bundle, string, error) {
	if params.Name == "" {
		return catalog.Bundle{}, "", fmt.Errorf("--name is required")
	}
	if len(args) == 0 {
		return catalog.Bundle{}, "", fmt.Errorf("at least one UNIT-ID=FILE argument is required")
	}

	units := make([]bundle.Unit, 0, len(args))
	for _, arg := range args {
		id, file, ok := strings.Cut(arg, "=")
		if !ok || id == "" || file == "" {
			return catalog.Bundle{}, "", fmt.Errorf("argument %q: want UNIT-ID=FILE", arg)
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return catalog.Bundle{}, "", err
		}
		units = append(units, bundle.Unit{ID: id, Type: params.Type, Data: data})
	}

	stored, entry, err := bundle.Pack(params.Name, units, params.Compression)
	if err != nil {
		return catalog.Bundle{}, "", err
	}
	path := filepath.Join(params.Output, filepath.FromSlash(fetch.BundlePath(params.Name)))
	if err := atomicfile.Write(path, stored, 0o644); err != nil {
		return catalog.Bundle{}, "", err
	}
	return entry, path, nil
}

func writeEntry(w io.Writer, output *cli.JSONOutput, entry catalog.Bundle) error {
	if done, err := output.EmitJSON(w, entry); done {
		return err
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode([]catalog.Bundle{entry}); err != nil {
		return err
	}
	return encoder.Close()
}
