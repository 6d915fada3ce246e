// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/scenenav/cmd/scenenav/cli"
	"github.com/bureau-foundation/scenenav/lib/clock"
	"github.com/bureau-foundation/scenenav/lib/navigator"
)

type runParams struct {
	cli.ConfigParams
	Steps    []string      `flag:"step,s" desc:"script step to run after the script file (repeatable)"`
	Watch    bool          `flag:"watch,w" desc:"after the script, keep running and reload catalogs when they change"`
	Interval time.Duration `flag:"interval" desc:"catalog poll interval for HTTP sources with --watch" default:"1m"`
}

func runCommand(env *environment) *cli.Command {
	var params runParams
	return &cli.Command{
		Name:    "run",
		Summary: "Initialize the navigator and execute a navigation script",
		Description: `Initialize the navigator (including startup navigation when the config
asks for it) and execute a navigation script read from a file, from
stdin ("-"), or from --step flags.

One step per line; '#' starts a comment:

  navigate <path>   replace the current route
  push <path>       navigate and record the path in history
  back              return to the previous history entry
  clear             clear history
  download <path>   download a route's bundles without navigating
  info <path>       print what a route still needs to download
  expect <path>     fail unless <path> is the current route
  update            reload catalogs if newer ones are published
  wait <duration>   pause ("500ms", "2s")`,
		Usage: "scenenav run [script|-] [flags]",
		Examples: []cli.Example{
			{Description: "Play through a script", Command: "scenenav run playthrough.nav"},
			{Description: "Inline steps", Command: "scenenav run -s 'push /stage1' -s back"},
			{Description: "Stay up and follow catalog updates", Command: "scenenav run --watch"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("run", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("run takes at most one script")
			}
			steps, err := loadSteps(args, params.Steps)
			if err != nil {
				return err
			}
			return env.withApp(ctx, params.ConfigPath, appOptions{}, func(a *app) error {
				return runScript(ctx, a, newConsole(env.stdout), steps, params.Watch, params.Interval)
			})
		},
	}
}

// loadSteps parses the script file named by args, if any, followed by
// the inline steps.
func loadSteps(args, inline []string) ([]step, error) {
	var steps []step
	if len(args) == 1 {
		var reader io.Reader
		if args[0] == "-" {
			reader = os.Stdin
		} else {
			file, err := os.Open(args[0])
			if err != nil {
				return nil, err
			}
			defer file.Close()
			reader = file
		}
		parsed, err := parseScript(reader)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", args[0], err)
		}
		steps = parsed
	}
	if len(inline) > 0 {
		parsed, err := parseScript(strings.NewReader(strings.Join(inline, "\n")))
		if err != nil {
			return nil, fmt.Errorf("--step: %w", err)
		}
		steps = append(steps, parsed...)
	}
	return steps, nil
}

func runScript(ctx context.Context, a *app, out *console, steps []step, watch bool, interval time.Duration) error {
	unsubscribe := a.router.SubscribeAll(out.event)
	defer unsubscribe()

	initializer := navigator.NewInitializer(a.navigator, a.router)
	defer initializer.Close()
	if err := initializer.Start(ctx); err != nil {
		return fmt.Errorf("initializing from %s: %w", a.fetcher.Location(), err)
	}
	if err := initializer.WaitPostStartup(ctx); err != nil {
		return err
	}

	runner := &scriptRunner{navigator: a.navigator, out: out, clock: clock.Real()}
	for _, s := range steps {
		if err := runner.run(ctx, s); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			out.Printf("%s line %d (%s): %v\n", out.styles.Failure.Render("error"), s.Line, s, err)
			return &cli.ExitError{Code: 1}
		}
	}

	ids := make([]string, 0)
	for _, unit := range a.scene.Resident() {
		ids = append(ids, unit.ID)
	}
	out.Printf("%s %s\n%s %s\n",
		out.styles.Heading.Render("route:"), out.styles.Path.Render(a.navigator.CurrentRoute()),
		out.styles.Heading.Render("resident:"), residentSummary(ids))

	if !watch {
		return nil
	}
	err := watchCatalogs(ctx, a, out, interval)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// scriptRunner executes steps against a navigator.
type scriptRunner struct {
	navigator *navigator.Navigator
	out       *console
	clock     clock.Clock
}

func (r *scriptRunner) run(ctx context.Context, s step) error {
	options := []navigator.NavigateOption{
		navigator.WithDownloadProgress(r.out.downloadProgress()),
		navigator.WithLoadingProgress(r.out.loadingProgress()),
	}
	switch s.Kind {
	case stepNavigate:
		return r.navigator.Navigate(ctx, s.Path, options...)
	case stepPush:
		return r.navigator.PushNavigate(ctx, s.Path, options...)
	case stepBack:
		return r.navigator.BackNavigate(ctx)
	case stepClear:
		return r.navigator.ClearHistory(ctx)
	case stepDownload:
		completed, err := r.navigator.To(s.Path).Download(ctx, r.out.downloadProgress())
		if err == nil && !completed {
			return errors.New("download cancelled")
		}
		return err
	case stepInfo:
		info, err := r.navigator.To(s.Path).GetDownloadInfo(ctx)
		if err != nil {
			return err
		}
		r.out.Printf("%s: %d locations, %s to download\n", r.out.styles.Path.Render(s.Path), info.Count, info.Bytes)
		return nil
	case stepExpect:
		if current := r.navigator.CurrentRoute(); current != s.Path {
			return fmt.Errorf("current route is %q", current)
		}
		return nil
	case stepUpdate:
		updated, err := r.navigator.CheckForUpdates(ctx)
		if err != nil {
			return err
		}
		if updated {
			r.out.Printf("catalogs updated\n")
		} else {
			r.out.Printf("catalogs current\n")
		}
		return nil
	case stepWait:
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clock.After(s.Duration):
			return nil
		}
	}
	return fmt.Errorf("unhandled step %q", s.Kind)
}
