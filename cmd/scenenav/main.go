// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/scenenav/cmd/scenenav/cli"
	"github.com/bureau-foundation/scenenav/lib/config"
	"github.com/bureau-foundation/scenenav/lib/telemetry"
	"github.com/bureau-foundation/scenenav/lib/version"
)

func main() {
	if err := run(); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	environ, err := config.LoadEnviron()
	if err != nil {
		return err
	}
	level, err := cli.ParseLevel(environ.LogLevel)
	if err != nil {
		return fmt.Errorf("SCENENAV_LOG_LEVEL: %w", err)
	}

	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:       environ.OTelEndpoint,
		ServiceName:    "scenenav",
		ServiceVersion: version.Short(),
	})
	if err != nil {
		return err
	}
	defer shutdown(context.WithoutCancel(ctx))

	env := &environment{
		environ: environ,
		logger:  cli.NewCommandLogger(level),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	return root(env).Execute(ctx, os.Args[1:])
}
