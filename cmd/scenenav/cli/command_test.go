// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

type testParams struct {
	ConfigParams
	Watch bool `flag:"watch,w" desc:"watch for changes"`
}

func testTree(t *testing.T, help *bytes.Buffer) (*Command, *[]string, *testParams) {
	t.Helper()
	var ran []string
	var params testParams
	leaf := &Command{
		Name:    "stats",
		Summary: "Show statistics",
		Flags:   func() *pflag.FlagSet { return FlagsFromParams("stats", &params) },
		Run: func(ctx context.Context, args []string) error {
			ran = append(ran, "stats")
			ran = append(ran, args...)
			return nil
		},
	}
	root := &Command{
		Name:       "scenenav",
		HelpOutput: help,
		Subcommands: []*Command{
			{Name: "cache", Summary: "Cache commands", Subcommands: []*Command{leaf}},
		},
	}
	return root, &ran, &params
}

func TestExecuteDispatchesAndParsesFlags(t *testing.T) {
	var help bytes.Buffer
	root, ran, params := testTree(t, &help)

	err := root.Execute(context.Background(), []string{"cache", "stats", "-c", "/etc/scenenav.yaml", "--watch", "extra"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := strings.Join(*ran, " "); got != "stats extra" {
		t.Errorf("ran = %q, want %q", got, "stats extra")
	}
	if params.ConfigPath != "/etc/scenenav.yaml" {
		t.Errorf("ConfigPath = %q", params.ConfigPath)
	}
	if !params.Watch {
		t.Error("Watch not set")
	}
}

func TestExecuteUnknownCommandSuggests(t *testing.T) {
	var help bytes.Buffer
	root, _, _ := testTree(t, &help)

	err := root.Execute(context.Background(), []string{"cahce"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), `did you mean "cache"`) {
		t.Errorf("error = %v, want suggestion", err)
	}
}

func TestExecuteUnknownFlagSuggests(t *testing.T) {
	var help bytes.Buffer
	root, _, _ := testTree(t, &help)

	err := root.Execute(context.Background(), []string{"cache", "stats", "--wach"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "did you mean --watch") {
		t.Errorf("error = %v, want flag suggestion", err)
	}
	if !strings.Contains(err.Error(), "scenenav cache stats --help") {
		t.Errorf("error = %v, want full command name", err)
	}
}

func TestExecuteGroupWithoutSubcommand(t *testing.T) {
	var help bytes.Buffer
	root, _, _ := testTree(t, &help)

	err := root.Execute(context.Background(), []string{"cache"})
	if err == nil || !strings.Contains(err.Error(), "subcommand required") {
		t.Fatalf("error = %v, want subcommand required", err)
	}
	if !strings.Contains(help.String(), "stats") {
		t.Errorf("help output missing subcommand listing:\n%s", help.String())
	}
}

func TestHelpListsFlagsAndExamples(t *testing.T) {
	var help bytes.Buffer
	root, ran, _ := testTree(t, &help)
	root.Subcommands[0].Subcommands[0].Examples = []Example{
		{Description: "Show cache size", Command: "scenenav cache stats"},
	}

	if err := root.Execute(context.Background(), []string{"cache", "stats", "--help"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(*ran) != 0 {
		t.Errorf("help ran the command: %v", *ran)
	}
	output := help.String()
	for _, want := range []string{"Show statistics", "--config", "--watch", "# Show cache size"} {
		if !strings.Contains(output, want) {
			t.Errorf("help missing %q:\n%s", want, output)
		}
	}
}
