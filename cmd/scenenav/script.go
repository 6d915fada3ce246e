// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// A navigation script is one step per line. Blank lines and text after
// '#' are ignored.
//
//	navigate <path>   replace the current route
//	push <path>       navigate and record the path in history
//	back              return to the previous history entry
//	clear             clear history
//	download <path>   download a route's bundles without navigating
//	info <path>       print what a route still needs to download
//	expect <path>     fail unless <path> is the current route
//	update            reload catalogs if newer ones are published
//	wait <duration>   pause ("500ms", "2s")

type stepKind string

const (
	stepNavigate stepKind = "navigate"
	stepPush     stepKind = "push"
	stepBack     stepKind = "back"
	stepClear    stepKind = "clear"
	stepDownload stepKind = "download"
	stepInfo     stepKind = "info"
	stepExpect   stepKind = "expect"
	stepUpdate   stepKind = "update"
	stepWait     stepKind = "wait"
)

// takesPath lists the steps whose argument is a route path.
var takesPath = map[stepKind]bool{
	stepNavigate: true,
	stepPush:     true,
	stepDownload: true,
	stepInfo:     true,
	stepExpect:   true,
}

type step struct {
	Line     int
	Kind     stepKind
	Path     string
	Duration time.Duration
}

func (s step) String() string {
	switch {
	case s.Path != "":
		return string(s.Kind) + " " + s.Path
	case s.Kind == stepWait:
		return string(s.Kind) + " " + s.Duration.String()
	default:
		return string(s.Kind)
	}
}

// parseScript reads a navigation script. Errors name the offending
// line.
func parseScript(r io.Reader) ([]step, error) {
	var steps []step
	scanner := bufio.NewScanner(r)
	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		parsed, ok, err := parseStep(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}
		if ok {
			parsed.Line = lineNumber
			steps = append(steps, parsed)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return steps, nil
}

// parseStep parses one line. ok is false for blank and comment lines.
func parseStep(line string) (parsed step, ok bool, err error) {
	if index := strings.IndexByte(line, '#'); index >= 0 {
		line = line[:index]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return step{}, false, nil
	}

	kind := stepKind(strings.ToLower(fields[0]))
	arguments := fields[1:]
	switch {
	case takesPath[kind]:
		if len(arguments) != 1 {
			return step{}, false, fmt.Errorf("%s takes one path", kind)
		}
		if !strings.HasPrefix(arguments[0], "/") {
			return step{}, false, fmt.Errorf("%s: path %q must start with /", kind, arguments[0])
		}
		return step{Kind: kind, Path: arguments[0]}, true, nil

	case kind == stepBack, kind == stepClear, kind == stepUpdate:
		if len(arguments) != 0 {
			return step{}, false, fmt.Errorf("%s takes no arguments", kind)
		}
		return step{Kind: kind}, true, nil

	case kind == stepWait:
		if len(arguments) != 1 {
			return step{}, false, fmt.Errorf("wait takes one duration")
		}
		duration, err := time.ParseDuration(arguments[0])
		if err != nil || duration < 0 {
			return step{}, false, fmt.Errorf("wait: invalid duration %q", arguments[0])
		}
		return step{Kind: kind, Duration: duration}, true, nil
	}
	return step{}, false, fmt.Errorf("unknown step %q", fields[0])
}
