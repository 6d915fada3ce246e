// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/bureau-foundation/scenenav/cmd/scenenav/cli"
	"github.com/bureau-foundation/scenenav/lib/navigator"
)

// console serializes writes from the navigator goroutine and the event
// router goroutine, and owns the in-place progress line.
type console struct {
	mu       sync.Mutex
	out      io.Writer
	styles   cli.Styles
	bar      progress.Model
	live     bool // progress lines are redrawn in place
	inLine   bool // a progress line is on screen
	lastLine string
}

func newConsole(out io.Writer) *console {
	styles := cli.NewStyles(out)
	return &console{
		out:    out,
		styles: styles,
		bar:    cli.NewProgressBar(30, styles.Colored()),
		live:   styles.Colored(),
	}
}

// Printf writes a full line, clearing any progress line first.
func (c *console) Printf(format string, arguments ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endLineLocked()
	fmt.Fprintf(c.out, format, arguments...)
}

// progress draws label, a bar at percent, and detail. On a terminal
// the line is redrawn in place; otherwise only the final 100% line is
// written.
func (c *console) progress(label string, percent float64, detail string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	line := fmt.Sprintf("%-9s %s %s", label, c.bar.ViewAs(percent/100), detail)
	if line == c.lastLine {
		return
	}
	c.lastLine = line
	if c.live {
		fmt.Fprintf(c.out, "\r\x1b[2K%s", line)
		c.inLine = true
		return
	}
	if percent >= 100 {
		fmt.Fprintln(c.out, line)
	}
}

func (c *console) endLineLocked() {
	if c.inLine {
		fmt.Fprintln(c.out)
		c.inLine = false
	}
	c.lastLine = ""
}

// downloadProgress reports download status on the console.
func (c *console) downloadProgress() navigator.Progress[navigator.DownloadStatus] {
	return navigator.ProgressFunc[navigator.DownloadStatus](func(status navigator.DownloadStatus) {
		c.progress("download", status.Percent(), fmt.Sprintf("%s / %s", status.Downloaded, status.Total))
	})
}

// loadingProgress reports loading status on the console.
func (c *console) loadingProgress() navigator.Progress[navigator.LoadingStatus] {
	return navigator.ProgressFunc[navigator.LoadingStatus](func(status navigator.LoadingStatus) {
		c.progress("load", status.Percent(), fmt.Sprintf("%d/%d units", status.Loaded, status.Total))
	})
}

// event prints one navigator event. Events the console does not
// describe are ignored.
func (c *console) event(event any) {
	if line, ok := formatEvent(event, c.styles); ok {
		c.Printf("%s\n", line)
	}
}

// formatEvent renders a lifecycle event as one line.
func formatEvent(event any, styles cli.Styles) (string, bool) {
	switch event := event.(type) {
	case navigator.Initialized:
		return fmt.Sprintf("%s %d routes", styles.Heading.Render("initialized"), len(event.Keys)), true
	case navigator.InitializeFailed:
		return fmt.Sprintf("%s %v", styles.Failure.Render("initialize failed"), event.Err), true
	case navigator.PostStartup:
		return styles.Faint.Render("startup complete"), true
	case navigator.NavigationStarted:
		return fmt.Sprintf("%s %s", styles.Heading.Render("navigate"), styles.Path.Render(event.Path)), true
	case navigator.NavigationEnded:
		if event.Err != nil {
			return fmt.Sprintf("%s %s: %v", styles.Failure.Render("failed"), styles.Path.Render(event.Path), event.Err), true
		}
		return fmt.Sprintf("%s %s", styles.Success.Render("arrived"), styles.Path.Render(event.Path)), true
	case navigator.TransitionStarted:
		return fmt.Sprintf("  %s %s", styles.Faint.Render("overlay"), event.Path), true
	case navigator.TransitionEnded:
		return fmt.Sprintf("  %s %s", styles.Faint.Render("overlay done"), event.Path), true
	case navigator.PreUnloadRoute:
		return fmt.Sprintf("  %s %s", styles.Faint.Render("unload"), event.Path), true
	}
	return "", false
}

// residentSummary lists unit IDs on one line, primary first.
func residentSummary(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	return strings.Join(ids, ", ")
}
