// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Styles holds the lipgloss styles for one output stream. Colors are
// dropped when the stream is not a terminal.
type Styles struct {
	Heading lipgloss.Style
	Path    lipgloss.Style
	Faint   lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
	Warning lipgloss.Style

	colored bool
}

// NewStyles returns styles for w. Colors are used only when w is a
// terminal and the environment does not ask for plain output.
func NewStyles(w io.Writer) Styles {
	profile := termenv.Ascii
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		profile = termenv.NewOutput(file).EnvColorProfile()
	}
	return newStyles(w, profile)
}

func newStyles(w io.Writer, profile termenv.Profile) Styles {
	renderer := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)
	return Styles{
		Heading: renderer.NewStyle().Bold(true),
		Path:    renderer.NewStyle().Foreground(lipgloss.Color("39")),
		Faint:   renderer.NewStyle().Foreground(lipgloss.Color("243")),
		Success: renderer.NewStyle().Foreground(lipgloss.Color("42")),
		Failure: renderer.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Warning: renderer.NewStyle().Foreground(lipgloss.Color("214")),
		colored: profile != termenv.Ascii,
	}
}

// Colored reports whether the styles emit color escapes.
func (s Styles) Colored() bool { return s.colored }

// NewProgressBar returns a progress bar of the given width for
// download and loading status lines.
func NewProgressBar(width int, colored bool) progress.Model {
	options := []progress.Option{progress.WithWidth(width), progress.WithoutPercentage()}
	if colored {
		options = append(options, progress.WithDefaultGradient())
	} else {
		options = append(options, progress.WithColorProfile(termenv.Ascii))
	}
	return progress.New(options...)
}
