// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/scenenav/cmd/scenenav/cli"
	"github.com/bureau-foundation/scenenav/lib/navigator"
)

// browseLogLines is how many recent events the status pane keeps.
const browseLogLines = 6

type browseKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Push   key.Binding
	Back   key.Binding
	Clear  key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

var defaultBrowseKeys = browseKeyMap{
	Up:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
	Down:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
	Push:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "push")),
	Back:   key.NewBinding(key.WithKeys("b", "backspace"), key.WithHelp("b", "back")),
	Clear:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear history")),
	Cancel: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "skip download")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// browseSnapshot is the navigator state the view renders. It is
// captured on the navigation goroutine after each operation so the
// model never reads the navigator while it is busy.
type browseSnapshot struct {
	Route    string
	History  []string
	Resident []string
}

// browseBackend performs navigation for the browser.
type browseBackend interface {
	push(ctx context.Context, path string, options ...navigator.NavigateOption) error
	back(ctx context.Context) error
	clear(ctx context.Context) error
	snapshot() browseSnapshot
}

type appBackend struct{ app *app }

func (b appBackend) push(ctx context.Context, path string, options ...navigator.NavigateOption) error {
	return b.app.navigator.PushNavigate(ctx, path, options...)
}

func (b appBackend) back(ctx context.Context) error { return b.app.navigator.BackNavigate(ctx) }

func (b appBackend) clear(ctx context.Context) error { return b.app.navigator.ClearHistory(ctx) }

func (b appBackend) snapshot() browseSnapshot {
	resident := make([]string, 0)
	for _, unit := range b.app.scene.Resident() {
		resident = append(resident, unit.ID)
	}
	return browseSnapshot{
		Route:    b.app.navigator.CurrentRoute(),
		History:  b.app.navigator.History(),
		Resident: resident,
	}
}

type (
	// browseEventMsg carries a navigator event or progress update from
	// another goroutine.
	browseEventMsg struct{ event any }

	browseProgressMsg struct {
		label   string
		percent float64
		detail  string
	}

	browseDoneMsg struct {
		err      error
		snapshot browseSnapshot
	}
)

type browseModel struct {
	ctx     context.Context
	backend browseBackend
	keys    []string
	styles  cli.Styles
	keyMap  browseKeyMap
	updates chan tea.Msg

	cursor   int
	busy     bool
	cancel   chan struct{}
	state    browseSnapshot
	log      []string
	bar      progress.Model
	label    string
	percent  float64
	detail   string
	lastErr  error
	width    int
	quitting bool
}

func newBrowseModel(ctx context.Context, backend browseBackend, keys []string, styles cli.Styles) browseModel {
	return browseModel{
		ctx:     ctx,
		backend: backend,
		keys:    keys,
		styles:  styles,
		keyMap:  defaultBrowseKeys,
		updates: make(chan tea.Msg, 64),
		state:   backend.snapshot(),
		bar:     cli.NewProgressBar(30, styles.Colored()),
		width:   80,
	}
}

// post queues msg for the program without blocking the caller. Updates
// arriving while the queue is full are dropped.
func (model browseModel) post(msg tea.Msg) {
	select {
	case model.updates <- msg:
	default:
	}
}

func listenForBrowseUpdate(updates <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func (model browseModel) Init() tea.Cmd {
	return listenForBrowseUpdate(model.updates)
}

func (model browseModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		return model, nil

	case browseEventMsg:
		if line, ok := formatEvent(message.event, model.styles); ok {
			model.log = append(model.log, line)
			if len(model.log) > browseLogLines {
				model.log = model.log[len(model.log)-browseLogLines:]
			}
		}
		return model, listenForBrowseUpdate(model.updates)

	case browseProgressMsg:
		model.label, model.percent, model.detail = message.label, message.percent, message.detail
		return model, listenForBrowseUpdate(model.updates)

	case browseDoneMsg:
		model.busy = false
		model.cancel = nil
		model.lastErr = message.err
		model.state = message.snapshot
		model.label = ""
		return model, nil

	case tea.KeyMsg:
		return model.handleKey(message)
	}
	return model, nil
}

func (model browseModel) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keyMap.Quit):
		model.quitting = true
		return model, tea.Quit
	case key.Matches(message, model.keyMap.Up):
		if model.cursor > 0 {
			model.cursor--
		}
	case key.Matches(message, model.keyMap.Down):
		if model.cursor < len(model.keys)-1 {
			model.cursor++
		}
	case key.Matches(message, model.keyMap.Cancel):
		if model.busy && model.cancel != nil {
			close(model.cancel)
			model.cancel = nil
		}
	case key.Matches(message, model.keyMap.Push):
		if model.busy || len(model.keys) == 0 {
			return model, nil
		}
		path := model.keys[model.cursor]
		cancel := make(chan struct{})
		options := []navigator.NavigateOption{
			navigator.WithDownloadCancel(cancel),
			navigator.WithDownloadProgress(navigator.ProgressFunc[navigator.DownloadStatus](func(status navigator.DownloadStatus) {
				model.post(browseProgressMsg{"download", status.Percent(), fmt.Sprintf("%s / %s", status.Downloaded, status.Total)})
			})),
			navigator.WithLoadingProgress(navigator.ProgressFunc[navigator.LoadingStatus](func(status navigator.LoadingStatus) {
				model.post(browseProgressMsg{"load", status.Percent(), fmt.Sprintf("%d/%d units", status.Loaded, status.Total)})
			})),
		}
		model.busy, model.cancel, model.lastErr = true, cancel, nil
		return model, model.runNavigation(func(ctx context.Context) error {
			return model.backend.push(ctx, path, options...)
		})
	case key.Matches(message, model.keyMap.Back):
		if model.busy {
			return model, nil
		}
		model.busy, model.lastErr = true, nil
		return model, model.runNavigation(model.backend.back)
	case key.Matches(message, model.keyMap.Clear):
		if model.busy {
			return model, nil
		}
		model.busy, model.lastErr = true, nil
		return model, model.runNavigation(model.backend.clear)
	}
	return model, nil
}

// runNavigation runs operation off the UI goroutine and reports the
// resulting navigator state.
func (model browseModel) runNavigation(operation func(context.Context) error) tea.Cmd {
	ctx, backend := model.ctx, model.backend
	return func() tea.Msg {
		err := operation(ctx)
		return browseDoneMsg{err: err, snapshot: backend.snapshot()}
	}
}

func (model browseModel) View() string {
	if model.quitting {
		return ""
	}
	width := max(model.width, 40)
	var b strings.Builder

	b.WriteString(model.styles.Heading.Render("routes"))
	b.WriteString("\n")
	for index, path := range model.keys {
		marker := "  "
		if index == model.cursor {
			marker = "> "
		}
		line := ansi.Truncate(path, width-4, "…")
		switch {
		case path == model.state.Route:
			line = model.styles.Success.Render(line)
		case index == model.cursor:
			line = model.styles.Path.Render(line)
		}
		b.WriteString(marker + line + "\n")
	}

	status := lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("%s %s", model.styles.Heading.Render("route:"), model.styles.Path.Render(model.state.Route)),
		fmt.Sprintf("%s %s", model.styles.Heading.Render("history:"), ansi.Truncate(strings.Join(model.state.History, " › "), width-10, "…")),
		fmt.Sprintf("%s %s", model.styles.Heading.Render("resident:"), ansi.Truncate(residentSummary(model.state.Resident), width-11, "…")),
	)
	b.WriteString("\n" + status + "\n")

	if model.busy && model.label != "" {
		fmt.Fprintf(&b, "%-9s %s %s\n", model.label, model.bar.ViewAs(model.percent/100), model.detail)
	} else if model.busy {
		b.WriteString(model.styles.Faint.Render("working…") + "\n")
	}
	if model.lastErr != nil {
		b.WriteString(model.styles.Failure.Render("error: "+model.lastErr.Error()) + "\n")
	}
	if len(model.log) > 0 {
		b.WriteString("\n" + strings.Join(model.log, "\n") + "\n")
	}

	help := " q quit  ↑↓ select  enter push  b back  x clear history"
	if model.busy {
		help += "  c skip download"
	}
	b.WriteString("\n" + model.styles.Faint.Render(help))
	return b.String()
}

type browseParams struct {
	cli.ConfigParams
	Overlays bool `flag:"overlays" desc:"list transition overlay keys as destinations"`
}

func browseCommand(env *environment) *cli.Command {
	var params browseParams
	return &cli.Command{
		Name:    "browse",
		Summary: "Navigate interactively between routes",
		Description: `Open a terminal UI listing every route key. Enter pushes the selected
route, b goes back, and c skips the remaining download of an in-flight
navigation.`,
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("browse", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("browse takes no arguments")
			}
			return env.withApp(ctx, params.ConfigPath, appOptions{}, func(a *app) error {
				out := newConsole(env.stderr)
				unsubscribe := a.router.SubscribeAll(out.event)
				initializer := navigator.NewInitializer(a.navigator, a.router)
				defer initializer.Close()
				err := initializer.Start(ctx)
				if err == nil {
					err = initializer.WaitPostStartup(ctx)
				}
				unsubscribe()
				if err != nil {
					return fmt.Errorf("initializing from %s: %w", a.fetcher.Location(), err)
				}

				var keys []string
				for _, routeKey := range a.provider.Catalog().Keys() {
					if params.Overlays || !isOverlayKey(routeKey) {
						keys = append(keys, routeKey)
					}
				}
				browseCtx, stop := context.WithCancel(ctx)
				defer stop()
				model := newBrowseModel(browseCtx, appBackend{app: a}, keys, cli.NewStyles(env.stdout))
				unsubscribe = a.router.SubscribeAll(func(event any) {
					model.post(browseEventMsg{event: event})
				})
				defer unsubscribe()

				program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
				_, err = program.Run()
				stop()
				if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
					return nil
				}
				return err
			})
		},
	}
}
