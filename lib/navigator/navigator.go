// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package navigator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bureau-foundation/scenenav/lib/clock"
	"github.com/bureau-foundation/scenenav/lib/provider"
)

const tracerName = "github.com/bureau-foundation/scenenav/lib/navigator"

// State is the navigator's lifecycle state.
type State int

const (
	// StateUninitialized is the state before a successful Initialize,
	// including after a failed one.
	StateUninitialized State = iota
	// StateInitializing covers Initialize, including startup
	// navigation.
	StateInitializing
	// StateReady means idle and accepting navigation.
	StateReady
	// StateNavigating means a navigation call is running.
	StateNavigating
)

func (state State) String() string {
	switch state {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateNavigating:
		return "navigating"
	default:
		return fmt.Sprintf("State(%d)", int(state))
	}
}

// Navigator owns the session's routing state. Create one per
// application run with New.
type Navigator struct {
	options      Options
	provider     provider.ResourceProvider
	publisher    Publisher
	clock        clock.Clock
	pollInterval time.Duration
	escalate     bool
	logger       *slog.Logger
	tracer       trace.Tracer

	state         State
	initialized   bool
	currentRoute  string
	history       []string

	// residentRoute is the last route whose units were loaded. It
	// differs from currentRoute after navigating to a path with no
	// content, and it is what the next navigation unloads. Empty means
	// no route is known to be resident, so the next navigation sweeps
	// stray units instead.
	residentRoute string
	locationCache map[string][]provider.Location

	// inflight holds the load operations of the route currently being
	// loaded, in start order, until they are activated.
	inflight []provider.LoadOperation
}

// New returns a navigator for config. The navigator does nothing until
// Initialize is called.
func New(config Config) (*Navigator, error) {
	if config.Provider == nil {
		return nil, fmt.Errorf("navigator: Provider is required")
	}
	if config.PollInterval < 0 {
		return nil, fmt.Errorf("navigator: negative PollInterval %v", config.PollInterval)
	}

	options := config.Options
	if options.Root == "" {
		options.Root = DefaultRoot
	}

	publisher := config.Publisher
	if publisher == nil {
		publisher = discardPublisher{}
	}
	timeSource := config.Clock
	if timeSource == nil {
		timeSource = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	tracer := config.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return &Navigator{
		options:       options,
		provider:      config.Provider,
		publisher:     publisher,
		clock:         timeSource,
		pollInterval:  config.PollInterval,
		escalate:      config.EscalateTransientErrors,
		logger:        logger,
		tracer:        tracer,
		locationCache: make(map[string][]provider.Location),
	}, nil
}

// Options returns the routing options in effect.
func (n *Navigator) Options() Options { return n.options }

// IsInitialized reports whether Initialize has succeeded.
func (n *Navigator) IsInitialized() bool { return n.initialized }

// State returns the lifecycle state.
func (n *Navigator) State() State { return n.state }

// CurrentRoute returns the resident route's path, or "" when none is
// recorded.
func (n *Navigator) CurrentRoute() string { return n.currentRoute }

// HasHistory reports whether BackNavigate has somewhere to go.
func (n *Navigator) HasHistory() bool { return len(n.history) > 1 }

// HistoryDepth returns the number of entries on the history stack.
func (n *Navigator) HistoryDepth() int { return len(n.history) }

// History returns a copy of the history stack, bottom first.
func (n *Navigator) History() []string { return slices.Clone(n.history) }

// Initialize prepares the provider and, when configured, navigates to
// the root and the entry path. It must be called exactly once; a
// failed Initialize leaves the navigator uninitialized and is not
// retried.
func (n *Navigator) Initialize(ctx context.Context) error {
	if n.initialized || n.state == StateInitializing {
		return ErrAlreadyInitialized
	}

	ctx, span := n.tracer.Start(ctx, "navigator.Initialize")
	defer span.End()

	n.state = StateInitializing
	keys, err := n.provider.Initialize(ctx)
	if err != nil {
		n.state = StateUninitialized
		n.logger.Error("provider initialization failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider initialization failed")
		n.publisher.Publish(InitializeFailed{Err: err})
		return fmt.Errorf("navigator: initializing provider: %w", err)
	}

	n.initialized = true
	n.logger.Info("navigator initialized", "keys", len(keys))
	n.publisher.Publish(Initialized{Keys: keys})

	var startupErr error
	if n.options.StartupRoot {
		startupErr = n.Startup(ctx)
		if startupErr == nil && n.options.EntryPath != "" {
			startupErr = n.Navigate(ctx, n.options.EntryPath)
		}
	}

	n.state = StateReady
	n.publisher.Publish(PostStartup{})

	if startupErr != nil {
		span.RecordError(startupErr)
		return fmt.Errorf("navigator: startup navigation: %w", startupErr)
	}
	return nil
}

// Startup navigates to the root route.
func (n *Navigator) Startup(ctx context.Context) error {
	return n.Navigate(ctx, n.options.Root)
}

// Navigate makes path the resident route. See the package
// documentation for the phase order and failure policy.
func (n *Navigator) Navigate(ctx context.Context, path string, options ...NavigateOption) (err error) {
	if !n.initialized {
		return fmt.Errorf("navigate %q: %w", path, ErrNotInitialized)
	}
	settings := applyNavigateOptions(options)

	navigationID := uuid.NewString()
	logger := n.logger.With("navigation_id", navigationID, "path", path)
	ctx, span := n.tracer.Start(ctx, "navigator.Navigate", trace.WithAttributes(
		attribute.String("scenenav.path", path),
		attribute.String("scenenav.navigation_id", navigationID),
	))
	defer span.End()

	previousState := n.state
	n.state = StateNavigating
	started := n.clock.Now()

	if path != n.options.Root && path != n.options.EntryPath {
		n.publisher.Publish(NavigationStarted{Path: path})
	}

	defer func() {
		n.state = previousState
		if err != nil {
			err = fmt.Errorf("navigate %q: %w", path, err)
			logger.Error("navigation failed", "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "navigation failed")
		} else {
			logger.Info("navigated", "duration", n.clock.Now().Sub(started))
		}
		n.publisher.Publish(NavigationEnded{Path: path, Err: err})
	}()

	overlay, overlayUnits, err := n.beginTransition(ctx, path, logger)
	if err != nil {
		return err
	}
	if overlay != "" {
		defer n.endTransition(ctx, overlay, logger)
	}

	return n.transition(ctx, path, settings, overlayUnits, logger)
}

// transition runs phases 4 through 7 of a navigation.
func (n *Navigator) transition(ctx context.Context, path string, settings navigateSettings, keep map[string]bool, logger *slog.Logger) error {
	locations, err := n.locations(ctx, path)
	if err != nil {
		return err
	}
	if len(locations) == 0 {
		logger.Warn("path resolves to no content; recording it without loading")
		n.currentRoute = path
		return nil
	}

	size, err := n.provider.GetDownloadSize(ctx, locations)
	if err != nil {
		return fmt.Errorf("measuring download size: %w", err)
	}
	if !size.IsZero() {
		logger.Info("downloading route content", "size", size.String())
		if _, err := n.download(ctx, locations, settings.downloadProgress, settings.downloadCancel, logger); err != nil {
			return err
		}
	}

	if err := n.unloadPrevious(ctx, keep, logger); err != nil {
		return err
	}

	if err := n.loadRoute(ctx, path, settings.loadingProgress, logger); err != nil {
		n.forgetRoute()
		return err
	}
	n.currentRoute = path
	n.residentRoute = path
	return nil
}

// forgetRoute records that no route is known to be resident. Units a
// failed load left behind are swept by the next navigation.
func (n *Navigator) forgetRoute() {
	n.currentRoute = ""
	n.residentRoute = ""
}

// beginTransition loads the overlay for path, falling back to the
// root's overlay. It returns the overlay key ("" when none resolved)
// and the overlay's unit IDs, which stray cleanup must leave alone.
func (n *Navigator) beginTransition(ctx context.Context, path string, logger *slog.Logger) (string, map[string]bool, error) {
	candidates := []string{path + transitionSuffix}
	if rootOverlay := n.options.Root + transitionSuffix; rootOverlay != candidates[0] {
		candidates = append(candidates, rootOverlay)
	}

	for _, key := range candidates {
		locations, err := n.locations(ctx, key)
		if err != nil {
			return "", nil, err
		}
		if len(locations) == 0 {
			continue
		}

		if err := n.loadRoute(ctx, key, nil, logger); err != nil {
			return "", nil, fmt.Errorf("loading transition %q: %w", key, err)
		}
		units := make(map[string]bool, len(locations))
		for _, location := range locations {
			units[location.ID] = true
		}
		n.publisher.Publish(TransitionStarted{Path: key})
		return key, units, nil
	}
	return "", nil, nil
}

// endTransition retires the overlay. It runs on every exit path of a
// navigation that loaded one, so it ignores the caller's cancellation.
func (n *Navigator) endTransition(ctx context.Context, overlay string, logger *slog.Logger) {
	n.publisher.Publish(TransitionEnded{Path: overlay})
	if err := n.unloadRoute(context.WithoutCancel(ctx), overlay, logger); err != nil {
		logger.Error("unloading transition overlay failed", "overlay", overlay, "error", err)
	}
}

// unloadPrevious clears the way for a new route by unloading the last
// loaded route. The root route is never unloaded; with no resident
// route, stray units from an earlier session or a failed load are
// unloaded instead.
func (n *Navigator) unloadPrevious(ctx context.Context, keep map[string]bool, logger *slog.Logger) error {
	switch n.residentRoute {
	case "":
		return n.unloadStrays(ctx, keep, logger)
	case n.options.Root:
		logger.Warn("root is never unloaded", "root", n.options.Root)
		return nil
	default:
		if err := n.unloadRoute(ctx, n.residentRoute, logger); err != nil {
			return err
		}
		n.forgetRoute()
		return nil
	}
}

// PushNavigate navigates to path and records it on the history stack.
// The path is pushed only when the navigation succeeds.
func (n *Navigator) PushNavigate(ctx context.Context, path string, options ...NavigateOption) error {
	if err := n.Navigate(ctx, path, options...); err != nil {
		return err
	}
	n.history = append(n.history, path)
	return nil
}

// BackNavigate returns to the previous history entry. With one entry
// or none it does nothing. When the previous entry is the root, the
// popped route is unloaded and the root is not reloaded: it never left.
func (n *Navigator) BackNavigate(ctx context.Context) error {
	if !n.HasHistory() {
		n.logger.Warn("back navigation ignored: no history", "depth", len(n.history))
		return nil
	}

	top := n.history[len(n.history)-1]
	n.history = n.history[:len(n.history)-1]
	logger := n.logger.With("from", top)

	if err := n.unloadRoute(ctx, top, logger); err != nil {
		return fmt.Errorf("back from %q: %w", top, err)
	}
	if n.residentRoute == top {
		n.residentRoute = ""
	}

	peeked := n.history[len(n.history)-1]
	if peeked == n.options.Root {
		logger.Warn("back navigation reached the root; it is already resident and is not reloaded")
		n.currentRoute = peeked
		if n.residentRoute == "" {
			n.residentRoute = peeked
		}
		return nil
	}

	if err := n.loadRoute(ctx, peeked, nil, logger); err != nil {
		n.forgetRoute()
		return fmt.Errorf("back to %q: %w", peeked, err)
	}
	n.currentRoute = peeked
	if len(n.locationCache[peeked]) > 0 {
		n.residentRoute = peeked
	}
	return nil
}

// ClearHistory unloads the top history entry and forgets the history,
// every cached resolution, and in-flight load bookkeeping. Call it
// after catalogs change. With empty history it does nothing.
func (n *Navigator) ClearHistory(ctx context.Context) error {
	if len(n.history) == 0 {
		return nil
	}

	top := n.history[len(n.history)-1]
	n.history = n.history[:len(n.history)-1]
	unloadErr := n.unloadRoute(ctx, top, n.logger.With("route", top))
	if n.residentRoute == top {
		n.residentRoute = ""
	}

	n.history = nil
	n.locationCache = make(map[string][]provider.Location)
	n.inflight = nil
	n.logger.Info("history cleared")

	if unloadErr != nil {
		return fmt.Errorf("clear history: %w", unloadErr)
	}
	return nil
}

// yield suspends between polls of a provider operation.
func (n *Navigator) yield(ctx context.Context) error {
	if n.pollInterval <= 0 {
		runtime.Gosched()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-n.clock.After(n.pollInterval):
		return ctx.Err()
	}
}

// await polls operation until it finishes.
func (n *Navigator) await(ctx context.Context, operation provider.Operation) error {
	for !operation.Done() {
		if err := n.yield(ctx); err != nil {
			return err
		}
	}
	return operation.Err()
}

// errNoOperation reports a provider returning neither an operation nor
// an error.
var errNoOperation = errors.New("provider returned no operation")
