// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package navigator

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/bureau-foundation/scenenav/lib/clock"
	"github.com/bureau-foundation/scenenav/lib/provider"
)

// DefaultRoot is the root path used when Options.Root is empty.
const DefaultRoot = "/"

// transitionSuffix is appended to a path to form its overlay key.
const transitionSuffix = ":transition"

// Options is the navigator's routing configuration. It is copied at
// construction and never changes afterwards.
type Options struct {
	// Root is the path of the route that stays resident for the whole
	// session. Defaults to DefaultRoot.
	Root string

	// StartupRoot makes Initialize navigate to Root.
	StartupRoot bool

	// EntryPath, when set together with StartupRoot, is navigated to
	// right after Root during Initialize.
	EntryPath string
}

// Config holds the navigator's collaborators. Provider is required.
type Config struct {
	Options Options

	// Provider stores, downloads, and loads content units.
	Provider provider.ResourceProvider

	// Publisher receives lifecycle events. Nil discards them.
	Publisher Publisher

	// Clock drives the poll loops. Nil uses the real clock.
	Clock clock.Clock

	// PollInterval is how long each poll loop waits between checks of
	// a provider operation. Zero re-checks immediately after yielding
	// the processor, which suits tests and in-memory providers.
	PollInterval time.Duration

	// EscalateTransientErrors fails a download on the first transient
	// remote error instead of logging it and waiting for the
	// provider's own retry.
	EscalateTransientErrors bool

	// Logger receives operational messages. Nil discards them.
	Logger *slog.Logger

	// Tracer creates navigation spans. Nil uses the global otel
	// tracer provider.
	Tracer trace.Tracer
}

// NavigateOption adjusts a single navigation.
type NavigateOption func(*navigateSettings)

type navigateSettings struct {
	downloadProgress Progress[DownloadStatus]
	loadingProgress  Progress[LoadingStatus]
	downloadCancel   <-chan struct{}
}

// WithDownloadProgress reports download snapshots to progress.
func WithDownloadProgress(progress Progress[DownloadStatus]) NavigateOption {
	return func(settings *navigateSettings) { settings.downloadProgress = progress }
}

// WithLoadingProgress reports load snapshots to progress.
func WithLoadingProgress(progress Progress[LoadingStatus]) NavigateOption {
	return func(settings *navigateSettings) { settings.loadingProgress = progress }
}

// WithDownloadCancel stops the download phase early when cancel is
// closed. The navigation then continues with whatever was downloaded;
// it is not aborted.
func WithDownloadCancel(cancel <-chan struct{}) NavigateOption {
	return func(settings *navigateSettings) { settings.downloadCancel = cancel }
}

func applyNavigateOptions(options []NavigateOption) navigateSettings {
	var settings navigateSettings
	for _, option := range options {
		option(&settings)
	}
	return settings
}
