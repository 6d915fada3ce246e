// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package navigator

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bureau-foundation/scenenav/lib/provider"
)

// errorQueueCapacity bounds the asynchronous errors buffered during
// one download. Errors beyond it are dropped with a warning.
const errorQueueCapacity = 16

// download runs the download protocol for locations. It returns
// completed=false with a nil error when cancel closed before the
// provider finished. Release and the error unsubscription each run
// exactly once on every return path.
func (n *Navigator) download(ctx context.Context, locations []provider.Location, progress Progress[DownloadStatus], cancel <-chan struct{}, logger *slog.Logger) (completed bool, err error) {
	ctx, span := n.tracer.Start(ctx, "navigator.download", trace.WithAttributes(
		attribute.Int("scenenav.locations", len(locations)),
	))
	defer span.End()

	queue := make(chan error, errorQueueCapacity)
	unsubscribe := n.provider.SubscribeErrors(func(err error) {
		select {
		case queue <- err:
		default:
			logger.Warn("download error queue full; dropping error", "error", err)
		}
	})
	defer unsubscribe()

	operation, err := n.provider.DownloadAll(ctx, locations)
	if err != nil {
		return false, fmt.Errorf("starting download: %w", err)
	}
	if operation == nil {
		return false, fmt.Errorf("starting download: %w", errNoOperation)
	}
	defer operation.Release()

	for !operation.Done() {
		if cancelled(cancel) {
			logger.Info("download cancelled")
			span.SetAttributes(attribute.Bool("scenenav.cancelled", true))
			return false, nil
		}
		n.reportDownload(operation, progress)
		if err := n.drainErrors(queue, logger); err != nil {
			return false, fmt.Errorf("downloading: %w", err)
		}
		if err := n.yield(ctx); err != nil {
			return false, fmt.Errorf("downloading: %w", err)
		}
	}

	if err := n.drainErrors(queue, logger); err != nil {
		return false, fmt.Errorf("downloading: %w", err)
	}
	if err := operation.Err(); err != nil {
		return false, fmt.Errorf("downloading: %w", err)
	}
	n.reportDownload(operation, progress)
	return true, nil
}

// drainErrors empties queue and returns the first error that should
// fail the download. Transient errors are logged unless the navigator
// escalates them.
func (n *Navigator) drainErrors(queue <-chan error, logger *slog.Logger) error {
	var failure error
	for {
		select {
		case err := <-queue:
			if failure != nil {
				logger.Warn("additional download error", "error", err)
				continue
			}
			if provider.IsTransient(err) && !n.escalate {
				logger.Warn("transient download error; waiting for provider retry", "error", err)
				continue
			}
			failure = err
		default:
			return failure
		}
	}
}

func (n *Navigator) reportDownload(operation provider.DownloadOperation, progress Progress[DownloadStatus]) {
	if progress == nil {
		return
	}
	downloaded, total, ok := operation.Bytes()
	if !ok || total <= 0 {
		return
	}
	progress.Report(newDownloadStatus(downloaded, total))
}

func cancelled(cancel <-chan struct{}) bool {
	if cancel == nil {
		return false
	}
	select {
	case <-cancel:
		return true
	default:
		return false
	}
}
