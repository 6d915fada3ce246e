// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package contentprovider

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/bureau-foundation/scenenav/lib/catalog"
	"github.com/bureau-foundation/scenenav/lib/fetch"
	"github.com/bureau-foundation/scenenav/lib/provider"
)

// downloadOperation tracks one DownloadAll call. Bundles transfer one
// at a time; finished counts completed bundles and inFlight the bytes
// received of the current one.
type downloadOperation struct {
	provider.Task

	total    int64
	finished atomic.Int64
	inFlight atomic.Int64

	cancel  context.CancelFunc
	release sync.Once
}

// Bytes implements provider.DownloadOperation.
func (op *downloadOperation) Bytes() (downloaded, total int64, ok bool) {
	if op.total == 0 {
		return 0, 0, false
	}
	return min(op.finished.Load()+op.inFlight.Load(), op.total), op.total, true
}

// Release implements provider.DownloadOperation. Releasing before the
// transfer finishes abandons it.
func (op *downloadOperation) Release() {
	op.release.Do(op.cancel)
}

func (op *downloadOperation) observe(read int64) {
	op.inFlight.Store(read)
	downloaded, total, _ := op.Bytes()
	op.SetProgress(float64(downloaded) / float64(total))
}

// DownloadAll implements provider.ResourceProvider.
func (p *Provider) DownloadAll(ctx context.Context, locations []provider.Location) (provider.DownloadOperation, error) {
	missing, err := p.missingBundles(ctx, locations)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	op := &downloadOperation{cancel: cancel}
	for _, entry := range missing {
		op.total += entry.Size
	}
	if len(missing) == 0 {
		op.Finish(nil)
		return op, nil
	}

	p.logger.Info("downloading bundles", "bundles", len(missing), "bytes", op.total)
	go p.runDownload(ctx, op, missing)
	return op, nil
}

func (p *Provider) runDownload(ctx context.Context, op *downloadOperation, missing []catalog.Bundle) {
	for _, entry := range missing {
		op.inFlight.Store(0)
		if err := p.downloadBundle(ctx, entry, op.observe); err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			op.Finish(err)
			return
		}
		op.inFlight.Store(0)
		op.finished.Add(entry.Size)
	}
	op.Finish(nil)
}

// downloadBundle fetches one bundle into the store. Concurrent calls
// for the same content share one transfer; only the caller that
// started it sees progress.
func (p *Provider) downloadBundle(ctx context.Context, entry catalog.Bundle, progress func(read int64)) error {
	_, err, shared := p.fetches.Do(entry.Hash, func() (any, error) {
		cached, err := p.store.Has(ctx, entry)
		if err != nil {
			return nil, &provider.OperationError{Op: "download", Target: entry.Name, Err: err}
		}
		if cached {
			return nil, nil
		}

		stored, err := p.fetchWithRetry(ctx, fetch.BundlePath(entry.Name), progress)
		if err != nil {
			if errors.Is(err, fetch.ErrNotFound) {
				return nil, &provider.OperationError{Op: "download", Target: entry.Name, Err: err}
			}
			return nil, err
		}
		if err := p.store.Put(ctx, entry, stored); err != nil {
			return nil, &provider.OperationError{Op: "download", Target: entry.Name, Err: err}
		}
		p.logger.Debug("bundle stored", "bundle", entry.Name, "bytes", len(stored))
		return nil, nil
	})
	if shared {
		p.logger.Debug("bundle transfer shared", "bundle", entry.Name)
	}
	return err
}
