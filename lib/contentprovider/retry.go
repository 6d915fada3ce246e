// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package contentprovider

import (
	"context"
	"errors"
	"net"
	"net/url"

	"github.com/bureau-foundation/scenenav/lib/fetch"
	"github.com/bureau-foundation/scenenav/lib/provider"
)

// retryable reports whether a fetch failure might succeed on retry.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var status *fetch.StatusError
	if errors.As(err, &status) {
		return status.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// fetchWithRetry fetches name, retrying transport failures with
// exponential backoff. Every failed attempt is emitted to error
// subscribers as a *provider.RemoteError; the final error is returned
// unchanged so callers can classify it.
func (p *Provider) fetchWithRetry(ctx context.Context, name string, progress func(read int64)) ([]byte, error) {
	backoff := p.retry.Backoff
	location := p.fetcher.Location() + "/" + name
	for attempt := 1; ; attempt++ {
		data, err := p.fetcher.Fetch(ctx, name, progress)
		if err == nil {
			return data, nil
		}
		if !retryable(err) {
			return nil, err
		}

		p.emit(&provider.RemoteError{URL: location, Attempt: attempt, Err: err})
		if attempt >= p.retry.Attempts {
			return nil, &provider.RemoteError{URL: location, Attempt: attempt, Err: err}
		}
		p.logger.Warn("fetch failed, retrying",
			"path", name,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.clock.After(backoff):
		}
		backoff = min(backoff*2, p.retry.MaxBackoff)
	}
}

