// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bureau-foundation/scenenav/lib/version"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	// Client sends the requests. Nil uses a client with Timeout.
	Client *http.Client

	// Timeout bounds each request when Client is nil. Zero means
	// DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout is the per-request timeout of the default client.
const DefaultTimeout = 2 * time.Minute

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: %s: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether retrying might succeed: server errors,
// throttling, and request timeouts.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusRequestTimeout
}

// HTTP fetches from an HTTP(S) base URL.
type HTTP struct {
	base   *url.URL
	client *http.Client
}

// NewHTTP returns a fetcher for the base URL.
func NewHTTP(base string, options HTTPOptions) (*HTTP, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("fetch: parsing base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("fetch: unsupported scheme %q", parsed.Scheme)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	client := options.Client
	if client == nil {
		timeout := options.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTP{base: parsed, client: client}, nil
}

// Location implements Fetcher.
func (h *HTTP) Location() string { return h.base.String() }

// URL returns the absolute URL for name.
func (h *HTTP) URL(name string) (string, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return h.base.ResolveReference(&url.URL{Path: cleaned}).String(), nil
}

// Fetch implements Fetcher. A 404 wraps ErrNotFound; other non-2xx
// responses are *StatusError.
func (h *HTTP) Fetch(ctx context.Context, name string, progress func(read int64)) ([]byte, error) {
	target, err := h.URL(name)
	if err != nil {
		return nil, err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: building request: %w", err)
	}
	request.Header.Set("User-Agent", "scenenav/"+version.Short())

	response, err := h.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer response.Body.Close()

	switch {
	case response.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, target)
	case response.StatusCode < 200 || response.StatusCode > 299:
		return nil, &StatusError{URL: target, StatusCode: response.StatusCode}
	}

	data, err := readAll(ctx, response.Body, response.ContentLength, progress)
	if err != nil {
		return nil, fmt.Errorf("fetch: reading %s: %w", target, err)
	}
	return data, nil
}
