// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"sync/atomic"
)

// ErrNotFound is returned when the source has no file at the path.
var ErrNotFound = errors.New("fetch: not found")

// Fetcher reads files from a content source.
type Fetcher interface {
	// Fetch returns the file at name. progress, when non-nil, is
	// called with the running byte count as data arrives.
	Fetch(ctx context.Context, name string, progress func(read int64)) ([]byte, error)

	// Location describes the source for logs and errors.
	Location() string
}

// BundlePath returns the source path of a bundle.
func BundlePath(bundle string) string {
	return path.Join("bundles", bundle+".bundle")
}

// CatalogPath returns the source path of a catalog file.
func CatalogPath(file string) string {
	return path.Join("catalogs", file)
}

// New returns a fetcher for source: an http:// or https:// URL gives
// an HTTP fetcher, a file:// URL or plain path a directory fetcher.
func New(source string, options HTTPOptions) (Fetcher, error) {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return NewHTTP(source, options)
	case strings.HasPrefix(source, "file://"):
		parsed, err := url.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("fetch: parsing source %q: %w", source, err)
		}
		return NewDirectory(parsed.Path)
	case source == "":
		return nil, fmt.Errorf("fetch: empty source")
	default:
		return NewDirectory(source)
	}
}

// cleanName rejects paths that escape the source root.
func cleanName(name string) (string, error) {
	cleaned := path.Clean("/" + name)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(name, "/") || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("fetch: invalid path %q", name)
	}
	return cleaned, nil
}

// readAll copies r into memory, reporting progress and stopping when
// ctx ends.
func readAll(ctx context.Context, r io.Reader, sizeHint int64, progress func(read int64)) ([]byte, error) {
	buffer := make([]byte, 0, max(sizeHint, 0))
	counter := &countingWriter{progress: progress}
	chunk := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(chunk)
		if n > 0 {
			buffer = append(buffer, chunk[:n]...)
			counter.Write(chunk[:n])
		}
		if errors.Is(err, io.EOF) {
			return buffer, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// countingWriter forwards the running total of bytes written.
type countingWriter struct {
	total    atomic.Int64
	progress func(read int64)
}

func (w *countingWriter) Write(p []byte) (int, error) {
	total := w.total.Add(int64(len(p)))
	if w.progress != nil {
		w.progress(total)
	}
	return len(p), nil
}
