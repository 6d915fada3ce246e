// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Directory fetches from a local directory tree.
type Directory struct {
	root string
}

// NewDirectory returns a fetcher rooted at root, which must exist.
func NewDirectory(root string) (*Directory, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("fetch: source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fetch: source %s is not a directory", root)
	}
	return &Directory{root: root}, nil
}

// Location implements Fetcher.
func (d *Directory) Location() string { return d.root }

// Path returns the local file path for name, for callers that want to
// watch it.
func (d *Directory) Path(name string) (string, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(cleaned)), nil
}

// Fetch implements Fetcher.
func (d *Directory) Fetch(ctx context.Context, name string, progress func(read int64)) ([]byte, error) {
	filePath, err := d.Path(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filePath)
		}
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer file.Close()

	var sizeHint int64
	if info, err := file.Stat(); err == nil {
		sizeHint = info.Size()
	}
	data, err := readAll(ctx, file, sizeHint, progress)
	if err != nil {
		return nil, fmt.Errorf("fetch: reading %s: %w", filePath, err)
	}
	return data, nil
}
