// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundlecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/scenenav/lib/atomicfile"
	"github.com/bureau-foundation/scenenav/lib/bundle"
	"github.com/bureau-foundation/scenenav/lib/bytesize"
	"github.com/bureau-foundation/scenenav/lib/catalog"
	"github.com/bureau-foundation/scenenav/lib/clock"
	"github.com/bureau-foundation/scenenav/lib/sqlitepool"
)

// ErrNotCached is returned by Get for a bundle the cache lacks.
var ErrNotCached = errors.New("bundlecache: bundle not cached")

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS bundles (
	hash              TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	size              INTEGER NOT NULL,
	compression       TEXT NOT NULL,
	uncompressed_size INTEGER NOT NULL,
	stored_at         INTEGER NOT NULL,
	last_used         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS bundles_name ON bundles (name);
`

// Config configures a Cache. Directory is required.
type Config struct {
	Directory string

	// Clock stamps stored_at and last_used. Nil uses the real clock.
	Clock clock.Clock

	// Logger receives cache activity. Nil discards.
	Logger *slog.Logger
}

// Cache is an open bundle cache. It is safe for concurrent use.
type Cache struct {
	directory string
	pool      *sqlitepool.Pool
	lock      *directoryLock
	clock     clock.Clock
	logger    *slog.Logger
}

// Entry is one cached bundle as recorded in the index.
type Entry struct {
	Name        string
	Hash        string
	Size        bytesize.ByteSize
	Compression string
	StoredAt    time.Time
	LastUsed    time.Time
}

// Stats summarizes the cache contents.
type Stats struct {
	Bundles int
	Bytes   bytesize.ByteSize
}

// Open locks and opens the cache in config.Directory, creating it if
// needed.
func Open(ctx context.Context, config Config) (*Cache, error) {
	if config.Directory == "" {
		return nil, fmt.Errorf("bundlecache: Directory is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeSource := config.Clock
	if timeSource == nil {
		timeSource = clock.Real()
	}

	if err := os.MkdirAll(filepath.Join(config.Directory, "blobs"), 0o755); err != nil {
		return nil, fmt.Errorf("bundlecache: creating %s: %w", config.Directory, err)
	}
	lock, err := acquireLock(filepath.Join(config.Directory, ".lock"))
	if err != nil {
		return nil, err
	}

	pool, err := sqlitepool.Open(ctx, sqlitepool.Config{
		Path:          filepath.Join(config.Directory, "index.db"),
		Schema:        schema,
		SchemaVersion: schemaVersion,
		Logger:        logger,
	})
	if err != nil {
		lock.release()
		return nil, fmt.Errorf("bundlecache: %w", err)
	}

	return &Cache{
		directory: config.Directory,
		pool:      pool,
		lock:      lock,
		clock:     timeSource,
		logger:    logger,
	}, nil
}

// Close closes the index and releases the directory lock.
func (c *Cache) Close() error {
	poolErr := c.pool.Close()
	lockErr := c.lock.release()
	return errors.Join(poolErr, lockErr)
}

// Directory returns the cache directory.
func (c *Cache) Directory() string { return c.directory }

func (c *Cache) blobPath(hash string) string {
	return filepath.Join(c.directory, "blobs", hash)
}

// Has reports whether the bundle described by entry is cached with the
// expected size.
func (c *Cache) Has(ctx context.Context, entry catalog.Bundle) (bool, error) {
	var found bool
	err := c.pool.WithConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT size FROM bundles WHERE hash = ?", &sqlitex.ExecOptions{
			Args: []any{entry.Hash},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = stmt.ColumnInt64(0) == entry.Size
				return nil
			},
		})
	})
	if err != nil {
		return false, fmt.Errorf("bundlecache: looking up %s: %w", entry.Name, err)
	}
	if !found {
		return false, nil
	}
	info, err := os.Stat(c.blobPath(entry.Hash))
	if err != nil || info.Size() != entry.Size {
		c.logger.Warn("index lists a missing or truncated blob; treating as not cached", "bundle", entry.Name, "hash", entry.Hash)
		return false, nil
	}
	return true, nil
}

// Put verifies stored against entry and admits it.
func (c *Cache) Put(ctx context.Context, entry catalog.Bundle, stored []byte) error {
	if _, err := bundle.Verify(stored, entry); err != nil {
		return fmt.Errorf("bundlecache: rejecting %s: %w", entry.Name, err)
	}
	if err := atomicfile.Write(c.blobPath(entry.Hash), stored, 0o644); err != nil {
		return fmt.Errorf("bundlecache: storing %s: %w", entry.Name, err)
	}

	now := c.clock.Now().UnixNano()
	err := c.pool.WithConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			INSERT INTO bundles (hash, name, size, compression, uncompressed_size, stored_at, last_used)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (hash) DO UPDATE SET
				name = excluded.name,
				size = excluded.size,
				compression = excluded.compression,
				uncompressed_size = excluded.uncompressed_size,
				stored_at = excluded.stored_at,
				last_used = excluded.last_used`,
			&sqlitex.ExecOptions{
				Args: []any{entry.Hash, entry.Name, entry.Size, entry.Compression, entry.UncompressedSize, now, now},
			})
	})
	if err != nil {
		return fmt.Errorf("bundlecache: indexing %s: %w", entry.Name, err)
	}
	c.logger.Debug("bundle cached", "bundle", entry.Name, "size", entry.Size)
	return nil
}

// Get returns the stored bytes of a cached bundle and marks it used.
// The bytes are not re-verified; open them with bundle.Open.
func (c *Cache) Get(ctx context.Context, entry catalog.Bundle) ([]byte, error) {
	cached, err := c.Has(ctx, entry)
	if err != nil {
		return nil, err
	}
	if !cached {
		return nil, fmt.Errorf("%w: %s", ErrNotCached, entry.Name)
	}
	data, err := os.ReadFile(c.blobPath(entry.Hash))
	if err != nil {
		return nil, fmt.Errorf("bundlecache: reading %s: %w", entry.Name, err)
	}

	err = c.pool.WithConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "UPDATE bundles SET last_used = ? WHERE hash = ?", &sqlitex.ExecOptions{
			Args: []any{c.clock.Now().UnixNano(), entry.Hash},
		})
	})
	if err != nil {
		c.logger.Warn("updating last_used failed", "bundle", entry.Name, "error", err)
	}
	return data, nil
}

// Remove drops the bundle with the given hash. Removing an absent
// bundle is not an error.
func (c *Cache) Remove(ctx context.Context, hash string) error {
	err := c.pool.WithConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "DELETE FROM bundles WHERE hash = ?", &sqlitex.ExecOptions{Args: []any{hash}})
	})
	if err != nil {
		return fmt.Errorf("bundlecache: removing %s: %w", hash, err)
	}
	return atomicfile.Remove(c.blobPath(hash))
}

// List returns every indexed bundle, most recently used first.
func (c *Cache) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := c.pool.WithConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			SELECT name, hash, size, compression, stored_at, last_used
			FROM bundles ORDER BY last_used DESC, name`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					size, err := bytesize.New(stmt.ColumnInt64(2))
					if err != nil {
						return err
					}
					entries = append(entries, Entry{
						Name:        stmt.ColumnText(0),
						Hash:        stmt.ColumnText(1),
						Size:        size,
						Compression: stmt.ColumnText(3),
						StoredAt:    time.Unix(0, stmt.ColumnInt64(4)),
						LastUsed:    time.Unix(0, stmt.ColumnInt64(5)),
					})
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("bundlecache: listing: %w", err)
	}
	return entries, nil
}

// Stats returns the number and combined stored size of cached bundles.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := c.pool.WithConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT COUNT(*), COALESCE(SUM(size), 0) FROM bundles", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				stats.Bundles = stmt.ColumnInt(0)
				size, err := bytesize.New(stmt.ColumnInt64(1))
				stats.Bytes = size
				return err
			},
		})
	})
	if err != nil {
		return Stats{}, fmt.Errorf("bundlecache: stats: %w", err)
	}
	return stats, nil
}

// Prune removes every bundle whose hash is not in keep and returns how
// many were removed. Call it with the hashes of the current catalog to
// reclaim space after an update.
func (c *Cache) Prune(ctx context.Context, keep map[string]bool) (int, error) {
	entries, err := c.List(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, entry := range entries {
		if keep[entry.Hash] {
			continue
		}
		if err := c.Remove(ctx, entry.Hash); err != nil {
			return removed, err
		}
		removed++
		c.logger.Info("pruned bundle", "bundle", entry.Name, "hash", entry.Hash)
	}
	return removed, nil
}
