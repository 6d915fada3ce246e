// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens SQLite databases for scenenav's local
// indexes (the bundle cache index) with a fixed set of pragmas and a
// versioned schema.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool. Callers [Pool.Take]
// a connection, do their work, and [Pool.Put] it back, or use
// [Pool.WithConn] which does both. Connections are not safe for
// concurrent use.
//
// # Pragmas
//
// Every connection gets:
//
//   - journal_mode=WAL: readers never block the single writer.
//   - synchronous=NORMAL: survives process crashes; an OS crash may
//     lose the last transactions, which the cache rebuilds from disk.
//   - busy_timeout=5000: wait for the write lock instead of failing.
//   - temp_store=MEMORY.
//
// # Schema
//
// [Config.Schema] is applied once per connection with
// CREATE ... IF NOT EXISTS statements, and [Config.SchemaVersion] is
// recorded in PRAGMA user_version. Opening a database whose recorded
// version is newer than the caller's fails with [ErrSchemaTooNew]
// rather than corrupting it.
package sqlitepool
