// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"math"
	"sync"
	"sync/atomic"
)

// Operation is a pollable handle on work the provider performs in the
// background. Done never blocks.
type Operation interface {
	// Done reports whether the operation has finished, successfully
	// or not.
	Done() bool

	// Err returns the failure of a finished operation, or nil.
	Err() error

	// Progress returns the fraction completed in [0, 1].
	Progress() float64
}

// LoadOperation is an Operation that yields a Unit once done.
type LoadOperation interface {
	Operation

	// Unit returns the loaded unit. Valid only when Done and Err is nil.
	Unit() Unit
}

// DownloadOperation is an Operation that transfers bundle bytes.
type DownloadOperation interface {
	Operation

	// Bytes returns the downloaded and total byte counts. ok is false
	// until the provider knows the total.
	Bytes() (downloaded, total int64, ok bool)

	// Release frees the handle. The navigator calls it exactly once
	// on every exit path of the download protocol.
	Release()
}

// Task is a ready-made Operation for providers that run their work on
// a goroutine. The worker reports progress with SetProgress and ends
// the task with Finish; readers poll Done, Err, and Progress.
type Task struct {
	done     atomic.Bool
	progress atomic.Uint64 // math.Float64bits of the fraction
	mu       sync.Mutex
	err      error
	unit     Unit
}

// Done implements Operation.
func (task *Task) Done() bool {
	return task.done.Load()
}

// Err implements Operation.
func (task *Task) Err() error {
	task.mu.Lock()
	defer task.mu.Unlock()
	return task.err
}

// Progress implements Operation.
func (task *Task) Progress() float64 {
	return math.Float64frombits(task.progress.Load())
}

// Unit implements LoadOperation.
func (task *Task) Unit() Unit {
	task.mu.Lock()
	defer task.mu.Unlock()
	return task.unit
}

// SetProgress records the fraction completed, clamped to [0, 1].
func (task *Task) SetProgress(fraction float64) {
	switch {
	case fraction < 0:
		fraction = 0
	case fraction > 1:
		fraction = 1
	}
	task.progress.Store(math.Float64bits(fraction))
}

// SetUnit records the unit a load produced. Call before Finish.
func (task *Task) SetUnit(unit Unit) {
	task.mu.Lock()
	task.unit = unit
	task.mu.Unlock()
}

// Finish marks the task done with the given outcome. Progress is set
// to 1 on success. Only the first call has any effect.
func (task *Task) Finish(err error) {
	task.mu.Lock()
	defer task.mu.Unlock()
	if task.done.Load() {
		return
	}
	task.err = err
	if err == nil {
		task.SetProgress(1)
	}
	task.done.Store(true)
}

// Completed returns a Task that is already finished with err.
func Completed(err error) *Task {
	task := &Task{}
	task.Finish(err)
	return task
}
