// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package navigator

import (
	"fmt"

	"github.com/bureau-foundation/scenenav/lib/bytesize"
)

// Progress receives status snapshots. Implementations must not retain
// the navigator's goroutine for long; Report is called between polls.
type Progress[T any] interface {
	Report(status T)
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc[T any] func(status T)

// Report calls f.
func (f ProgressFunc[T]) Report(status T) { f(status) }

// report sends status to progress when progress is set.
func report[T any](progress Progress[T], status T) {
	if progress != nil {
		progress.Report(status)
	}
}

// LoadingStatus is a snapshot of a route load.
type LoadingStatus struct {
	// Total is the number of units this load started.
	Total int
	// Loaded is the number of those units whose load completed.
	Loaded int
	// Current is the fractional progress of the unit in flight.
	Current float64
}

// Percent returns overall completion in [0, 100]. A load with nothing
// to do is complete.
func (status LoadingStatus) Percent() float64 {
	if status.Total == 0 {
		return 100
	}
	percent := (float64(status.Loaded) + status.Current) / float64(status.Total) * 100
	return min(percent, 100)
}

func (status LoadingStatus) String() string {
	return fmt.Sprintf("%d/%d units (%.0f%%)", status.Loaded, status.Total, status.Percent())
}

// DownloadStatus is a snapshot of a download.
type DownloadStatus struct {
	Downloaded bytesize.ByteSize
	Total      bytesize.ByteSize
}

// Percent returns completion in [0, 100].
func (status DownloadStatus) Percent() float64 {
	if status.Total.IsZero() {
		return 100
	}
	percent := float64(status.Downloaded.Int64()) / float64(status.Total.Int64()) * 100
	return min(percent, 100)
}

func (status DownloadStatus) String() string {
	return fmt.Sprintf("%s / %s (%.0f%%)", status.Downloaded, status.Total, status.Percent())
}

// newDownloadStatus builds a snapshot from raw counts reported by a
// provider, clamping values a misbehaving provider could send.
func newDownloadStatus(downloaded, total int64) DownloadStatus {
	downloaded = max(downloaded, 0)
	total = max(total, 0)
	return DownloadStatus{
		Downloaded: bytesize.Must(downloaded),
		Total:      bytesize.Must(total),
	}
}

// DownloadInfo describes what a route still needs to download.
type DownloadInfo struct {
	// Count is the number of locations with bytes left to fetch.
	Count int
	// Bytes is the combined size still to fetch.
	Bytes bytesize.ByteSize
}
