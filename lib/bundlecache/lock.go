// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundlecache

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ErrLocked is returned by Open when another process holds the cache.
var ErrLocked = errors.New("bundlecache: cache directory is in use")

// directoryLock is an exclusive advisory lock on a file.
type directoryLock struct {
	file *os.File
}

func acquireLock(path string) (*directoryLock, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("bundlecache: opening lock file: %w", err)
	}
	for {
		err = unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("bundlecache: locking %s: %w", path, err)
	}
	return &directoryLock{file: file}, nil
}

func (lock *directoryLock) release() error {
	unlockErr := unix.Flock(int(lock.file.Fd()), unix.LOCK_UN)
	closeErr := lock.file.Close()
	if unlockErr != nil {
		return fmt.Errorf("bundlecache: unlocking: %w", unlockErr)
	}
	return closeErr
}
