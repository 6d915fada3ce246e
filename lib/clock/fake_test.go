// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeNow(t *testing.T) {
	fake := Fake(epoch)
	if !fake.Now().Equal(epoch) {
		t.Fatalf("Now = %v, want %v", fake.Now(), epoch)
	}
	fake.Advance(time.Minute)
	if want := epoch.Add(time.Minute); !fake.Now().Equal(want) {
		t.Fatalf("Now after Advance = %v, want %v", fake.Now(), want)
	}
}

func TestFakeAfterNonPositiveFiresImmediately(t *testing.T) {
	fake := Fake(epoch)
	select {
	case <-fake.After(0):
	default:
		t.Fatal("After(0) was not ready")
	}
	if fake.PendingTimers() != 0 {
		t.Fatalf("PendingTimers = %d, want 0", fake.PendingTimers())
	}
}

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	fake := Fake(epoch)
	channel := fake.After(10 * time.Millisecond)

	fake.Advance(5 * time.Millisecond)
	select {
	case <-channel:
		t.Fatal("fired before deadline")
	default:
	}

	fake.Advance(5 * time.Millisecond)
	select {
	case fired := <-channel:
		if want := epoch.Add(10 * time.Millisecond); !fired.Equal(want) {
			t.Errorf("fired at %v, want %v", fired, want)
		}
	default:
		t.Fatal("did not fire at deadline")
	}
}

func TestFakeSleepWithWaitForTimers(t *testing.T) {
	fake := Fake(epoch)
	done := make(chan struct{})
	go func() {
		fake.Sleep(time.Second)
		close(done)
	}()

	fake.WaitForTimers(1)
	fake.Advance(time.Second)

	select {
	case <-done:
	case <-time.After(5 * time.Second): //nolint:realclock test hang prevention
		t.Fatal("Sleep did not return after Advance")
	}
}

func TestRealAfterZero(t *testing.T) {
	select {
	case <-Real().After(0):
	default:
		t.Fatal("Real().After(0) was not ready")
	}
}
