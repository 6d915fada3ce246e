// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package navigator

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/bureau-foundation/scenenav/lib/provider"
	"github.com/bureau-foundation/scenenav/lib/provider/providertest"
)

// recorder is a synchronous Publisher that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.(Event))
}

func (r *recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func (r *recorder) Names() []string {
	var names []string
	for _, event := range r.Events() {
		names = append(names, event.EventName())
	}
	return names
}

func (r *recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// newTestNavigator returns a navigator over p with a zero poll
// interval, not yet initialized.
func newTestNavigator(t *testing.T, p provider.ResourceProvider, options Options, adjust ...func(*Config)) (*Navigator, *recorder) {
	t.Helper()
	events := &recorder{}
	config := Config{
		Options:   options,
		Provider:  p,
		Publisher: events,
	}
	for _, fn := range adjust {
		fn(&config)
	}
	n, err := New(config)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return n, events
}

// initialized returns a navigator that has completed Initialize
// without startup navigation, with the event log and call log reset.
func initialized(t *testing.T, p *providertest.Provider, adjust ...func(*Config)) (*Navigator, *recorder) {
	t.Helper()
	n, events := newTestNavigator(t, p, Options{}, adjust...)
	if err := n.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	events.Reset()
	p.ResetCalls()
	return n, events
}

func requireEqual[T comparable](t *testing.T, label string, got, want []T) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Fatalf("%s = %v, want %v", label, got, want)
	}
}
