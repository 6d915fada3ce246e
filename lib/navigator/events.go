// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package navigator

import "github.com/bureau-foundation/scenenav/lib/provider"

// Publisher receives lifecycle events. Publish must not block on
// subscribers; eventbus.Router satisfies this.
type Publisher interface {
	Publish(event any)
}

// Event is implemented by every lifecycle event the navigator
// publishes.
type Event interface {
	EventName() string
}

// InitializeFailed is published when the provider fails to initialize.
type InitializeFailed struct {
	Err error
}

// Initialized is published once the provider is ready.
type Initialized struct {
	Keys provider.KeySet
}

// PostStartup is published at the end of Initialize, whether or not
// startup navigation ran. It is the signal that the navigator accepts
// navigation requests.
type PostStartup struct{}

// NavigationStarted is published at the start of Navigate for paths
// other than the root and the entry path.
type NavigationStarted struct {
	Path string
}

// NavigationEnded is the last event of every Navigate call that passed
// its precondition. Err is nil when the navigation succeeded.
type NavigationEnded struct {
	Path string
	Err  error
}

// TransitionStarted is published after a transition overlay is
// resident. Path is the overlay key ("/stage1:transition").
type TransitionStarted struct {
	Path string
}

// TransitionEnded is published before the overlay is unloaded.
type TransitionEnded struct {
	Path string
}

// PreLoadRoute is published before a route's units start loading.
type PreLoadRoute struct {
	Path string
}

// PostLoadRoute is published after a route's units are active.
type PostLoadRoute struct {
	Path string
}

// PreUnloadRoute is published before a route's units are unloaded.
type PreUnloadRoute struct {
	Path string
}

func (InitializeFailed) EventName() string  { return "initialize_failed" }
func (Initialized) EventName() string       { return "initialized" }
func (PostStartup) EventName() string       { return "post_startup" }
func (NavigationStarted) EventName() string { return "navigation_started" }
func (NavigationEnded) EventName() string   { return "navigation_ended" }
func (TransitionStarted) EventName() string { return "transition_started" }
func (TransitionEnded) EventName() string   { return "transition_ended" }
func (PreLoadRoute) EventName() string      { return "pre_load_route" }
func (PostLoadRoute) EventName() string     { return "post_load_route" }
func (PreUnloadRoute) EventName() string    { return "pre_unload_route" }

type discardPublisher struct{}

func (discardPublisher) Publish(any) {}
