// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package eventbus provides [Router], a typed fire-and-forget
// publish/subscribe bus.
//
// Publishers never learn who is listening. [Router.Publish] appends the
// event to every subscriber's queue and returns immediately; each
// subscriber drains its own queue on its own goroutine, so a slow
// subscriber (a fade animation, a progress bar) delays nobody but
// itself. Within one subscriber, events arrive in publish order.
//
// [Subscribe] filters by Go type:
//
//	unsubscribe := eventbus.Subscribe(router, func(event navigator.NavigationEnded) {
//	    fade.Out()
//	})
//	defer unsubscribe()
//
// [First] blocks until the next event of a type is published, which is
// how callers wait for one-shot lifecycle signals such as the
// navigator's PostStartup.
package eventbus
