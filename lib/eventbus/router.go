// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Router fans published events out to subscribers. The zero value is
// not usable; call [New].
type Router struct {
	logger *slog.Logger

	mu            sync.Mutex
	subscriptions map[uint64]*subscription
	nextID        uint64
	closed        bool
	running       sync.WaitGroup
}

// New returns a Router. A nil logger discards.
func New(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Router{
		logger:        logger,
		subscriptions: make(map[uint64]*subscription),
	}
}

type subscription struct {
	handler func(any)

	mu    sync.Mutex
	queue []any
	wake  chan struct{}
	stop  chan struct{}
	once  sync.Once
}

// Publish queues event for every current subscriber and returns
// without waiting for any handler. Publishing on a closed Router is a
// no-op.
func (router *Router) Publish(event any) {
	router.mu.Lock()
	defer router.mu.Unlock()
	if router.closed {
		return
	}
	for _, sub := range router.subscriptions {
		sub.mu.Lock()
		sub.queue = append(sub.queue, event)
		sub.mu.Unlock()
		select {
		case sub.wake <- struct{}{}:
		default:
		}
	}
}

// SubscribeAll registers handler for every event. The returned function
// removes the subscription; events still queued for it are dropped.
func (router *Router) SubscribeAll(handler func(event any)) (unsubscribe func()) {
	sub := &subscription{
		handler: handler,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}

	router.mu.Lock()
	if router.closed {
		router.mu.Unlock()
		return func() {}
	}
	router.nextID++
	id := router.nextID
	router.subscriptions[id] = sub
	router.running.Add(1)
	router.mu.Unlock()

	go router.deliver(sub)

	return func() {
		router.mu.Lock()
		delete(router.subscriptions, id)
		router.mu.Unlock()
		sub.once.Do(func() { close(sub.stop) })
	}
}

// Subscribe registers handler for events whose dynamic type is T.
func Subscribe[T any](router *Router, handler func(event T)) (unsubscribe func()) {
	return router.SubscribeAll(func(event any) {
		if typed, ok := event.(T); ok {
			handler(typed)
		}
	})
}

// First waits for the next published event of type T. It returns the
// context error if ctx ends first.
func First[T any](ctx context.Context, router *Router) (T, error) {
	received := make(chan T, 1)
	unsubscribe := Subscribe(router, func(event T) {
		select {
		case received <- event:
		default:
		}
	})
	defer unsubscribe()

	select {
	case event := <-received:
		return event, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Close removes every subscription and waits for in-flight handlers to
// return. Later Publish and Subscribe calls are no-ops.
func (router *Router) Close() {
	router.mu.Lock()
	router.closed = true
	subscriptions := router.subscriptions
	router.subscriptions = make(map[uint64]*subscription)
	router.mu.Unlock()

	for _, sub := range subscriptions {
		sub.once.Do(func() { close(sub.stop) })
	}
	router.running.Wait()
}

// deliver drains one subscription's queue in order until stopped.
func (router *Router) deliver(sub *subscription) {
	defer router.running.Done()
	for {
		select {
		case <-sub.stop:
			return
		case <-sub.wake:
		}

		for {
			select {
			case <-sub.stop:
				return
			default:
			}

			sub.mu.Lock()
			if len(sub.queue) == 0 {
				sub.mu.Unlock()
				break
			}
			event := sub.queue[0]
			sub.queue[0] = nil
			sub.queue = sub.queue[1:]
			sub.mu.Unlock()

			router.invoke(sub, event)
		}
	}
}

// invoke runs the handler, converting a panic into a log entry so one
// broken subscriber cannot take down the publisher's process.
func (router *Router) invoke(sub *subscription, event any) {
	defer func() {
		if recovered := recover(); recovered != nil {
			router.logger.Error("event handler panicked",
				"event", fmt.Sprintf("%T", event),
				"panic", recovered,
			)
		}
	}()
	sub.handler(event)
}
