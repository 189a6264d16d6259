// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mainloop provides the UI thread abstraction. All list state and
// every render call is confined to one goroutine; other goroutines hand work
// to it through a Dispatcher.
package mainloop

import (
	"sync"
	"time"
)

// Dispatcher schedules work on the UI goroutine. Implementations must run
// functions in submission order and must never run them inline in the caller.
type Dispatcher interface {
	Async(fn func())
	AsyncAfter(d time.Duration, fn func())
}

// =============================================================================
// LOOP
// =============================================================================

// Loop is a standalone UI goroutine with an unbounded FIFO queue. Async may
// be called from the loop itself without deadlocking.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	done    chan struct{}
	stopped bool
	running bool
}

// New creates a stopped loop. Call Start to begin draining.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Start launches the loop goroutine. Calling Start twice is a no-op.
func (l *Loop) Start() *Loop {
	l.mu.Lock()
	if l.running || l.stopped {
		l.mu.Unlock()
		return l
	}
	l.running = true
	l.mu.Unlock()

	go l.run()
	return l
}

// Stop ends the loop. Queued work that has not started is dropped.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	l.queue = nil
	close(l.done)
}

// Async queues fn.
func (l *Loop) Async(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AsyncAfter queues fn once d has elapsed.
func (l *Loop) AsyncAfter(d time.Duration, fn func()) {
	if d <= 0 {
		l.Async(fn)
		return
	}
	time.AfterFunc(d, func() { l.Async(fn) })
}

// Sync queues fn and waits until it has run. Must not be called from the
// loop goroutine. Returns false if the loop stopped first.
func (l *Loop) Sync(fn func()) bool {
	ran := make(chan struct{})
	l.Async(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
		return true
	case <-l.done:
		return false
	}
}

func (l *Loop) run() {
	for {
		l.mu.Lock()
		if l.stopped {
			l.mu.Unlock()
			return
		}
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, fn := range batch {
			select {
			case <-l.done:
				return
			default:
			}
			fn()
		}

		if len(batch) > 0 {
			continue
		}

		select {
		case <-l.wake:
		case <-l.done:
			return
		}
	}
}
