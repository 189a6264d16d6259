// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/nmessenger-tui/internal/mainloop"
)

var _ mainloop.Dispatcher = (*TeaDispatcher)(nil)

// drainMsg tells Update to run the queued UI work.
type drainMsg struct{}

// TeaDispatcher makes the bubbletea event loop the UI goroutine. Work is
// queued and run from Update when a drainMsg arrives, so list state is only
// touched between renders.
//
// Program.Send blocks until the event loop reads the message, and Async is
// often called from inside Update, so the wake-up is sent from its own
// goroutine and at most one is outstanding.
type TeaDispatcher struct {
	mu       sync.Mutex
	queue    []func()
	send     func(tea.Msg)
	signaled bool
	stopped  bool
}

// NewTeaDispatcher returns a dispatcher that queues until Attach is called.
func NewTeaDispatcher() *TeaDispatcher {
	return &TeaDispatcher{}
}

// Attach starts delivering wake-ups to p.
func (d *TeaDispatcher) Attach(p *tea.Program) {
	d.attach(p.Send)
}

func (d *TeaDispatcher) attach(send func(tea.Msg)) {
	d.mu.Lock()
	d.send = send
	d.signalLocked()
	d.mu.Unlock()
}

// Async queues fn for the next drain.
func (d *TeaDispatcher) Async(fn func()) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.queue = append(d.queue, fn)
	d.signalLocked()
}

// AsyncAfter queues fn once delay has elapsed.
func (d *TeaDispatcher) AsyncAfter(delay time.Duration, fn func()) {
	if delay <= 0 {
		d.Async(fn)
		return
	}
	time.AfterFunc(delay, func() { d.Async(fn) })
}

// Drain runs everything queued so far and returns how many functions ran.
// Work queued while draining waits for the next drain. Must be called on
// the event loop.
func (d *TeaDispatcher) Drain() int {
	d.mu.Lock()
	batch := d.queue
	d.queue = nil
	d.signaled = false
	d.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Pending returns the number of queued functions.
func (d *TeaDispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Stop drops queued work and ignores further Async calls.
func (d *TeaDispatcher) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.queue = nil
	d.mu.Unlock()
}

func (d *TeaDispatcher) signalLocked() {
	if d.signaled || d.send == nil || len(d.queue) == 0 {
		return
	}
	d.signaled = true
	send := d.send
	go send(drainMsg{})
}
