// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package serial implements the message mutation lock as a FIFO task queue.
//
// A task is started only once the previous task has called its release
// function, which may happen on any goroutine and at any later time (for
// example after a row animation completes). Callers never block: Do only
// enqueues.
package serial

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned by Wait on a closed queue.
var ErrClosed = errors.New("serial queue closed")

// Task receives the release function for the lock it holds. release is
// idempotent; forgetting to call it stalls every later task.
type Task func(release func())

// Queue serializes tasks.
type Queue struct {
	log zerolog.Logger
	sem *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	tasks  []Task
	wake   chan struct{}
	closed bool
	held   bool
}

// New starts a queue worker.
func New(log zerolog.Logger) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		log:    log,
		sem:    semaphore.NewWeighted(1),
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
	}
	go q.work()
	return q
}

// Do enqueues task. Tasks submitted after Close are dropped.
func (q *Queue) Do(task Task) {
	if task == nil {
		return
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.log.Warn().Msg("task submitted to closed queue")
		return
	}
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pending reports queued tasks that have not started yet.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Held reports whether a task currently holds the lock.
func (q *Queue) Held() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.held
}

// Wait blocks until every task queued before the call has released, or ctx
// ends.
func (q *Queue) Wait(ctx context.Context) error {
	drained := make(chan struct{})
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.tasks = append(q.tasks, func(release func()) {
		release()
		close(drained)
	})
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.ctx.Done():
		return ErrClosed
	}
}

// Close stops the worker. A task holding the lock is not interrupted but no
// further task starts.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.tasks = nil
	q.mu.Unlock()
	q.cancel()
}

func (q *Queue) next() (Task, bool) {
	for {
		q.mu.Lock()
		if len(q.tasks) > 0 {
			t := q.tasks[0]
			q.tasks[0] = nil
			q.tasks = q.tasks[1:]
			q.mu.Unlock()
			return t, true
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-q.ctx.Done():
			return nil, false
		}
	}
}

func (q *Queue) work() {
	for {
		// Acquire before dequeuing so FIFO order is fixed at submission.
		if err := q.sem.Acquire(q.ctx, 1); err != nil {
			return
		}
		task, ok := q.next()
		if !ok {
			q.sem.Release(1)
			return
		}

		q.mu.Lock()
		q.held = true
		q.mu.Unlock()

		var once sync.Once
		release := func() {
			once.Do(func() {
				q.mu.Lock()
				q.held = false
				q.mu.Unlock()
				q.sem.Release(1)
			})
		}
		q.run(task, release)
	}
}

func (q *Queue) run(task Task, release func()) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error().Str("panic", fmt.Sprint(r)).Msg("serial task panicked; releasing lock")
			release()
		}
	}()
	task(release)
}
