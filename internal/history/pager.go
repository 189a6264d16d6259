// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pager walks the history backwards one page at a time. Pages are
// throttled so a user flicking at the top of the list cannot hammer the
// database.
type Pager struct {
	store    *Store
	limiter  *rate.Limiter
	pageSize int

	mu        sync.Mutex
	cursor    int64
	exhausted bool
}

// NewPager pages records older than cursor (0 = newest). every is the
// minimum interval between pages; zero disables throttling.
func NewPager(store *Store, pageSize int, every time.Duration, cursor int64) *Pager {
	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Pager{
		store:    store,
		limiter:  rate.NewLimiter(limit, 1),
		pageSize: pageSize,
		cursor:   cursor,
	}
}

// Next returns the next older page, oldest first. An empty page means the
// history is exhausted.
func (p *Pager) Next(ctx context.Context) ([]Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exhausted {
		return nil, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	page, err := p.store.Before(ctx, p.cursor, p.pageSize)
	if err != nil {
		return nil, err
	}
	if len(page) == 0 {
		p.exhausted = true
		return nil, nil
	}
	p.cursor = page[0].ID
	if page[0].ID <= 1 || len(page) < p.pageSize {
		p.exhausted = true
	}
	return page, nil
}

// Exhausted reports whether the oldest message has been paged in.
func (p *Pager) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhausted
}

// Cursor returns the ID of the oldest record paged in so far.
func (p *Pager) Cursor() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}
