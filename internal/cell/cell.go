// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cell defines the renderable unit shown by a list.
package cell

import (
	"sync"

	"github.com/google/uuid"
)

// =============================================================================
// GEOMETRY
// =============================================================================

// Insets are edge paddings measured in terminal cells (rows for Top/Bottom,
// columns for Left/Right).
type Insets struct {
	Top, Left, Bottom, Right int
}

// Zero reports whether all edges are zero.
func (i Insets) Zero() bool {
	return i == Insets{}
}

// Horizontal returns Left+Right.
func (i Insets) Horizontal() int { return i.Left + i.Right }

// Vertical returns Top+Bottom.
func (i Insets) Vertical() int { return i.Top + i.Bottom }

// BubbleShape selects the bubble drawn around message content.
type BubbleShape int

const (
	// BubblePrimary is the full bubble of the first message in a run.
	BubblePrimary BubbleShape = iota
	// BubbleStacked is the flattened bubble of follow-up messages.
	BubbleStacked
)

func (b BubbleShape) String() string {
	switch b {
	case BubblePrimary:
		return "primary"
	case BubbleStacked:
		return "stacked"
	default:
		return "unknown"
	}
}

// =============================================================================
// CELL
// =============================================================================

// Cell is one renderable row. Identity is the ID: two cells are the same
// cell only if they are the same value.
//
// Owner holds the identifier of the list currently displaying the cell, or
// "" when detached. It is a lookup key only and never keeps the list alive.
type Cell interface {
	ID() string

	IsIncoming() bool
	SetIncoming(incoming bool)

	Padding() Insets
	SetPadding(p Insets)

	Bubble() BubbleShape
	SetBubble(b BubbleShape)

	Owner() string
	SetOwner(listID string)

	// Render draws the cell for the given content width. Called on the UI
	// goroutine.
	Render(width int) string
}

// LayoutObserver is implemented by cells that want to know when a render
// pass that included them has finished.
type LayoutObserver interface {
	LayoutDidFinish()
}

// Base implements the bookkeeping half of Cell. Embed it and add Render.
// The zero value is ready to use; the identity is assigned on first use.
type Base struct {
	mu       sync.RWMutex
	id       string
	incoming bool
	padding  Insets
	bubble   BubbleShape
	owner    string
}

// ID returns the cell identity.
func (b *Base) ID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.id == "" {
		b.id = uuid.NewString()
	}
	return b.id
}

func (b *Base) IsIncoming() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.incoming
}

func (b *Base) SetIncoming(incoming bool) {
	b.mu.Lock()
	b.incoming = incoming
	b.mu.Unlock()
}

func (b *Base) Padding() Insets {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.padding
}

func (b *Base) SetPadding(p Insets) {
	b.mu.Lock()
	b.padding = p
	b.mu.Unlock()
}

func (b *Base) Bubble() BubbleShape {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bubble
}

func (b *Base) SetBubble(s BubbleShape) {
	b.mu.Lock()
	b.bubble = s
	b.mu.Unlock()
}

func (b *Base) Owner() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.owner
}

func (b *Base) SetOwner(listID string) {
	b.mu.Lock()
	b.owner = listID
	b.mu.Unlock()
}

// =============================================================================
// HELPERS
// =============================================================================

// Index returns the position of c in cells, or -1.
func Index(cells []Cell, c Cell) int {
	if c == nil {
		return -1
	}
	for i, x := range cells {
		if x == c {
			return i
		}
	}
	return -1
}

// Contains reports whether c is in cells.
func Contains(cells []Cell, c Cell) bool {
	return Index(cells, c) >= 0
}

// Detach clears the owner of every cell.
func Detach(cells ...Cell) {
	for _, c := range cells {
		if c != nil {
			c.SetOwner("")
		}
	}
}
