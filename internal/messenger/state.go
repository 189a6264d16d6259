// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package messenger

import (
	"math"
	"sync/atomic"

	"github.com/jeranaias/nmessenger-tui/internal/cell"
)

// NoBuffer is the buffer start index while no insert is in flight.
const NoBuffer = math.MaxInt

// AtEnd appends when passed as an insert index.
const AtEnd = -1

// Sections of the outer list.
const (
	MessageSection = iota
	IndicatorSection
	numSections
)

// ScrollDirection is the direction of the last scroll movement.
type ScrollDirection int

const (
	ScrollDirectionNone ScrollDirection = iota
	ScrollDirectionUp
	ScrollDirectionDown
)

func (d ScrollDirection) String() string {
	switch d {
	case ScrollDirectionUp:
		return "up"
	case ScrollDirectionDown:
		return "down"
	default:
		return "none"
	}
}

// State is the messenger bookkeeping. ItemCount only changes on the UI
// goroutine while the mutation lock is held. CellBuffer is non-empty only
// while an insert is in flight.
type State struct {
	ItemCount            int
	LastContentOffset    float64
	ScrollDirection      ScrollDirection
	CellBufferStartIndex int
	CellBuffer           []cell.Cell
	TypingIndicators     []cell.Cell
}

func newState() State {
	return State{CellBufferStartIndex: NoBuffer}
}

// clone copies the slices so a snapshot does not alias live state.
func (s State) clone() State {
	s.CellBuffer = append([]cell.Cell(nil), s.CellBuffer...)
	s.TypingIndicators = append([]cell.Cell(nil), s.TypingIndicators...)
	return s
}

// BatchContext tracks whether a head fetch is in progress.
type BatchContext struct {
	fetching atomic.Bool
}

// Begin moves to fetching. It reports false if a fetch was already running.
func (b *BatchContext) Begin() bool {
	return b.fetching.CompareAndSwap(false, true)
}

// Complete moves back to idle.
func (b *BatchContext) Complete() {
	b.fetching.Store(false)
}

// IsFetching reports whether a fetch is in progress.
func (b *BatchContext) IsFetching() bool {
	return b.fetching.Load()
}
