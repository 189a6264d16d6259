// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package listview

import (
	"errors"

	"github.com/jeranaias/nmessenger-tui/internal/cell"
)

var (
	// ErrInconsistentUpdate means the rows after an update do not match the
	// data source counts.
	ErrInconsistentUpdate = errors.New("inconsistent list update")
	// ErrIndexOutOfRange means an update referenced a row that does not
	// exist.
	ErrIndexOutOfRange = errors.New("index path out of range")
)

// DataSource supplies rows to the engine.
type DataSource interface {
	NumberOfSections() int
	NumberOfRows(section int) int
	CellAt(ip IndexPath) cell.Cell
}

// ScrollDelegate observes scrolling. Called on the UI goroutine.
type ScrollDelegate interface {
	// DidScroll reports the new top offset in lines.
	DidScroll(offset float64)
	// WillEndDragging reports where a user-driven scroll will settle.
	WillEndDragging(targetOffset float64)
}

// Geometry describes the viewport and its content, in lines/columns.
type Geometry struct {
	Width, Height  int
	ContentHeight  int
	Offset         int
	LeadingScreens float64
}

// Span is the vertical extent of a rendered row.
type Span struct {
	Top, Height int
}

// Bottom returns the first line below the span.
func (s Span) Bottom() int { return s.Top + s.Height }

// Adapter is the virtualized list engine contract.
type Adapter interface {
	ID() string

	NumberOfRows(section int) int
	CellForRow(ip IndexPath) (cell.Cell, bool)
	IndexPathFor(c cell.Cell) (IndexPath, bool)

	BeginUpdates()
	InsertRows(paths []IndexPath, animation Animation)
	DeleteRows(paths []IndexPath, animation Animation)
	ReloadRows(paths []IndexPath, animation Animation)
	ReloadSections(sections []int, animation Animation)
	// EndUpdates commits the batch. completion runs on the UI goroutine
	// after the animation, even when an error is returned.
	EndUpdates(animated bool, completion func()) error

	ScrollTo(ip IndexPath, position ScrollPosition, animated bool)
	Geometry() Geometry
	RowSpan(ip IndexPath) (Span, bool)

	Render(width int) string
	SetNeedsLayout()
}

// Viewport is implemented by adapters that own a scrollable terminal
// window.
type Viewport interface {
	SetSize(width, height int)
	View() string
	ScrollBy(delta int)
}
