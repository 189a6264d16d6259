// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package messenger

import (
	"github.com/jeranaias/nmessenger-tui/internal/cell"
	"github.com/jeranaias/nmessenger-tui/internal/content"
	"github.com/jeranaias/nmessenger-tui/internal/listview"
)

func defaultLoadingIndicator() cell.Cell {
	return content.NewHeadLoadingIndicator()
}

// ShouldBatchFetch decides whether a scroll settling at targetOffset lines
// from the top should fetch older messages. Content shorter than the
// viewport never triggers a fetch.
func ShouldBatchFetch(fetching bool, direction ScrollDirection, g listview.Geometry, targetOffset float64) bool {
	if fetching {
		return false
	}
	if direction != ScrollDirectionUp {
		return false
	}
	if g.LeadingScreens <= 0 || g.Width == 0 || g.Height == 0 {
		return false
	}

	viewLength := float64(g.Height)
	contentLength := float64(g.ContentHeight)
	offset := contentLength - targetOffset

	smallContent := contentLength < viewLength
	triggerDistance := viewLength * g.LeadingScreens
	remainingDistance := contentLength - viewLength - offset
	return !smallContent && remainingDistance <= triggerDistance
}

// DidScroll tracks the scroll direction.
func (m *Messenger) DidScroll(offset float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.state.LastContentOffset < offset:
		m.state.ScrollDirection = ScrollDirectionDown
	case m.state.LastContentOffset > offset:
		m.state.ScrollDirection = ScrollDirectionUp
	}
	m.state.LastContentOffset = offset
}

// WillEndDragging starts a batch fetch when the scroll settles near the top.
func (m *Messenger) WillEndDragging(targetOffset float64) {
	m.mu.RLock()
	enabled, direction := m.doesBatchFetch, m.state.ScrollDirection
	m.mu.RUnlock()
	if !enabled {
		return
	}
	if !ShouldBatchFetch(m.batch.IsFetching(), direction, m.table.Geometry(), targetOffset) {
		return
	}
	if !m.batch.Begin() {
		return
	}
	m.beginBatchFetch()
}

// beginBatchFetch puts the spinner at the head and asks the delegate for
// content on a background goroutine.
func (m *Messenger) beginBatchFetch() {
	var indicator cell.Cell
	if p, ok := m.delegate.(LoadingIndicatorProvider); ok {
		indicator = p.BatchFetchLoadingIndicator()
	}
	if indicator == nil {
		indicator = m.loading()
	}

	m.log.Debug().Msg("batch fetch started")
	m.InsertMessages([]cell.Cell{indicator}, 0, false, listview.AnimationNone, nil)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				m.log.Error().Interface("panic", r).Msg("batch fetch delegate panicked")
			}
		}()
		m.delegate.BatchFetchContent()
	}()
}

// EndBatchFetchWithMessages replaces the head spinner with cells and ends
// the fetch. Calling it while no fetch is running does nothing.
func (m *Messenger) EndBatchFetchWithMessages(cells []cell.Cell) {
	if !m.batch.IsFetching() {
		return
	}
	cells = compact(cells)
	m.mutate("end-batch", func(release func()) {
		// A duplicate call queued behind the first finds the fetch over.
		if !m.batch.IsFetching() {
			release()
			return
		}
		var paths []listview.IndexPath
		if spinner, ok := m.table.CellForRow(listview.IndexPath{Section: MessageSection, Row: 0}); ok {
			spinner.SetOwner("")
			paths = append(paths, listview.IndexPath{Section: MessageSection, Row: 0})
		}
		m.removeRows(paths, listview.AnimationNone, func() {
			m.insert(cells, 0, false, listview.AnimationNone, func() {
				m.batch.Complete()
				m.log.Debug().Int("count", len(cells)).Msg("batch fetch finished")
				release()
			})
		})
	})
}
