// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package messenger

import (
	"github.com/jeranaias/nmessenger-tui/internal/cell"
	"github.com/jeranaias/nmessenger-tui/internal/listview"
)

// mutate runs fn on the UI goroutine once the mutation lock is held. fn
// must eventually call release.
func (m *Messenger) mutate(op string, fn func(release func())) {
	m.lock.Do(func(release func()) {
		m.log.Trace().Str("op", op).Msg("lock acquired")
		m.ui.Async(func() { fn(release) })
	})
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

func animated(a listview.Animation) bool { return a != listview.AnimationNone }

// =============================================================================
// ADD
// =============================================================================

// AddMessage appends one message.
func (m *Messenger) AddMessage(c cell.Cell, scrollsToMessage bool) {
	m.AddMessages([]cell.Cell{c}, scrollsToMessage, listview.AnimationNone, nil)
}

// AddMessages appends cells. completion runs on the UI goroutine once the
// rows are on screen.
func (m *Messenger) AddMessages(cells []cell.Cell, scrollsToMessage bool, animation listview.Animation, completion func()) {
	m.InsertMessages(cells, AtEnd, scrollsToMessage, animation, completion)
}

// InsertMessages inserts cells at index, or appends for AtEnd.
func (m *Messenger) InsertMessages(cells []cell.Cell, index int, scrollsToMessage bool, animation listview.Animation, completion func()) {
	cells = compact(cells)
	m.mutate("add", func(release func()) {
		m.insert(cells, index, scrollsToMessage, animation, func() {
			release()
			call(completion)
		})
	})
}

// insert must run on the UI goroutine with the lock held. done runs once,
// after the buffer is cleared.
func (m *Messenger) insert(cells []cell.Cell, index int, scrollsToMessage bool, animation listview.Animation, done func()) {
	if len(cells) == 0 {
		done()
		return
	}

	m.mu.Lock()
	old := m.state.ItemCount
	if index == AtEnd || index > old || index < 0 {
		index = old
	}
	m.state.ItemCount = old + len(cells)
	m.state.CellBufferStartIndex = index
	m.state.CellBuffer = cells
	count := m.state.ItemCount
	m.mu.Unlock()

	for _, c := range cells {
		c.SetOwner(m.table.ID())
	}

	m.log.Debug().Int("index", index).Int("count", len(cells)).Msg("insert messages")
	inserts, _ := listview.CountDiff(MessageSection, old, count, index)
	m.table.BeginUpdates()
	m.table.InsertRows(inserts, animation)
	err := m.table.EndUpdates(animated(animation), func() {
		m.mu.Lock()
		m.state.CellBufferStartIndex = NoBuffer
		m.state.CellBuffer = nil
		m.mu.Unlock()
		if scrollsToMessage {
			m.scrollToLast(true)
		}
		done()
	})
	if err != nil {
		m.log.Error().Err(err).Str("op", "add").Msg("list rejected insert")
	}
}

// compact drops nil cells.
func compact(cells []cell.Cell) []cell.Cell {
	out := make([]cell.Cell, 0, len(cells))
	for _, c := range cells {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// REMOVE
// =============================================================================

// RemoveMessage removes one message.
func (m *Messenger) RemoveMessage(c cell.Cell, animation listview.Animation) {
	m.RemoveMessages([]cell.Cell{c}, animation, nil)
}

// RemoveMessages removes cells. Cells not in the message section are
// skipped and keep their owner.
func (m *Messenger) RemoveMessages(cells []cell.Cell, animation listview.Animation, completion func()) {
	cells = compact(cells)
	m.mutate("remove", func(release func()) {
		var paths []listview.IndexPath
		seen := make(map[listview.IndexPath]struct{}, len(cells))
		for _, c := range cells {
			ip, ok := m.table.IndexPathFor(c)
			if !ok || ip.Section != MessageSection {
				continue
			}
			if _, dup := seen[ip]; dup {
				continue
			}
			seen[ip] = struct{}{}
			if c.Owner() == m.table.ID() {
				c.SetOwner("")
			}
			paths = append(paths, ip)
		}
		m.removeRows(paths, animation, func() {
			release()
			call(completion)
		})
	})
}

// removeRows must run on the UI goroutine with the lock held.
func (m *Messenger) removeRows(paths []listview.IndexPath, animation listview.Animation, done func()) {
	if len(paths) == 0 {
		done()
		return
	}
	m.mu.Lock()
	m.state.ItemCount -= len(paths)
	m.mu.Unlock()

	m.log.Debug().Int("count", len(paths)).Msg("remove messages")
	m.table.BeginUpdates()
	m.table.DeleteRows(paths, animation)
	if err := m.table.EndUpdates(animated(animation), done); err != nil {
		m.log.Error().Err(err).Str("op", "remove").Msg("list rejected delete")
	}
}

// ClearAllMessages removes every message and detaches it. Typing
// indicators stay.
func (m *Messenger) ClearAllMessages(completion func()) {
	m.mutate("clear", func(release func()) {
		m.mu.Lock()
		old := m.state.ItemCount
		m.state.ItemCount = 0
		m.mu.Unlock()

		for row := 0; row < old; row++ {
			if c, ok := m.table.CellForRow(listview.IndexPath{Section: MessageSection, Row: row}); ok {
				c.SetOwner("")
			}
		}

		_, deletes := listview.CountDiff(MessageSection, old, 0, 0)
		done := func() {
			release()
			call(completion)
		}
		if len(deletes) == 0 {
			done()
			return
		}
		m.log.Debug().Int("count", old).Msg("clear messages")
		m.table.BeginUpdates()
		m.table.DeleteRows(deletes, listview.AnimationNone)
		if err := m.table.EndUpdates(false, done); err != nil {
			m.log.Error().Err(err).Str("op", "clear").Msg("list rejected clear")
		}
	})
}

// =============================================================================
// SCROLL
// =============================================================================

// ScrollToLastMessage scrolls to the newest typing indicator, or the newest
// message when there is none.
func (m *Messenger) ScrollToLastMessage(animated bool) {
	m.mutate("scroll-last", func(release func()) {
		m.scrollToLast(animated)
		release()
	})
}

// ScrollToMessage scrolls c into view at position. Unknown cells are
// ignored.
func (m *Messenger) ScrollToMessage(c cell.Cell, position listview.ScrollPosition, animated bool) {
	m.mutate("scroll-to", func(release func()) {
		if ip, ok := m.table.IndexPathFor(c); ok {
			m.table.ScrollTo(ip, position, animated)
		}
		release()
	})
}

func (m *Messenger) scrollToLast(animated bool) {
	if ip, ok := m.lastIndexPath(); ok {
		m.table.ScrollTo(ip, listview.ScrollBottom, animated)
	}
}

// =============================================================================
// TYPING INDICATORS
// =============================================================================

// AddTypingIndicator shows c below the messages.
func (m *Messenger) AddTypingIndicator(c cell.Cell, scrollsToLast, animated bool, completion func()) {
	if c == nil {
		return
	}
	m.mutate("typing-add", func(release func()) {
		m.mu.Lock()
		m.state.TypingIndicators = append(m.state.TypingIndicators, c)
		m.mu.Unlock()
		c.SetOwner(m.table.ID())

		m.reloadIndicators(listview.AnimationLeft, animated, scrollsToLast, func() {
			release()
			call(completion)
		})
	})
}

// RemoveTypingIndicator hides c. An indicator that is not shown is
// ignored; completion still runs.
func (m *Messenger) RemoveTypingIndicator(c cell.Cell, scrollsToLast, animated bool, completion func()) {
	m.mutate("typing-remove", func(release func()) {
		m.mu.Lock()
		idx := cell.Index(m.state.TypingIndicators, c)
		if idx >= 0 {
			m.state.TypingIndicators = append(m.state.TypingIndicators[:idx:idx], m.state.TypingIndicators[idx+1:]...)
		}
		m.mu.Unlock()

		done := func() {
			release()
			call(completion)
		}
		if idx < 0 {
			done()
			return
		}
		c.SetOwner("")
		m.reloadIndicators(listview.AnimationFade, animated, scrollsToLast, done)
	})
}

func (m *Messenger) reloadIndicators(animation listview.Animation, animated, scrollsToLast bool, done func()) {
	m.table.BeginUpdates()
	m.table.ReloadSections([]int{IndicatorSection}, animation)
	err := m.table.EndUpdates(animated, func() {
		if scrollsToLast {
			m.scrollToLast(true)
		}
		done()
	})
	if err != nil {
		m.log.Error().Err(err).Str("op", "typing").Msg("list rejected indicator reload")
	}
}
