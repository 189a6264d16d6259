// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package messenger

import (
	"github.com/jeranaias/nmessenger-tui/internal/cell"
	"github.com/jeranaias/nmessenger-tui/internal/group"
	"github.com/jeranaias/nmessenger-tui/internal/listview"
)

// AddMessageToMessageGroup appends c to g, then optionally scrolls to the
// newest message.
func (m *Messenger) AddMessageToMessageGroup(c cell.Cell, g *group.MessageGroup, scrollsToLastMessage bool, completion func()) {
	m.ui.Async(func() {
		g.AddMessageToGroup(c, func() {
			if scrollsToLastMessage {
				m.ScrollToLastMessage(true)
			}
			call(completion)
		})
	})
}

// AddMessageToMessageGroupAt appends c to g and scrolls the group to
// position. ScrollNone means the bottom.
func (m *Messenger) AddMessageToMessageGroupAt(c cell.Cell, g *group.MessageGroup, scrollsToMessage bool, position listview.ScrollPosition, completion func()) {
	m.ui.Async(func() {
		g.AddMessageToGroup(c, func() {
			if scrollsToMessage {
				m.ScrollToMessage(g, positionOrBottom(position), true)
			}
			call(completion)
		})
	})
}

// RemoveMessageFromMessageGroup removes c from g. When c is the only
// message left the whole group leaves the messenger, sliding out toward
// its own side.
func (m *Messenger) RemoveMessageFromMessageGroup(c cell.Cell, g *group.MessageGroup, scrollsToMessage bool, position listview.ScrollPosition, completion func()) {
	if m.HasMessage(g) {
		if msgs := g.Messages(); len(msgs) == 1 && msgs[0] == c {
			animation := listview.AnimationRight
			if g.IsIncoming() {
				animation = listview.AnimationLeft
			}
			m.RemoveMessages([]cell.Cell{g}, animation, completion)
			return
		}
	}

	m.ui.Async(func() {
		g.RemoveMessageFromGroup(c, func() {
			if scrollsToMessage {
				m.ScrollToMessage(g, positionOrBottom(position), true)
			}
			call(completion)
		})
	})
}

// ReplaceMessageInMessageGroup swaps old for c inside g.
func (m *Messenger) ReplaceMessageInMessageGroup(old, c cell.Cell, g *group.MessageGroup, completion func()) {
	m.ui.Async(func() {
		g.ReplaceMessage(old, c, completion)
	})
}

func positionOrBottom(p listview.ScrollPosition) listview.ScrollPosition {
	if p == listview.ScrollNone {
		return listview.ScrollBottom
	}
	return p
}
