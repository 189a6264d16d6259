// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package group

import (
	"time"

	"github.com/jeranaias/nmessenger-tui/internal/anim"
	"github.com/jeranaias/nmessenger-tui/internal/cell"
	"github.com/jeranaias/nmessenger-tui/internal/listview"
	"github.com/jeranaias/nmessenger-tui/internal/ui/styles"
)

// AddMessageToGroup appends c. Once the group is on screen the row fades
// in, then the avatar slides down to the new last message. completion runs
// on the UI goroutine when both are done.
func (g *MessageGroup) AddMessageToGroup(c cell.Cell, completion func()) {
	if c == nil {
		g.ui.Async(completion)
		return
	}
	c.SetIncoming(g.IsIncoming())
	c.SetOwner(g.table.ID())

	g.mu.Lock()
	laidOut := g.hasLaidOut
	row := len(g.messages)
	g.messages = append(g.messages, c)
	g.restyleLocked()
	if laidOut {
		g.begin(StateAdded)
	}
	g.mu.Unlock()

	if !laidOut {
		g.ui.Async(completion)
		return
	}

	g.log.Debug().Str("group", g.ID()).Int("index", row).Str("state", StateAdded.String()).Msg("group add")
	g.table.BeginUpdates()
	g.table.InsertRows([]listview.IndexPath{{Section: 0, Row: row}}, listview.AnimationFade)

	done := g.join(2, completion)
	g.ui.AsyncAfter(g.animationDelay, func() {
		g.commit(done)
		g.moveAvatar(float64(g.rowHeight(c)), 0, g.tableDelay, done)
	})
}

// RemoveMessageFromGroup removes c. A cell not in the group is ignored and
// completion is not called. Removing the last message first slides the
// avatar up to dock against the row above.
func (g *MessageGroup) RemoveMessageFromGroup(c cell.Cell, completion func()) {
	g.mu.Lock()
	idx := cell.Index(g.messages, c)
	if idx < 0 {
		g.mu.Unlock()
		return
	}
	laidOut := g.hasLaidOut
	isLast := idx == len(g.messages)-1
	hasAvatar := g.avatar != ""
	g.messages = append(g.messages[:idx], g.messages[idx+1:]...)
	g.restyleLocked()
	if laidOut {
		g.begin(StateRemoved)
	}
	g.mu.Unlock()
	c.SetOwner("")

	if !laidOut {
		g.ui.Async(completion)
		return
	}

	g.log.Debug().Str("group", g.ID()).Int("index", idx).Str("state", StateRemoved.String()).Msg("group remove")
	g.table.BeginUpdates()
	g.table.DeleteRows([]listview.IndexPath{{Section: 0, Row: idx}}, listview.AnimationFade)

	wait := g.animationDelay
	if isLast && hasAvatar {
		wait += g.avatarSpeed
		g.moveAvatar(0, float64(g.rowHeight(c)), g.animationDelay, nil)
	}

	done := g.join(1, completion)
	g.ui.AsyncAfter(wait, func() {
		g.cancelAvatar()
		g.setLift(0)
		g.commit(done)
	})
}

// ReplaceMessage swaps old for c in place. An old cell not in the group is
// ignored and completion is not called.
func (g *MessageGroup) ReplaceMessage(old, c cell.Cell, completion func()) {
	if c == nil {
		return
	}
	g.mu.Lock()
	idx := cell.Index(g.messages, old)
	if idx < 0 {
		g.mu.Unlock()
		return
	}
	laidOut := g.hasLaidOut
	g.messages[idx] = c
	g.restyleLocked()
	if laidOut {
		g.begin(StateReplaced)
	}
	g.mu.Unlock()

	old.SetOwner("")
	c.SetIncoming(g.IsIncoming())
	c.SetOwner(g.table.ID())

	if !laidOut {
		g.ui.Async(completion)
		return
	}

	g.log.Debug().Str("group", g.ID()).Int("index", idx).Str("state", StateReplaced.String()).Msg("group replace")
	delta := float64(g.rowHeight(c) - g.rowHeight(old))
	g.table.BeginUpdates()
	g.table.ReloadRows([]listview.IndexPath{{Section: 0, Row: idx}}, listview.AnimationFade)

	done := g.join(2, completion)
	g.ui.AsyncAfter(g.animationDelay, func() {
		g.commit(done)
		g.moveAvatar(delta, 0, g.tableDelay, done)
	})
}

// restyleLocked gives the first message the primary bubble with no top
// padding and every later one the stacked bubble with a one line gap.
func (g *MessageGroup) restyleLocked() {
	for i, m := range g.messages {
		p := m.Padding()
		if i == 0 {
			p.Top = 0
			m.SetBubble(cell.BubblePrimary)
		} else {
			p.Top = 1
			m.SetBubble(cell.BubbleStacked)
		}
		m.SetPadding(p)
	}
}

func (g *MessageGroup) begin(s State) {
	g.state = s
	g.inFlight++
}

// join returns a callback that runs completion after it has been called n
// times, and settles the group state.
func (g *MessageGroup) join(n int, completion func()) func() {
	return func() {
		n--
		if n > 0 {
			return
		}
		g.mu.Lock()
		g.inFlight--
		if g.inFlight <= 0 {
			g.inFlight = 0
			g.state = StateNone
		}
		g.mu.Unlock()
		g.setNeedsLayout()
		if completion != nil {
			completion()
		}
	}
}

func (g *MessageGroup) commit(done func()) {
	if err := g.table.EndUpdates(true, done); err != nil {
		g.log.Error().Err(err).Str("group", g.ID()).Msg("group update")
	}
	g.setNeedsLayout()
}

// moveAvatar tweens the avatar lift from from to to. Without an avatar
// done still fires once the delay has passed.
func (g *MessageGroup) moveAvatar(from, to float64, delay time.Duration, done func()) {
	finish := func(bool) {
		if done != nil {
			done()
		}
	}
	if g.Avatar() == "" {
		g.ui.AsyncAfter(delay, func() { finish(true) })
		return
	}

	g.cancelAvatar()
	g.setLift(from)
	h := anim.Run(g.ui, anim.Tween{
		From:     from,
		To:       to,
		Delay:    delay,
		Duration: g.avatarSpeed,
		Easing:   styles.TransitionAvatar.Easing,
		Step: func(v float64) {
			g.setLift(v)
			g.setNeedsLayout()
		},
		Done: finish,
	})
	g.mu.Lock()
	g.avatarTween = h
	g.mu.Unlock()
}

func (g *MessageGroup) cancelAvatar() {
	g.mu.Lock()
	h := g.avatarTween
	g.avatarTween = nil
	g.mu.Unlock()
	h.Cancel()
}

func (g *MessageGroup) setLift(v float64) {
	g.mu.Lock()
	g.avatarLift = v
	g.mu.Unlock()
}
