// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"strings"
	"time"

	"github.com/jeranaias/nmessenger-tui/internal/cell"
	"github.com/jeranaias/nmessenger-tui/internal/content"
	"github.com/jeranaias/nmessenger-tui/internal/group"
	"github.com/jeranaias/nmessenger-tui/internal/history"
	"github.com/jeranaias/nmessenger-tui/internal/listview"
	"github.com/jeranaias/nmessenger-tui/internal/logging"
	"github.com/jeranaias/nmessenger-tui/internal/messenger"
	"github.com/jeranaias/nmessenger-tui/internal/util"
)

const fetchTimeout = 10 * time.Second

// groupEntry is a group on screen and who it belongs to.
type groupEntry struct {
	group  *group.MessageGroup
	sender string
}

// =============================================================================
// CELLS FROM RECORDS
// =============================================================================

func (m *Model) messageFor(r history.Record) *content.MessageNode {
	cfg := m.settings()
	kind := content.KindText
	switch r.Kind {
	case "markdown":
		if cfg.UI.Markdown {
			kind = content.KindMarkdown
		}
	case "code":
		kind = content.KindCode
	}
	return content.NewMessage(r.Body, r.Incoming,
		content.WithSender(r.Sender),
		content.WithSentAt(r.SentAt),
		content.WithTimestamp(cfg.UI.ShowTimestamps),
		content.WithKind(kind, r.Language),
	)
}

func (m *Model) newGroup(sender string, incoming bool) *group.MessageGroup {
	cfg := m.settings().Group
	g := group.New(m.ui,
		group.WithAnimationDelay(cfg.AnimationDelay()),
		group.WithAvatarAnimationSpeed(cfg.AvatarAnimation()),
		group.WithTableAnimationDelay(cfg.TableAnimationDelay()),
		group.WithMessageOffset(cfg.MessageOffset),
		group.WithAvatar(avatarFor(sender)),
		group.WithAvatarMarker(m.zones.Mark),
		group.WithDelegate(m),
		group.WithLogger(logging.Component(m.log, "group")),
	)
	g.SetIncoming(incoming)

	m.mu.Lock()
	m.groups[g.ID()] = groupEntry{group: g, sender: sender}
	m.mu.Unlock()
	return g
}

func (m *Model) tracked(g *group.MessageGroup) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.groups[g.ID()]
	return ok
}

func (m *Model) forgetGroup(g *group.MessageGroup) {
	m.mu.Lock()
	delete(m.groups, g.ID())
	m.mu.Unlock()
	g.Close()
}

// groupRecords turns records into groups, one per run of messages from
// the same sender in the same direction.
func (m *Model) groupRecords(recs []history.Record) []cell.Cell {
	var (
		out  []cell.Cell
		cur  *group.MessageGroup
		prev history.Record
	)
	for i, r := range recs {
		if i == 0 || r.Sender != prev.Sender || r.Incoming != prev.Incoming {
			cur = m.newGroup(r.Sender, r.Incoming)
			out = append(out, cur)
		}
		msg := m.messageFor(r)
		m.remember(msg, r.ID)
		cur.AddMessageToGroup(msg, nil)
		prev = r
	}
	return out
}

func (m *Model) remember(c cell.Cell, id int64) {
	if id == 0 {
		return
	}
	m.mu.Lock()
	m.records[c.ID()] = id
	m.mu.Unlock()
}

func (m *Model) recordID(c cell.Cell) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.records[c.ID()]
	return id, ok
}

// avatarFor is the one or two column initial shown beside a group.
func avatarFor(sender string) string {
	name := strings.TrimSpace(sender)
	if name == "" {
		return "?"
	}
	return util.TruncateWidth(strings.ToUpper(string([]rune(name)[:1])), 2)
}

// detectKind picks how typed text is displayed. A leading ``` fence marks
// code, with the first word as its language; literal \n become newlines.
func detectKind(text string) (kind, language, body string) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, "```"), "```")
		lang, code, found := strings.Cut(inner, " ")
		if !found {
			lang, code = "", lang
		}
		return "code", lang, strings.ReplaceAll(strings.TrimSpace(code), `\n`, "\n")
	}
	if strings.ContainsAny(trimmed, "*_`#[") {
		return "markdown", "", trimmed
	}
	return "text", "", trimmed
}

// =============================================================================
// POSTING
// =============================================================================

// post shows r at the bottom, joining the newest group when the sender and
// direction match.
func (m *Model) post(r history.Record) *content.MessageNode {
	m.clearSent()
	msg := m.messageFor(r)
	m.remember(msg, r.ID)

	g := m.lastGroup
	if g != nil && m.lastSender == r.Sender && g.IsIncoming() == r.Incoming && m.tracked(g) {
		m.messenger.AddMessageToMessageGroup(msg, g, true, nil)
	} else {
		g = m.newGroup(r.Sender, r.Incoming)
		g.AddMessageToGroup(msg, nil)
		m.messenger.AddMessage(g, true)
	}
	m.lastGroup, m.lastSender, m.lastMessage = g, r.Sender, msg
	return msg
}

// send stores and posts text typed by the local user.
func (m *Model) send(text string) {
	kind, lang, body := detectKind(text)
	if body == "" {
		return
	}
	m.store(history.Record{
		Sender:   m.settings().UI.Sender,
		Kind:     kind,
		Language: lang,
		Body:     body,
	})
}

// receive stores and posts a message from someone else.
func (m *Model) receive(sender, text string) {
	kind, lang, body := detectKind(text)
	if body == "" {
		return
	}
	m.store(history.Record{
		Sender:   sender,
		Incoming: true,
		Kind:     kind,
		Language: lang,
		Body:     body,
	})
}

func (m *Model) store(r history.Record) {
	r.SentAt = m.now()
	saved := false
	if m.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		id, err := m.history.Append(ctx, r)
		cancel()
		if err != nil {
			m.log.Warn().Err(err).Msg("failed to store message")
			m.fail("not saved: " + err.Error())
		}
		r.ID, saved = id, err == nil
	}
	m.post(r)
	if saved && !r.Incoming {
		m.markSent()
	}
}

// markSent puts a "Sent" row under the newest message.
func (m *Model) markSent() {
	m.clearSent()
	m.sent = content.NewMessageSentIndicator(content.DefaultSentLabel)
	m.messenger.AddMessage(m.sent, true)
}

// clearSent takes the "Sent" row away before the transcript changes below it.
func (m *Model) clearSent() {
	if m.sent == nil {
		return
	}
	m.messenger.RemoveMessage(m.sent, listview.AnimationNone)
	m.sent = nil
}

// unsend removes the newest message. The group leaves with it when it
// was the group's only message.
func (m *Model) unsend() {
	g, msg := m.lastGroup, m.lastMessage
	if g == nil || msg == nil {
		m.note("nothing to unsend")
		return
	}
	m.clearSent()

	remaining := g.Messages()
	if i := cell.Index(remaining, msg); i >= 0 {
		remaining = append(remaining[:i], remaining[i+1:]...)
	}
	if len(remaining) == 0 {
		m.lastGroup, m.lastMessage = nil, nil
	} else {
		m.lastMessage = remaining[len(remaining)-1]
	}

	m.messenger.RemoveMessageFromMessageGroup(msg, g, false, listview.ScrollNone, func() {
		if !m.messenger.HasMessage(g) {
			m.forgetGroup(g)
		}
	})

	if id, ok := m.recordID(msg); ok && m.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		if err := m.history.Delete(ctx, id); err != nil {
			m.log.Warn().Err(err).Int64("id", id).Msg("failed to delete message")
		}
	}
	m.note("message unsent")
}

// edit replaces the text of the newest message.
func (m *Model) edit(text string) {
	g, old := m.lastGroup, m.lastMessage
	node, ok := old.(*content.MessageNode)
	if g == nil || !ok {
		m.note("nothing to edit")
		return
	}
	kind, lang, body := detectKind(text)
	if body == "" {
		return
	}

	r := history.Record{
		Sender:   node.Sender(),
		Incoming: node.IsIncoming(),
		Kind:     kind,
		Language: lang,
		Body:     body,
		SentAt:   node.SentAt(),
	}
	next := m.messageFor(r)
	if id, ok := m.recordID(old); ok {
		m.remember(next, id)
		if m.history != nil {
			ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
			if err := m.history.UpdateBody(ctx, id, body); err != nil {
				m.log.Warn().Err(err).Int64("id", id).Msg("failed to update message")
			}
			cancel()
		}
	}
	m.messenger.ReplaceMessageInMessageGroup(old, next, g, nil)
	m.lastMessage = next
	m.note("message edited")
}

// toggleTyping shows or hides the typing indicator for who.
func (m *Model) toggleTyping(who string) {
	if m.typing != nil {
		m.messenger.RemoveTypingIndicator(m.typing, false, true, nil)
		m.typing = nil
		return
	}
	m.typing = content.NewTypingIndicator(who)
	m.messenger.AddTypingIndicator(m.typing, true, true, nil)
}

// =============================================================================
// BATCH FETCH
// =============================================================================

// fetcher pages older history into the head of the list.
type fetcher struct {
	m *Model
}

var (
	_ messenger.Delegate                 = (*fetcher)(nil)
	_ messenger.LoadingIndicatorProvider = (*fetcher)(nil)
)

func (f *fetcher) BatchFetchLoadingIndicator() cell.Cell {
	ind := content.NewHeadLoadingIndicator()
	ind.SetLabel("loading history")
	return ind
}

// BatchFetchContent runs on its own goroutine.
func (f *fetcher) BatchFetchContent() {
	m := f.m
	m.mu.Lock()
	pager := m.pager
	m.mu.Unlock()

	var cells []cell.Cell
	if pager != nil {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		recs, err := pager.Next(ctx)
		cancel()
		if err != nil {
			m.log.Warn().Err(err).Msg("history page failed")
		}
		cells = m.groupRecords(recs)
		if pager.Exhausted() {
			m.messenger.SetDoesBatchFetch(false)
		}
	}
	m.messenger.EndBatchFetchWithMessages(cells)
}
