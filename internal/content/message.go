// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package content

import (
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/nmessenger-tui/internal/cell"
	"github.com/jeranaias/nmessenger-tui/internal/ui/styles"
	"github.com/jeranaias/nmessenger-tui/internal/util"
)

// Kind selects how a message body is drawn.
type Kind int

const (
	KindText Kind = iota
	KindMarkdown
	KindCode
)

func (k Kind) String() string {
	switch k {
	case KindMarkdown:
		return "markdown"
	case KindCode:
		return "code"
	default:
		return "text"
	}
}

// bubbleChrome is the border plus horizontal padding added by a bubble.
const bubbleChrome = 4

// =============================================================================
// MESSAGE NODE
// =============================================================================

// MessageNode is a single chat bubble.
type MessageNode struct {
	cell.Base

	mu            sync.RWMutex
	theme         *styles.BubbleTheme
	kind          Kind
	text          string
	language      string
	sender        string
	sentAt        time.Time
	showTimestamp bool
	now           func() time.Time
}

// MessageOption configures a MessageNode.
type MessageOption func(*MessageNode)

// WithSender labels incoming bubbles with the sender name.
func WithSender(name string) MessageOption {
	return func(m *MessageNode) { m.sender = name }
}

// WithSentAt sets the message time.
func WithSentAt(t time.Time) MessageOption {
	return func(m *MessageNode) { m.sentAt = t }
}

// WithTimestamp toggles the relative time line under the body.
func WithTimestamp(show bool) MessageOption {
	return func(m *MessageNode) { m.showTimestamp = show }
}

// WithTheme overrides the bubble theme.
func WithTheme(theme *styles.BubbleTheme) MessageOption {
	return func(m *MessageNode) { m.theme = theme }
}

// WithKind sets the body kind. For KindCode, language picks the lexer.
func WithKind(kind Kind, language string) MessageOption {
	return func(m *MessageNode) {
		m.kind = kind
		m.language = language
	}
}

// WithClock overrides the clock used for relative timestamps.
func WithClock(now func() time.Time) MessageOption {
	return func(m *MessageNode) { m.now = now }
}

// NewMessage creates a bubble holding text.
func NewMessage(text string, incoming bool, opts ...MessageOption) *MessageNode {
	m := &MessageNode{
		theme:  styles.DefaultBubbleTheme(),
		text:   norm.NFC.String(text),
		sentAt: time.Now(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.SetIncoming(incoming)
	return m
}

// Text returns the message body.
func (m *MessageNode) Text() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.text
}

// SetText replaces the message body.
func (m *MessageNode) SetText(text string) {
	m.mu.Lock()
	m.text = norm.NFC.String(text)
	m.mu.Unlock()
}

func (m *MessageNode) Kind() Kind {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.kind
}

func (m *MessageNode) Sender() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sender
}

func (m *MessageNode) SentAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sentAt
}

// SetShowTimestamp toggles the relative time line.
func (m *MessageNode) SetShowTimestamp(show bool) {
	m.mu.Lock()
	m.showTimestamp = show
	m.mu.Unlock()
}

// Render draws the bubble aligned to its side of a row of width.
func (m *MessageNode) Render(width int) string {
	m.mu.RLock()
	theme, kind, text, lang := m.theme, m.kind, m.text, m.language
	sender, sentAt, showTS, now := m.sender, m.sentAt, m.showTimestamp, m.now
	m.mu.RUnlock()

	incoming := m.IsIncoming()
	inner := theme.BubbleWidth(width) - bubbleChrome
	if inner < 1 {
		inner = 1
	}

	var body string
	switch kind {
	case KindMarkdown:
		body = renderMarkdown(text, inner)
	case KindCode:
		body = renderCode(text, lang, inner)
	default:
		body = wrap(text, inner)
	}

	var parts []string
	if sender != "" && incoming && m.Bubble() == cell.BubblePrimary {
		parts = append(parts, theme.Sender.Render(util.TruncateWidth(sender, inner)))
	}
	parts = append(parts, body)
	if showTS && !sentAt.IsZero() {
		parts = append(parts, theme.Timestamp.Render(humanize.RelTime(sentAt, now(), "ago", "from now")))
	}

	bubble := theme.Bubble(strings.Join(parts, "\n"), m.Bubble(), incoming)
	return styles.Align(bubble, width, incoming)
}

// wrap soft-wraps text only when it does not fit, so short messages keep
// a snug bubble.
func wrap(text string, width int) string {
	if lipgloss.Width(text) <= width {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}
