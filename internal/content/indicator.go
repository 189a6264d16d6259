// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package content

import (
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/nmessenger-tui/internal/cell"
	"github.com/jeranaias/nmessenger-tui/internal/ui/styles"
	"github.com/jeranaias/nmessenger-tui/internal/util"
)

// Animated cells change on their own and need periodic redraws while on
// screen.
type Animated interface {
	// FrameInterval is how often the cell wants to be redrawn.
	FrameInterval() time.Duration
}

// =============================================================================
// HEAD LOADING INDICATOR
// =============================================================================

// HeadLoadingIndicator is the default spinner row shown at the top of the
// list while older messages are fetched.
type HeadLoadingIndicator struct {
	cell.Base

	theme   *styles.BubbleTheme
	spinner spinner.Spinner
	label   string
	start   time.Time
	now     func() time.Time
}

// NewHeadLoadingIndicator creates the spinner row.
func NewHeadLoadingIndicator() *HeadLoadingIndicator {
	h := &HeadLoadingIndicator{
		theme:   styles.DefaultBubbleTheme(),
		spinner: spinner.Line,
		label:   "loading earlier messages",
		now:     time.Now,
	}
	h.start = h.now()
	h.SetPadding(cell.Insets{Bottom: 1})
	return h
}

// SetLabel changes the text next to the spinner.
func (h *HeadLoadingIndicator) SetLabel(label string) {
	h.label = label
}

func (h *HeadLoadingIndicator) FrameInterval() time.Duration { return h.spinner.FPS }

// Frame returns the spinner glyph for the current time.
func (h *HeadLoadingIndicator) Frame() string {
	return frameAt(h.spinner.Frames, h.spinner.FPS, h.now().Sub(h.start))
}

func (h *HeadLoadingIndicator) Render(width int) string {
	line := h.theme.Loading.Render(h.Frame() + " " + h.label)
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, line)
}

// =============================================================================
// MESSAGE SENT INDICATOR
// =============================================================================

// DefaultSentLabel is shown when no label is given.
const DefaultSentLabel = "Sent"

// MessageSentIndicator is a centered status row such as "Sent" or
// "Delivered" placed between messages.
type MessageSentIndicator struct {
	cell.Base

	theme *styles.BubbleTheme
	mu    sync.Mutex
	label string
}

// NewMessageSentIndicator creates the status row. An empty label shows
// DefaultSentLabel.
func NewMessageSentIndicator(label string) *MessageSentIndicator {
	s := &MessageSentIndicator{theme: styles.DefaultBubbleTheme()}
	s.SetLabel(label)
	return s
}

// Label returns the text shown.
func (s *MessageSentIndicator) Label() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.label
}

// SetLabel changes the text, e.g. from "Sent" to "Delivered".
func (s *MessageSentIndicator) SetLabel(label string) {
	if label == "" {
		label = DefaultSentLabel
	}
	s.mu.Lock()
	s.label = label
	s.mu.Unlock()
}

func (s *MessageSentIndicator) Render(width int) string {
	line := s.theme.Timestamp.Render(util.TruncateWidth(s.Label(), width))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, line)
}

// =============================================================================
// TYPING INDICATOR
// =============================================================================

// TypingIndicator is an incoming bubble with animated dots.
type TypingIndicator struct {
	cell.Base

	theme *styles.BubbleTheme
	dots  spinner.Spinner
	who   string
	start time.Time
	now   func() time.Time
}

// NewTypingIndicator creates an indicator for who; an empty name shows
// only the dots.
func NewTypingIndicator(who string) *TypingIndicator {
	t := &TypingIndicator{
		theme: styles.DefaultBubbleTheme(),
		dots:  spinner.Points,
		who:   who,
		now:   time.Now,
	}
	t.start = t.now()
	t.SetIncoming(true)
	t.SetPadding(cell.Insets{Top: 1})
	return t
}

func (t *TypingIndicator) Who() string { return t.who }

func (t *TypingIndicator) FrameInterval() time.Duration { return t.dots.FPS }

func (t *TypingIndicator) Render(width int) string {
	dots := frameAt(t.dots.Frames, t.dots.FPS, t.now().Sub(t.start))
	body := t.theme.Typing.Render(dots)
	if t.who != "" {
		body = t.theme.Sender.Render(t.who) + " " + body
	}
	return styles.Align(t.theme.Bubble(body, cell.BubblePrimary, t.IsIncoming()), width, t.IsIncoming())
}

func frameAt(frames []string, every, elapsed time.Duration) string {
	if len(frames) == 0 {
		return ""
	}
	if every <= 0 {
		return frames[0]
	}
	return frames[int(elapsed/every)%len(frames)]
}
