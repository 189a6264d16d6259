// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jeranaias/nmessenger-tui/internal/ui/styles"
	"github.com/jeranaias/nmessenger-tui/internal/util"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is what the chat screen is doing right now.
type Status int

const (
	StatusReady Status = iota
	StatusTyping
	StatusLoading
	StatusError
)

// String returns the display string for the status
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusTyping:
		return "Typing..."
	case StatusLoading:
		return "Loading..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns a shape for the status so it reads without color.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return "●"
	case StatusTyping:
		return "…"
	case StatusLoading:
		return "○"
	case StatusError:
		return "✗"
	default:
		return "?"
	}
}

func (s Status) style() lipgloss.Style {
	switch s {
	case StatusTyping:
		return lipgloss.NewStyle().Foreground(styles.Purple)
	case StatusLoading:
		return lipgloss.NewStyle().Foreground(styles.Amber)
	case StatusError:
		return lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(styles.Cyan)
	}
}

// HistoryState describes how much older history is left to page in.
type HistoryState int

const (
	HistoryOff HistoryState = iota
	HistoryPaging
	HistoryComplete
)

// String returns the display string for the history state
func (h HistoryState) String() string {
	switch h {
	case HistoryPaging:
		return "more above"
	case HistoryComplete:
		return "start of history"
	default:
		return "no history"
	}
}

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar is the line between the transcript and the input bar.
type StatusBar struct {
	Status   Status
	Sender   string       // who outgoing messages are posted as
	Messages int          // messages on screen
	History  HistoryState // paging state of the history store
	Note     string       // last command result, shown on the right
	Hint     string       // pre-rendered, shown when there is no note
	Width    int
}

// NewStatusBar creates a StatusBar for sender.
func NewStatusBar(sender string) *StatusBar {
	return &StatusBar{
		Status: StatusReady,
		Sender: sender,
		Width:  80,
	}
}

// SetWidth updates the status bar width
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// View renders the status bar
func (s *StatusBar) View() string {
	if s.Width < 60 {
		return s.viewNarrow()
	}
	return s.viewWide()
}

// viewNarrow renders: ICON sender · N  note
func (s *StatusBar) viewNarrow() string {
	left := s.Status.style().Render(s.Status.Icon()) + " " +
		styles.DefaultBubbleTheme().Sender.Render(s.Sender) +
		s.muted(" · "+humanize.Comma(int64(s.Messages)))
	return s.withRight(left)
}

// viewWide renders: ICON Status | sender | N messages | history  note
func (s *StatusBar) viewWide() string {
	sep := s.muted(" | ")
	parts := []string{
		s.Status.style().Render(s.Status.Icon() + " " + s.Status.String()),
		styles.DefaultBubbleTheme().Sender.Render(s.Sender),
		s.muted(humanize.Comma(int64(s.Messages)) + " " + plural(s.Messages, "message")),
	}
	if s.History != HistoryOff {
		parts = append(parts, s.muted(s.History.String()))
	}
	return s.withRight(strings.Join(parts, sep))
}

// withRight appends the note, or the hint, flush with the right edge.
func (s *StatusBar) withRight(left string) string {
	room := s.Width - lipgloss.Width(left) - 2
	if room <= 0 {
		return left
	}

	var right string
	switch {
	case s.Note != "":
		note := util.TruncateWidth(s.Note, room)
		if s.Status == StatusError {
			right = s.Status.style().Render(note)
		} else {
			right = styles.DefaultBubbleTheme().Timestamp.Render(note)
		}
	case s.Hint != "" && lipgloss.Width(s.Hint) <= room:
		right = s.Hint
	default:
		return left
	}

	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(right)
	return left + strings.Repeat(" ", max(gap, 2)) + right
}

func (s *StatusBar) muted(text string) string {
	return lipgloss.NewStyle().Foreground(styles.TextMuted).Render(text)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
