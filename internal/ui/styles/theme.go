// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/nmessenger-tui/internal/cell"
)

// stackedBorder flattens the top corners so a follow-up bubble reads as a
// continuation of the one above it.
var stackedBorder = lipgloss.Border{
	Top:         "─",
	Bottom:      "─",
	Left:        "│",
	Right:       "│",
	TopLeft:     "├",
	TopRight:    "┤",
	BottomLeft:  "╰",
	BottomRight: "╯",
}

// BubbleTheme renders message content inside bubbles.
type BubbleTheme struct {
	// MaxWidthRatio caps bubble width as a share of the row width.
	MaxWidthRatio float64

	IncomingBorder lipgloss.TerminalColor
	IncomingBg     lipgloss.TerminalColor
	OutgoingBorder lipgloss.TerminalColor
	OutgoingBg     lipgloss.TerminalColor

	Sender    lipgloss.Style
	Timestamp lipgloss.Style
	Avatar    lipgloss.Style
	Typing    lipgloss.Style
	Loading   lipgloss.Style
}

// DefaultBubbleTheme returns the stock palette.
func DefaultBubbleTheme() *BubbleTheme {
	return &BubbleTheme{
		MaxWidthRatio:  0.75,
		IncomingBorder: Slate,
		IncomingBg:     SlateDeep,
		OutgoingBorder: Cyan,
		OutgoingBg:     CyanDeep,
		Sender:         lipgloss.NewStyle().Foreground(TextMuted).Bold(true),
		Timestamp:      lipgloss.NewStyle().Foreground(TextMuted).Italic(true),
		Avatar:         lipgloss.NewStyle().Foreground(TextInverse).Background(Purple).Bold(true).Padding(0, 1),
		Typing:         lipgloss.NewStyle().Foreground(Purple),
		Loading:        lipgloss.NewStyle().Foreground(Amber),
	}
}

// BubbleWidth returns the widest bubble allowed in a row of rowWidth.
func (t *BubbleTheme) BubbleWidth(rowWidth int) int {
	w := int(float64(rowWidth) * t.MaxWidthRatio)
	if w < 8 {
		w = rowWidth
	}
	return w
}

// Bubble wraps content, already sized to fit, in a bubble of the given
// shape and direction.
func (t *BubbleTheme) Bubble(content string, shape cell.BubbleShape, incoming bool) string {
	border := lipgloss.RoundedBorder()
	if shape == cell.BubbleStacked {
		border = stackedBorder
	}

	fg, bg := t.OutgoingBorder, t.OutgoingBg
	if incoming {
		fg, bg = t.IncomingBorder, t.IncomingBg
	}

	return lipgloss.NewStyle().
		BorderStyle(border).
		BorderForeground(fg).
		Background(bg).
		Foreground(TextPrimary).
		Padding(0, 1).
		Render(content)
}

// Align places block at the incoming (left) or outgoing (right) edge of a
// row of width.
func Align(block string, width int, incoming bool) string {
	pos := lipgloss.Right
	if incoming {
		pos = lipgloss.Left
	}
	return lipgloss.PlaceHorizontal(width, pos, block)
}
