// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package content

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/nmessenger-tui/internal/cell"
	"github.com/jeranaias/nmessenger-tui/internal/ui/styles"
)

func init() {
	styles.UseProfile(termenv.Ascii)
}

func TestMessageNode_NormalizesText(t *testing.T) {
	// "e" + combining acute accent composes to a single rune.
	m := NewMessage("cafe\u0301", true)
	assert.Equal(t, "caf\u00e9", m.Text())

	m.SetText("ne\u0301e")
	assert.Equal(t, "n\u00e9e", m.Text())
}

func TestMessageNode_AlignsBySide(t *testing.T) {
	in := NewMessage("hi", true).Render(40)
	out := NewMessage("hi", false).Render(40)

	firstIn := strings.Split(in, "\n")[0]
	firstOut := strings.Split(out, "\n")[0]
	assert.False(t, strings.HasPrefix(firstIn, " "), "incoming hugs the left edge")
	assert.True(t, strings.HasPrefix(firstOut, " "), "outgoing hugs the right edge")
	assert.Equal(t, 40, lipgloss.Width(firstOut))
}

func TestMessageNode_StackedBorder(t *testing.T) {
	m := NewMessage("hi", true)
	assert.Contains(t, m.Render(30), "╭")

	m.SetBubble(cell.BubbleStacked)
	assert.Contains(t, m.Render(30), "├")
}

func TestMessageNode_WrapsLongText(t *testing.T) {
	m := NewMessage(strings.Repeat("word ", 30), false)
	out := m.Render(40)
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 40)
	}
	assert.Greater(t, lipgloss.Height(out), 3)
}

func TestMessageNode_SenderOnPrimaryOnly(t *testing.T) {
	m := NewMessage("hello", true, WithSender("ada"))
	assert.Contains(t, m.Render(40), "ada")

	m.SetBubble(cell.BubbleStacked)
	assert.NotContains(t, m.Render(40), "ada")

	out := NewMessage("hello", false, WithSender("ada"))
	assert.NotContains(t, out.Render(40), "ada")
}

func TestMessageNode_Timestamp(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMessage("hello", true,
		WithSentAt(now.Add(-3*time.Minute)),
		WithClock(func() time.Time { return now }),
		WithTimestamp(true),
	)
	assert.Contains(t, m.Render(40), "3 minutes ago")

	m.SetShowTimestamp(false)
	assert.NotContains(t, m.Render(40), "ago")
}

func TestMessageNode_Markdown(t *testing.T) {
	m := NewMessage("# Title\n\nsome **bold** text", true, WithKind(KindMarkdown, ""))
	out := m.Render(60)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
	assert.Equal(t, KindMarkdown, m.Kind())
}

func TestMessageNode_CodePlainWithoutColor(t *testing.T) {
	m := NewMessage("func main() {}", false, WithKind(KindCode, "go"))
	assert.Contains(t, m.Render(60), "func main() {}")
}

func TestHighlightCode(t *testing.T) {
	out := highlightCode("package main", "go")
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "main")
}

func TestTrimBlankLines(t *testing.T) {
	assert.Equal(t, "a\n\nb", trimBlankLines("\n  \na  \n\nb\n   \n"))
	assert.Equal(t, "", trimBlankLines("\n\n"))
}

func TestHeadLoadingIndicator(t *testing.T) {
	h := NewHeadLoadingIndicator()
	base := h.start
	h.now = func() time.Time { return base }
	first := h.Frame()

	h.now = func() time.Time { return base.Add(h.FrameInterval()) }
	assert.NotEqual(t, first, h.Frame())

	out := h.Render(50)
	assert.Contains(t, out, "loading earlier messages")
	assert.Equal(t, 50, lipgloss.Width(out))
	assert.Equal(t, cell.Insets{Bottom: 1}, h.Padding())
}

func TestMessageSentIndicator(t *testing.T) {
	s := NewMessageSentIndicator("")
	assert.Equal(t, DefaultSentLabel, s.Label())

	out := s.Render(30)
	assert.Equal(t, 30, lipgloss.Width(out))
	assert.Equal(t, "Sent", strings.TrimSpace(out))
	assert.Equal(t, cell.Insets{}, s.Padding())

	s.SetLabel("Delivered")
	assert.Equal(t, "Delivered", strings.TrimSpace(s.Render(30)))

	s.SetLabel("")
	assert.Equal(t, "Sent", s.Label())
	assert.LessOrEqual(t, lipgloss.Width(NewMessageSentIndicator("Delivered").Render(4)), 4)
}

func TestTypingIndicator(t *testing.T) {
	ti := NewTypingIndicator("ada")
	require.True(t, ti.IsIncoming())
	base := ti.start
	ti.now = func() time.Time { return base.Add(2 * ti.FrameInterval()) }

	out := ti.Render(40)
	assert.Contains(t, out, "ada")
	assert.Contains(t, out, spinner.Points.Frames[2])
	assert.Equal(t, spinner.Points.FPS, ti.FrameInterval())
	assert.Equal(t, "ada", ti.Who())
}

func TestFrameAt(t *testing.T) {
	frames := []string{"a", "b", "c"}
	assert.Equal(t, "a", frameAt(frames, time.Second, 0))
	assert.Equal(t, "c", frameAt(frames, time.Second, 2*time.Second))
	assert.Equal(t, "a", frameAt(frames, time.Second, 3*time.Second))
	assert.Equal(t, "a", frameAt(frames, 0, time.Hour))
	assert.Equal(t, "", frameAt(nil, time.Second, 0))
}
