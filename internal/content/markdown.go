// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package content

import (
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// MarkdownStyle is the glamour standard style used for markdown bodies.
var MarkdownStyle = "dark"

// CodeStyle is the chroma style used for code bodies.
var CodeStyle = "monokai"

type rendererKey struct {
	width   int
	style   string
	profile termenv.Profile
}

var (
	rendererMu sync.Mutex
	renderers  = map[rendererKey]*glamour.TermRenderer{}
)

func markdownRenderer(width int) *glamour.TermRenderer {
	key := rendererKey{width: width, style: MarkdownStyle, profile: lipgloss.ColorProfile()}

	rendererMu.Lock()
	defer rendererMu.Unlock()
	if r, ok := renderers[key]; ok {
		return r
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(key.style),
		glamour.WithWordWrap(width),
		glamour.WithColorProfile(key.profile),
	)
	if err != nil {
		return nil
	}
	renderers[key] = r
	return r
}

// renderMarkdown falls back to wrapped plain text when glamour fails.
func renderMarkdown(text string, width int) string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return ""
	}
	r := markdownRenderer(width)
	if r == nil {
		return wrap(text, width)
	}
	out, err := r.Render(text)
	if err != nil {
		return wrap(text, width)
	}
	return trimBlankLines(out)
}

// renderCode highlights code, or leaves it plain on colorless terminals.
func renderCode(code, language string, width int) string {
	code = strings.Trim(code, "\n")
	if lipgloss.ColorProfile() != termenv.Ascii {
		code = highlightCode(code, language)
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(code)
}

func highlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get(CodeStyle)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

// trimBlankLines drops the blank margin lines glamour puts around a
// document.
func trimBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	lines = lines[start:end]
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}
