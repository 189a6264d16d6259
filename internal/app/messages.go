// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/nmessenger-tui/internal/history"
)

// =============================================================================
// MESSAGES
// =============================================================================

// tickMsg drives redraws of animated rows.
type tickMsg time.Time

// historyLoadedMsg carries the newest page of stored messages.
type historyLoadedMsg struct {
	Records []history.Record
	Err     error
}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// frameInterval is how often animated rows are redrawn.
const frameInterval = 100 * time.Millisecond

func tickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func drainCmd() tea.Msg { return drainMsg{} }

// loadHistoryCmd reads the newest page from store.
func loadHistoryCmd(store *history.Store, limit int) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return historyLoadedMsg{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		recs, err := store.Latest(ctx, limit)
		return historyLoadedMsg{Records: recs, Err: err}
	}
}
