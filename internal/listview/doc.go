// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package listview is the virtualized list engine consumed by the messenger.

# Adapter

Adapter is the contract the messenger and message groups drive: row
queries, batched insert/delete/reload updates closed by EndUpdates, and
scrolling. All mutating calls must happen on the UI goroutine.

# DataSource

While an update is committed the engine asks its DataSource for the cells of
inserted and reloaded rows. The engine has not seen those rows yet, so the
data source must answer from its own pending state.

# Table

Table is the terminal implementation: rows are rendered with Lip Gloss,
scrolled with a bubbles viewport, and completion callbacks are delivered on
the UI goroutine after the row animation. Tables register themselves so
cells can resolve their owner by identifier:

	if t, ok := listview.Lookup(c.Owner()); ok {
		t.SetNeedsLayout()
	}
*/
package listview
