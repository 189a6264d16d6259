// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package content provides the concrete cells shown in a messenger:
// text, markdown and code bubbles, the head loading indicator used during
// batch fetch, and the typing indicator.
//
// All cells draw through the bubble theme in internal/ui/styles and honor
// the bubble shape assigned by a message group, so a run of messages from
// one sender reads as a single stacked unit.
package content
