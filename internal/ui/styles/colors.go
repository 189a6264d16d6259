// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Cyan - outgoing bubbles
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// CyanDeep - outgoing bubble background
var CyanDeep = lipgloss.AdaptiveColor{Light: "#CFFAFE", Dark: "#164E63"}

// Slate - incoming bubbles
var Slate = lipgloss.AdaptiveColor{Light: "#475569", Dark: "#94A3B8"}

// SlateDeep - incoming bubble background
var SlateDeep = lipgloss.AdaptiveColor{Light: "#F1F5F9", Dark: "#1E293B"}

// Purple - avatars and typing indicators
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Amber - loading indicator
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Rose - errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextMuted - timestamps, sender labels, hints
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// TextInverse - text on colored backgrounds
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// =============================================================================
// PROFILE
// =============================================================================

// UseProfile pins the color profile for all subsequent renders.
func UseProfile(p termenv.Profile) {
	lipgloss.SetColorProfile(p)
}

// DetectProfile returns the profile of the attached terminal.
func DetectProfile() termenv.Profile {
	return termenv.EnvColorProfile()
}
