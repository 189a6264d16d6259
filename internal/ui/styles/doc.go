// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling for message bubbles, avatars and
list chrome. All colors use Lip Gloss AdaptiveColor for automatic light/dark
terminal detection.

# Bubbles (theme.go)

A BubbleTheme renders content inside one of two bubble shapes:

	Primary - full rounded bubble, first message of a sender run
	Stacked - flattened top edge, follow-up messages in the same run

Incoming bubbles use the Slate palette and hug the left edge; outgoing
bubbles use the Cyan palette and hug the right edge.

# Animation (animations.go)

Easing functions map progress in [0,1] to output in [0,1] and drive avatar
and scroll tweens.

# Color profile

UseProfile pins the Lip Gloss color profile, which tests use to get plain
ASCII output:

	styles.UseProfile(termenv.Ascii)
*/
package styles
