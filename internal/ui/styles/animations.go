// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"math"
	"time"
)

// =============================================================================
// EASING
// =============================================================================

// EasingFunc maps progress (0-1) to output (0-1).
type EasingFunc func(t float64) float64

// TransitionConfig pairs a duration with an easing curve.
type TransitionConfig struct {
	Duration time.Duration
	Easing   EasingFunc
}

// EaseLinear - constant speed
func EaseLinear(t float64) float64 {
	return t
}

// EaseOutQuad - decelerating to zero
func EaseOutQuad(t float64) float64 {
	return t * (2 - t)
}

// EaseInOutQuad - acceleration until halfway, then deceleration
func EaseInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return -1 + (4-2*t)*t
}

// EaseOutCubic - decelerating to zero (smoother)
func EaseOutCubic(t float64) float64 {
	t--
	return t*t*t + 1
}

// EaseOutElastic - overshoot with elastic bounce
func EaseOutElastic(t float64) float64 {
	if t <= 0 || t >= 1 {
		return math.Max(0, math.Min(1, t))
	}
	const p = 0.3
	return math.Pow(2, -10*t)*math.Sin((t-p/4)*(2*math.Pi)/p) + 1
}

// Default transitions
var (
	// TransitionAvatar moves an avatar to its docked row.
	TransitionAvatar = TransitionConfig{
		Duration: 150 * time.Millisecond,
		Easing:   EaseOutQuad,
	}
	// TransitionRow is the insert/delete row animation.
	TransitionRow = TransitionConfig{
		Duration: 250 * time.Millisecond,
		Easing:   EaseOutCubic,
	}
	// TransitionScroll is an animated scroll.
	TransitionScroll = TransitionConfig{
		Duration: 150 * time.Millisecond,
		Easing:   EaseInOutQuad,
	}
)
