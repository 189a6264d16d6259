// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package anim runs value tweens on the UI goroutine.
package anim

import (
	"sync/atomic"
	"time"

	"github.com/jeranaias/nmessenger-tui/internal/mainloop"
	"github.com/jeranaias/nmessenger-tui/internal/ui/styles"
)

// FrameInterval is the step period of a running tween.
const FrameInterval = time.Second / 60

// Tween animates a value from From to To.
type Tween struct {
	From, To float64
	Delay    time.Duration
	Duration time.Duration
	Easing   styles.EasingFunc

	// Step receives each interpolated value, the last one always To.
	Step func(v float64)
	// Done fires once; finished is false when the tween was cancelled.
	Done func(finished bool)
}

// Handle controls a running tween.
type Handle struct {
	cancelled atomic.Bool
}

// Cancel stops the tween before its next frame. Done fires with false.
func (h *Handle) Cancel() {
	if h != nil {
		h.cancelled.Store(true)
	}
}

// Run starts tw on ui. Every callback runs on the UI goroutine.
func Run(ui mainloop.Dispatcher, tw Tween) *Handle {
	h := &Handle{}
	if tw.Easing == nil {
		tw.Easing = styles.EaseLinear
	}

	finish := func(finished bool) {
		if tw.Done != nil {
			tw.Done(finished)
		}
	}

	var start time.Time
	var frame func()
	frame = func() {
		if h.cancelled.Load() {
			finish(false)
			return
		}
		progress := 1.0
		if tw.Duration > 0 {
			progress = float64(time.Since(start)) / float64(tw.Duration)
		}
		if progress >= 1 {
			if tw.Step != nil {
				tw.Step(tw.To)
			}
			finish(true)
			return
		}
		if tw.Step != nil {
			tw.Step(Lerp(tw.From, tw.To, tw.Easing(progress)))
		}
		ui.AsyncAfter(FrameInterval, frame)
	}

	ui.AsyncAfter(tw.Delay, func() {
		start = time.Now()
		frame()
	})
	return h
}

// Lerp interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
