// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package listview

import (
	"fmt"
	"sort"
)

// IndexPath identifies a row.
type IndexPath struct {
	Section int
	Row     int
}

func (ip IndexPath) String() string {
	return fmt.Sprintf("[%d,%d]", ip.Section, ip.Row)
}

// Animation is a row animation.
type Animation int

const (
	AnimationNone Animation = iota
	AnimationFade
	AnimationLeft
	AnimationRight
	AnimationTop
	AnimationBottom
	AnimationAutomatic
)

func (a Animation) String() string {
	switch a {
	case AnimationNone:
		return "none"
	case AnimationFade:
		return "fade"
	case AnimationLeft:
		return "left"
	case AnimationRight:
		return "right"
	case AnimationTop:
		return "top"
	case AnimationBottom:
		return "bottom"
	case AnimationAutomatic:
		return "automatic"
	default:
		return "unknown"
	}
}

// ScrollPosition is where a scrolled-to row ends up in the viewport.
type ScrollPosition int

const (
	ScrollNone ScrollPosition = iota
	ScrollTop
	ScrollMiddle
	ScrollBottom
)

// RangeIndexPaths returns n consecutive rows of section starting at start.
func RangeIndexPaths(section, start, n int) []IndexPath {
	if n <= 0 {
		return nil
	}
	out := make([]IndexPath, n)
	for i := range out {
		out[i] = IndexPath{Section: section, Row: start + i}
	}
	return out
}

// CountDiff turns an item count change into the rows to insert (positive
// delta) or delete (negative delta) starting at start.
func CountDiff(section, oldCount, newCount, start int) (inserts, deletes []IndexPath) {
	switch delta := newCount - oldCount; {
	case delta > 0:
		inserts = RangeIndexPaths(section, start, delta)
	case delta < 0:
		deletes = RangeIndexPaths(section, start, -delta)
	}
	return inserts, deletes
}

// sortRows orders rows of one section, dropping duplicates.
func sortRows(rows []int, descending bool) []int {
	seen := make(map[int]struct{}, len(rows))
	out := rows[:0:0]
	for _, r := range rows {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	if descending {
		sort.Sort(sort.Reverse(sort.IntSlice(out)))
	} else {
		sort.Ints(out)
	}
	return out
}
