// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package listview

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/nmessenger-tui/internal/cell"
	"github.com/jeranaias/nmessenger-tui/internal/mainloop"
	"github.com/jeranaias/nmessenger-tui/internal/ui/styles"
)

type textCell struct {
	cell.Base
	text string

	mu      sync.Mutex
	layouts int
}

func newText(text string) *textCell { return &textCell{text: text} }

func (c *textCell) Render(width int) string { return c.text }

func (c *textCell) LayoutDidFinish() {
	c.mu.Lock()
	c.layouts++
	c.mu.Unlock()
}

// sliceSource serves rows straight from slices; tests mutate them before
// issuing the matching row updates.
type sliceSource struct {
	sections [][]cell.Cell
}

func (s *sliceSource) NumberOfSections() int { return len(s.sections) }

func (s *sliceSource) NumberOfRows(section int) int { return len(s.sections[section]) }

func (s *sliceSource) CellAt(ip IndexPath) cell.Cell { return s.sections[ip.Section][ip.Row] }

type scrollSpy struct {
	scrolls []float64
	ends    []float64
}

func (s *scrollSpy) DidScroll(offset float64)             { s.scrolls = append(s.scrolls, offset) }
func (s *scrollSpy) WillEndDragging(targetOffset float64) { s.ends = append(s.ends, targetOffset) }

func newTestTable(t *testing.T, ds DataSource, opts ...Option) (*Table, *mainloop.Loop) {
	t.Helper()
	styles.UseProfile(termenv.Ascii)
	ui := mainloop.New().Start()
	t.Cleanup(ui.Stop)
	opts = append([]Option{WithRowAnimation(0), WithScrollAnimation(0)}, opts...)
	var tbl *Table
	ui.Sync(func() { tbl = NewTable(ui, ds, opts...) })
	t.Cleanup(tbl.Close)
	return tbl, ui
}

func cells(texts ...string) []cell.Cell {
	out := make([]cell.Cell, len(texts))
	for i, s := range texts {
		out[i] = newText(s)
	}
	return out
}

func texts(tbl *Table, section int) []string {
	var out []string
	for r := 0; r < tbl.NumberOfRows(section); r++ {
		c, _ := tbl.CellForRow(IndexPath{Section: section, Row: r})
		out = append(out, c.(*textCell).text)
	}
	return out
}

func TestTable_InitialLoad(t *testing.T) {
	ds := &sliceSource{sections: [][]cell.Cell{cells("a", "b"), nil}}
	tbl, _ := newTestTable(t, ds)

	assert.Equal(t, 2, tbl.NumberOfRows(0))
	assert.Equal(t, 0, tbl.NumberOfRows(1))
	assert.Equal(t, 0, tbl.NumberOfRows(7))
	assert.Equal(t, []string{"a", "b"}, texts(tbl, 0))

	_, ok := tbl.CellForRow(IndexPath{Section: 0, Row: 2})
	assert.False(t, ok)

	got, ok := Lookup(tbl.ID())
	require.True(t, ok)
	assert.Same(t, tbl, got)
}

func TestTable_InsertAndDelete(t *testing.T) {
	ds := &sliceSource{sections: [][]cell.Cell{cells("a", "b", "c")}}
	tbl, ui := newTestTable(t, ds)

	done := make(chan struct{})
	ui.Sync(func() {
		// delete "b", then insert "x" at the head: deletes use old indexes,
		// inserts new ones.
		ds.sections[0] = append(cells("x"), ds.sections[0][0], ds.sections[0][2])
		tbl.BeginUpdates()
		tbl.DeleteRows([]IndexPath{{0, 1}}, AnimationFade)
		tbl.InsertRows([]IndexPath{{0, 0}}, AnimationFade)
		require.NoError(t, tbl.EndUpdates(true, func() { close(done) }))
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("completion not called")
	}
	assert.Equal(t, []string{"x", "a", "c"}, texts(tbl, 0))
}

func TestTable_CompletionIsAsync(t *testing.T) {
	ds := &sliceSource{sections: [][]cell.Cell{nil}}
	tbl, ui := newTestTable(t, ds)

	var order []string
	ui.Sync(func() {
		tbl.BeginUpdates()
		require.NoError(t, tbl.EndUpdates(false, func() { order = append(order, "completion") }))
		order = append(order, "returned")
	})
	ui.Sync(func() {})
	assert.Equal(t, []string{"returned", "completion"}, order)
}

func TestTable_NestedUpdatesCommitOnce(t *testing.T) {
	ds := &sliceSource{sections: [][]cell.Cell{nil}}
	tbl, ui := newTestTable(t, ds)

	var calls []int
	ui.Sync(func() {
		ds.sections[0] = cells("a", "b")
		tbl.BeginUpdates()
		tbl.InsertRows([]IndexPath{{0, 0}}, AnimationNone)
		tbl.BeginUpdates()
		tbl.InsertRows([]IndexPath{{0, 1}}, AnimationNone)
		require.NoError(t, tbl.EndUpdates(false, func() { calls = append(calls, 1) }))
		assert.Equal(t, 0, tbl.NumberOfRows(0), "inner end must not commit")
		require.NoError(t, tbl.EndUpdates(false, func() { calls = append(calls, 2) }))
	})
	ui.Sync(func() {})

	assert.Equal(t, []string{"a", "b"}, texts(tbl, 0))
	assert.Equal(t, []int{1, 2}, calls)
}

func TestTable_InconsistentUpdate(t *testing.T) {
	ds := &sliceSource{sections: [][]cell.Cell{cells("a")}}
	tbl, ui := newTestTable(t, ds)

	called := false
	var err error
	ui.Sync(func() {
		ds.sections[0] = cells("a", "b", "c")
		tbl.BeginUpdates()
		tbl.InsertRows([]IndexPath{{0, 1}}, AnimationNone)
		err = tbl.EndUpdates(false, func() { called = true })
	})
	ui.Sync(func() {})

	require.ErrorIs(t, err, ErrInconsistentUpdate)
	assert.True(t, called, "completion runs even when the update is rejected")
}

func TestTable_OutOfRangeDelete(t *testing.T) {
	ds := &sliceSource{sections: [][]cell.Cell{cells("a")}}
	tbl, ui := newTestTable(t, ds)

	var err error
	ui.Sync(func() {
		tbl.BeginUpdates()
		tbl.DeleteRows([]IndexPath{{0, 4}}, AnimationNone)
		err = tbl.EndUpdates(false, nil)
	})
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Equal(t, 1, tbl.NumberOfRows(0))
}

func TestTable_ReloadSection(t *testing.T) {
	ds := &sliceSource{sections: [][]cell.Cell{cells("a"), nil}}
	tbl, ui := newTestTable(t, ds)

	ui.Sync(func() {
		ds.sections[1] = cells("typing")
		tbl.BeginUpdates()
		tbl.ReloadSections([]int{1}, AnimationLeft)
		require.NoError(t, tbl.EndUpdates(false, nil))
	})
	assert.Equal(t, []string{"typing"}, texts(tbl, 1))
	assert.Equal(t, []string{"a"}, texts(tbl, 0))
}

func TestTable_IndexPathFor(t *testing.T) {
	ds := &sliceSource{sections: [][]cell.Cell{cells("a", "b"), cells("c")}}
	tbl, _ := newTestTable(t, ds)

	ip, ok := tbl.IndexPathFor(ds.sections[1][0])
	require.True(t, ok)
	assert.Equal(t, IndexPath{Section: 1, Row: 0}, ip)

	_, ok = tbl.IndexPathFor(newText("stranger"))
	assert.False(t, ok)
	_, ok = tbl.IndexPathFor(nil)
	assert.False(t, ok)
}

func TestTable_RenderSpansAndLayout(t *testing.T) {
	multi := newText("one\ntwo")
	ds := &sliceSource{sections: [][]cell.Cell{{newText("a"), multi}}}
	tbl, ui := newTestTable(t, ds)

	ui.Sync(func() { tbl.SetSize(20, 5) })

	sp, ok := tbl.RowSpan(IndexPath{Section: 0, Row: 1})
	require.True(t, ok)
	assert.Equal(t, Span{Top: 1, Height: 2}, sp)
	assert.Equal(t, 3, tbl.Geometry().ContentHeight)

	multi.mu.Lock()
	assert.Positive(t, multi.layouts)
	multi.mu.Unlock()

	assert.Contains(t, tbl.View(), "two")
}

func TestTable_PaddingRendered(t *testing.T) {
	c := newText("x")
	c.SetPadding(cell.Insets{Top: 1, Left: 2})
	ds := &sliceSource{sections: [][]cell.Cell{{c}}}
	tbl, _ := newTestTable(t, ds)

	lines := strings.Split(tbl.Render(10), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "  x"))
}

func TestTable_ScrollTo(t *testing.T) {
	var rows []cell.Cell
	for i := 0; i < 30; i++ {
		rows = append(rows, newText("row"))
	}
	ds := &sliceSource{sections: [][]cell.Cell{rows}}
	spy := &scrollSpy{}
	tbl, ui := newTestTable(t, ds, WithScrollDelegate(spy))

	ui.Sync(func() {
		tbl.SetSize(10, 5)
		tbl.ScrollTo(IndexPath{Section: 0, Row: 29}, ScrollBottom, false)
	})
	assert.Equal(t, 25, tbl.Geometry().Offset)
	require.NotEmpty(t, spy.scrolls)
	assert.Equal(t, 25.0, spy.scrolls[len(spy.scrolls)-1])

	ui.Sync(func() { tbl.ScrollTo(IndexPath{Section: 0, Row: 3}, ScrollTop, false) })
	assert.Equal(t, 3, tbl.Geometry().Offset)

	// Unknown rows are ignored.
	ui.Sync(func() { tbl.ScrollTo(IndexPath{Section: 0, Row: 99}, ScrollTop, false) })
	assert.Equal(t, 3, tbl.Geometry().Offset)
}

func TestTable_AnimatedScroll(t *testing.T) {
	var rows []cell.Cell
	for i := 0; i < 30; i++ {
		rows = append(rows, newText("row"))
	}
	ds := &sliceSource{sections: [][]cell.Cell{rows}}
	tbl, ui := newTestTable(t, ds, WithScrollAnimation(30*time.Millisecond))

	ui.Sync(func() {
		tbl.SetSize(10, 5)
		tbl.ScrollTo(IndexPath{Section: 0, Row: 20}, ScrollTop, true)
	})
	require.Eventually(t, func() bool {
		off := 0
		ui.Sync(func() { off = tbl.Geometry().Offset })
		return off == 20
	}, time.Second, 10*time.Millisecond)
}

func TestTable_ScrollByNotifiesDelegate(t *testing.T) {
	var rows []cell.Cell
	for i := 0; i < 20; i++ {
		rows = append(rows, newText("row"))
	}
	ds := &sliceSource{sections: [][]cell.Cell{rows}}
	spy := &scrollSpy{}
	tbl, ui := newTestTable(t, ds, WithScrollDelegate(spy))

	ui.Sync(func() {
		tbl.SetSize(10, 5)
		tbl.ScrollBy(4)
		tbl.ScrollBy(-10)
	})
	assert.Equal(t, []float64{4, 0}, spy.scrolls)
	assert.Equal(t, []float64{4, 0}, spy.ends)
}

func TestTable_AnchorKeepsReadingPosition(t *testing.T) {
	var rows []cell.Cell
	for i := 0; i < 20; i++ {
		rows = append(rows, newText("row"))
	}
	ds := &sliceSource{sections: [][]cell.Cell{rows}}
	tbl, ui := newTestTable(t, ds)

	ui.Sync(func() {
		tbl.SetSize(10, 5)
		tbl.ScrollTo(IndexPath{Section: 0, Row: 6}, ScrollTop, false)

		ds.sections[0] = append(cells("older", "oldest"), ds.sections[0]...)
		tbl.InsertRows(RangeIndexPaths(0, 0, 2), AnimationNone)
	})
	assert.Equal(t, 8, tbl.Geometry().Offset)
}

func TestTable_StickToBottom(t *testing.T) {
	var rows []cell.Cell
	for i := 0; i < 10; i++ {
		rows = append(rows, newText("row"))
	}
	ds := &sliceSource{sections: [][]cell.Cell{rows}}
	tbl, ui := newTestTable(t, ds, WithStickToBottom(true))

	ui.Sync(func() {
		tbl.SetSize(10, 5)
		tbl.ScrollTo(IndexPath{Section: 0, Row: 9}, ScrollBottom, false)
		ds.sections[0] = append(ds.sections[0], newText("new"))
		tbl.InsertRows([]IndexPath{{0, 10}}, AnimationNone)
	})
	assert.Equal(t, 6, tbl.Geometry().Offset)
}

func TestTable_OnUpdateHook(t *testing.T) {
	ds := &sliceSource{sections: [][]cell.Cell{nil}}
	n := 0
	tbl, ui := newTestTable(t, ds, WithOnUpdate(func() { n++ }))

	ui.Sync(func() {
		ds.sections[0] = cells("a")
		tbl.InsertRows([]IndexPath{{0, 0}}, AnimationNone)
		tbl.SetNeedsLayout()
	})
	assert.Equal(t, 1, n)
}

func TestTable_CloseUnregisters(t *testing.T) {
	ds := &sliceSource{sections: [][]cell.Cell{nil}}
	ui := mainloop.New().Start()
	defer ui.Stop()

	tbl := NewTable(ui, ds)
	_, ok := Lookup(tbl.ID())
	require.True(t, ok)
	tbl.Close()
	_, ok = Lookup(tbl.ID())
	assert.False(t, ok)
}
