// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package messenger

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/nmessenger-tui/internal/cell"
	"github.com/jeranaias/nmessenger-tui/internal/content"
	"github.com/jeranaias/nmessenger-tui/internal/group"
	"github.com/jeranaias/nmessenger-tui/internal/listview"
	"github.com/jeranaias/nmessenger-tui/internal/mainloop"
	"github.com/jeranaias/nmessenger-tui/internal/ui/styles"
)

type textCell struct {
	cell.Base
	text string
}

func msg(text string) *textCell { return &textCell{text: text} }

func (c *textCell) Render(width int) string { return c.text }

type fetchDelegate struct {
	calls   atomic.Int32
	fetched chan struct{}
}

func newFetchDelegate() *fetchDelegate {
	return &fetchDelegate{fetched: make(chan struct{}, 8)}
}

func (d *fetchDelegate) BatchFetchContent() {
	d.calls.Add(1)
	d.fetched <- struct{}{}
}

type update struct {
	name      string
	paths     []listview.IndexPath
	animation listview.Animation
}

// spyAdapter records every update made against the list and can run a
// hook just before a batch commits.
type spyAdapter struct {
	listview.Adapter

	mu    sync.Mutex
	calls []update
	onEnd func()
}

func (s *spyAdapter) record(c update) {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
}

func (s *spyAdapter) Calls() []update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]update(nil), s.calls...)
}

func (s *spyAdapter) Reset() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

func (s *spyAdapter) BeginUpdates() {
	s.record(update{name: "begin"})
	s.Adapter.BeginUpdates()
}

func (s *spyAdapter) InsertRows(p []listview.IndexPath, a listview.Animation) {
	s.record(update{name: "insert", paths: p, animation: a})
	s.Adapter.InsertRows(p, a)
}

func (s *spyAdapter) DeleteRows(p []listview.IndexPath, a listview.Animation) {
	s.record(update{name: "delete", paths: p, animation: a})
	s.Adapter.DeleteRows(p, a)
}

func (s *spyAdapter) ReloadSections(sections []int, a listview.Animation) {
	s.record(update{name: "reload-sections", animation: a})
	s.Adapter.ReloadSections(sections, a)
}

func (s *spyAdapter) EndUpdates(animated bool, completion func()) error {
	s.record(update{name: "end"})
	s.mu.Lock()
	hook := s.onEnd
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return s.Adapter.EndUpdates(animated, completion)
}

type harness struct {
	t        *testing.T
	ui       *mainloop.Loop
	m        *Messenger
	spy      *spyAdapter
	table    *listview.Table
	delegate *fetchDelegate
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	styles.UseProfile(termenv.Ascii)
	ui := mainloop.New().Start()
	t.Cleanup(ui.Stop)

	h := &harness{t: t, ui: ui, spy: &spyAdapter{}, delegate: newFetchDelegate()}
	opts = append([]Option{
		WithAdapter(func(ds listview.DataSource, sd listview.ScrollDelegate) listview.Adapter {
			h.table = listview.NewTable(ui, ds,
				listview.WithScrollDelegate(sd),
				listview.WithRowAnimation(time.Millisecond),
				listview.WithScrollAnimation(0),
			)
			h.spy.Adapter = h.table
			return h.spy
		}),
	}, opts...)

	m, err := New(ui, h.delegate, opts...)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	h.m = m
	return h
}

// settle waits for every queued mutation and the callbacks it scheduled.
func (h *harness) settle() {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(h.t, h.m.Wait(ctx))
	h.ui.Sync(func() {})
}

func (h *harness) names() []string {
	var out []string
	for _, c := range h.spy.Calls() {
		out = append(out, c.name)
	}
	return out
}

func TestNew_RequiresDelegate(t *testing.T) {
	ui := mainloop.New().Start()
	defer ui.Stop()

	m, err := New(ui, nil)
	require.ErrorIs(t, err, ErrNilDelegate)
	assert.Nil(t, m)
}

func TestAddSingleMessage(t *testing.T) {
	h := newHarness(t)
	a := msg("a")

	h.m.InsertMessages([]cell.Cell{a}, 0, false, listview.AnimationNone, nil)
	h.settle()

	assert.Equal(t, 1, h.m.ItemCount())
	assert.Equal(t, []cell.Cell{a}, h.m.AllMessages())
	assert.True(t, h.m.HasMessage(a))
	assert.Equal(t, h.m.ListID(), a.Owner())

	snap := h.m.Snapshot()
	assert.Equal(t, NoBuffer, snap.CellBufferStartIndex)
	assert.Empty(t, snap.CellBuffer)
}

func TestAddThenRemove(t *testing.T) {
	h := newHarness(t)
	a := msg("a")

	h.m.AddMessage(a, false)
	h.m.RemoveMessage(a, listview.AnimationFade)
	h.settle()

	assert.Equal(t, 0, h.m.ItemCount())
	assert.False(t, h.m.HasMessage(a))
	assert.Equal(t, "", a.Owner())
}

func TestInsertKeepsOrder(t *testing.T) {
	h := newHarness(t)
	a, b, c, d := msg("a"), msg("b"), msg("c"), msg("d")

	h.m.AddMessages([]cell.Cell{a, d}, false, listview.AnimationNone, nil)
	h.m.InsertMessages([]cell.Cell{b, c}, 1, false, listview.AnimationFade, nil)
	h.m.InsertMessages([]cell.Cell{msg("z")}, 99, false, listview.AnimationNone, nil)
	h.settle()

	got := h.m.AllMessages()
	require.Len(t, got, 5)
	assert.Equal(t, []cell.Cell{a, b, c, d}, got[:4])
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	h := newHarness(t)

	const n = 40
	cells := make([]cell.Cell, n)
	for i := range cells {
		cells[i] = msg(fmt.Sprint(i))
	}

	var completions atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(c cell.Cell) {
			defer wg.Done()
			h.m.AddMessages([]cell.Cell{c}, false, listview.AnimationFade, func() { completions.Add(1) })
		}(cells[i])
	}
	wg.Wait()
	h.settle()
	require.Equal(t, n, h.m.ItemCount())

	for i := 0; i < n/2; i++ {
		wg.Add(1)
		go func(c cell.Cell) {
			defer wg.Done()
			h.m.RemoveMessages([]cell.Cell{c}, listview.AnimationFade, func() { completions.Add(1) })
		}(cells[i*2])
	}
	wg.Wait()
	h.settle()

	assert.Equal(t, n/2, h.m.ItemCount())
	assert.Equal(t, int32(n+n/2), completions.Load())
	assert.Len(t, h.m.AllMessages(), n/2)
}

func TestMutationsRunInCallOrder(t *testing.T) {
	h := newHarness(t)
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		h.m.AddMessages([]cell.Cell{msg("x")}, false, listview.AnimationFade, func() { order = append(order, i) })
	}
	h.settle()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestBufferAnswersRowsDuringInsert(t *testing.T) {
	h := newHarness(t)
	a, b := msg("a"), msg("b")
	h.m.AddMessages([]cell.Cell{a, b}, false, listview.AnimationNone, nil)
	h.settle()

	x, y := msg("x"), msg("y")
	var seen []cell.Cell
	h.spy.onEnd = func() {
		for row := 0; row < 4; row++ {
			seen = append(seen, h.m.CellAt(listview.IndexPath{Section: MessageSection, Row: row}))
		}
	}
	h.m.InsertMessages([]cell.Cell{x, y}, 1, false, listview.AnimationNone, nil)
	h.settle()

	require.Len(t, seen, 4)
	assert.Same(t, a, seen[0])
	assert.Same(t, x, seen[1])
	assert.Same(t, y, seen[2])
	assert.Same(t, b, seen[3], "rows past the buffer map to their old position")
	assert.Equal(t, []cell.Cell{a, x, y, b}, h.m.AllMessages())
}

func TestEmptyOperationsCompleteOnce(t *testing.T) {
	h := newHarness(t)
	h.m.AddMessage(msg("a"), false)
	h.settle()
	h.spy.Reset()

	var adds, removes int
	h.m.AddMessages(nil, false, listview.AnimationFade, func() { adds++ })
	h.m.RemoveMessages([]cell.Cell{}, listview.AnimationFade, func() { removes++ })
	h.settle()

	assert.Equal(t, 1, adds)
	assert.Equal(t, 1, removes)
	assert.Equal(t, 1, h.m.ItemCount())
	assert.Empty(t, h.spy.Calls())
}

func TestRemoveSkipsUnknownAndDuplicates(t *testing.T) {
	h := newHarness(t)
	a, b := msg("a"), msg("b")
	h.m.AddMessages([]cell.Cell{a, b}, false, listview.AnimationNone, nil)
	h.settle()

	done := false
	h.m.RemoveMessages([]cell.Cell{a, a, msg("stranger")}, listview.AnimationNone, func() { done = true })
	h.settle()

	assert.True(t, done)
	assert.Equal(t, 1, h.m.ItemCount())
	assert.Equal(t, []cell.Cell{b}, h.m.AllMessages())
	assert.Equal(t, "", a.Owner())
	assert.Equal(t, h.m.ListID(), b.Owner())
}

func TestRemoveLeavesForeignOwnerAlone(t *testing.T) {
	h := newHarness(t)
	g := group.New(h.ui)
	t.Cleanup(g.Close)
	inner := msg("inner")
	h.ui.Sync(func() { g.AddMessageToGroup(inner, nil) })
	h.m.AddMessage(g, false)
	h.settle()

	owner := inner.Owner()
	require.NotEmpty(t, owner)
	require.NotEqual(t, h.m.ListID(), owner)

	h.m.RemoveMessages([]cell.Cell{inner}, listview.AnimationNone, nil)
	h.settle()

	assert.Equal(t, owner, inner.Owner())
	assert.True(t, g.HasMessage(inner))
	assert.True(t, h.m.HasMessage(g))
	assert.Equal(t, 1, h.m.ItemCount())
}

func TestClearAllMessages(t *testing.T) {
	h := newHarness(t)
	a, b := msg("a"), msg("b")
	typing := msg("typing")
	h.m.AddMessages([]cell.Cell{a, b}, false, listview.AnimationNone, nil)
	h.m.AddTypingIndicator(typing, false, false, nil)

	cleared := false
	h.m.ClearAllMessages(func() { cleared = true })
	h.settle()

	assert.True(t, cleared)
	assert.Equal(t, 0, h.m.ItemCount())
	assert.Empty(t, h.m.AllMessages())
	assert.Equal(t, "", a.Owner())
	assert.Equal(t, "", b.Owner())
	assert.True(t, h.m.HasIndicator(typing))

	h.m.ClearAllMessages(nil)
	h.settle()
	assert.Equal(t, 0, h.m.ItemCount())
}

func TestTypingIndicators(t *testing.T) {
	h := newHarness(t)
	h.m.AddMessage(msg("a"), false)
	h.settle()

	ti := content.NewTypingIndicator("ada")
	added := false
	h.m.AddTypingIndicator(ti, true, false, func() { added = true })
	h.settle()

	assert.True(t, added)
	assert.True(t, h.m.HasIndicator(ti))
	assert.False(t, h.m.HasMessage(ti), "indicators live outside the message section")
	assert.Equal(t, 1, h.m.NumberOfRows(IndicatorSection))
	assert.Equal(t, 1, h.m.ItemCount())

	ip, ok := h.m.lastIndexPath()
	require.True(t, ok)
	assert.Equal(t, listview.IndexPath{Section: IndicatorSection, Row: 0}, ip)

	var anims []listview.Animation
	for _, c := range h.spy.Calls() {
		if c.name == "reload-sections" {
			anims = append(anims, c.animation)
		}
	}
	assert.Equal(t, []listview.Animation{listview.AnimationLeft}, anims)

	removed := false
	h.m.RemoveTypingIndicator(ti, false, true, func() { removed = true })
	h.settle()
	assert.True(t, removed)
	assert.False(t, h.m.HasIndicator(ti))
	assert.Equal(t, 0, h.m.NumberOfRows(IndicatorSection))

	ip, ok = h.m.lastIndexPath()
	require.True(t, ok)
	assert.Equal(t, listview.IndexPath{Section: MessageSection, Row: 0}, ip)
}

func TestRemoveAbsentTypingIndicatorReleasesLock(t *testing.T) {
	h := newHarness(t)

	removed := false
	h.m.RemoveTypingIndicator(msg("ghost"), false, false, func() { removed = true })
	h.m.AddMessage(msg("a"), false)
	h.settle()

	assert.True(t, removed)
	assert.Equal(t, 1, h.m.ItemCount(), "later mutations still run")
}

func TestLastIndexPathEmpty(t *testing.T) {
	h := newHarness(t)
	_, ok := h.m.lastIndexPath()
	assert.False(t, ok)

	h.m.ScrollToLastMessage(true)
	h.m.ScrollToMessage(msg("ghost"), listview.ScrollTop, false)
	h.settle()
}

func TestScrollToLastMessage(t *testing.T) {
	h := newHarness(t)
	h.ui.Sync(func() { h.table.SetSize(20, 5) })

	var cells []cell.Cell
	for i := 0; i < 20; i++ {
		cells = append(cells, msg(fmt.Sprint(i)))
	}
	h.m.AddMessages(cells, false, listview.AnimationNone, nil)
	h.m.ScrollToLastMessage(false)
	h.settle()

	assert.Equal(t, 15, h.table.Geometry().Offset)

	h.m.ScrollToMessage(cells[2], listview.ScrollTop, false)
	h.settle()
	assert.Equal(t, 2, h.table.Geometry().Offset)
}

func TestEndBatchFetchWhileIdleIsNoop(t *testing.T) {
	h := newHarness(t)
	h.m.AddMessage(msg("a"), false)
	h.settle()
	h.spy.Reset()

	h.m.EndBatchFetchWithMessages([]cell.Cell{msg("x")})
	h.settle()

	assert.Equal(t, 1, h.m.ItemCount())
	assert.Empty(t, h.spy.Calls())
}

func TestDidScrollTracksDirection(t *testing.T) {
	h := newHarness(t)

	h.m.DidScroll(10)
	assert.Equal(t, ScrollDirectionDown, h.m.Snapshot().ScrollDirection)
	h.m.DidScroll(4)
	assert.Equal(t, ScrollDirectionUp, h.m.Snapshot().ScrollDirection)
	h.m.DidScroll(4)
	assert.Equal(t, ScrollDirectionUp, h.m.Snapshot().ScrollDirection, "no movement keeps the direction")
	assert.Equal(t, 4.0, h.m.Snapshot().LastContentOffset)
}

func TestShouldBatchFetch(t *testing.T) {
	g := listview.Geometry{Width: 40, Height: 10, ContentHeight: 100, LeadingScreens: 2}

	tests := []struct {
		name      string
		fetching  bool
		direction ScrollDirection
		geometry  listview.Geometry
		target    float64
		want      bool
	}{
		{"near top scrolling up", false, ScrollDirectionUp, g, 5, true},
		{"at trigger edge", false, ScrollDirectionUp, g, 30, true},
		{"far from top", false, ScrollDirectionUp, g, 31, false},
		{"already fetching", true, ScrollDirectionUp, g, 5, false},
		{"scrolling down", false, ScrollDirectionDown, g, 5, false},
		{"no direction", false, ScrollDirectionNone, g, 5, false},
		{"no leading screens", false, ScrollDirectionUp, listview.Geometry{Width: 40, Height: 10, ContentHeight: 100}, 5, false},
		{"zero bounds", false, ScrollDirectionUp, listview.Geometry{ContentHeight: 100, LeadingScreens: 2}, 5, false},
		{"content smaller than viewport", false, ScrollDirectionUp, listview.Geometry{Width: 40, Height: 10, ContentHeight: 6, LeadingScreens: 2}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldBatchFetch(tt.fetching, tt.direction, tt.geometry, tt.target))
		})
	}
}

func TestBatchFetchRoundTrip(t *testing.T) {
	h := newHarness(t, WithBatchFetch(true))
	h.ui.Sync(func() { h.table.SetSize(20, 5) })

	var cells []cell.Cell
	for i := 0; i < 30; i++ {
		cells = append(cells, msg(fmt.Sprint(i)))
	}
	h.m.AddMessages(cells, false, listview.AnimationNone, nil)
	h.m.ScrollToLastMessage(false)
	h.settle()

	h.ui.Sync(func() { h.table.ScrollBy(-20) })

	select {
	case <-h.delegate.fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("BatchFetchContent not called")
	}
	h.settle()

	assert.True(t, h.m.IsFetching())
	head, ok := h.table.CellForRow(listview.IndexPath{Section: MessageSection, Row: 0})
	require.True(t, ok)
	assert.IsType(t, &content.HeadLoadingIndicator{}, head)
	assert.Equal(t, 31, h.m.ItemCount())

	// A second settle near the top must not start another fetch.
	h.ui.Sync(func() { h.table.ScrollBy(-1) })
	h.settle()
	assert.Equal(t, int32(1), h.delegate.calls.Load())

	older := msg("older")
	h.m.EndBatchFetchWithMessages([]cell.Cell{older})
	h.settle()

	assert.False(t, h.m.IsFetching())
	assert.Equal(t, 31, h.m.ItemCount())
	first, _ := h.table.CellForRow(listview.IndexPath{Section: MessageSection, Row: 0})
	assert.Same(t, older, first)
	assert.Equal(t, "", head.Owner())
}

func TestEndBatchFetchTwiceKeepsFetchedMessages(t *testing.T) {
	h := newHarness(t, WithBatchFetch(true))
	h.ui.Sync(func() { h.table.SetSize(20, 5) })

	var cells []cell.Cell
	for i := 0; i < 30; i++ {
		cells = append(cells, msg(fmt.Sprint(i)))
	}
	h.m.AddMessages(cells, false, listview.AnimationNone, nil)
	h.m.ScrollToLastMessage(false)
	h.settle()

	h.ui.Sync(func() { h.table.ScrollBy(-20) })
	select {
	case <-h.delegate.fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("BatchFetchContent not called")
	}
	h.settle()
	require.Equal(t, 31, h.m.ItemCount())

	older := msg("older")
	dup := msg("dup")
	h.m.EndBatchFetchWithMessages([]cell.Cell{older})
	h.m.EndBatchFetchWithMessages([]cell.Cell{dup})
	h.settle()

	assert.False(t, h.m.IsFetching())
	assert.Equal(t, 31, h.m.ItemCount())
	assert.True(t, h.m.HasMessage(older))
	assert.False(t, h.m.HasMessage(dup))
	first, _ := h.table.CellForRow(listview.IndexPath{Section: MessageSection, Row: 0})
	assert.Same(t, older, first)
	second, _ := h.table.CellForRow(listview.IndexPath{Section: MessageSection, Row: 1})
	assert.Same(t, cells[0], second)
}

func TestBatchFetchDisabled(t *testing.T) {
	h := newHarness(t)
	h.ui.Sync(func() { h.table.SetSize(20, 5) })

	var cells []cell.Cell
	for i := 0; i < 30; i++ {
		cells = append(cells, msg(fmt.Sprint(i)))
	}
	h.m.AddMessages(cells, false, listview.AnimationNone, nil)
	h.m.ScrollToLastMessage(false)
	h.settle()

	h.ui.Sync(func() { h.table.ScrollBy(-20) })
	h.settle()
	assert.False(t, h.m.IsFetching())
	assert.Equal(t, 30, h.m.ItemCount())

	h.m.SetDoesBatchFetch(true)
	assert.True(t, h.m.DoesBatchFetch())
}

type indicatorDelegate struct {
	*fetchDelegate
	spinner cell.Cell
}

func (d *indicatorDelegate) BatchFetchLoadingIndicator() cell.Cell { return d.spinner }

func TestBatchFetchUsesDelegateIndicator(t *testing.T) {
	styles.UseProfile(termenv.Ascii)
	ui := mainloop.New().Start()
	t.Cleanup(ui.Stop)

	d := &indicatorDelegate{fetchDelegate: newFetchDelegate(), spinner: msg("custom spinner")}
	var tbl *listview.Table
	m, err := New(ui, d, WithBatchFetch(true), WithAdapter(func(ds listview.DataSource, sd listview.ScrollDelegate) listview.Adapter {
		tbl = listview.NewTable(ui, ds, listview.WithScrollDelegate(sd), listview.WithRowAnimation(0))
		return tbl
	}))
	require.NoError(t, err)
	t.Cleanup(m.Close)

	ui.Sync(func() { m.SetSize(20, 5) })
	var cells []cell.Cell
	for i := 0; i < 30; i++ {
		cells = append(cells, msg(fmt.Sprint(i)))
	}
	m.AddMessages(cells, false, listview.AnimationNone, nil)
	m.ScrollToLastMessage(false)
	require.NoError(t, m.Wait(context.Background()))

	ui.Sync(func() { m.ScrollBy(-20) })
	<-d.fetched
	require.NoError(t, m.Wait(context.Background()))
	ui.Sync(func() {})

	head, ok := tbl.CellForRow(listview.IndexPath{Section: MessageSection, Row: 0})
	require.True(t, ok)
	assert.Same(t, d.spinner, head)
	assert.NotEmpty(t, m.View())
}

func TestRemoveLastMessageRemovesGroup(t *testing.T) {
	for _, incoming := range []bool{true, false} {
		t.Run(fmt.Sprintf("incoming=%v", incoming), func(t *testing.T) {
			h := newHarness(t)
			g := group.New(h.ui, group.WithTableAnimationDelay(time.Millisecond), group.WithAvatarAnimationSpeed(time.Millisecond))
			t.Cleanup(g.Close)
			g.SetIncoming(incoming)
			only := msg("only")
			h.ui.Sync(func() { g.AddMessageToGroup(only, nil) })

			h.m.AddMessage(g, false)
			h.settle()
			require.True(t, h.m.HasMessage(g))
			h.spy.Reset()

			done := make(chan struct{})
			h.m.RemoveMessageFromMessageGroup(only, g, false, listview.ScrollNone, func() { close(done) })
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("completion not called")
			}
			h.settle()

			assert.False(t, h.m.HasMessage(g))
			assert.Equal(t, 0, h.m.ItemCount())

			want := listview.AnimationRight
			if incoming {
				want = listview.AnimationLeft
			}
			var deletes []update
			for _, c := range h.spy.Calls() {
				if c.name == "delete" {
					deletes = append(deletes, c)
				}
			}
			require.Len(t, deletes, 1)
			assert.Equal(t, want, deletes[0].animation)
		})
	}
}

func TestGroupHelpers(t *testing.T) {
	h := newHarness(t)
	h.ui.Sync(func() { h.table.SetSize(60, 20) })

	g := group.New(h.ui,
		group.WithTableAnimationDelay(time.Millisecond),
		group.WithAvatarAnimationSpeed(time.Millisecond),
	)
	t.Cleanup(g.Close)
	first := msg("first")
	h.ui.Sync(func() { g.AddMessageToGroup(first, nil) })
	h.m.AddMessage(g, false)
	h.settle()
	require.True(t, g.HasLaidOut(), "rendering the messenger lays out the group")

	second := msg("second")
	added := make(chan struct{})
	h.m.AddMessageToMessageGroup(second, g, true, func() { close(added) })
	<-added
	h.settle()
	assert.Equal(t, []cell.Cell{first, second}, g.Messages())

	third := msg("third")
	at := make(chan struct{})
	h.m.AddMessageToMessageGroupAt(third, g, true, listview.ScrollNone, func() { close(at) })
	<-at
	h.settle()

	repl := msg("deux")
	replaced := make(chan struct{})
	h.m.ReplaceMessageInMessageGroup(second, repl, g, func() { close(replaced) })
	<-replaced
	assert.Equal(t, []cell.Cell{first, repl, third}, g.Messages())

	removed := make(chan struct{})
	h.m.RemoveMessageFromMessageGroup(first, g, true, listview.ScrollTop, func() { close(removed) })
	<-removed
	h.settle()

	assert.Equal(t, []cell.Cell{repl, third}, g.Messages())
	assert.True(t, h.m.HasMessage(g), "group with messages left stays")
	assert.Contains(t, h.table.View(), "deux")
}
