// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package listview

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jeranaias/nmessenger-tui/internal/anim"
	"github.com/jeranaias/nmessenger-tui/internal/cell"
	"github.com/jeranaias/nmessenger-tui/internal/mainloop"
	"github.com/jeranaias/nmessenger-tui/internal/ui/styles"
)

// DefaultLeadingScreens is the batch fetch trigger distance in viewports.
const DefaultLeadingScreens = 2.0

// =============================================================================
// OPTIONS
// =============================================================================

// Option configures a Table.
type Option func(*Table)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(t *Table) { t.log = log }
}

// WithRowAnimation sets how long animated updates take before completion.
func WithRowAnimation(d time.Duration) Option {
	return func(t *Table) { t.rowAnimation = d }
}

// WithScrollAnimation sets the animated scroll duration.
func WithScrollAnimation(d time.Duration) Option {
	return func(t *Table) { t.scrollAnimation = d }
}

// WithScrollDelegate sets the scroll observer.
func WithScrollDelegate(d ScrollDelegate) Option {
	return func(t *Table) { t.delegate = d }
}

// WithLeadingScreens sets the batch fetch trigger distance.
func WithLeadingScreens(n float64) Option {
	return func(t *Table) { t.leadingScreens = n }
}

// WithStickToBottom keeps the viewport pinned to the last line when it was
// there before an update.
func WithStickToBottom(stick bool) Option {
	return func(t *Table) { t.stickToBottom = stick }
}

// WithOnUpdate registers a hook run after every committed update.
func WithOnUpdate(fn func()) Option {
	return func(t *Table) { t.onUpdate = fn }
}

// =============================================================================
// TABLE
// =============================================================================

var (
	_ Adapter  = (*Table)(nil)
	_ Viewport = (*Table)(nil)
)

type opKind int

const (
	opInsert opKind = iota
	opDelete
	opReloadRows
	opReloadSections
)

type op struct {
	kind      opKind
	paths     []IndexPath
	sections  []int
	animation Animation
}

type anchor struct {
	id   string
	into int
	ok   bool
}

// Table is a terminal list engine. Mutations must run on the UI goroutine;
// row queries are safe from any goroutine.
type Table struct {
	id       string
	ui       mainloop.Dispatcher
	ds       DataSource
	log      zerolog.Logger
	delegate ScrollDelegate
	onUpdate func()

	rowAnimation    time.Duration
	scrollAnimation time.Duration
	leadingScreens  float64
	stickToBottom   bool

	mu            sync.RWMutex
	sections      [][]cell.Cell
	spans         map[string]Span
	fading        map[string]struct{}
	contentHeight int

	// UI goroutine only.
	vp          viewport.Model
	sized       bool
	depth       int
	ops         []op
	completions []func()
	scroll      *anim.Handle
}

var fadeStyle = lipgloss.NewStyle().Faint(true)

// NewTable creates a table fed by ds and registers it for Lookup.
func NewTable(ui mainloop.Dispatcher, ds DataSource, opts ...Option) *Table {
	t := &Table{
		id:              uuid.NewString(),
		ui:              ui,
		ds:              ds,
		log:             zerolog.Nop(),
		rowAnimation:    styles.TransitionRow.Duration,
		scrollAnimation: styles.TransitionScroll.Duration,
		leadingScreens:  DefaultLeadingScreens,
		spans:           make(map[string]Span),
		fading:          make(map[string]struct{}),
		vp:              viewport.New(0, 0),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.ReloadData()
	Register(t)
	return t
}

// ID returns the registry identifier handed to cells as their owner.
func (t *Table) ID() string { return t.id }

// Close unregisters the table.
func (t *Table) Close() {
	Unregister(t.id)
}

// SetScrollDelegate replaces the scroll observer.
func (t *Table) SetScrollDelegate(d ScrollDelegate) {
	t.delegate = d
}

// SetLeadingScreens updates the batch fetch trigger distance.
func (t *Table) SetLeadingScreens(n float64) {
	t.mu.Lock()
	t.leadingScreens = n
	t.mu.Unlock()
}

// SetRowAnimation updates the animated update duration.
func (t *Table) SetRowAnimation(d time.Duration) {
	t.rowAnimation = d
}

// ReloadData discards the rows and asks the data source again.
func (t *Table) ReloadData() {
	n := t.ds.NumberOfSections()
	sections := make([][]cell.Cell, n)
	for s := 0; s < n; s++ {
		sections[s] = t.loadSection(s)
	}
	t.mu.Lock()
	t.sections = sections
	t.mu.Unlock()
	t.relayout(anchor{})
}

func (t *Table) loadSection(s int) []cell.Cell {
	rows := t.ds.NumberOfRows(s)
	out := make([]cell.Cell, 0, rows)
	for r := 0; r < rows; r++ {
		if c := t.ds.CellAt(IndexPath{Section: s, Row: r}); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// QUERIES
// =============================================================================

// NumberOfRows returns the committed row count of section.
func (t *Table) NumberOfRows(section int) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if section < 0 || section >= len(t.sections) {
		return 0
	}
	return len(t.sections[section])
}

// CellForRow returns the committed cell at ip.
func (t *Table) CellForRow(ip IndexPath) (cell.Cell, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if ip.Section < 0 || ip.Section >= len(t.sections) {
		return nil, false
	}
	rows := t.sections[ip.Section]
	if ip.Row < 0 || ip.Row >= len(rows) {
		return nil, false
	}
	return rows[ip.Row], true
}

// IndexPathFor locates c among the committed rows.
func (t *Table) IndexPathFor(c cell.Cell) (IndexPath, bool) {
	if c == nil {
		return IndexPath{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	for s, rows := range t.sections {
		for r, x := range rows {
			if x == c {
				return IndexPath{Section: s, Row: r}, true
			}
		}
	}
	return IndexPath{}, false
}

// RowSpan returns where ip was drawn in the last layout.
func (t *Table) RowSpan(ip IndexPath) (Span, bool) {
	c, ok := t.CellForRow(ip)
	if !ok {
		return Span{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	sp, ok := t.spans[c.ID()]
	return sp, ok
}

// Geometry reports the viewport and content size.
func (t *Table) Geometry() Geometry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Geometry{
		Width:          t.vp.Width,
		Height:         t.vp.Height,
		ContentHeight:  t.contentHeight,
		Offset:         t.vp.YOffset,
		LeadingScreens: t.leadingScreens,
	}
}

// =============================================================================
// UPDATES
// =============================================================================

// BeginUpdates opens a batch. Batches nest; only the outermost EndUpdates
// commits.
func (t *Table) BeginUpdates() {
	t.depth++
}

// InsertRows queues inserts, addressed in post-update indexes.
func (t *Table) InsertRows(paths []IndexPath, animation Animation) {
	t.queue(op{kind: opInsert, paths: paths, animation: animation})
}

// DeleteRows queues deletes, addressed in pre-update indexes.
func (t *Table) DeleteRows(paths []IndexPath, animation Animation) {
	t.queue(op{kind: opDelete, paths: paths, animation: animation})
}

// ReloadRows queues row reloads.
func (t *Table) ReloadRows(paths []IndexPath, animation Animation) {
	t.queue(op{kind: opReloadRows, paths: paths, animation: animation})
}

// ReloadSections queues whole-section reloads.
func (t *Table) ReloadSections(sections []int, animation Animation) {
	t.queue(op{kind: opReloadSections, sections: sections, animation: animation})
}

func (t *Table) queue(o op) {
	if t.depth == 0 {
		// Outside a batch the change commits on its own.
		t.BeginUpdates()
		t.ops = append(t.ops, o)
		if err := t.EndUpdates(o.animation != AnimationNone, nil); err != nil {
			t.log.Error().Err(err).Str("list", t.id).Msg("implicit update failed")
		}
		return
	}
	t.ops = append(t.ops, o)
}

// EndUpdates closes a batch. The outermost call applies every queued
// change, re-renders and schedules all collected completions.
func (t *Table) EndUpdates(animated bool, completion func()) error {
	if completion != nil {
		t.completions = append(t.completions, completion)
	}
	if t.depth > 0 {
		t.depth--
	}
	if t.depth > 0 {
		return nil
	}

	ops, completions := t.ops, t.completions
	t.ops, t.completions = nil, nil

	before := t.captureAnchor()
	faded, err := t.apply(ops, animated)
	t.relayout(before)
	if t.onUpdate != nil {
		t.onUpdate()
	}

	delay := time.Duration(0)
	if animated {
		delay = t.rowAnimation
	}
	t.ui.AsyncAfter(delay, func() {
		if len(faded) > 0 {
			t.mu.Lock()
			for _, id := range faded {
				delete(t.fading, id)
			}
			t.mu.Unlock()
			t.relayout(t.captureAnchor())
		}
		for _, fn := range completions {
			fn()
		}
	})
	return err
}

// apply runs queued ops against a copy of the rows and swaps it in.
// Reloads go first, then deletes in pre-update indexes, then inserts in
// post-update indexes.
func (t *Table) apply(ops []op, animated bool) ([]string, error) {
	if len(ops) == 0 {
		return nil, nil
	}

	t.mu.RLock()
	sections := make([][]cell.Cell, len(t.sections))
	for i, rows := range t.sections {
		sections[i] = append([]cell.Cell(nil), rows...)
	}
	t.mu.RUnlock()

	if n := t.ds.NumberOfSections(); n > len(sections) {
		sections = append(sections, make([][]cell.Cell, n-len(sections))...)
	}

	var errs []error
	var faded []string
	fade := func(c cell.Cell, a Animation) {
		if animated && a != AnimationNone && c != nil {
			faded = append(faded, c.ID())
		}
	}

	deletes := map[int][]int{}
	inserts := map[int][]int{}
	insertAnim := map[IndexPath]Animation{}

	for _, o := range ops {
		switch o.kind {
		case opReloadSections:
			for _, s := range o.sections {
				if s < 0 || s >= len(sections) {
					errs = append(errs, fmt.Errorf("%w: section %d", ErrIndexOutOfRange, s))
					continue
				}
				sections[s] = t.loadSection(s)
				for _, c := range sections[s] {
					fade(c, o.animation)
				}
			}
		case opReloadRows:
			for _, ip := range o.paths {
				if ip.Section < 0 || ip.Section >= len(sections) || ip.Row < 0 || ip.Row >= len(sections[ip.Section]) {
					errs = append(errs, fmt.Errorf("%w: reload %s", ErrIndexOutOfRange, ip))
					continue
				}
				c := t.ds.CellAt(ip)
				sections[ip.Section][ip.Row] = c
				fade(c, o.animation)
			}
		case opDelete:
			for _, ip := range o.paths {
				deletes[ip.Section] = append(deletes[ip.Section], ip.Row)
			}
		case opInsert:
			for _, ip := range o.paths {
				inserts[ip.Section] = append(inserts[ip.Section], ip.Row)
				insertAnim[ip] = o.animation
			}
		}
	}

	for s, rows := range deletes {
		if s < 0 || s >= len(sections) {
			errs = append(errs, fmt.Errorf("%w: delete in section %d", ErrIndexOutOfRange, s))
			continue
		}
		for _, r := range sortRows(rows, true) {
			if r < 0 || r >= len(sections[s]) {
				errs = append(errs, fmt.Errorf("%w: delete %s", ErrIndexOutOfRange, IndexPath{s, r}))
				continue
			}
			sections[s] = append(sections[s][:r], sections[s][r+1:]...)
		}
	}

	for s, rows := range inserts {
		if s < 0 || s >= len(sections) {
			errs = append(errs, fmt.Errorf("%w: insert in section %d", ErrIndexOutOfRange, s))
			continue
		}
		for _, r := range sortRows(rows, false) {
			if r < 0 || r > len(sections[s]) {
				errs = append(errs, fmt.Errorf("%w: insert %s", ErrIndexOutOfRange, IndexPath{s, r}))
				continue
			}
			ip := IndexPath{Section: s, Row: r}
			c := t.ds.CellAt(ip)
			sections[s] = append(sections[s], nil)
			copy(sections[s][r+1:], sections[s][r:])
			sections[s][r] = c
			fade(c, insertAnim[ip])
		}
	}

	for s := 0; s < t.ds.NumberOfSections() && s < len(sections); s++ {
		if want := t.ds.NumberOfRows(s); want != len(sections[s]) {
			errs = append(errs, fmt.Errorf("%w: section %d has %d rows, data source reports %d",
				ErrInconsistentUpdate, s, len(sections[s]), want))
		}
	}

	t.mu.Lock()
	t.sections = sections
	for _, id := range faded {
		t.fading[id] = struct{}{}
	}
	t.mu.Unlock()

	if len(errs) > 0 {
		for _, err := range errs {
			t.log.Error().Err(err).Str("list", t.id).Msg("list update")
		}
		return faded, errs[0]
	}
	return faded, nil
}

// =============================================================================
// LAYOUT
// =============================================================================

// SetSize sets the viewport size and re-renders.
func (t *Table) SetSize(width, height int) {
	t.mu.Lock()
	t.vp.Width = width
	t.vp.Height = height
	t.sized = width > 0
	t.mu.Unlock()
	t.relayout(t.captureAnchor())
}

// SetNeedsLayout re-renders the rows at the current size.
func (t *Table) SetNeedsLayout() {
	t.relayout(t.captureAnchor())
}

// Render lays every row out at width and returns the joined lines. Cells
// implementing cell.LayoutObserver are told once their row is drawn.
func (t *Table) Render(width int) string {
	t.mu.RLock()
	var rows []cell.Cell
	for _, s := range t.sections {
		rows = append(rows, s...)
	}
	fading := make(map[string]struct{}, len(t.fading))
	for id := range t.fading {
		fading[id] = struct{}{}
	}
	t.mu.RUnlock()

	var b strings.Builder
	spans := make(map[string]Span, len(rows))
	line := 0
	for _, c := range rows {
		out := renderRow(c, width)
		if _, ok := fading[c.ID()]; ok {
			out = fadeStyle.Render(out)
		}
		h := 0
		if out != "" {
			h = lipgloss.Height(out)
			if line > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(out)
		}
		spans[c.ID()] = Span{Top: line, Height: h}
		line += h
	}

	t.mu.Lock()
	t.spans = spans
	t.contentHeight = line
	t.mu.Unlock()

	for _, c := range rows {
		if obs, ok := c.(cell.LayoutObserver); ok {
			obs.LayoutDidFinish()
		}
	}
	return b.String()
}

func renderRow(c cell.Cell, width int) string {
	p := c.Padding()
	inner := width - p.Horizontal()
	if inner < 1 {
		inner = 1
	}
	out := c.Render(inner)
	if out == "" {
		return ""
	}
	if p.Zero() {
		return out
	}
	return lipgloss.NewStyle().Padding(p.Top, p.Right, p.Bottom, p.Left).Render(out)
}

// View returns the visible window.
func (t *Table) View() string {
	return t.vp.View()
}

func (t *Table) relayout(a anchor) {
	if !t.sized {
		return
	}
	wasAtBottom := t.atBottom()
	content := t.Render(t.vp.Width)

	t.mu.Lock()
	t.vp.SetContent(content)
	switch {
	case t.stickToBottom && wasAtBottom:
		t.vp.GotoBottom()
	case a.ok:
		if sp, ok := t.spans[a.id]; ok {
			t.vp.SetYOffset(sp.Top + a.into)
		}
	}
	t.mu.Unlock()
}

func (t *Table) atBottom() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.vp.YOffset >= t.contentHeight-t.vp.Height
}

// captureAnchor remembers the row at the top of the viewport so content
// inserted above it does not shift what the user is reading.
func (t *Table) captureAnchor() anchor {
	t.mu.RLock()
	defer t.mu.RUnlock()
	off := t.vp.YOffset
	for _, rows := range t.sections {
		for _, c := range rows {
			sp, ok := t.spans[c.ID()]
			if ok && sp.Height > 0 && off >= sp.Top && off < sp.Bottom() {
				return anchor{id: c.ID(), into: off - sp.Top, ok: true}
			}
		}
	}
	return anchor{}
}

// =============================================================================
// SCROLLING
// =============================================================================

// ScrollTo brings ip into view at position.
func (t *Table) ScrollTo(ip IndexPath, position ScrollPosition, animated bool) {
	sp, ok := t.RowSpan(ip)
	if !ok {
		return
	}
	g := t.Geometry()
	target := g.Offset
	switch position {
	case ScrollTop:
		target = sp.Top
	case ScrollBottom:
		target = sp.Bottom() - g.Height
	case ScrollMiddle:
		target = sp.Top - (g.Height-sp.Height)/2
	default:
		if sp.Top < g.Offset {
			target = sp.Top
		} else if sp.Bottom() > g.Offset+g.Height {
			target = sp.Bottom() - g.Height
		}
	}

	t.scroll.Cancel()
	if !animated || t.scrollAnimation <= 0 {
		t.setOffset(target)
		return
	}
	t.scroll = anim.Run(t.ui, anim.Tween{
		From:     float64(g.Offset),
		To:       float64(target),
		Duration: t.scrollAnimation,
		Easing:   styles.TransitionScroll.Easing,
		Step:     func(v float64) { t.setOffset(int(v + 0.5)) },
	})
}

// ScrollBy scrolls by delta lines as a user gesture: the delegate sees the
// scroll and then the settle target.
func (t *Table) ScrollBy(delta int) {
	t.scroll.Cancel()
	t.setOffset(t.Geometry().Offset + delta)
	if t.delegate != nil {
		t.delegate.WillEndDragging(float64(t.Geometry().Offset))
	}
}

func (t *Table) setOffset(y int) {
	t.mu.Lock()
	maxOffset := t.contentHeight - t.vp.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if y > maxOffset {
		y = maxOffset
	}
	if y < 0 {
		y = 0
	}
	t.vp.SetYOffset(y)
	t.mu.Unlock()

	if t.delegate != nil {
		t.delegate.DidScroll(float64(y))
	}
}
