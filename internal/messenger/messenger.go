// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package messenger implements the chat transcript controller.
//
// A Messenger owns a two-section virtualized list: section 0 holds the
// messages and section 1 the typing indicators. Every structural mutation
// goes through a FIFO lock (serial.Queue) and then runs on the UI
// goroutine; the lock is released only once the list has finished
// animating, so at most one mutation is ever in flight. Mutating methods
// never block the caller and may be called from any goroutine.
//
// Query methods (HasMessage, AllMessages, HasIndicator) do not take the
// lock. Results read during a mutation may be stale.
package messenger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/nmessenger-tui/internal/cell"
	"github.com/jeranaias/nmessenger-tui/internal/listview"
	"github.com/jeranaias/nmessenger-tui/internal/mainloop"
	"github.com/jeranaias/nmessenger-tui/internal/serial"
)

// ErrNilDelegate is returned by New without a delegate.
var ErrNilDelegate = errors.New("messenger: delegate is required")

// Delegate is implemented by the screen embedding the messenger.
type Delegate interface {
	// BatchFetchContent is called on a background goroutine when the user
	// nears the top. The delegate answers with EndBatchFetchWithMessages.
	BatchFetchContent()
}

// LoadingIndicatorProvider is optionally implemented by a Delegate to
// supply its own batch fetch spinner row.
type LoadingIndicatorProvider interface {
	BatchFetchLoadingIndicator() cell.Cell
}

// AdapterFactory builds the list engine for a messenger.
type AdapterFactory func(ds listview.DataSource, sd listview.ScrollDelegate) listview.Adapter

// =============================================================================
// OPTIONS
// =============================================================================

type options struct {
	log             zerolog.Logger
	factory         AdapterFactory
	leadingScreens  float64
	rowAnimation    time.Duration
	scrollAnimation time.Duration
	stickToBottom   bool
	doesBatchFetch  bool
	loading         func() cell.Cell
}

// Option configures a Messenger.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithAdapter replaces the default terminal list engine.
func WithAdapter(f AdapterFactory) Option {
	return func(o *options) { o.factory = f }
}

// WithLeadingScreens sets how many viewport heights from the top a batch
// fetch is triggered.
func WithLeadingScreens(n float64) Option {
	return func(o *options) { o.leadingScreens = n }
}

// WithRowAnimation sets the animated insert/remove duration.
func WithRowAnimation(d time.Duration) Option {
	return func(o *options) { o.rowAnimation = d }
}

// WithScrollAnimation sets the animated scroll duration.
func WithScrollAnimation(d time.Duration) Option {
	return func(o *options) { o.scrollAnimation = d }
}

// WithStickToBottom keeps the transcript pinned to the newest message
// while the user is reading the bottom.
func WithStickToBottom(stick bool) Option {
	return func(o *options) { o.stickToBottom = stick }
}

// WithBatchFetch enables head prefetching.
func WithBatchFetch(enabled bool) Option {
	return func(o *options) { o.doesBatchFetch = enabled }
}

// WithLoadingIndicator sets the default spinner row factory used when the
// delegate does not provide one.
func WithLoadingIndicator(f func() cell.Cell) Option {
	return func(o *options) { o.loading = f }
}

// =============================================================================
// MESSENGER
// =============================================================================

// Messenger is the message list controller.
type Messenger struct {
	ui       mainloop.Dispatcher
	delegate Delegate
	log      zerolog.Logger
	table    listview.Adapter
	lock     *serial.Queue
	batch    BatchContext
	loading  func() cell.Cell

	mu             sync.RWMutex
	state          State
	doesBatchFetch bool
}

// New creates a messenger driven on ui. The delegate is required.
func New(ui mainloop.Dispatcher, delegate Delegate, opts ...Option) (*Messenger, error) {
	if delegate == nil {
		return nil, ErrNilDelegate
	}
	o := options{
		log:            zerolog.Nop(),
		leadingScreens: listview.DefaultLeadingScreens,
		rowAnimation:   -1,
		loading:        defaultLoadingIndicator,
	}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Messenger{
		ui:             ui,
		delegate:       delegate,
		log:            o.log,
		lock:           serial.New(o.log),
		loading:        o.loading,
		state:          newState(),
		doesBatchFetch: o.doesBatchFetch,
	}

	if o.factory != nil {
		m.table = o.factory(m, m)
	} else {
		topts := []listview.Option{
			listview.WithLogger(o.log),
			listview.WithScrollDelegate(m),
			listview.WithLeadingScreens(o.leadingScreens),
			listview.WithStickToBottom(o.stickToBottom),
		}
		if o.rowAnimation >= 0 {
			topts = append(topts, listview.WithRowAnimation(o.rowAnimation))
		}
		if o.scrollAnimation > 0 {
			topts = append(topts, listview.WithScrollAnimation(o.scrollAnimation))
		}
		m.table = listview.NewTable(ui, m, topts...)
	}
	return m, nil
}

// Close stops the mutation queue and releases the list.
func (m *Messenger) Close() {
	m.lock.Close()
	if c, ok := m.table.(interface{ Close() }); ok {
		c.Close()
	}
}

// Wait blocks until every mutation issued before the call has completed.
func (m *Messenger) Wait(ctx context.Context) error {
	return m.lock.Wait(ctx)
}

// Adapter returns the list engine.
func (m *Messenger) Adapter() listview.Adapter { return m.table }

// ListID is the owner identifier given to cells in the messenger.
func (m *Messenger) ListID() string { return m.table.ID() }

// Snapshot returns a copy of the current state.
func (m *Messenger) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// SetDoesBatchFetch toggles head prefetching.
func (m *Messenger) SetDoesBatchFetch(enabled bool) {
	m.mu.Lock()
	m.doesBatchFetch = enabled
	m.mu.Unlock()
}

// DoesBatchFetch reports whether head prefetching is on.
func (m *Messenger) DoesBatchFetch() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doesBatchFetch
}

// IsFetching reports whether a batch fetch is in progress.
func (m *Messenger) IsFetching() bool { return m.batch.IsFetching() }

// =============================================================================
// VIEWPORT
// =============================================================================

// SetSize resizes the list window when the engine has one.
func (m *Messenger) SetSize(width, height int) {
	if vp, ok := m.table.(listview.Viewport); ok {
		vp.SetSize(width, height)
	}
}

// View returns the visible transcript.
func (m *Messenger) View() string {
	if vp, ok := m.table.(listview.Viewport); ok {
		return vp.View()
	}
	return ""
}

// ScrollBy scrolls the transcript as a user gesture.
func (m *Messenger) ScrollBy(delta int) {
	if vp, ok := m.table.(listview.Viewport); ok {
		vp.ScrollBy(delta)
	}
}

// =============================================================================
// DATA SOURCE
// =============================================================================

func (m *Messenger) NumberOfSections() int { return numSections }

func (m *Messenger) NumberOfRows(section int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch section {
	case MessageSection:
		return m.state.ItemCount
	case IndicatorSection:
		return len(m.state.TypingIndicators)
	default:
		return 0
	}
}

// CellAt answers rows inside an in-flight insert from the buffer. Rows
// after the buffer map back to their pre-insert position in the list.
func (m *Messenger) CellAt(ip listview.IndexPath) cell.Cell {
	m.mu.RLock()
	start, buf := m.state.CellBufferStartIndex, m.state.CellBuffer
	var indicator cell.Cell
	if ip.Section == IndicatorSection && ip.Row >= 0 && ip.Row < len(m.state.TypingIndicators) {
		indicator = m.state.TypingIndicators[ip.Row]
	}
	m.mu.RUnlock()

	switch ip.Section {
	case MessageSection:
		row := ip.Row
		if start != NoBuffer && row >= start {
			if row-start < len(buf) {
				return buf[row-start]
			}
			row -= len(buf)
		}
		c, _ := m.table.CellForRow(listview.IndexPath{Section: MessageSection, Row: row})
		return c
	case IndicatorSection:
		return indicator
	default:
		return nil
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// ItemCount returns the number of messages.
func (m *Messenger) ItemCount() int {
	return m.NumberOfRows(MessageSection)
}

// HasMessage reports whether c is displayed as a message. Not serialized
// with mutations.
func (m *Messenger) HasMessage(c cell.Cell) bool {
	ip, ok := m.table.IndexPathFor(c)
	return ok && ip.Section == MessageSection
}

// AllMessages returns the messages top to bottom. Not serialized with
// mutations.
func (m *Messenger) AllMessages() []cell.Cell {
	n := m.ItemCount()
	out := make([]cell.Cell, 0, n)
	for row := 0; row < n; row++ {
		if c, ok := m.table.CellForRow(listview.IndexPath{Section: MessageSection, Row: row}); ok {
			out = append(out, c)
		}
	}
	return out
}

// HasIndicator reports whether c is an active typing indicator.
func (m *Messenger) HasIndicator(c cell.Cell) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cell.Contains(m.state.TypingIndicators, c)
}

// lastIndexPath is the newest typing indicator, else the newest message.
func (m *Messenger) lastIndexPath() (listview.IndexPath, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n := len(m.state.TypingIndicators); n > 0 {
		return listview.IndexPath{Section: IndicatorSection, Row: n - 1}, true
	}
	if m.state.ItemCount > 0 {
		return listview.IndexPath{Section: MessageSection, Row: m.state.ItemCount - 1}, true
	}
	return listview.IndexPath{}, false
}
