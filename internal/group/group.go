// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package group implements MessageGroup, a cell that stacks consecutive
// messages from one sender under a single avatar and animates messages
// being added, removed and replaced.
//
// Mutations must run on the UI goroutine. Queries are safe anywhere.
package group

import (
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/jeranaias/nmessenger-tui/internal/anim"
	"github.com/jeranaias/nmessenger-tui/internal/cell"
	"github.com/jeranaias/nmessenger-tui/internal/listview"
	"github.com/jeranaias/nmessenger-tui/internal/mainloop"
	"github.com/jeranaias/nmessenger-tui/internal/ui/styles"
)

// State is the pending transition of a group.
type State int

const (
	StateNone State = iota
	StateAdded
	StateRemoved
	StateReplaced
)

func (s State) String() string {
	switch s {
	case StateAdded:
		return "added"
	case StateRemoved:
		return "removed"
	case StateReplaced:
		return "replaced"
	default:
		return "none"
	}
}

const (
	// DefaultTableAnimationDelay is how long the inner list takes to
	// animate a row change.
	DefaultTableAnimationDelay = 300 * time.Millisecond
	// DefaultAvatarAnimationSpeed is how long the avatar takes to move.
	DefaultAvatarAnimationSpeed = 150 * time.Millisecond
	// DefaultMessageOffset is the gap, in columns, kept between the group
	// and the far edge of the row.
	DefaultMessageOffset = 2
)

// MessageCellDelegate receives avatar clicks.
type MessageCellDelegate interface {
	AvatarClicked(c cell.Cell)
}

// =============================================================================
// OPTIONS
// =============================================================================

// Option configures a MessageGroup.
type Option func(*MessageGroup)

// WithAnimationDelay adds a delay before every transition starts.
func WithAnimationDelay(d time.Duration) Option {
	return func(g *MessageGroup) { g.animationDelay = d }
}

// WithAvatarAnimationSpeed sets how long the avatar takes to move.
func WithAvatarAnimationSpeed(d time.Duration) Option {
	return func(g *MessageGroup) { g.avatarSpeed = d }
}

// WithTableAnimationDelay sets the inner row animation duration.
func WithTableAnimationDelay(d time.Duration) Option {
	return func(g *MessageGroup) { g.tableDelay = d }
}

// WithMessageOffset sets the gap kept on the far side of the row.
func WithMessageOffset(cols int) Option {
	return func(g *MessageGroup) { g.messageOffset = cols }
}

// WithAvatar sets the avatar glyph.
func WithAvatar(glyph string) Option {
	return func(g *MessageGroup) { g.avatar = glyph }
}

// WithAvatarMarker wraps the rendered avatar, typically to register a
// mouse zone under the group ID.
func WithAvatarMarker(mark func(id, s string) string) Option {
	return func(g *MessageGroup) { g.marker = mark }
}

// WithDelegate sets the avatar click receiver.
func WithDelegate(d MessageCellDelegate) Option {
	return func(g *MessageGroup) { g.delegate = d }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(g *MessageGroup) { g.log = log }
}

// WithAdapter replaces the inner list engine. The factory receives the
// group as data source.
func WithAdapter(factory func(ds listview.DataSource) listview.Adapter) Option {
	return func(g *MessageGroup) { g.newAdapter = factory }
}

// WithTheme overrides the bubble theme used for the avatar.
func WithTheme(theme *styles.BubbleTheme) Option {
	return func(g *MessageGroup) { g.theme = theme }
}

// =============================================================================
// MESSAGE GROUP
// =============================================================================

// MessageGroup is a cell hosting an ordered run of message cells.
type MessageGroup struct {
	cell.Base

	ui         mainloop.Dispatcher
	log        zerolog.Logger
	theme      *styles.BubbleTheme
	table      listview.Adapter
	newAdapter func(ds listview.DataSource) listview.Adapter
	delegate   MessageCellDelegate
	marker     func(id, s string) string

	animationDelay time.Duration
	avatarSpeed    time.Duration
	tableDelay     time.Duration
	messageOffset  int

	mu         sync.RWMutex
	messages   []cell.Cell
	hasLaidOut bool
	state      State
	inFlight   int
	avatar     string
	// avatarLift is how many lines above the bottom row the avatar sits.
	avatarLift  float64
	avatarTween *anim.Handle
	tableWidth  int
}

// New creates an empty group.
func New(ui mainloop.Dispatcher, opts ...Option) *MessageGroup {
	g := &MessageGroup{
		ui:            ui,
		log:           zerolog.Nop(),
		theme:         styles.DefaultBubbleTheme(),
		avatarSpeed:   DefaultAvatarAnimationSpeed,
		tableDelay:    DefaultTableAnimationDelay,
		messageOffset: DefaultMessageOffset,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.newAdapter != nil {
		g.table = g.newAdapter(g)
	} else {
		g.table = listview.NewTable(ui, g,
			listview.WithLogger(g.log),
			listview.WithRowAnimation(g.tableDelay),
		)
	}
	g.SetPadding(cell.Insets{Top: 1, Left: 1, Right: 1})
	return g
}

// Close releases the inner list.
func (g *MessageGroup) Close() {
	if c, ok := g.table.(interface{ Close() }); ok {
		c.Close()
	}
}

// Adapter returns the inner list.
func (g *MessageGroup) Adapter() listview.Adapter { return g.table }

// =============================================================================
// DATA SOURCE
// =============================================================================

func (g *MessageGroup) NumberOfSections() int { return 1 }

func (g *MessageGroup) NumberOfRows(section int) int {
	if section != 0 {
		return 0
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.messages)
}

func (g *MessageGroup) CellAt(ip listview.IndexPath) cell.Cell {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if ip.Section != 0 || ip.Row < 0 || ip.Row >= len(g.messages) {
		return nil
	}
	return g.messages[ip.Row]
}

// =============================================================================
// QUERIES
// =============================================================================

// Messages returns the messages top to bottom.
func (g *MessageGroup) Messages() []cell.Cell {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]cell.Cell(nil), g.messages...)
}

// HasMessage reports whether c is in the group.
func (g *MessageGroup) HasMessage(c cell.Cell) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return cell.Contains(g.messages, c)
}

// HasLaidOut reports whether the group has been drawn at least once.
func (g *MessageGroup) HasLaidOut() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hasLaidOut
}

// State returns the transition in progress.
func (g *MessageGroup) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Avatar returns the avatar glyph, "" when there is none.
func (g *MessageGroup) Avatar() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.avatar
}

// SetAvatar replaces the avatar glyph.
func (g *MessageGroup) SetAvatar(glyph string) {
	g.mu.Lock()
	g.avatar = glyph
	g.mu.Unlock()
	g.setNeedsLayout()
}

// SetIncoming sets the direction of the group and every message in it.
func (g *MessageGroup) SetIncoming(incoming bool) {
	g.Base.SetIncoming(incoming)
	for _, m := range g.Messages() {
		m.SetIncoming(incoming)
	}
}

// AvatarClicked forwards an avatar click to the delegate.
func (g *MessageGroup) AvatarClicked() {
	if g.delegate != nil {
		g.delegate.AvatarClicked(g)
	}
}

// LayoutDidFinish marks the group as on screen; from then on mutations
// animate.
func (g *MessageGroup) LayoutDidFinish() {
	g.mu.Lock()
	g.hasLaidOut = true
	g.mu.Unlock()
}

// =============================================================================
// RENDER
// =============================================================================

// Render draws the messages with the avatar docked beside the last one.
func (g *MessageGroup) Render(width int) string {
	g.mu.RLock()
	avatar, lift, laidOut := g.avatar, g.avatarLift, g.hasLaidOut
	count := len(g.messages)
	g.mu.RUnlock()

	// Mutations before the first layout only touched the slice.
	if !laidOut && g.table.NumberOfRows(0) != count {
		g.table.ReloadSections([]int{0}, listview.AnimationNone)
	}

	incoming := g.IsIncoming()
	var avatarBlock string
	avatarWidth := 0
	if avatar != "" {
		avatarBlock = g.theme.Avatar.Render(avatar)
		avatarWidth = lipgloss.Width(avatarBlock) + 1
	}

	tableWidth := width - g.messageOffset - avatarWidth
	if tableWidth < 1 {
		tableWidth = 1
	}
	g.mu.Lock()
	g.tableWidth = tableWidth
	g.mu.Unlock()

	body := g.table.Render(tableWidth)
	if body == "" {
		return ""
	}
	if avatar == "" {
		return styles.Align(body, width, incoming)
	}

	col := g.avatarColumn(avatarBlock, avatarWidth, lipgloss.Height(body), lift, incoming)
	var row string
	if incoming {
		row = lipgloss.JoinHorizontal(lipgloss.Top, col, body)
	} else {
		row = lipgloss.JoinHorizontal(lipgloss.Top, body, col)
	}
	return styles.Align(row, width, incoming)
}

func (g *MessageGroup) avatarColumn(block string, width, height int, lift float64, incoming bool) string {
	at := height - 1 - int(lift+0.5)
	if at < 0 {
		at = 0
	}
	if at > height-1 {
		at = height - 1
	}
	if g.marker != nil {
		block = g.marker(g.ID(), block)
	}
	blank := strings.Repeat(" ", width)
	lines := make([]string, height)
	for i := range lines {
		lines[i] = blank
	}
	if incoming {
		lines[at] = block + " "
	} else {
		lines[at] = " " + block
	}
	return strings.Join(lines, "\n")
}

// rowHeight measures c as the inner list would draw it.
func (g *MessageGroup) rowHeight(c cell.Cell) int {
	g.mu.RLock()
	w := g.tableWidth
	g.mu.RUnlock()
	if w <= 0 || c == nil {
		return 0
	}
	out := c.Render(w - c.Padding().Horizontal())
	if out == "" {
		return 0
	}
	return lipgloss.Height(out) + c.Padding().Vertical()
}

func (g *MessageGroup) setNeedsLayout() {
	if a, ok := listview.Lookup(g.Owner()); ok {
		a.SetNeedsLayout()
	}
}
