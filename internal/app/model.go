// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the interactive chat client: a bubbletea program around
// the messenger list, an input bar and the message history.
package app

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/rs/zerolog"

	"github.com/jeranaias/nmessenger-tui/internal/cell"
	"github.com/jeranaias/nmessenger-tui/internal/config"
	"github.com/jeranaias/nmessenger-tui/internal/content"
	"github.com/jeranaias/nmessenger-tui/internal/group"
	"github.com/jeranaias/nmessenger-tui/internal/history"
	"github.com/jeranaias/nmessenger-tui/internal/listview"
	"github.com/jeranaias/nmessenger-tui/internal/logging"
	"github.com/jeranaias/nmessenger-tui/internal/messenger"
	"github.com/jeranaias/nmessenger-tui/internal/ui/components"
)

// chromeHeight is the status line plus the input bar.
const chromeHeight = 2

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	cfg     *config.Config // guarded by mu
	log     zerolog.Logger
	ui      *TeaDispatcher
	history *history.Store
	now     func() time.Time

	messenger *messenger.Messenger
	zones     *zone.Manager
	input     textinput.Model
	help      help.Model
	keys      KeyMap
	bar       *components.StatusBar
	status    string
	failed    bool

	width  int
	height int

	// Only touched on the event loop.
	lastGroup   *group.MessageGroup
	lastSender  string
	lastMessage cell.Cell
	typing      *content.TypingIndicator
	sent        *content.MessageSentIndicator

	// Shared with the batch fetch goroutine.
	mu      sync.Mutex
	groups  map[string]groupEntry
	records map[string]int64
	pager   *history.Pager
}

var (
	_ tea.Model                 = (*Model)(nil)
	_ group.MessageCellDelegate = (*Model)(nil)
)

// New builds the chat screen. store may be nil to run without history.
func New(cfg *config.Config, store *history.Store, log zerolog.Logger) (*Model, error) {
	m := &Model{
		cfg:     cfg,
		log:     log,
		ui:      NewTeaDispatcher(),
		history: store,
		now:     time.Now,
		zones:   zone.New(),
		help:    help.New(),
		keys:    DefaultKeyMap(),
		bar:     components.NewStatusBar(cfg.UI.Sender),
		groups:  make(map[string]groupEntry),
		records: make(map[string]int64),
	}
	applyTheme(cfg)

	msgr, err := messenger.New(m.ui, &fetcher{m: m},
		messenger.WithLogger(logging.Component(log, "messenger")),
		messenger.WithLeadingScreens(cfg.Messenger.LeadingScreens),
		messenger.WithRowAnimation(cfg.Messenger.RowAnimation()),
		messenger.WithScrollAnimation(cfg.Messenger.ScrollAnimation()),
		messenger.WithStickToBottom(cfg.Messenger.StickToBottom),
		// Enabled once the first page of history is on screen.
		messenger.WithBatchFetch(false),
	)
	if err != nil {
		return nil, err
	}
	m.messenger = msgr

	ti := textinput.New()
	ti.Placeholder = "Message"
	ti.Prompt = "› "
	ti.CharLimit = 4000
	ti.Focus()
	m.input = ti

	return m, nil
}

// settings returns the current config. The batch fetch goroutine builds
// groups too, so reads go through the lock.
func (m *Model) settings() *config.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Attach connects the dispatcher to the running program.
func (m *Model) Attach(p *tea.Program) { m.ui.Attach(p) }

// Dispatcher is the UI thread the list runs on.
func (m *Model) Dispatcher() *TeaDispatcher { return m.ui }

// Messenger exposes the message list.
func (m *Model) Messenger() *messenger.Messenger { return m.messenger }

// Close stops the list and drops pending UI work.
func (m *Model) Close() {
	m.messenger.Close()
	m.ui.Stop()
	m.zones.Close()
}

// ApplyConfig takes a reloaded configuration. Must run on the event loop;
// settings that shape existing groups apply to new groups only.
func (m *Model) ApplyConfig(cfg *config.Config) {
	applyTheme(cfg)

	m.mu.Lock()
	m.cfg = cfg
	pager := m.pager
	m.mu.Unlock()
	m.messenger.SetDoesBatchFetch(cfg.Messenger.DoesBatchFetch && pager != nil && !pager.Exhausted())
	m.messenger.Adapter().SetNeedsLayout()
	m.note("config reloaded")
}

func applyTheme(cfg *config.Config) {
	dark := !strings.EqualFold(cfg.UI.Theme, "light")
	lipgloss.SetHasDarkBackground(dark)
	if dark {
		content.MarkdownStyle = "dark"
	} else {
		content.MarkdownStyle = "light"
	}
}

// AvatarClicked is called by a group when its avatar is clicked.
func (m *Model) AvatarClicked(c cell.Cell) {
	m.mu.Lock()
	e, ok := m.groups[c.ID()]
	m.mu.Unlock()
	if !ok {
		return
	}
	n := len(e.group.Messages())
	m.note(e.sender + " · " + pluralize(n, "message"))
}

func pluralize(n int, word string) string {
	s := word
	if n != 1 {
		s += "s"
	}
	return strconv.Itoa(n) + " " + s
}

// =============================================================================
// BUBBLE TEA
// =============================================================================

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tickCmd(),
		loadHistoryCmd(m.history, m.settings().History.PageSize),
		drainCmd,
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case drainMsg:
		m.ui.Drain()
		return m, nil

	case tickMsg:
		if m.animating() {
			m.messenger.Adapter().SetNeedsLayout()
		}
		return m, tickCmd()

	case historyLoadedMsg:
		m.historyLoaded(msg)
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = msg.Width - lipgloss.Width(m.input.Prompt) - 1
		m.help.Width = msg.Width
		m.messenger.SetSize(msg.Width, max(msg.Height-chromeHeight, 1))
		return m, nil

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	transcript := m.messenger.View()
	if h := max(m.height-chromeHeight, 0); h > 0 {
		transcript = lipgloss.NewStyle().Height(h).MaxHeight(h).Render(transcript)
	}

	return m.zones.Scan(lipgloss.JoinVertical(lipgloss.Left, transcript, m.statusBar(), m.input.View()))
}

// note shows text in the status bar.
func (m *Model) note(text string) {
	m.status, m.failed = text, false
}

// fail shows text in the status bar as an error.
func (m *Model) fail(text string) {
	m.status, m.failed = text, true
}

func (m *Model) statusBar() string {
	b := m.bar
	b.SetWidth(m.width)
	b.Sender = m.settings().UI.Sender
	b.Messages = m.messageTotal()
	b.Note = m.status
	b.Hint = m.help.View(m.keys)

	switch {
	case m.failed:
		b.Status = components.StatusError
	case m.messenger.IsFetching():
		b.Status = components.StatusLoading
	case m.typing != nil:
		b.Status = components.StatusTyping
	default:
		b.Status = components.StatusReady
	}

	m.mu.Lock()
	switch {
	case m.pager == nil:
		b.History = components.HistoryOff
	case m.pager.Exhausted():
		b.History = components.HistoryComplete
	default:
		b.History = components.HistoryPaging
	}
	m.mu.Unlock()
	return b.View()
}

// =============================================================================
// INPUT
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	page := max(m.height-chromeHeight, 1)

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true
	case key.Matches(msg, m.keys.Up):
		m.messenger.ScrollBy(-1)
	case key.Matches(msg, m.keys.Down):
		m.messenger.ScrollBy(1)
	case key.Matches(msg, m.keys.PageUp):
		m.messenger.ScrollBy(-page)
	case key.Matches(msg, m.keys.PageDown):
		m.messenger.ScrollBy(page)
	case key.Matches(msg, m.keys.End):
		m.messenger.ScrollToLastMessage(true)
	case key.Matches(msg, m.keys.Typing):
		m.toggleTyping("someone")
	case key.Matches(msg, m.keys.Undo):
		m.unsend()
	case key.Matches(msg, m.keys.Clear):
		m.clear()
	case key.Matches(msg, m.keys.Submit):
		text := m.input.Value()
		m.input.Reset()
		m.submit(text)
	default:
		return nil, false
	}
	return nil, true
}

// submit handles a line from the input bar. Lines starting with a slash
// are commands:
//
//	/as NAME TEXT   post TEXT as an incoming message from NAME
//	/edit TEXT      replace the newest message
//	/typing         toggle the typing indicator
//	/clear          remove every message from the screen
func (m *Model) submit(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	m.note("")

	if !strings.HasPrefix(text, "/") {
		m.send(text)
		return
	}

	cmd, rest, _ := strings.Cut(text, " ")
	switch cmd {
	case "/as":
		name, body, ok := strings.Cut(strings.TrimSpace(rest), " ")
		if !ok || strings.TrimSpace(body) == "" {
			m.note("usage: /as NAME TEXT")
			return
		}
		m.receive(name, body)
	case "/edit":
		m.edit(rest)
	case "/typing":
		m.toggleTyping(strings.TrimSpace(rest))
	case "/clear":
		m.clear()
	default:
		m.note("unknown command " + cmd)
	}
}

func (m *Model) clear() {
	m.mu.Lock()
	gone := make([]*group.MessageGroup, 0, len(m.groups))
	for _, e := range m.groups {
		gone = append(gone, e.group)
	}
	m.mu.Unlock()

	m.messenger.ClearAllMessages(func() {
		for _, g := range gone {
			m.forgetGroup(g)
		}
	})
	m.lastGroup, m.lastMessage, m.sent = nil, nil, nil
	m.note("cleared")
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.messenger.ScrollBy(-3)
		return
	case tea.MouseButtonWheelDown:
		m.messenger.ScrollBy(3)
		return
	}
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return
	}

	m.mu.Lock()
	entries := make([]groupEntry, 0, len(m.groups))
	for _, e := range m.groups {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	for _, e := range entries {
		if m.zones.Get(e.group.ID()).InBounds(msg) {
			e.group.AvatarClicked()
			return
		}
	}
}

// =============================================================================
// HISTORY
// =============================================================================

func (m *Model) historyLoaded(msg historyLoadedMsg) {
	if msg.Err != nil {
		m.log.Error().Err(msg.Err).Msg("failed to load history")
		m.fail("history unavailable")
		return
	}
	if len(msg.Records) == 0 {
		return
	}

	cells := m.groupRecords(msg.Records)
	m.messenger.AddMessages(cells, true, listview.AnimationNone, nil)

	last := msg.Records[len(msg.Records)-1]
	if g, ok := cells[len(cells)-1].(*group.MessageGroup); ok {
		m.lastGroup, m.lastSender = g, last.Sender
		if msgs := g.Messages(); len(msgs) > 0 {
			m.lastMessage = msgs[len(msgs)-1]
		}
	}

	cfg := m.settings()
	if m.history == nil || len(msg.Records) < cfg.History.PageSize {
		return
	}
	pager := history.NewPager(m.history, cfg.History.PageSize, cfg.History.FetchInterval(), msg.Records[0].ID)
	m.mu.Lock()
	m.pager = pager
	m.mu.Unlock()
	m.messenger.SetDoesBatchFetch(cfg.Messenger.DoesBatchFetch)
}

// messageTotal counts messages inside the groups on screen.
func (m *Model) messageTotal() int {
	n := 0
	for _, c := range m.messenger.AllMessages() {
		if g, ok := c.(*group.MessageGroup); ok {
			n += len(g.Messages())
		}
	}
	return n
}

// animating reports whether a row on screen changes by itself.
func (m *Model) animating() bool {
	return m.typing != nil || m.messenger.IsFetching()
}
