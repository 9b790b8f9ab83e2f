package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/hirelink/internal/api"
	"github.com/felixgeelhaar/hirelink/internal/notification"
	"github.com/felixgeelhaar/hirelink/internal/realtime"
)

const stateRefresh = time.Second

// Feed is the notification source the watch view drives
type Feed interface {
	List() *notification.List
	Changes() <-chan struct{}
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
}

// ChannelState reports the live channel state
type ChannelState interface {
	State() realtime.State
}

// Model is the live notification feed
type Model struct {
	ctx     context.Context
	feed    Feed
	channel ChannelState

	// View state
	items    []api.Notification
	cursor   int
	unread   int
	state    realtime.State
	status   string
	failed   bool
	width    int
	height   int
	ready    bool
	quitting bool

	keys   KeyMap
	help   help.Model
	styles Styles
}

// Styles contains lipgloss styles for the TUI
type Styles struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Status      lipgloss.Style
	Error       lipgloss.Style
	Success     lipgloss.Style
	Warning     lipgloss.Style
	Muted       lipgloss.Style
	Border      lipgloss.Style
	Highlighted lipgloss.Style
	Unread      lipgloss.Style
}

// NewModel creates a feed model. channel may be nil when no live channel
// is available.
func NewModel(ctx context.Context, feed Feed, channel ChannelState) Model {
	m := Model{
		ctx:     ctx,
		feed:    feed,
		channel: channel,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		styles:  DefaultStyles(),
	}
	m.refresh()
	return m
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")). // Purple
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Status: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")), // Cyan
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")), // Yellow
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")). // Purple
			Padding(0, 1),
		Highlighted: lipgloss.NewStyle().
			Background(lipgloss.Color("63")).  // Purple
			Foreground(lipgloss.Color("230")). // Light yellow
			Bold(true),
		Unread: lipgloss.NewStyle().
			Bold(true),
	}
}

// Messages

// feedChangedMsg is sent when a push modified the list
type feedChangedMsg struct{}

// stateTickMsg polls the channel state
type stateTickMsg time.Time

// markedMsg reports the outcome of a mark-read request
type markedMsg struct {
	all bool
	err error
}

// Init starts listening for feed changes (required by Bubble Tea)
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.feed), tickState())
}

func waitForChange(feed Feed) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-feed.Changes(); !ok {
			return nil
		}
		return feedChangedMsg{}
	}
}

func tickState() tea.Cmd {
	return tea.Tick(stateRefresh, func(t time.Time) tea.Msg {
		return stateTickMsg(t)
	})
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case feedChangedMsg:
		m.refresh()
		return m, waitForChange(m.feed)

	case stateTickMsg:
		m.refreshState()
		return m, tickState()

	case markedMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		} else if msg.all {
			m.setStatus("All notifications marked read", false)
		}
		m.refresh()
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Read):
		if n, ok := m.selected(); ok && !n.Read {
			return m, m.markRead(n.ID)
		}

	case key.Matches(msg, m.keys.ReadAll):
		if m.unread > 0 {
			return m, m.markAllRead()
		}

	case key.Matches(msg, m.keys.Dismiss):
		if n, ok := m.selected(); ok {
			m.feed.List().Dismiss(n.ID)
			m.refresh()
		}
	}

	return m, nil
}

func (m Model) markRead(id string) tea.Cmd {
	ctx, feed := m.ctx, m.feed
	return func() tea.Msg {
		return markedMsg{err: feed.MarkRead(ctx, id)}
	}
}

func (m Model) markAllRead() tea.Cmd {
	ctx, feed := m.ctx, m.feed
	return func() tea.Msg {
		return markedMsg{all: true, err: feed.MarkAllRead(ctx)}
	}
}

// Helper functions

func (m *Model) refresh() {
	list := m.feed.List()
	m.items = list.Items()
	m.unread = list.UnreadCount()
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.refreshState()
}

func (m *Model) refreshState() {
	if m.channel != nil {
		m.state = m.channel.State()
	}
}

func (m *Model) setStatus(s string, failed bool) {
	m.status = s
	m.failed = failed
}

func (m Model) selected() (api.Notification, bool) {
	if len(m.items) == 0 {
		return api.Notification{}, false
	}
	return m.items[m.cursor], true
}
