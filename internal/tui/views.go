package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/hirelink/internal/api"
	"github.com/felixgeelhaar/hirelink/internal/realtime"
)

// View renders the TUI (required by Bubble Tea)
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(m.styles.Title.Render("🔔 Notifications"))
	b.WriteString("\n")
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(m.styles.Muted.Render("No notifications yet. New ones appear here as they arrive."))
		b.WriteString("\n")
	} else {
		start, end := m.window()
		for i := start; i < end; i++ {
			b.WriteString(m.renderItem(m.items[i], i == m.cursor))
			b.WriteString("\n")
		}
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.renderStatus())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderHeader renders the channel state and unread count
func (m Model) renderHeader() string {
	state := m.styles.Muted.Render("○ offline")
	switch m.state {
	case realtime.StateConnected:
		state = m.styles.Success.Render("● live")
	case realtime.StateConnecting:
		state = m.styles.Warning.Render("◌ connecting")
	case realtime.StateDisconnected:
		state = m.styles.Error.Render("○ reconnecting")
	}

	unread := m.styles.Subtitle.Render(fmt.Sprintf("%d unread of %d", m.unread, len(m.items)))
	return state + "  " + unread
}

// window returns the item range that fits the terminal, keeping the
// cursor in view
func (m Model) window() (start, end int) {
	// header, status and help take about eight lines
	rows := m.height - 8
	if rows <= 0 || len(m.items) <= rows {
		return 0, len(m.items)
	}
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	return start, start + rows
}

// renderItem renders one notification row
func (m Model) renderItem(n api.Notification, selected bool) string {
	marker := "  "
	if !n.Read {
		marker = "• "
	}

	title := n.Title
	if title == "" {
		title = string(n.Type)
	}
	line := fmt.Sprintf("%s%s %s", marker, typeIcon(n.Type), title)
	if n.Message != "" {
		line += m.styles.Muted.Render("  " + truncate(n.Message, m.messageWidth()))
	}
	if !n.CreatedAt.IsZero() {
		line += m.styles.Muted.Render("  " + n.CreatedAt.Local().Format("Jan 2 15:04"))
	}

	switch {
	case selected:
		return m.styles.Highlighted.Render(line)
	case !n.Read:
		return m.styles.Unread.Render(line)
	default:
		return line
	}
}

// renderStatus renders the last action outcome as a small toast
func (m Model) renderStatus() string {
	color := lipgloss.Color("46") // Green
	text := m.styles.Success.Render("✓ ") + m.status
	if m.failed {
		color = lipgloss.Color("196") // Red
		text = m.styles.Error.Render("✗ ") + m.status
	}
	return m.styles.Border.BorderForeground(color).Render(text)
}

func (m Model) messageWidth() int {
	if m.width <= 0 {
		return 60
	}
	if w := m.width - 40; w > 10 {
		return w
	}
	return 10
}

func typeIcon(t api.NotificationType) string {
	switch t {
	case api.NotificationSuccess:
		return "✅"
	case api.NotificationWarning:
		return "⚠️"
	case api.NotificationError:
		return "❌"
	case api.NotificationApplicationUpdate:
		return "📄"
	case api.NotificationInterview:
		return "📅"
	default:
		return "ℹ️"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
