package ux

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// ToastLevel selects the toast color
type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastSuccess
	ToastError
)

// Toast is a short boxed message, used for API failures and confirmations
type Toast struct {
	Level   ToastLevel
	Title   string
	Message string
}

// ErrorToast returns a toast for a failed request message
func ErrorToast(message string) Toast {
	return Toast{Level: ToastError, Title: "Request failed", Message: message}
}

// SuccessToast returns a confirmation toast
func SuccessToast(message string) Toast {
	return Toast{Level: ToastSuccess, Title: "Done", Message: message}
}

func (t Toast) color() lipgloss.Color {
	switch t.Level {
	case ToastError:
		return lipgloss.Color("196") // Red
	case ToastSuccess:
		return lipgloss.Color("46") // Green
	default:
		return lipgloss.Color("86") // Cyan
	}
}

func (t Toast) icon() string {
	switch t.Level {
	case ToastError:
		return "✗"
	case ToastSuccess:
		return "✓"
	default:
		return "•"
	}
}

// Render returns the boxed toast
func (t Toast) Render(noColor bool) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		MaxWidth(80)
	title := lipgloss.NewStyle().Bold(true)

	if !noColor {
		box = box.BorderForeground(t.color())
		title = title.Foreground(t.color())
	}

	body := title.Render(fmt.Sprintf("%s %s", t.icon(), t.Title))
	if t.Message != "" {
		body += "\n" + t.Message
	}
	return box.Render(body)
}

// ShowToast writes the rendered toast followed by a newline
func ShowToast(w io.Writer, t Toast, noColor bool) {
	fmt.Fprintln(w, t.Render(noColor))
}
