package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the feed key bindings
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Read    key.Binding
	ReadAll key.Binding
	Dismiss key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the feed key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Read: key.NewBinding(
			key.WithKeys("r", "enter"),
			key.WithHelp("r", "mark read"),
		),
		ReadAll: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "mark all read"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dismiss"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Read, k.Dismiss, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Read, k.ReadAll, k.Dismiss},
		{k.Help, k.Quit},
	}
}
