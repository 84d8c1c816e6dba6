package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

type KeyMap struct {
	// global
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding

	// browse
	Up     key.Binding
	Down   key.Binding
	View   key.Binding
	Add    key.Binding
	Edit   key.Binding
	Delete key.Binding

	// dialogs
	Submit key.Binding
	Cancel key.Binding
	Yes    key.Binding
	No     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),

		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		View: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "view"),
		),

		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),

		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "ok"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Yes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "no"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Add,
		k.Edit,
		k.Delete,
		k.Help,
		k.Quit,
	}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.View},
		{k.Add, k.Edit, k.Delete},
		{k.Help, k.Quit},
	}
}

func (k KeyMap) TextShortHelp() []key.Binding {
	return []key.Binding{
		k.Submit,
		k.Cancel,
	}
}

func (k KeyMap) ConfirmShortHelp() []key.Binding {
	return []key.Binding{
		k.Yes,
		k.No,
	}
}

type textKeyMap struct{ KeyMap }

func (k textKeyMap) ShortHelp() []key.Binding { return k.KeyMap.TextShortHelp() }

type confirmKeyMap struct{ KeyMap }

func (k confirmKeyMap) ShortHelp() []key.Binding { return k.KeyMap.ConfirmShortHelp() }
