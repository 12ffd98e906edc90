package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Confirm key.Binding
	Clear   key.Binding
	Preview key.Binding
	Save    key.Binding
	Reset   key.Binding

	Bigger    key.Binding
	Smaller   key.Binding
	Bolder    key.Binding
	Lighter   key.Binding
	Align     key.Binding
	Italic    key.Binding
	Underline key.Binding
	Strike    key.Binding
	Overline  key.Binding
	ColorNext key.Binding
	ColorPrev key.Binding

	Help key.Binding
	Quit key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Confirm, k.Clear, k.Preview, k.Save, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Confirm, k.Clear},
		{k.Bigger, k.Smaller, k.Bolder, k.Lighter, k.Align},
		{k.Italic, k.Underline, k.Strike, k.Overline, k.ColorNext, k.ColorPrev},
		{k.Preview, k.Save, k.Reset, k.Help, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous")),
		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Clear:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "deselect")),
		Preview: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "preview")),
		Save:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Reset:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset")),

		Bigger:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "larger")),
		Smaller:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "smaller")),
		Bolder:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "bolder")),
		Lighter:   key.NewBinding(key.WithKeys("W"), key.WithHelp("W", "lighter")),
		Align:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "align")),
		Italic:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "italic")),
		Underline: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "underline")),
		Strike:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "strike")),
		Overline:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "overline")),
		ColorNext: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "color")),
		ColorPrev: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "color back")),

		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit: key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
}
