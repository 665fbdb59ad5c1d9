package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle   key.Binding
	Back     key.Binding
	Forward  key.Binding
	Restart  key.Binding
	Smaller  key.Binding
	Larger   key.Binding
	Ramp     key.Binding
	Strategy key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle:   key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "pause")),
		Back:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "-5s")),
		Forward:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "+5s")),
		Restart:  key.NewBinding(key.WithKeys("home", "0"), key.WithHelp("home", "restart")),
		Smaller:  key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "coarser")),
		Larger:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "finer")),
		Ramp:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "glyphs")),
		Strategy: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "eager/lazy")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Back, k.Forward, k.Ramp, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Back, k.Forward, k.Restart},
		{k.Smaller, k.Larger, k.Ramp, k.Strategy},
		{k.Help, k.Quit},
	}
}
