package ui

import "charm.land/bubbles/v2/key"

type appKeyMap struct {
	Help       key.Binding
	CheatSheet key.Binding
	Complete   key.Binding
	Next       key.Binding
	Prev       key.Binding
	Focus      key.Binding
	Account    key.Binding
	Reset      key.Binding
	Menu       key.Binding
	Back       key.Binding
	Quit       key.Binding
}

func (k appKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Focus, k.Complete, k.Next, k.Back, k.Help, k.Menu}
}

func (k appKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Focus, k.Complete, k.Next, k.Prev},
		{k.CheatSheet, k.Account, k.Reset},
		{k.Menu, k.Back, k.Help, k.Quit},
	}
}

func defaultKeyMap() appKeyMap {
	return appKeyMap{
		Help:       key.NewBinding(key.WithKeys("f1", "?"), key.WithHelp("F1", "Help")),
		CheatSheet: key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "Cheat sheet")),
		Complete:   key.NewBinding(key.WithKeys("f5", "c"), key.WithHelp("F5/c", "Complete")),
		Next:       key.NewBinding(key.WithKeys("f6", "n"), key.WithHelp("F6/n", "Next")),
		Prev:       key.NewBinding(key.WithKeys("f7", "p"), key.WithHelp("F7/p", "Previous")),
		Focus:      key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("Tab", "Focus")),
		Account:    key.NewBinding(key.WithKeys("f8"), key.WithHelp("F8", "Account")),
		Reset:      key.NewBinding(key.WithKeys("f9"), key.WithHelp("F9", "Reset")),
		Menu:       key.NewBinding(key.WithKeys("f10"), key.WithHelp("F10", "Menu")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Back")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+q"), key.WithHelp("Ctrl+Q", "Quit")),
	}
}

type rankKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	MoveUp   key.Binding
	MoveDown key.Binding
	Check    key.Binding
	Retry    key.Binding
}

var rankKeys = rankKeyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k")),
	Down:     key.NewBinding(key.WithKeys("down", "j")),
	MoveUp:   key.NewBinding(key.WithKeys("shift+up", "K", "alt+up")),
	MoveDown: key.NewBinding(key.WithKeys("shift+down", "J", "alt+down")),
	Check:    key.NewBinding(key.WithKeys("enter")),
	Retry:    key.NewBinding(key.WithKeys("r")),
}
