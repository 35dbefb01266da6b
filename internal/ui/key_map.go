package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	enter      key.Binding
	back       key.Binding
	like       key.Binding
	search     key.Binding
	nextPage   key.Binding
	prevPage   key.Binding
	switchList key.Binding
	places     key.Binding
	add        key.Binding
	wishlist   key.Binding
	kind       key.Binding
	remove     key.Binding
	visibility key.Binding
	dismiss    key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		like:       key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
		search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		nextPage:   key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n/→", "next page")),
		prevPage:   key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p/←", "prev page")),
		switchList: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "mine/public")),
		places:     key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "places")),
		add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add vinyls")),
		wishlist:   key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "wishlist")),
		kind:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "albums/artists")),
		remove:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
		visibility: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "visibility")),
		dismiss:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dismiss")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.like, k.search, k.nextPage, k.prevPage},
		{k.add, k.wishlist, k.remove, k.visibility},
		{k.dismiss, k.quit},
	}
}
