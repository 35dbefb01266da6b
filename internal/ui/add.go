package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/search"
	"github.com/desertthunder/vkx/internal/tasks"
)

// openAdd shows the add vinyls view. Hits are added to collectionID, or only to the wishlist when it is 0.
func (m *Model) openAdd(collectionID int64) tea.Cmd {
	m.closeRows()
	m.view = AddView
	m.err = nil
	m.addTarget = collectionID
	m.proxy.Reset()
	m.addInput.SetValue("")
	m.hits.SetItems(nil)
	m.hitCount = 0
	m.hitsLoading = false
	m.recallScope = historyScope(0)
	m.recall = search.NewRecall(nil)
	return tea.Batch(m.addInput.Focus(), m.loadRecall(m.recallScope))
}

func (m *Model) leaveAdd() tea.Cmd {
	m.addInput.Blur()
	m.proxy.Reset()
	if m.addTarget != 0 {
		return m.openDetail(m.addTarget)
	}
	m.view = CollectionsView
	return m.reloadCollections()
}

func (m *Model) onHits(d hitsData) (tea.Model, tea.Cmd) {
	if m.view != AddView {
		return m, nil
	}
	if q, _ := m.proxy.Committed(); q != d.query {
		return m, nil
	}
	m.hitsLoading = false
	if d.err != nil {
		m.err = d.err
		return m, nil
	}
	m.err = nil
	m.hitCount = len(d.hits)

	items := make([]list.Item, len(d.hits))
	for i, h := range d.hits {
		items[i] = hitItem{hit: h, adding: m.isAdding(h.Request())}
	}
	m.recall.Push(d.query)
	return m, tea.Batch(m.hits.SetItems(items), m.saveSearch(historyScope(0), d.query, len(d.hits)))
}

// refreshHits re-renders the in-flight markers of the current hits.
func (m *Model) refreshHits() {
	items := m.hits.Items()
	for i, it := range items {
		if h, ok := it.(hitItem); ok {
			h.adding = m.isAdding(h.hit.Request())
			items[i] = h
		}
	}
	m.hits.SetItems(items)
}

func (m *Model) addKey(req models.AddItemRequest) string {
	if m.addTarget == 0 {
		return wishlistAddKey(req)
	}
	return fmt.Sprintf("%d:%s", m.addTarget, req.TargetKey())
}

func wishlistAddKey(req models.AddItemRequest) string {
	return "wishlist:" + req.TargetKey()
}

func (m *Model) isAdding(req models.AddItemRequest) bool {
	return m.adding[m.addKey(req)] || m.adding[wishlistAddKey(req)]
}

// addSelected adds the selected hit to the target collection, or to the wishlist.
// A second press while the first add is in flight is ignored.
func (m *Model) addSelected(toWishlist bool) tea.Cmd {
	it, ok := m.hits.SelectedItem().(hitItem)
	if !ok {
		return nil
	}
	req := it.hit.Request()

	if toWishlist || m.addTarget == 0 {
		k := wishlistAddKey(req)
		if m.adding[k] {
			return nil
		}
		m.adding[k] = true
		m.refreshHits()
		return m.mutate(k, func(ctx context.Context) (tasks.Notice, error) {
			return m.deps.Content.AddToWishlist(ctx, req)
		})
	}

	k := m.addKey(req)
	if m.adding[k] {
		return nil
	}
	m.adding[k] = true
	m.refreshHits()
	target := m.addTarget
	return m.mutate(k, func(ctx context.Context) (tasks.Notice, error) {
		return m.deps.Content.AddItem(ctx, target, req)
	})
}

func (m *Model) switchKind() tea.Cmd {
	m.artists = !m.artists
	m.addInput.Placeholder = "Search albums"
	if m.artists {
		m.addInput.Placeholder = "Search artists"
	}
	m.hits.SetItems(nil)
	m.hitCount = 0
	text := m.addInput.Value()
	m.proxy.Reset()
	m.proxy.Input(text, m.now())
	q, ok := m.proxy.Submit(m.now())
	if !ok {
		return nil
	}
	m.hitsLoading = true
	return m.searchMusic(q, m.artists)
}

func (m *Model) handleAddInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, m.leaveAdd()
	case tea.KeyTab:
		return m, m.switchKind()
	case tea.KeyEnter:
		q, ok := m.proxy.Submit(m.now())
		if ok {
			m.hitsLoading = true
			m.addInput.Blur()
			return m, m.searchMusic(q, m.artists)
		}
		if m.hitCount > 0 {
			m.addInput.Blur()
		}
		return m, nil
	case tea.KeyUp:
		if q, ok := m.recall.Prev(); ok {
			m.addInput.SetValue(q)
			m.addInput.CursorEnd()
			return m, m.typed(m.proxy, q, proxyScope)
		}
		return m, nil
	case tea.KeyDown:
		if q, ok := m.recall.Next(); ok {
			m.addInput.SetValue(q)
			m.addInput.CursorEnd()
			return m, m.typed(m.proxy, q, proxyScope)
		}
		if m.hitCount > 0 {
			m.addInput.Blur()
		}
		return m, nil
	}

	before := m.addInput.Value()
	var cmd tea.Cmd
	m.addInput, cmd = m.addInput.Update(msg)
	if m.addInput.Value() == before {
		return m, cmd
	}
	if m.addInput.Value() == "" {
		m.hits.SetItems(nil)
		m.hitCount = 0
	}
	return m, tea.Batch(cmd, m.typed(m.proxy, m.addInput.Value(), proxyScope))
}

func (m *Model) handleAddKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.addInput.Focused() {
		return m.handleAddInput(msg)
	}

	switch {
	case msg.String() == "ctrl+c", key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		return m, m.leaveAdd()
	case key.Matches(msg, m.keys.search):
		return m, m.addInput.Focus()
	case key.Matches(msg, m.keys.kind):
		return m, m.switchKind()
	case key.Matches(msg, m.keys.enter):
		return m, m.addSelected(false)
	case key.Matches(msg, m.keys.wishlist):
		return m, m.addSelected(true)
	case key.Matches(msg, m.keys.dismiss):
		m.dismissNotice()
		return m, nil
	}

	var cmd tea.Cmd
	m.hits, cmd = m.hits.Update(msg)
	return m, cmd
}

func (m *Model) renderAdd() string {
	var b strings.Builder
	title := "Add to wishlist"
	if m.addTarget != 0 {
		title = "Add vinyls"
	}
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")
	b.WriteString(m.addInput.View())
	b.WriteString("\n")
	if hint := m.proxy.Hint(m.hitCount, m.hitsLoading); hint != "" {
		b.WriteString(styles.help.Render(hint))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.hitCount > 0 {
		b.WriteString(m.hits.View())
		b.WriteString("\n\n")
	}

	enter := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add"))
	keys := []key.Binding{enter, m.keys.wishlist, m.keys.kind, m.keys.search, m.keys.back}
	if len(m.notices) > 0 {
		keys = append(keys, m.keys.dismiss)
	}
	b.WriteString(m.help.ShortHelpView(keys))
	return b.String()
}
