package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/optimistic"
	"github.com/desertthunder/vkx/internal/tasks"
)

var publicSorts = []models.PublicSort{models.SortUpdated, models.SortCreated, models.SortLikes}

// closeRows detaches every row cell of the collections list. The next load builds fresh
// cells from server state.
func (m *Model) closeRows() {
	for _, cell := range m.rowCells {
		cell.Close()
	}
	m.rowCells = map[int64]*optimistic.LikeCell{}
}

func (m *Model) onCollections(d collectionsData) (tea.Model, tea.Cmd) {
	if m.view != CollectionsView || d.public != m.public {
		return m, nil
	}
	m.loading = false
	if d.err != nil {
		m.err = d.err
		return m, nil
	}
	m.err = nil
	m.totalPages = d.page.TotalPages

	cells := make(map[int64]*optimistic.LikeCell, len(d.page.Items))
	items := make([]list.Item, len(d.page.Items))
	for i, c := range d.page.Items {
		cell, ok := m.rowCells[c.ID]
		if !ok {
			cell = m.deps.Likes.Cell(tasks.CollectionTarget, c.LikeState())
		}
		cells[c.ID] = cell
		items[i] = collectionItem{collection: c, cell: cell}
	}
	for id, cell := range m.rowCells {
		if _, kept := cells[id]; !kept {
			cell.Close()
		}
	}
	m.rowCells = cells

	m.collections.Title = "My Collections"
	if m.public {
		m.collections.Title = fmt.Sprintf("Public Collections (by %s)", m.sortBy)
	}
	return m, m.collections.SetItems(items)
}

func (m *Model) reloadCollections() tea.Cmd {
	m.loading = true
	return m.fetchCollections(m.public, m.page)
}

func (m *Model) selectedCollection() (collectionItem, bool) {
	it, ok := m.collections.SelectedItem().(collectionItem)
	return it, ok
}

func (m *Model) handleCollectionsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if it, ok := m.selectedCollection(); ok {
			return m, m.openDetail(it.collection.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.like):
		if it, ok := m.selectedCollection(); ok {
			return m, m.toggleLike(tasks.CollectionTarget, it.cell)
		}
		return m, nil
	case key.Matches(msg, m.keys.switchList):
		m.public = !m.public
		m.page = 1
		return m, m.reloadCollections()
	case msg.String() == "s" && m.public:
		for i, s := range publicSorts {
			if s == m.sortBy {
				m.sortBy = publicSorts[(i+1)%len(publicSorts)]
				break
			}
		}
		m.page = 1
		return m, m.reloadCollections()
	case key.Matches(msg, m.keys.nextPage):
		if m.page < m.totalPages {
			m.page++
			return m, m.reloadCollections()
		}
		return m, nil
	case key.Matches(msg, m.keys.prevPage):
		if m.page > 1 {
			m.page--
			return m, m.reloadCollections()
		}
		return m, nil
	case key.Matches(msg, m.keys.places):
		return m, m.openPlaces()
	case key.Matches(msg, m.keys.add):
		return m, m.openAdd(0)
	case key.Matches(msg, m.keys.dismiss):
		m.dismissNotice()
		return m, nil
	}

	var cmd tea.Cmd
	m.collections, cmd = m.collections.Update(msg)
	return m, cmd
}

func (m *Model) renderCollections() string {
	pages := ""
	if m.totalPages > 1 {
		pages = fmt.Sprintf("Page %d/%d", m.page, m.totalPages)
	}
	keys := []key.Binding{m.keys.enter, m.keys.like, m.keys.switchList, m.keys.places, m.keys.add, m.keys.quit}
	if m.totalPages > 1 {
		keys = append(keys, m.keys.nextPage, m.keys.prevPage)
	}
	return fmt.Sprintf("%s\n%s %s\n\n%s", m.collections.View(), pages, m.loadingLine(), m.help.ShortHelpView(keys))
}
