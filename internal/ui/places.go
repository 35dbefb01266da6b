package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/vkx/internal/optimistic"
	"github.com/desertthunder/vkx/internal/shared"
	"github.com/desertthunder/vkx/internal/tasks"
)

func (m *Model) openPlaces() tea.Cmd {
	m.closeRows()
	m.view = PlacesView
	m.err = nil
	m.loading = true
	return m.fetchPlaces()
}

// closePlaces detaches every row cell of the places list.
func (m *Model) closePlaces() {
	for _, cell := range m.placeCells {
		cell.Close()
	}
	m.placeCells = map[int64]*optimistic.LikeCell{}
}

func (m *Model) onPlaces(d placesData) (tea.Model, tea.Cmd) {
	if m.view != PlacesView {
		return m, nil
	}
	m.loading = false
	if d.err != nil {
		m.err = d.err
		return m, nil
	}

	items := make([]list.Item, len(d.places))
	for i, p := range d.places {
		cell, ok := m.placeCells[p.ID]
		if !ok {
			cell = m.deps.Likes.Cell(tasks.PlaceTarget, p.LikeState())
			m.placeCells[p.ID] = cell
		}
		items[i] = placeItem{place: p, cell: cell}
	}
	m.places.Title = fmt.Sprintf("Places (%d)", len(d.places))
	return m, m.places.SetItems(items)
}

func (m *Model) handlePlacesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.closePlaces()
		m.view = CollectionsView
		return m, m.reloadCollections()
	case key.Matches(msg, m.keys.like):
		if it, ok := m.places.SelectedItem().(placeItem); ok {
			return m, m.toggleLike(tasks.PlaceTarget, it.cell)
		}
		return m, nil
	case msg.String() == "o":
		if it, ok := m.places.SelectedItem().(placeItem); ok {
			target := it.place.SourceURL
			if target == "" {
				target = shared.MapURL(it.place.Latitude, it.place.Longitude)
			}
			if err := shared.OpenBrowser(target); err != nil {
				m.pushNotice(tasks.Notice{Severity: tasks.Error, Message: err.Error()})
			}
		}
		return m, nil
	case key.Matches(msg, m.keys.dismiss):
		m.dismissNotice()
		return m, nil
	}

	var cmd tea.Cmd
	m.places, cmd = m.places.Update(msg)
	return m, cmd
}

func (m *Model) renderPlaces() string {
	open := key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open"))
	keys := []key.Binding{m.keys.like, open, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s", m.places.View(), m.loadingLine(), m.help.ShortHelpView(keys))
}
