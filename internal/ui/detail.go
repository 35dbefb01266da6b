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
	"github.com/desertthunder/vkx/internal/shared"
	"github.com/desertthunder/vkx/internal/tasks"
)

func (m *Model) openDetail(id int64) tea.Cmd {
	m.closeRows()
	m.view = DetailView
	m.err = nil
	m.detail = nil
	m.albumPage = 1
	m.found = nil
	m.finding = false
	m.finder.Reset()
	m.input.SetValue("")
	m.input.Blur()
	m.albums.SetItems(nil)
	m.loading = true
	m.recallScope = historyScope(id)
	m.recall = search.NewRecall(nil)
	return tea.Batch(m.fetchDetail(id), m.fetchAlbums(id, 1), m.loadRecall(m.recallScope))
}

// closeDetail detaches the detail cell. A like still in flight finishes but no longer updates the view.
func (m *Model) closeDetail() {
	if m.detailCell != nil {
		m.detailCell.Close()
		m.detailCell = nil
	}
	m.detail = nil
	m.finder.Reset()
	m.input.Blur()
}

func (m *Model) owner() bool {
	return m.detail != nil && m.detail.OwnedBy(m.deps.User)
}

func (m *Model) onDetail(d detailData) (tea.Model, tea.Cmd) {
	if m.view != DetailView {
		return m, nil
	}
	m.loading = false
	if d.err != nil {
		m.err = d.err
		return m, nil
	}
	m.detail = d.detail
	if m.detailCell == nil {
		m.detailCell = m.deps.Likes.Cell(tasks.CollectionTarget, d.detail.LikeState())
	} else {
		m.detailCell.Sync(d.detail.LikeState())
	}
	return m, nil
}

func (m *Model) onAlbums(d albumsData) (tea.Model, tea.Cmd) {
	if m.view != DetailView || (m.detail != nil && m.detail.ID != d.collectionID) {
		return m, nil
	}
	if d.err != nil {
		m.err = d.err
		return m, nil
	}
	m.pager.TotalPages = max(d.page.TotalPages, 1)
	m.pager.Page = d.page.Page - 1

	items := make([]list.Item, len(d.page.Items))
	for i, a := range d.page.Items {
		items[i] = albumItem{album: a}
	}
	m.albums.Title = fmt.Sprintf("Albums (%d)", d.page.Total)
	return m, m.albums.SetItems(items)
}

func (m *Model) onTick(d tickData) (tea.Model, tea.Cmd) {
	switch d.scope {
	case collectionScope:
		if m.view != DetailView || m.detail == nil {
			return m, nil
		}
		q, ok := m.finder.Fire(d.tag, m.now())
		if !ok {
			return m, nil
		}
		m.finding = true
		return m, m.searchCollection(m.detail.ID, q)
	case proxyScope:
		if m.view != AddView {
			return m, nil
		}
		q, ok := m.proxy.Fire(d.tag, m.now())
		if !ok {
			return m, nil
		}
		m.hitsLoading = true
		return m, m.searchMusic(q, m.artists)
	}
	return m, nil
}

func (m *Model) onSearchResults(d searchData) (tea.Model, tea.Cmd) {
	if m.detail == nil || m.detail.ID != d.collectionID {
		return m, nil
	}
	if q, _ := m.finder.Committed(); q != d.query {
		return m, nil
	}
	m.finding = false
	if d.err != nil {
		m.err = d.err
		return m, nil
	}
	m.err = nil
	m.found = d.result
	m.recall.Push(d.query)
	return m, m.saveSearch(historyScope(d.collectionID), d.query, d.result.Len())
}

// typed feeds the current input text to the controller and schedules its debounce tick.
func (m *Model) typed(ctrl *search.Controller, text string, scope searchScope) tea.Cmd {
	tag := ctrl.Input(text, m.now())
	switch ctrl.Phase() {
	case search.Idle:
		if scope == collectionScope {
			m.found = nil
			m.finding = false
		}
		return nil
	case search.TooShort:
		return nil
	}
	return debounce(ctrl.Window(), scope, tag)
}

func (m *Model) handleDetailInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		q, ok := m.finder.Submit(m.now())
		if !ok || m.detail == nil {
			return m, nil
		}
		m.finding = true
		return m, m.searchCollection(m.detail.ID, q)
	case tea.KeyUp, tea.KeyDown:
		var (
			q  string
			ok bool
		)
		if msg.Type == tea.KeyUp {
			q, ok = m.recall.Prev()
		} else {
			q, ok = m.recall.Next()
		}
		if !ok {
			return m, nil
		}
		m.input.SetValue(q)
		m.input.CursorEnd()
		return m, m.typed(m.finder, q, collectionScope)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.typed(m.finder, m.input.Value(), collectionScope))
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.input.Focused() {
		return m.handleDetailInput(msg)
	}

	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.closeDetail()
		m.view = CollectionsView
		return m, m.reloadCollections()
	case key.Matches(msg, m.keys.search):
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.like):
		return m, m.toggleLike(tasks.CollectionTarget, m.detailCell)
	case key.Matches(msg, m.keys.nextPage):
		if m.detail != nil && m.albumPage < m.pager.TotalPages {
			m.albumPage++
			return m, m.fetchAlbums(m.detail.ID, m.albumPage)
		}
		return m, nil
	case key.Matches(msg, m.keys.prevPage):
		if m.detail != nil && m.albumPage > 1 {
			m.albumPage--
			return m, m.fetchAlbums(m.detail.ID, m.albumPage)
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		return m, m.removeSelectedAlbum()
	case key.Matches(msg, m.keys.visibility):
		return m, m.switchVisibility()
	case key.Matches(msg, m.keys.add):
		if !m.owner() {
			m.pushNotice(tasks.Notice{Severity: tasks.Error, Message: "Only the collection owner can add vinyls"})
			return m, nil
		}
		id := m.detail.ID
		m.closeDetail()
		return m, m.openAdd(id)
	case key.Matches(msg, m.keys.dismiss):
		m.dismissNotice()
		return m, nil
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.albums, cmd = m.albums.Update(msg)
	return m, cmd
}

func (m *Model) removeSelectedAlbum() tea.Cmd {
	if !m.owner() {
		m.pushNotice(tasks.Notice{Severity: tasks.Error, Message: "Only the collection owner can remove albums"})
		return nil
	}
	it, ok := m.albums.SelectedItem().(albumItem)
	if !ok {
		return nil
	}
	collectionID, albumID := m.detail.ID, it.album.ID
	return m.mutate("", func(ctx context.Context) (tasks.Notice, error) {
		return m.deps.Content.RemoveAlbum(ctx, collectionID, albumID)
	})
}

func (m *Model) switchVisibility() tea.Cmd {
	if !m.owner() {
		m.pushNotice(tasks.Notice{Severity: tasks.Error, Message: "Only the collection owner can change visibility"})
		return nil
	}
	id, public := m.detail.ID, !m.detail.IsPublic
	return m.mutate("", func(ctx context.Context) (tasks.Notice, error) {
		return m.deps.Content.SwitchVisibility(ctx, id, public)
	})
}

func (m *Model) renderDetail() string {
	if m.detail == nil {
		return m.loadingLine()
	}

	var b strings.Builder
	header := fmt.Sprintf("%s  %s", m.detail.Name, likeBadge(m.detailCell))
	b.WriteString(styles.title.Render(header))
	b.WriteString("\n")
	meta := shared.VisibilityString(m.detail.IsPublic)
	if m.detail.Owner != nil {
		meta += " • by " + m.detail.Owner.Username
	}
	if m.detail.Description != "" {
		meta += " • " + m.detail.Description
	}
	b.WriteString(styles.help.Render(meta))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	loading := m.finding
	results := 0
	if m.found != nil {
		results = m.found.Len()
	}
	if hint := m.finder.Hint(results, loading); hint != "" {
		b.WriteString(styles.help.Render(hint))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.finder.Status(results, loading) == search.StatusResults {
		b.WriteString(renderFound(m.found))
	} else {
		b.WriteString(m.albums.View())
		if m.pager.TotalPages > 1 {
			b.WriteString("\n" + m.pager.View())
		}
	}

	keys := []key.Binding{m.keys.search, m.keys.like, m.keys.back}
	if m.owner() {
		keys = append(keys, m.keys.add, m.keys.remove, m.keys.visibility)
	}
	if len(m.notices) > 0 {
		keys = append(keys, m.keys.dismiss)
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView(keys))
	return b.String()
}

func renderFound(res *models.CollectionSearch) string {
	var lines []string
	for _, a := range res.Albums {
		lines = append(lines, "  ♪ "+a.Title)
	}
	for _, a := range res.Artists {
		lines = append(lines, "  ☺ "+a.Title)
	}
	return strings.Join(lines, "\n")
}
