package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/optimistic"
	"github.com/desertthunder/vkx/internal/query"
	"github.com/desertthunder/vkx/internal/search"
	"github.com/desertthunder/vkx/internal/services"
	"github.com/desertthunder/vkx/internal/tasks"
)

// fetchCollections reads the sort order before returning; m may change before the command runs.
func (m *Model) fetchCollections(public bool, page int) tea.Cmd {
	limit, sortBy := m.pageSize(), m.sortBy
	return func() tea.Msg {
		if public {
			key := query.PublicCollectionsKey(page, limit, string(sortBy))
			out, err := query.Fetch(m.ctx, m.deps.Cache, key, func(ctx context.Context) (*models.Paginated[models.CollectionListItem], error) {
				return m.deps.Catalog.PublicCollections(ctx, services.PageQuery{Page: page, Limit: limit}, sortBy)
			})
			return collectionsFetchedMsg(true, out, err)
		}
		key := query.OwnCollectionsKey(page, limit)
		out, err := query.Fetch(m.ctx, m.deps.Cache, key, func(ctx context.Context) (*models.Paginated[models.CollectionListItem], error) {
			return m.deps.Catalog.Collections(ctx, services.PageQuery{Page: page, Limit: limit})
		})
		return collectionsFetchedMsg(false, out, err)
	}
}

func (m *Model) fetchDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		out, err := query.Fetch(m.ctx, m.deps.Cache, query.CollectionDetailKey(id), func(ctx context.Context) (*models.CollectionDetail, error) {
			return m.deps.Catalog.CollectionDetails(ctx, id)
		})
		return detailFetchedMsg(out, err)
	}
}

func (m *Model) fetchAlbums(id int64, page int) tea.Cmd {
	limit := m.pageSize()
	return func() tea.Msg {
		key := query.CollectionAlbumsKey(id, page, limit)
		out, err := query.Fetch(m.ctx, m.deps.Cache, key, func(ctx context.Context) (*models.Paginated[models.CollectionAlbum], error) {
			return m.deps.Catalog.CollectionAlbums(ctx, id, services.PageQuery{Page: page, Limit: limit})
		})
		return albumsFetchedMsg(id, out, err)
	}
}

func (m *Model) searchCollection(id int64, q string) tea.Cmd {
	return func() tea.Msg {
		key := query.CollectionSearchKey(id, q, string(models.SearchBoth))
		out, err := query.Fetch(m.ctx, m.deps.Cache, key, func(ctx context.Context) (*models.CollectionSearch, error) {
			return m.deps.Catalog.SearchCollection(ctx, id, q, models.SearchBoth)
		})
		return searchResultsMsg(id, q, out, err)
	}
}

func (m *Model) fetchPlaces() tea.Cmd {
	return func() tea.Msg {
		out, err := query.Fetch(m.ctx, m.deps.Cache, query.PlacesKey(), func(ctx context.Context) ([]models.Place, error) {
			return m.deps.Catalog.Places(ctx)
		})
		return placesFetchedMsg(out, err)
	}
}

func (m *Model) searchMusic(q string, artists bool) tea.Cmd {
	return func() tea.Msg {
		out, err := query.Fetch(m.ctx, m.deps.Cache, query.MusicSearchKey(q, artists), func(ctx context.Context) ([]models.ExternalItem, error) {
			return m.deps.Catalog.SearchMusic(ctx, q, artists)
		})
		return hitsFetchedMsg(q, out, err)
	}
}

// debounce schedules the tick that may commit the keystroke identified by tag.
func debounce(window time.Duration, scope searchScope, tag search.Tag) tea.Cmd {
	return tea.Tick(window, func(time.Time) tea.Msg { return searchTickMsg(scope, tag) })
}

// runLike performs an already applied toggle off the event loop.
func (m *Model) runLike(target tasks.Target, call *optimistic.LikeCall) tea.Cmd {
	return func() tea.Msg {
		outcome := m.deps.Likes.Run(m.ctx, target, call)
		return likeSettledMsg(target, call.ID, outcome)
	}
}

// mutate runs a content mutation off the event loop and reports its notice.
func (m *Model) mutate(key string, fn func(ctx context.Context) (tasks.Notice, error)) tea.Cmd {
	return func() tea.Msg {
		n, err := fn(m.ctx)
		if err != nil {
			m.deps.Logger.Debug("mutation failed", "key", key, "error", err)
		}
		return noticeMsg(n, key)
	}
}

func historyScope(collectionID int64) string {
	if collectionID == 0 {
		return "proxy"
	}
	return fmt.Sprintf("collection:%d", collectionID)
}

func (m *Model) loadRecall(scope string) tea.Cmd {
	if m.deps.History == nil || m.deps.User == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := m.deps.History.Recent(m.deps.User.ID, scope, 50)
		if err != nil {
			m.deps.Logger.Warn("failed to load search history", "scope", scope, "error", err)
		}
		return recallLoadedMsg(scope, entries)
	}
}

func (m *Model) saveSearch(scope, q string, results int) tea.Cmd {
	if m.deps.History == nil || m.deps.User == nil {
		return nil
	}
	return func() tea.Msg {
		if err := m.deps.History.Create(models.NewSearchEntry(m.deps.User.ID, scope, q, results)); err != nil {
			m.deps.Logger.Warn("failed to save search", "scope", scope, "error", err)
		}
		return nil
	}
}
