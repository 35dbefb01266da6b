package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/query"
	"github.com/desertthunder/vkx/internal/services"
	"github.com/desertthunder/vkx/internal/shared"
	"github.com/desertthunder/vkx/internal/tasks"
	tu "github.com/desertthunder/vkx/internal/testing"
)

const window = 20 * time.Millisecond

type fakeCatalog struct {
	mu       sync.Mutex
	searches []string
	own      []models.CollectionListItem
	detail   models.CollectionDetail
	albums   []models.CollectionAlbum
	hits     []models.ExternalItem
}

func (f *fakeCatalog) Collections(ctx context.Context, page services.PageQuery) (*models.Paginated[models.CollectionListItem], error) {
	p := models.NewPage(f.own, page.Page, page.Limit)
	return &p, nil
}

func (f *fakeCatalog) PublicCollections(ctx context.Context, page services.PageQuery, sort models.PublicSort) (*models.Paginated[models.CollectionListItem], error) {
	p := models.NewPage([]models.CollectionListItem{}, page.Page, page.Limit)
	return &p, nil
}

func (f *fakeCatalog) CollectionDetails(ctx context.Context, id int64) (*models.CollectionDetail, error) {
	d := f.detail
	return &d, nil
}

func (f *fakeCatalog) CollectionAlbums(ctx context.Context, id int64, page services.PageQuery) (*models.Paginated[models.CollectionAlbum], error) {
	p := models.NewPage(f.albums, page.Page, page.Limit)
	return &p, nil
}

func (f *fakeCatalog) CollectionArtists(ctx context.Context, id int64, page services.PageQuery) (*models.Paginated[models.CollectionArtist], error) {
	p := models.NewPage([]models.CollectionArtist{}, page.Page, page.Limit)
	return &p, nil
}

func (f *fakeCatalog) SearchCollection(ctx context.Context, id int64, q string, kind models.SearchType) (*models.CollectionSearch, error) {
	f.mu.Lock()
	f.searches = append(f.searches, q)
	f.mu.Unlock()
	out := &models.CollectionSearch{Query: q, SearchType: kind}
	for _, a := range f.albums {
		if strings.Contains(strings.ToLower(a.Title), q) {
			out.Albums = append(out.Albums, a)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Places(ctx context.Context) ([]models.Place, error) {
	return []models.Place{{ID: 9, Name: "Shop", LikesCount: 2}}, nil
}

func (f *fakeCatalog) Place(ctx context.Context, id int64) (*models.Place, error) {
	return &models.Place{ID: id}, nil
}

func (f *fakeCatalog) Wishlist(ctx context.Context) ([]models.WishlistItem, error) {
	return nil, nil
}

func (f *fakeCatalog) SearchMusic(ctx context.Context, q string, isArtist bool) ([]models.ExternalItem, error) {
	return f.hits, nil
}

func (f *fakeCatalog) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

type owner string

func (o owner) IsOwner(uuid string) bool { return uuid != "" && string(o) == uuid }

type harness struct {
	model   *Model
	catalog *fakeCatalog
	gateway *tu.FakeGateway
	cache   *query.Client
	clock   *clockwork.FakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := clockwork.NewFakeClock()
	cache, err := query.NewClient(query.Options{Clock: clock})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	user := &models.User{ID: 1, UUID: "owner-uuid", Username: "demo"}
	catalog := &fakeCatalog{
		own: []models.CollectionListItem{
			{ID: 10, Name: "Jazz", LikesCount: 4},
			{ID: 11, Name: "Rock", LikesCount: 0},
		},
		detail: models.CollectionDetail{ID: 10, Name: "Jazz", OwnerUUID: user.UUID, LikesCount: 4},
		albums: []models.CollectionAlbum{
			{ID: 100, Title: "blue train"},
			{ID: 101, Title: "kind of blue"},
			{ID: 102, Title: "giant steps"},
		},
		hits: []models.ExternalItem{
			{ExternalID: "x1", EntityType: models.EntityAlbum, Title: "A Love Supreme", Source: models.SourceDeezer},
		},
	}
	gw := tu.NewFakeGateway()
	logger := log.New(io.Discard)
	opts := []tasks.Option{tasks.WithClock(clock), tasks.WithLogger(logger), tasks.WithCooldown(time.Second)}

	m := NewModel(context.Background(), Deps{
		Catalog: catalog,
		Likes:   tasks.NewLikeEngine(gw, cache, opts...),
		Content: tasks.NewContentEngine(gw, cache, owner(user.UUID), opts...),
		Cache:   cache,
		User:    user,
		UI:      shared.UIConfig{SearchDebounce: shared.Duration{Duration: window}, SearchMinLength: 2, PageSize: 20},
		Clock:   clock,
		Logger:  logger,
	})
	return &harness{model: m, catalog: catalog, gateway: gw, cache: cache, clock: clock}
}

// run executes cmd and feeds its messages back into the model, following batches.
func (h *harness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			h.run(c)
		}
	case Msg:
		_, next := h.model.Update(msg)
		h.run(next)
	}
}

func (h *harness) key(s string) tea.Cmd {
	var k tea.KeyMsg
	switch s {
	case "esc":
		k = tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		k = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		k = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	_, cmd := h.model.Update(k)
	return cmd
}

func (h *harness) loadCollections(t *testing.T) {
	t.Helper()
	h.run(h.model.fetchCollections(false, 1))
	if len(h.model.rowCells) != 2 {
		t.Fatalf("row cells = %d, want 2", len(h.model.rowCells))
	}
}

func (h *harness) openJazz(t *testing.T) {
	t.Helper()
	h.run(h.model.openDetail(10))
	if h.model.detail == nil || h.model.detailCell == nil {
		t.Fatal("detail not loaded")
	}
}

func TestCollectionsView(t *testing.T) {
	t.Run("like applies before the call settles", func(t *testing.T) {
		h := newHarness(t)
		h.loadCollections(t)

		cmd := h.key("l")
		if cmd == nil {
			t.Fatal("expected a like command")
		}
		cell := h.model.rowCells[10]
		if s := cell.State(); !s.Liked || s.LikesCount != 5 {
			t.Errorf("optimistic state = %+v, want liked with 5", s)
		}
		if h.gateway.Calls("LikeCollection") != 0 {
			t.Error("gateway called before the command ran")
		}

		h.run(cmd)
		if h.gateway.Calls("LikeCollection") != 1 {
			t.Errorf("LikeCollection calls = %d, want 1", h.gateway.Calls("LikeCollection"))
		}
		if s := cell.State(); !s.Liked || s.LikesCount != 5 {
			t.Errorf("settled state = %+v, want liked with 5", s)
		}
	})

	t.Run("failed like rolls back", func(t *testing.T) {
		h := newHarness(t)
		h.loadCollections(t)
		h.gateway.SetErr(errors.New("boom"))

		h.run(h.key("l"))
		if s := h.model.rowCells[10].State(); s.Liked || s.LikesCount != 4 {
			t.Errorf("state = %+v, want rollback to 4 unliked", s)
		}
		if len(h.model.notices) != 0 {
			t.Errorf("like failures must not raise notices, got %v", h.model.notices)
		}
	})

	t.Run("second press inside the cooldown is ignored", func(t *testing.T) {
		h := newHarness(t)
		h.loadCollections(t)

		h.run(h.key("l"))
		if cmd := h.key("l"); cmd != nil {
			t.Error("expected the second toggle to be refused")
		}
		h.clock.Advance(2 * time.Second)
		if cmd := h.key("l"); cmd == nil {
			t.Error("expected a toggle after the cooldown")
		}
	})

	t.Run("refetch keeps the shadow copy", func(t *testing.T) {
		h := newHarness(t)
		h.loadCollections(t)
		h.run(h.key("l"))

		h.cache.Clear()
		h.run(h.model.fetchCollections(false, 1))
		if s := h.model.rowCells[10].State(); s.LikesCount != 5 {
			t.Errorf("likes after refetch = %d, want the shadow value 5", s.LikesCount)
		}
	})

	t.Run("rows show the server value after a like in detail", func(t *testing.T) {
		h := newHarness(t)
		h.loadCollections(t)
		row := h.model.rowCells[10]

		h.run(h.model.openDetail(10))
		if _, err := row.Toggle(); !errors.Is(err, shared.ErrClosed) {
			t.Errorf("row cell still open in detail: %v", err)
		}
		h.run(h.key("l"))
		if h.gateway.Calls("LikeCollection") != 1 {
			t.Fatalf("LikeCollection calls = %d, want 1", h.gateway.Calls("LikeCollection"))
		}

		h.catalog.own[0].LikesCount, h.catalog.own[0].IsLiked = 5, true
		h.run(h.key("esc"))
		if s := h.model.rowCells[10].State(); !s.Liked || s.LikesCount != 5 {
			t.Errorf("row state = %+v, want the server's liked with 5", s)
		}
	})

	t.Run("a late page does not rebuild rows in another view", func(t *testing.T) {
		h := newHarness(t)
		late := h.model.fetchCollections(false, 1)
		h.run(h.model.openPlaces())

		h.run(late)
		if len(h.model.rowCells) != 0 {
			t.Errorf("row cells = %d, want none outside the list", len(h.model.rowCells))
		}
	})

	t.Run("public page keeps the sort it was requested with", func(t *testing.T) {
		h := newHarness(t)
		h.model.public = true
		cmd := h.model.fetchCollections(true, 1)
		h.model.sortBy = models.SortLikes

		cmd()
		type page = *models.Paginated[models.CollectionListItem]
		if _, _, ok := query.Peek[page](h.cache, query.PublicCollectionsKey(1, 20, string(models.SortUpdated))); !ok {
			t.Error("expected the page under the sort in effect when the command was built")
		}
		if _, _, ok := query.Peek[page](h.cache, query.PublicCollectionsKey(1, 20, string(models.SortLikes))); ok {
			t.Error("page cached under the later sort")
		}
	})
}

func TestDetailView(t *testing.T) {
	t.Run("only the newest stable keystroke searches", func(t *testing.T) {
		h := newHarness(t)
		h.openJazz(t)
		m := h.model

		first := m.typed(m.finder, "bl", collectionScope)
		h.clock.Advance(window / 2)
		second := m.typed(m.finder, "blue", collectionScope)
		h.clock.Advance(window)

		h.run(first)
		if n := h.catalog.searchCount(); n != 0 {
			t.Fatalf("stale tick searched %d times", n)
		}
		h.run(second)
		if n := h.catalog.searchCount(); n != 1 {
			t.Fatalf("searches = %d, want 1", n)
		}
		if m.found == nil || len(m.found.Albums) != 2 {
			t.Errorf("found = %+v, want two blue albums", m.found)
		}
	})

	t.Run("short input never searches", func(t *testing.T) {
		h := newHarness(t)
		h.openJazz(t)
		m := h.model

		cmd := m.typed(m.finder, "b", collectionScope)
		h.clock.Advance(window)
		h.run(cmd)
		if h.catalog.searchCount() != 0 {
			t.Error("one character query was sent")
		}
		if !strings.Contains(m.View(), "Type at least 2 characters") {
			t.Error("missing minimum length hint")
		}
	})

	t.Run("clearing the input drops results", func(t *testing.T) {
		h := newHarness(t)
		h.openJazz(t)
		m := h.model

		cmd := m.typed(m.finder, "blue", collectionScope)
		h.clock.Advance(window)
		h.run(cmd)
		if m.found == nil {
			t.Fatal("expected results")
		}
		if cmd := m.typed(m.finder, "", collectionScope); cmd != nil {
			t.Error("empty input scheduled a tick")
		}
		if m.found != nil {
			t.Error("results kept after clearing")
		}
	})

	t.Run("leaving closes the detail cell", func(t *testing.T) {
		h := newHarness(t)
		h.openJazz(t)
		h.cache.Set(query.CollectionDetailKey(10), "stale soon")

		cell := h.model.detailCell
		like := h.key("l")
		h.key("esc")
		if h.model.ViewState() != CollectionsView {
			t.Fatalf("view = %v, want collections", h.model.ViewState())
		}

		h.run(like)
		if !h.cache.Stale(query.CollectionDetailKey(10)) {
			t.Error("confirmed like after leaving must still invalidate")
		}
		if _, err := cell.Toggle(); !errors.Is(err, shared.ErrClosed) {
			t.Errorf("toggle on closed cell err = %v, want ErrClosed", err)
		}
	})

	t.Run("owner removes an album", func(t *testing.T) {
		h := newHarness(t)
		h.openJazz(t)

		h.run(h.key("x"))
		if h.gateway.Calls("RemoveAlbum") != 1 {
			t.Fatalf("RemoveAlbum calls = %d, want 1", h.gateway.Calls("RemoveAlbum"))
		}
		if len(h.model.notices) != 1 || h.model.notices[0].Severity != tasks.Success {
			t.Errorf("notices = %+v, want one success", h.model.notices)
		}
		h.key("d")
		if len(h.model.notices) != 0 {
			t.Error("notice not dismissed")
		}
	})

	t.Run("removing an album refreshes shown search results", func(t *testing.T) {
		h := newHarness(t)
		h.openJazz(t)
		m := h.model

		cmd := m.typed(m.finder, "blue", collectionScope)
		h.clock.Advance(window)
		h.run(cmd)
		if m.found == nil || len(m.found.Albums) != 2 {
			t.Fatalf("found = %+v, want two blue albums", m.found)
		}

		remove := h.key("x")
		h.catalog.albums = h.catalog.albums[1:]
		h.run(remove)

		if n := h.catalog.searchCount(); n != 2 {
			t.Errorf("searches = %d, want a second one after the removal", n)
		}
		if m.found == nil || len(m.found.Albums) != 1 || m.found.Albums[0].ID != 101 {
			t.Errorf("found = %+v, want only kind of blue", m.found)
		}
		if strings.Contains(m.View(), "blue train") {
			t.Error("removed album still rendered")
		}
	})

	t.Run("non owner cannot remove", func(t *testing.T) {
		h := newHarness(t)
		h.catalog.detail.OwnerUUID = "someone-else"
		h.openJazz(t)

		if cmd := h.key("x"); cmd != nil {
			t.Error("expected no request")
		}
		if h.gateway.Total() != 0 {
			t.Errorf("gateway calls = %d, want 0", h.gateway.Total())
		}
		if len(h.model.notices) != 1 || h.model.notices[0].Severity != tasks.Error {
			t.Errorf("notices = %+v, want one error", h.model.notices)
		}
	})
}

func TestAddView(t *testing.T) {
	t.Run("duplicate add while in flight is ignored", func(t *testing.T) {
		h := newHarness(t)
		h.openJazz(t)
		h.run(h.key("a"))
		m := h.model
		if m.ViewState() != AddView || m.addTarget != 10 {
			t.Fatalf("view = %v target = %d, want add view for 10", m.ViewState(), m.addTarget)
		}

		cmd := m.typed(m.proxy, "love", proxyScope)
		h.clock.Advance(window)
		h.run(cmd)
		if m.hitCount != 1 {
			t.Fatalf("hits = %d, want 1", m.hitCount)
		}
		m.addInput.Blur()

		first := h.key("enter")
		if first == nil {
			t.Fatal("expected an add command")
		}
		if second := h.key("enter"); second != nil {
			t.Error("second add was dispatched while the first is in flight")
		}
		if !strings.Contains(m.hits.Items()[0].(hitItem).Title(), "adding") {
			t.Error("hit not marked as adding")
		}

		h.run(first)
		if h.gateway.Calls("AddToCollection") != 1 {
			t.Errorf("AddToCollection calls = %d, want 1", h.gateway.Calls("AddToCollection"))
		}
		if len(m.adding) != 0 {
			t.Errorf("in-flight set = %v, want empty", m.adding)
		}
	})

	t.Run("wishlist add from the collections view", func(t *testing.T) {
		h := newHarness(t)
		h.loadCollections(t)
		h.run(h.key("a"))
		m := h.model

		cmd := m.typed(m.proxy, "love", proxyScope)
		h.clock.Advance(window)
		h.run(cmd)
		m.addInput.Blur()

		h.run(h.key("w"))
		if h.gateway.Calls("AddToWishlist") != 1 {
			t.Errorf("AddToWishlist calls = %d, want 1", h.gateway.Calls("AddToWishlist"))
		}
	})
}

func TestPlacesView(t *testing.T) {
	h := newHarness(t)
	h.run(h.model.openPlaces())

	h.run(h.key("l"))
	if h.gateway.Calls("LikePlace") != 1 {
		t.Errorf("LikePlace calls = %d, want 1", h.gateway.Calls("LikePlace"))
	}
	if s := h.model.placeCells[9].State(); !s.Liked || s.LikesCount != 3 {
		t.Errorf("place state = %+v, want liked with 3", s)
	}

	cell := h.model.placeCells[9]
	h.key("esc")
	if _, err := cell.Toggle(); !errors.Is(err, shared.ErrClosed) {
		t.Errorf("place cell still open after leaving: %v", err)
	}
}
