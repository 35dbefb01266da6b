package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/optimistic"
	"github.com/desertthunder/vkx/internal/services"
	"github.com/desertthunder/vkx/internal/shared"
	"github.com/desertthunder/vkx/internal/tasks"
)

type fixture struct {
	store   *Store
	seeded  Seeded
	service *services.VinylKeeperService
	server  *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewStore()
	seeded := Seed(store)

	srv := httptest.NewServer(NewSandbox(store, log.New(io.Discard), "/api"))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	api := services.NewAPIService(srv.URL+"/api", &http.Client{Jar: jar})
	return &fixture{store: store, seeded: seeded, service: services.NewVinylKeeperService(api), server: srv}
}

func (f *fixture) login(t *testing.T) *models.User {
	t.Helper()
	u, err := f.service.Login(context.Background(), DemoEmail, DemoPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return u
}

func TestRouter(t *testing.T) {
	t.Run("applies middleware in registration order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("a"), mark("b"))
		r.HandleFunc(http.MethodGet, "/x", func(w http.ResponseWriter, r *http.Request) {})

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
		if len(order) != 2 || order[0] != "a" || order[1] != "b" {
			t.Errorf("order = %v, want [a b]", order)
		}
	})

	t.Run("one path with two methods", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandleFunc(http.MethodPost, "/like", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) })
		r.HandleFunc(http.MethodDelete, "/like", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

		for method, want := range map[string]int{
			http.MethodPost:   http.StatusCreated,
			http.MethodDelete: http.StatusNoContent,
			http.MethodPut:    http.StatusMethodNotAllowed,
		} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(method, "/like", nil))
			if rec.Code != want {
				t.Errorf("%s status = %d, want %d", method, rec.Code, want)
			}
		}
	})

	t.Run("recover turns panics into 500", func(t *testing.T) {
		r := NewBasicRouter()
		r.Use(Recover(log.New(io.Discard)))
		r.HandleFunc(http.MethodGet, "/boom", func(w http.ResponseWriter, r *http.Request) { panic("boom") })

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})

	t.Run("request id is echoed", func(t *testing.T) {
		r := NewBasicRouter()
		r.Use(RequestID())
		r.HandleFunc(http.MethodGet, "/x", func(w http.ResponseWriter, r *http.Request) {})

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Request-ID", "abc")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if got := rec.Header().Get("X-Request-ID"); got != "abc" {
			t.Errorf("X-Request-ID = %q, want abc", got)
		}
	})
}

func TestSandbox(t *testing.T) {
	ctx := context.Background()

	t.Run("health needs no session", func(t *testing.T) {
		f := newFixture(t)
		resp, err := http.Get(f.server.URL + "/api/health")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("requests without a session are unauthorized", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Collections(ctx, services.PageQuery{})
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("err = %v, want ErrNotAuthenticated", err)
		}
	})

	t.Run("wrong password fails login", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.service.Login(ctx, DemoEmail, "nope"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("err = %v, want ErrAuthFailed", err)
		}
	})

	t.Run("login then me", func(t *testing.T) {
		f := newFixture(t)
		u := f.login(t)
		if u.UUID != f.seeded.Demo.UUID {
			t.Errorf("user uuid = %q, want %q", u.UUID, f.seeded.Demo.UUID)
		}
	})

	t.Run("logout ends the session", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		if err := f.service.Logout(ctx); err != nil {
			t.Fatalf("logout: %v", err)
		}
		if _, err := f.service.Me(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("me after logout err = %v, want ErrNotAuthenticated", err)
		}
	})

	t.Run("own collections paginate", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		page, err := f.service.Collections(ctx, services.PageQuery{Page: 1, Limit: 1})
		if err != nil {
			t.Fatalf("collections: %v", err)
		}
		if page.Total != 2 || len(page.Items) != 1 || !page.HasNext() {
			t.Errorf("page = %+v, want total 2 with one item and a next page", page)
		}
	})

	t.Run("private collections of others are forbidden", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.service.Login(ctx, "digger@vinylkeeper.dev", "crates"); err != nil {
			t.Fatalf("login: %v", err)
		}
		_, err := f.service.CollectionDetails(ctx, f.seeded.Collections[1])
		var apiErr *services.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
			t.Errorf("err = %v, want 403", err)
		}
	})

	t.Run("collection search enforces minimum length", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		id := f.seeded.Collections[0]

		if _, err := f.service.SearchCollection(ctx, id, "b", models.SearchBoth); err == nil {
			t.Error("expected an error for a one character query")
		}
		res, err := f.service.SearchCollection(ctx, id, "blue", models.SearchBoth)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(res.Albums) != 1 || res.Albums[0].Title != "Blue Train" {
			t.Errorf("albums = %+v, want Blue Train", res.Albums)
		}
	})

	t.Run("like and unlike adjust the count", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		id := f.seeded.Collections[2]

		if err := f.service.UnlikeCollection(ctx, id); err != nil {
			t.Fatalf("unlike: %v", err)
		}
		d, err := f.service.CollectionDetails(ctx, id)
		if err != nil {
			t.Fatalf("details: %v", err)
		}
		if d.IsLiked || d.LikesCount != 0 {
			t.Errorf("after unlike = (%v, %d), want (false, 0)", d.IsLiked, d.LikesCount)
		}
	})

	t.Run("like fault rolls the cell back", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		id := f.seeded.Collections[0]
		f.store.SetFaults(Faults{LikeFailures: 1})

		d, err := f.service.CollectionDetails(ctx, id)
		if err != nil {
			t.Fatalf("details: %v", err)
		}
		engine := tasks.NewLikeEngine(f.service, nil, tasks.WithCooldown(1))
		cell := engine.Cell(tasks.CollectionTarget, d.LikeState())

		state, outcome, err := engine.Toggle(ctx, tasks.CollectionTarget, cell)
		if err != nil {
			t.Fatalf("toggle: %v", err)
		}
		if outcome != optimistic.RolledBack || state != d.LikeState() {
			t.Errorf("got (%v, %+v), want rollback to %+v", outcome, state, d.LikeState())
		}
	})

	t.Run("adding twice reports the item as existing", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		req := models.AddItemRequest{
			ExternalID: "dz-301826", EntityType: models.EntityAlbum, Title: "A Love Supreme", Source: models.SourceDeezer,
		}

		first, err := f.service.AddToCollection(ctx, f.seeded.Collections[0], req)
		if err != nil || !first.IsNew {
			t.Fatalf("first add = %+v, %v", first, err)
		}
		second, err := f.service.AddToCollection(ctx, f.seeded.Collections[0], req)
		if err != nil || second.IsNew {
			t.Errorf("second add = %+v, %v, want IsNew false", second, err)
		}
	})

	t.Run("condition update is partial", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		id := f.seeded.Collections[0]
		albums, err := f.service.CollectionAlbums(ctx, id, services.PageQuery{})
		if err != nil {
			t.Fatalf("albums: %v", err)
		}
		var blue models.CollectionAlbum
		for _, a := range albums.Items {
			if a.Title == "Blue Train" {
				blue = a
			}
		}

		mint := models.Mint
		got, err := f.service.UpdateCondition(ctx, id, blue.ID, models.ConditionUpdate{Cover: &mint})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got.Cover == nil || *got.Cover != models.Mint {
			t.Errorf("cover = %v, want mint", got.Cover)
		}
		if got.Record == nil || *got.Record != models.NearMint {
			t.Errorf("record = %v, want near_mint untouched", got.Record)
		}
	})

	t.Run("wishlist round trip", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		hits, err := f.service.SearchMusic(ctx, "coltrane", false)
		if err != nil {
			t.Fatalf("search music: %v", err)
		}
		if len(hits) != 2 {
			t.Fatalf("hits = %d, want 2", len(hits))
		}
		if _, err := f.service.AddToWishlist(ctx, hits[0].Request()); err != nil {
			t.Fatalf("add: %v", err)
		}
		items, err := f.service.Wishlist(ctx)
		if err != nil || len(items) != 1 {
			t.Fatalf("wishlist = %v, %v", items, err)
		}
		if _, err := f.service.RemoveFromWishlist(ctx, items[0].ID); err != nil {
			t.Fatalf("remove: %v", err)
		}
		if items, _ = f.service.Wishlist(ctx); len(items) != 0 {
			t.Errorf("wishlist after remove = %d items, want 0", len(items))
		}
	})

	t.Run("visibility switch", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		got, err := f.service.SwitchVisibility(ctx, f.seeded.Collections[1], true)
		if err != nil {
			t.Fatalf("switch: %v", err)
		}
		if !got.IsPublic {
			t.Error("collection still private")
		}
	})

	t.Run("places carry like state", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		id := f.seeded.Places[0]
		if err := f.service.LikePlace(ctx, id); err != nil {
			t.Fatalf("like: %v", err)
		}
		p, err := f.service.Place(ctx, id)
		if err != nil {
			t.Fatalf("place: %v", err)
		}
		if !p.IsLiked || p.LikesCount != 1 {
			t.Errorf("place like = (%v, %d), want (true, 1)", p.IsLiked, p.LikesCount)
		}
	})

	t.Run("collection create, edit and delete", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		created, err := f.service.CreateCollection(ctx, models.CollectionCreate{Name: "  Dub  ", Description: "King Tubby", IsPublic: false})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created.CollectionID == 0 || created.Message != "Collection created successfully" {
			t.Fatalf("created = %+v", created)
		}

		name, public := "Dub Plates", true
		if err := f.service.UpdateCollection(ctx, created.CollectionID, models.CollectionUpdate{Name: &name, IsPublic: &public}); err != nil {
			t.Fatalf("update: %v", err)
		}
		d, err := f.service.CollectionDetails(ctx, created.CollectionID)
		if err != nil {
			t.Fatalf("details: %v", err)
		}
		if d.Name != "Dub Plates" || d.Description != "King Tubby" || !d.IsPublic {
			t.Errorf("after update = %+v", d)
		}

		if err := f.service.DeleteCollection(ctx, created.CollectionID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		_, err = f.service.CollectionDetails(ctx, created.CollectionID)
		var apiErr *services.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
			t.Errorf("details after delete err = %v, want 404", err)
		}
	})

	t.Run("collection create rejects a blank name", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		_, err := f.service.CreateCollection(ctx, models.CollectionCreate{Name: "   "})
		var apiErr *services.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("err = %v, want 422", err)
		}
	})

	t.Run("only the owner edits or deletes", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.service.Login(ctx, "digger@vinylkeeper.dev", "crates"); err != nil {
			t.Fatalf("login: %v", err)
		}
		id := f.seeded.Collections[0]
		name := "Mine now"
		for _, err := range []error{
			f.service.UpdateCollection(ctx, id, models.CollectionUpdate{Name: &name}),
			f.service.DeleteCollection(ctx, id),
		} {
			var apiErr *services.APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
				t.Errorf("err = %v, want 403", err)
			}
		}
	})

	t.Run("submitted places wait for moderation", func(t *testing.T) {
		f := newFixture(t)
		u := f.login(t)

		p, err := f.service.CreatePlace(ctx, models.PlaceCreate{
			Name: "Honest Jon's", City: "London", Country: "United Kingdom", PlaceType: "Shop",
		})
		if err != nil {
			t.Fatalf("create place: %v", err)
		}
		if p.IsModerated || p.SubmittedBy == nil || p.SubmittedBy.UUID != u.UUID {
			t.Errorf("place = %+v, want unmoderated and submitted by the demo user", p)
		}
		if p.PlaceType.ID != 1 {
			t.Errorf("place type = %+v, want the existing Shop type", p.PlaceType)
		}

		places, err := f.service.Places(ctx)
		if err != nil {
			t.Fatalf("places: %v", err)
		}
		if len(places) != len(f.seeded.Places) {
			t.Errorf("listed %d places, want the %d moderated ones", len(places), len(f.seeded.Places))
		}
	})
}
