package server

import (
	"errors"
	"net/http"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/shared"
)

// apiError carries the status a store failure maps to.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string { return e.message }

func newAPIError(status int, msg string) error { return &apiError{status: status, message: msg} }

func statusOf(err error) int {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status
	}
	return http.StatusInternalServerError
}

var (
	errNotFound     = newAPIError(http.StatusNotFound, "Not found")
	errForbidden    = newAPIError(http.StatusForbidden, "You do not have access to this resource")
	errUnauthorized = newAPIError(http.StatusUnauthorized, "Not authenticated")
)

type account struct {
	user     models.User
	password string
}

type collection struct {
	id          int64
	name        string
	description string
	isPublic    bool
	ownerID     int64
	createdAt   time.Time
	updatedAt   time.Time
	likes       map[int64]bool
	albums      []models.CollectionAlbum
	artists     []models.CollectionArtist
}

type place struct {
	models.Place
	likes map[int64]bool
}

// Faults makes upcoming calls fail on purpose.
type Faults struct {
	LikeFailures int // number of like or unlike calls to fail with 503
}

// Store is the sandbox's in-memory database.
type Store struct {
	mu          sync.Mutex
	now         func() time.Time
	nextID      int64
	accounts    map[int64]*account
	tokens      map[string]int64
	collections map[int64]*collection
	places      map[int64]*place
	wishlists   map[int64][]models.WishlistItem
	catalog     []models.ExternalItem
	faults      Faults
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		now:         time.Now,
		nextID:      100,
		accounts:    make(map[int64]*account),
		tokens:      make(map[string]int64),
		collections: make(map[int64]*collection),
		places:      make(map[int64]*place),
		wishlists:   make(map[int64][]models.WishlistItem),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// SetFaults replaces the fault configuration.
func (s *Store) SetFaults(f Faults) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = f
}

func (s *Store) likeFault() error {
	if s.faults.LikeFailures > 0 {
		s.faults.LikeFailures--
		return newAPIError(http.StatusServiceUnavailable, "Like service temporarily unavailable")
	}
	return nil
}

// AddUser registers an account and returns its user.
func (s *Store) AddUser(username, email, password string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := models.User{ID: s.id(), UUID: shared.GenerateID(), Username: username, Email: email, Role: "user"}
	s.accounts[u.ID] = &account{user: u, password: password}
	return u
}

// AddCollection creates a collection owned by ownerID.
func (s *Store) AddCollection(ownerID int64, name, description string, public bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	c := &collection{
		id: s.id(), name: name, description: description, isPublic: public, ownerID: ownerID,
		createdAt: now, updatedAt: now, likes: make(map[int64]bool),
	}
	s.collections[c.id] = c
	return c.id
}

// AddPlace stores a moderated place.
func (s *Store) AddPlace(p models.Place) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	p.IsModerated, p.IsValid = true, true
	p.CreatedAt, p.UpdatedAt = s.now(), s.now()
	s.places[p.ID] = &place{Place: p, likes: make(map[int64]bool)}
	return p.ID
}

// CreateCollection validates req and stores a new collection owned by viewer.
func (s *Store) CreateCollection(viewer int64, req models.CollectionCreate) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, newAPIError(http.StatusUnprocessableEntity, err.Error())
	}
	return s.AddCollection(viewer, req.Name, req.Description, req.IsPublic), nil
}

// UpdateCollection applies a partial edit to one of viewer's collections.
func (s *Store) UpdateCollection(id, viewer int64, update models.CollectionUpdate) error {
	if err := update.Validate(); err != nil {
		return newAPIError(http.StatusUnprocessableEntity, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.owned(id, viewer)
	if err != nil {
		return err
	}
	if update.Name != nil {
		c.name = *update.Name
	}
	if update.Description != nil {
		c.description = *update.Description
	}
	if update.IsPublic != nil {
		c.isPublic = *update.IsPublic
	}
	c.updatedAt = s.now()
	return nil
}

// DeleteCollection drops one of viewer's collections with its contents.
func (s *Store) DeleteCollection(id, viewer int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.owned(id, viewer); err != nil {
		return err
	}
	delete(s.collections, id)
	return nil
}

// CreatePlace stores a submission from viewer. Submissions wait for moderation and stay out
// of [Store.Places] until then. Missing coordinates are left at zero.
func (s *Store) CreatePlace(viewer int64, req models.PlaceCreate) (models.Place, error) {
	if err := req.Validate(); err != nil {
		return models.Place{}, newAPIError(http.StatusUnprocessableEntity, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	p := models.Place{
		ID: s.id(), Name: req.Name, Address: req.Address, City: req.City, Country: req.Country,
		Description: req.Description, SourceURL: req.SourceURL,
		PlaceType:   s.placeType(req.PlaceType),
		SubmittedBy: s.mini(viewer),
		CreatedAt:   now, UpdatedAt: now,
	}
	if req.Latitude != nil {
		p.Latitude, p.Longitude = *req.Latitude, *req.Longitude
	}
	s.places[p.ID] = &place{Place: p, likes: make(map[int64]bool)}
	return p, nil
}

// placeType resolves a type by name, reusing the id of any place that already has it.
func (s *Store) placeType(name string) models.PlaceType {
	name = strings.TrimSpace(name)
	for _, p := range s.places {
		if strings.EqualFold(p.PlaceType.Name, name) {
			return p.PlaceType
		}
	}
	return models.PlaceType{ID: s.id(), Name: name}
}

// AddCatalog makes items findable through the metadata proxy search.
func (s *Store) AddCatalog(items ...models.ExternalItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = append(s.catalog, items...)
}

// Login checks credentials and returns a new session token.
func (s *Store) Login(email, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.user.Email, email) && a.password == password {
			token := shared.GenerateID()
			s.tokens[token] = a.user.ID
			return token, nil
		}
	}
	return "", newAPIError(http.StatusUnauthorized, "Invalid email or password")
}

// Logout forgets token.
func (s *Store) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// UserFor resolves a session token.
func (s *Store) UserFor(token string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[token]
	if !ok {
		return models.User{}, errUnauthorized
	}
	return s.accounts[id].user, nil
}

func (s *Store) mini(userID int64) *models.UserMini {
	if a, ok := s.accounts[userID]; ok {
		return &models.UserMini{Username: a.user.Username, UUID: a.user.UUID}
	}
	return nil
}

func (s *Store) listItem(c *collection, viewer int64) models.CollectionListItem {
	return models.CollectionListItem{
		ID: c.id, Name: c.name, Description: c.description, IsPublic: c.isPublic,
		OwnerID: c.ownerID, Owner: s.mini(c.ownerID),
		LikesCount: len(c.likes), IsLiked: c.likes[viewer],
		AlbumsCount: len(c.albums), ArtistsCount: len(c.artists),
		CreatedAt: c.createdAt, UpdatedAt: c.updatedAt,
	}
}

// visible returns the collection when viewer may read it.
func (s *Store) visible(id, viewer int64) (*collection, error) {
	c, ok := s.collections[id]
	if !ok {
		return nil, errNotFound
	}
	if !c.isPublic && c.ownerID != viewer {
		return nil, errForbidden
	}
	return c, nil
}

// owned returns the collection when viewer owns it.
func (s *Store) owned(id, viewer int64) (*collection, error) {
	c, ok := s.collections[id]
	if !ok {
		return nil, errNotFound
	}
	if c.ownerID != viewer {
		return nil, errForbidden
	}
	return c, nil
}

// OwnCollections lists viewer's collections, newest first.
func (s *Store) OwnCollections(viewer int64, page, limit int) models.Paginated[models.CollectionListItem] {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []models.CollectionListItem
	for _, c := range s.collections {
		if c.ownerID == viewer {
			items = append(items, s.listItem(c, viewer))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return models.NewPage(items, page, limit)
}

// PublicCollections lists public collections in the requested order.
func (s *Store) PublicCollections(viewer int64, page, limit int, sortBy models.PublicSort) models.Paginated[models.CollectionListItem] {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []models.CollectionListItem
	for _, c := range s.collections {
		if c.isPublic {
			items = append(items, s.listItem(c, viewer))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch sortBy {
		case models.SortLikes:
			if a.LikesCount != b.LikesCount {
				return a.LikesCount > b.LikesCount
			}
		case models.SortCreated:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		default:
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.After(b.UpdatedAt)
			}
		}
		return a.ID > b.ID
	})
	return models.NewPage(items, page, limit)
}

// Details returns the collection header.
func (s *Store) Details(id, viewer int64) (models.CollectionDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.visible(id, viewer)
	if err != nil {
		return models.CollectionDetail{}, err
	}
	owner := s.mini(c.ownerID)
	d := models.CollectionDetail{
		ID: c.id, Name: c.name, Description: c.description, IsPublic: c.isPublic,
		Owner: owner, LikesCount: len(c.likes), IsLiked: c.likes[viewer],
		CreatedAt: c.createdAt, UpdatedAt: c.updatedAt,
	}
	if owner != nil {
		d.OwnerUUID = owner.UUID
	}
	return d, nil
}

// Albums pages through a collection's albums.
func (s *Store) Albums(id, viewer int64, page, limit int) (models.Paginated[models.CollectionAlbum], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.visible(id, viewer)
	if err != nil {
		return models.Paginated[models.CollectionAlbum]{}, err
	}
	return models.NewPage(slices.Clone(c.albums), page, limit), nil
}

// Artists pages through a collection's artists.
func (s *Store) Artists(id, viewer int64, page, limit int) (models.Paginated[models.CollectionArtist], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.visible(id, viewer)
	if err != nil {
		return models.Paginated[models.CollectionArtist]{}, err
	}
	return models.NewPage(slices.Clone(c.artists), page, limit), nil
}

// Search matches titles case-insensitively inside one collection.
func (s *Store) Search(id, viewer int64, q string, kind models.SearchType) (models.CollectionSearch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.visible(id, viewer)
	if err != nil {
		return models.CollectionSearch{}, err
	}
	if shared.RuneLen(q) < 2 {
		return models.CollectionSearch{}, newAPIError(http.StatusBadRequest, "Query must be at least 2 characters")
	}
	if kind == "" {
		kind = models.SearchBoth
	}

	needle := strings.ToLower(shared.NormalizeQuery(q))
	out := models.CollectionSearch{Query: q, SearchType: kind, Albums: []models.CollectionAlbum{}, Artists: []models.CollectionArtist{}}
	if kind != models.SearchArtists {
		for _, a := range c.albums {
			if strings.Contains(strings.ToLower(a.Title), needle) {
				out.Albums = append(out.Albums, a)
			}
		}
	}
	if kind != models.SearchAlbums {
		for _, a := range c.artists {
			if strings.Contains(strings.ToLower(a.Title), needle) {
				out.Artists = append(out.Artists, a)
			}
		}
	}
	return out, nil
}

// SetCollectionLike records or removes viewer's like. Repeating the current state is a no-op.
func (s *Store) SetCollectionLike(id, viewer int64, liked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.likeFault(); err != nil {
		return err
	}
	c, err := s.visible(id, viewer)
	if err != nil {
		return err
	}
	if liked {
		c.likes[viewer] = true
	} else {
		delete(c.likes, viewer)
	}
	return nil
}

// SetPlaceLike records or removes viewer's like on a place.
func (s *Store) SetPlaceLike(id, viewer int64, liked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.likeFault(); err != nil {
		return err
	}
	p, ok := s.places[id]
	if !ok {
		return errNotFound
	}
	if liked {
		p.likes[viewer] = true
	} else {
		delete(p.likes, viewer)
	}
	return nil
}

func (s *Store) placeView(p *place, viewer int64) models.Place {
	out := p.Place
	out.LikesCount = len(p.likes)
	out.IsLiked = p.likes[viewer]
	return out
}

// Places lists moderated places by name.
func (s *Store) Places(viewer int64) []models.Place {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Place, 0, len(s.places))
	for _, p := range s.places {
		if !p.IsModerated {
			continue
		}
		out = append(out, s.placeView(p, viewer))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Place returns one place.
func (s *Store) Place(id, viewer int64) (models.Place, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.places[id]
	if !ok {
		return models.Place{}, errNotFound
	}
	return s.placeView(p, viewer), nil
}

// AddToCollection attaches an external item. Adding an item already present reports IsNew false.
func (s *Store) AddToCollection(id, viewer int64, req models.AddItemRequest) (models.AddItemResult, error) {
	if err := req.Validate(); err != nil {
		return models.AddItemResult{}, newAPIError(http.StatusUnprocessableEntity, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.owned(id, viewer)
	if err != nil {
		return models.AddItemResult{}, err
	}

	source := models.Source{ID: 1, Name: string(req.Source)}
	now := s.now()

	switch req.EntityType {
	case models.EntityArtist:
		for _, a := range c.artists {
			if a.ExternalID == req.ExternalID {
				return models.AddItemResult{IsNew: false, Message: "Artist already in collection"}, nil
			}
		}
		c.artists = append(c.artists, models.CollectionArtist{
			ID: s.id(), ExternalID: req.ExternalID, Title: req.Title, ImageURL: req.ImageURL, Source: source, CreatedAt: now,
		})
	default:
		for _, a := range c.albums {
			if a.ExternalID == req.ExternalID {
				return models.AddItemResult{IsNew: false, Message: "Album already in collection"}, nil
			}
		}
		album := models.CollectionAlbum{
			ID: s.id(), ExternalID: req.ExternalID, Title: req.Title, ImageURL: req.ImageURL, Source: source, CreatedAt: now,
		}
		if req.Condition != nil {
			album.Condition = *req.Condition
		}
		c.albums = append(c.albums, album)
	}

	c.updatedAt = now
	return models.AddItemResult{IsNew: true, Message: "Added to collection"}, nil
}

// RemoveAlbum detaches an album.
func (s *Store) RemoveAlbum(id, viewer, albumID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.owned(id, viewer)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(c.albums, func(a models.CollectionAlbum) bool { return a.ID == albumID })
	if i < 0 {
		return errNotFound
	}
	c.albums = slices.Delete(c.albums, i, i+1)
	c.updatedAt = s.now()
	return nil
}

// RemoveArtist detaches an artist.
func (s *Store) RemoveArtist(id, viewer, artistID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.owned(id, viewer)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(c.artists, func(a models.CollectionArtist) bool { return a.ID == artistID })
	if i < 0 {
		return errNotFound
	}
	c.artists = slices.Delete(c.artists, i, i+1)
	c.updatedAt = s.now()
	return nil
}

// SetVisibility switches a collection between public and private.
func (s *Store) SetVisibility(id, viewer int64, public bool) (models.CollectionListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.owned(id, viewer)
	if err != nil {
		return models.CollectionListItem{}, err
	}
	c.isPublic = public
	c.updatedAt = s.now()
	return s.listItem(c, viewer), nil
}

// UpdateCondition merges update into an album's condition.
func (s *Store) UpdateCondition(id, viewer, albumID int64, update models.ConditionUpdate) (models.Condition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.owned(id, viewer)
	if err != nil {
		return models.Condition{}, err
	}
	for i := range c.albums {
		if c.albums[i].ID == albumID {
			c.albums[i].Condition = c.albums[i].Condition.Apply(update)
			c.updatedAt = s.now()
			return c.albums[i].Condition, nil
		}
	}
	return models.Condition{}, errNotFound
}

// Wishlist returns viewer's wishlist, newest first.
func (s *Store) Wishlist(viewer int64) []models.WishlistItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := slices.Clone(s.wishlists[viewer])
	slices.Reverse(items)
	if items == nil {
		items = []models.WishlistItem{}
	}
	return items
}

// AddToWishlist saves an external item for viewer.
func (s *Store) AddToWishlist(viewer int64, req models.AddItemRequest) (models.AddItemResult, error) {
	if err := req.Validate(); err != nil {
		return models.AddItemResult{}, newAPIError(http.StatusUnprocessableEntity, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wishlists[viewer] {
		if w.ExternalID == req.ExternalID && w.EntityType == string(req.EntityType) {
			return models.AddItemResult{IsNew: false, Message: "Already in wishlist"}, nil
		}
	}
	s.wishlists[viewer] = append(s.wishlists[viewer], models.WishlistItem{
		ID: s.id(), ExternalID: req.ExternalID, EntityType: string(req.EntityType), Title: req.Title,
		ImageURL: req.ImageURL, Source: string(req.Source), CreatedAt: s.now(),
	})
	return models.AddItemResult{IsNew: true, Message: "Added to wishlist"}, nil
}

// RemoveFromWishlist deletes one wishlist entry.
func (s *Store) RemoveFromWishlist(viewer, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.wishlists[viewer]
	i := slices.IndexFunc(items, func(w models.WishlistItem) bool { return w.ID == itemID })
	if i < 0 {
		return errNotFound
	}
	s.wishlists[viewer] = slices.Delete(items, i, i+1)
	return nil
}

// SearchCatalog matches the query against titles and artists of the requested entity type.
func (s *Store) SearchCatalog(q string, artists bool) ([]models.ExternalItem, error) {
	if shared.RuneLen(q) < 2 {
		return nil, newAPIError(http.StatusBadRequest, "Query must be at least 2 characters")
	}
	want := models.EntityAlbum
	if artists {
		want = models.EntityArtist
	}

	needle := strings.ToLower(shared.NormalizeQuery(q))
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ExternalItem{}
	for _, it := range s.catalog {
		if it.EntityType != want {
			continue
		}
		if strings.Contains(strings.ToLower(it.Title), needle) || strings.Contains(strings.ToLower(it.Artist), needle) {
			out = append(out, it)
		}
	}
	return out, nil
}
