package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/vkx/internal/models"
)

// CookieName is the session cookie the sandbox issues.
const CookieName = "access_token"

// Sandbox serves the VinylKeeper REST API from a [Store].
type Sandbox struct {
	store  *Store
	logger *log.Logger
	router *BasicRouter
	prefix string
}

// NewSandbox registers every endpoint under prefix (usually "/api").
func NewSandbox(store *Store, logger *log.Logger, prefix string) *Sandbox {
	if logger == nil {
		logger = log.Default()
	}
	s := &Sandbox{store: store, logger: logger, router: NewBasicRouter(), prefix: prefix}
	s.router.Use(Recover(logger), RequestID(), Logging(logger))
	s.routes()
	return s
}

// Store returns the backing store.
func (s *Sandbox) Store() *Store {
	return s.store
}

// ServeHTTP implements [http.Handler].
func (s *Sandbox) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Sandbox) routes() {
	r, p := s.router, s.prefix

	r.Handler(healthHandler{prefix: p})

	r.HandleFunc(http.MethodPost, p+"/users/auth", s.login)
	r.HandleFunc(http.MethodPost, p+"/users/logout", s.logout)
	r.HandleFunc(http.MethodGet, p+"/users/me", s.authed(s.me))

	r.HandleFunc(http.MethodGet, p+"/collections", s.authed(s.ownCollections))
	r.HandleFunc(http.MethodGet, p+"/collections/public", s.authed(s.publicCollections))
	r.HandleFunc(http.MethodPost, p+"/collections/add", s.authed(s.createCollection))
	r.HandleFunc(http.MethodPatch, p+"/collections/update/{id}", s.authed(s.updateCollection))
	r.HandleFunc(http.MethodDelete, p+"/collections/{id}", s.authed(s.deleteCollection))
	r.HandleFunc(http.MethodGet, p+"/collections/{id}/details", s.authed(s.details))
	r.HandleFunc(http.MethodGet, p+"/collections/{id}/albums", s.authed(s.albums))
	r.HandleFunc(http.MethodGet, p+"/collections/{id}/artists", s.authed(s.artists))
	r.HandleFunc(http.MethodGet, p+"/collections/{id}/search", s.authed(s.search))
	r.HandleFunc(http.MethodPost, p+"/collections/{id}/like", s.authed(s.collectionLike(true)))
	r.HandleFunc(http.MethodDelete, p+"/collections/{id}/like", s.authed(s.collectionLike(false)))
	r.HandleFunc(http.MethodDelete, p+"/collections/{id}/albums/{albumId}", s.authed(s.removeAlbum))
	r.HandleFunc(http.MethodDelete, p+"/collections/{id}/artists/{artistId}", s.authed(s.removeArtist))
	r.HandleFunc(http.MethodPatch, p+"/collections/area/{id}", s.authed(s.visibility))
	r.HandleFunc(http.MethodPatch, p+"/collections/{id}/albums/{albumId}/metadata", s.authed(s.condition))

	r.HandleFunc(http.MethodGet, p+"/places/", s.authed(s.places))
	r.HandleFunc(http.MethodPost, p+"/places/", s.authed(s.createPlace))
	r.HandleFunc(http.MethodGet, p+"/places/{id}", s.authed(s.place))
	r.HandleFunc(http.MethodPost, p+"/places/{id}/like", s.authed(s.placeLike(true)))
	r.HandleFunc(http.MethodDelete, p+"/places/{id}/like", s.authed(s.placeLike(false)))

	r.HandleFunc(http.MethodPost, p+"/external-references/collection/{collectionId}/add", s.authed(s.addToCollection))
	r.HandleFunc(http.MethodPost, p+"/external-references/wishlist/add", s.authed(s.addToWishlist))
	r.HandleFunc(http.MethodGet, p+"/external-references/wishlist", s.authed(s.wishlist))
	r.HandleFunc(http.MethodDelete, p+"/external-references/wishlist/{id}", s.authed(s.removeFromWishlist))

	r.HandleFunc(http.MethodPost, p+"/request-proxy/search-music", s.authed(s.searchMusic))
}

type healthHandler struct{ prefix string }

func (h healthHandler) Routes() []string { return []string{"GET " + h.prefix + "/health"} }

func (h healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func fail(w http.ResponseWriter, err error) {
	writeError(w, statusOf(err), err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}
	return page, min(limit, 100)
}

type authedFunc func(w http.ResponseWriter, r *http.Request, user models.User)

func (s *Sandbox) authed(fn authedFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(CookieName)
		if err != nil {
			fail(w, errUnauthorized)
			return
		}
		user, err := s.store.UserFor(c.Value)
		if err != nil {
			fail(w, err)
			return
		}
		fn(w, r, user)
	}
}

func (s *Sandbox) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}
	token, err := s.store.Login(body.Email, body.Password)
	if err != nil {
		fail(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: CookieName, Value: token, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful"})
}

func (s *Sandbox) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		s.store.Logout(c.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Sandbox) me(w http.ResponseWriter, r *http.Request, user models.User) {
	writeJSON(w, http.StatusOK, user)
}

func (s *Sandbox) ownCollections(w http.ResponseWriter, r *http.Request, user models.User) {
	page, limit := pageParams(r)
	writeJSON(w, http.StatusOK, s.store.OwnCollections(user.ID, page, limit))
}

func (s *Sandbox) publicCollections(w http.ResponseWriter, r *http.Request, user models.User) {
	page, limit := pageParams(r)
	sortBy := models.PublicSort(r.URL.Query().Get("sort_by"))
	writeJSON(w, http.StatusOK, s.store.PublicCollections(user.ID, page, limit, sortBy))
}

func (s *Sandbox) details(w http.ResponseWriter, r *http.Request, user models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	d, err := s.store.Details(id, user.ID)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Sandbox) albums(w http.ResponseWriter, r *http.Request, user models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	page, limit := pageParams(r)
	out, err := s.store.Albums(id, user.ID, page, limit)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Sandbox) artists(w http.ResponseWriter, r *http.Request, user models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	page, limit := pageParams(r)
	out, err := s.store.Artists(id, user.ID, page, limit)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Sandbox) search(w http.ResponseWriter, r *http.Request, user models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	q := r.URL.Query()
	out, err := s.store.Search(id, user.ID, q.Get("q"), models.SearchType(q.Get("search_type")))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Sandbox) collectionLike(liked bool) authedFunc {
	return func(w http.ResponseWriter, r *http.Request, user models.User) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := s.store.SetCollectionLike(id, user.ID, liked); err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": likeMessage(liked)})
	}
}

func (s *Sandbox) placeLike(liked bool) authedFunc {
	return func(w http.ResponseWriter, r *http.Request, user models.User) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := s.store.SetPlaceLike(id, user.ID, liked); err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": likeMessage(liked)})
	}
}

func likeMessage(liked bool) string {
	if liked {
		return "Liked"
	}
	return "Unliked"
}

func (s *Sandbox) removeAlbum(w http.ResponseWriter, r *http.Request, user models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	albumID, ok := pathID(w, r, "albumId")
	if !ok {
		return
	}
	if err := s.store.RemoveAlbum(id, user.ID, albumID); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.RemoveResult{Success: true, Message: "Album removed"})
}

func (s *Sandbox) removeArtist(w http.ResponseWriter, r *http.Request, user models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	artistID, ok := pathID(w, r, "artistId")
	if !ok {
		return
	}
	if err := s.store.RemoveArtist(id, user.ID, artistID); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.RemoveResult{Success: true, Message: "Artist removed"})
}

func (s *Sandbox) visibility(w http.ResponseWriter, r *http.Request, user models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body models.VisibilityUpdate
	if !decode(w, r, &body) {
		return
	}
	out, err := s.store.SetVisibility(id, user.ID, body.IsPublic)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Sandbox) condition(w http.ResponseWriter, r *http.Request, user models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	albumID, ok := pathID(w, r, "albumId")
	if !ok {
		return
	}
	var body models.ConditionUpdate
	if !decode(w, r, &body) {
		return
	}
	out, err := s.store.UpdateCondition(id, user.ID, albumID, body)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Sandbox) createCollection(w http.ResponseWriter, r *http.Request, user models.User) {
	var body models.CollectionCreate
	if !decode(w, r, &body) {
		return
	}
	id, err := s.store.CreateCollection(user.ID, body)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.CreatedCollection{Message: "Collection created successfully", CollectionID: id})
}

func (s *Sandbox) updateCollection(w http.ResponseWriter, r *http.Request, user models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body models.CollectionUpdate
	if !decode(w, r, &body) {
		return
	}
	if err := s.store.UpdateCollection(id, user.ID, body); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Collection updated successfully"})
}

func (s *Sandbox) deleteCollection(w http.ResponseWriter, r *http.Request, user models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteCollection(id, user.ID); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Collection deleted successfully"})
}

func (s *Sandbox) createPlace(w http.ResponseWriter, r *http.Request, user models.User) {
	var body models.PlaceCreate
	if !decode(w, r, &body) {
		return
	}
	p, err := s.store.CreatePlace(user.ID, body)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Sandbox) places(w http.ResponseWriter, r *http.Request, user models.User) {
	writeJSON(w, http.StatusOK, s.store.Places(user.ID))
}

func (s *Sandbox) place(w http.ResponseWriter, r *http.Request, user models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := s.store.Place(id, user.ID)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Sandbox) addToCollection(w http.ResponseWriter, r *http.Request, user models.User) {
	id, ok := pathID(w, r, "collectionId")
	if !ok {
		return
	}
	var body models.AddItemRequest
	if !decode(w, r, &body) {
		return
	}
	out, err := s.store.AddToCollection(id, user.ID, body)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Sandbox) addToWishlist(w http.ResponseWriter, r *http.Request, user models.User) {
	var body models.AddItemRequest
	if !decode(w, r, &body) {
		return
	}
	out, err := s.store.AddToWishlist(user.ID, body)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Sandbox) wishlist(w http.ResponseWriter, r *http.Request, user models.User) {
	writeJSON(w, http.StatusOK, s.store.Wishlist(user.ID))
}

func (s *Sandbox) removeFromWishlist(w http.ResponseWriter, r *http.Request, user models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.RemoveFromWishlist(user.ID, id); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.RemoveResult{Success: true, Message: "Removed from wishlist"})
}

func (s *Sandbox) searchMusic(w http.ResponseWriter, r *http.Request, user models.User) {
	var body models.ProxySearchRequest
	if !decode(w, r, &body) {
		return
	}
	out, err := s.store.SearchCatalog(body.Query, body.IsArtist)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
