// VinylKeeper [Service] implementation
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/shared"
)

// VinylKeeperService maps each endpoint of the backend to a typed call.
type VinylKeeperService struct {
	api *APIService
}

// NewVinylKeeperService wraps api.
func NewVinylKeeperService(api *APIService) *VinylKeeperService {
	return &VinylKeeperService{api: api}
}

// Name returns the service name.
func (v *VinylKeeperService) Name() string {
	return "VinylKeeper"
}

// API exposes the transport, mostly for the session's cookie jar.
func (v *VinylKeeperService) API() *APIService {
	return v.api
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login posts credentials to /users/auth. The backend answers with Set-Cookie, which the jar keeps.
func (v *VinylKeeperService) Login(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrMissingArgument)
	}

	if err := v.api.Do(ctx, http.MethodPost, "/users/auth", nil, loginRequest{Email: email, Password: password}, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	return v.Me(ctx)
}

// Logout calls /users/logout.
func (v *VinylKeeperService) Logout(ctx context.Context) error {
	return v.api.Do(ctx, http.MethodPost, "/users/logout", nil, nil, nil)
}

// Me calls /users/me.
func (v *VinylKeeperService) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := v.api.Do(ctx, http.MethodGet, "/users/me", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func pageValues(p PageQuery) url.Values {
	p = p.normalize()
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	return q
}

// Collections lists the current user's collections.
func (v *VinylKeeperService) Collections(ctx context.Context, page PageQuery) (*models.Paginated[models.CollectionListItem], error) {
	var out models.Paginated[models.CollectionListItem]
	if err := v.api.Do(ctx, http.MethodGet, "/collections", pageValues(page), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PublicCollections lists every public collection.
func (v *VinylKeeperService) PublicCollections(ctx context.Context, page PageQuery, sort models.PublicSort) (*models.Paginated[models.CollectionListItem], error) {
	q := pageValues(page)
	if sort != "" {
		q.Set("sort_by", string(sort))
	}

	var out models.Paginated[models.CollectionListItem]
	if err := v.api.Do(ctx, http.MethodGet, "/collections/public", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CollectionDetails fetches the header of one collection.
func (v *VinylKeeperService) CollectionDetails(ctx context.Context, id int64) (*models.CollectionDetail, error) {
	var out models.CollectionDetail
	if err := v.api.Do(ctx, http.MethodGet, fmt.Sprintf("/collections/%d/details", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CollectionAlbums pages through a collection's albums.
func (v *VinylKeeperService) CollectionAlbums(ctx context.Context, id int64, page PageQuery) (*models.Paginated[models.CollectionAlbum], error) {
	var out models.Paginated[models.CollectionAlbum]
	if err := v.api.Do(ctx, http.MethodGet, fmt.Sprintf("/collections/%d/albums", id), pageValues(page), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CollectionArtists pages through a collection's artists.
func (v *VinylKeeperService) CollectionArtists(ctx context.Context, id int64, page PageQuery) (*models.Paginated[models.CollectionArtist], error) {
	var out models.Paginated[models.CollectionArtist]
	if err := v.api.Do(ctx, http.MethodGet, fmt.Sprintf("/collections/%d/artists", id), pageValues(page), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchCollection searches inside one collection.
func (v *VinylKeeperService) SearchCollection(ctx context.Context, id int64, query string, kind models.SearchType) (*models.CollectionSearch, error) {
	if kind == "" {
		kind = models.SearchBoth
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("search_type", string(kind))

	var out models.CollectionSearch
	if err := v.api.Do(ctx, http.MethodGet, fmt.Sprintf("/collections/%d/search", id), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Places lists moderated places.
func (v *VinylKeeperService) Places(ctx context.Context) ([]models.Place, error) {
	var out []models.Place
	if err := v.api.Do(ctx, http.MethodGet, "/places/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Place fetches one place.
func (v *VinylKeeperService) Place(ctx context.Context, id int64) (*models.Place, error) {
	var out models.Place
	if err := v.api.Do(ctx, http.MethodGet, fmt.Sprintf("/places/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Wishlist lists the current user's wishlist.
func (v *VinylKeeperService) Wishlist(ctx context.Context) ([]models.WishlistItem, error) {
	var out []models.WishlistItem
	if err := v.api.Do(ctx, http.MethodGet, "/external-references/wishlist", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchMusic queries the backend's metadata proxy.
func (v *VinylKeeperService) SearchMusic(ctx context.Context, query string, isArtist bool) ([]models.ExternalItem, error) {
	var out []models.ExternalItem
	body := models.ProxySearchRequest{Query: query, IsArtist: isArtist}
	if err := v.api.Do(ctx, http.MethodPost, "/request-proxy/search-music", nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LikeCollection calls POST /collections/{id}/like.
func (v *VinylKeeperService) LikeCollection(ctx context.Context, id int64) error {
	return v.api.Do(ctx, http.MethodPost, fmt.Sprintf("/collections/%d/like", id), nil, nil, nil)
}

// UnlikeCollection calls DELETE /collections/{id}/like.
func (v *VinylKeeperService) UnlikeCollection(ctx context.Context, id int64) error {
	return v.api.Do(ctx, http.MethodDelete, fmt.Sprintf("/collections/%d/like", id), nil, nil, nil)
}

// LikePlace calls POST /places/{id}/like.
func (v *VinylKeeperService) LikePlace(ctx context.Context, id int64) error {
	return v.api.Do(ctx, http.MethodPost, fmt.Sprintf("/places/%d/like", id), nil, nil, nil)
}

// UnlikePlace calls DELETE /places/{id}/like.
func (v *VinylKeeperService) UnlikePlace(ctx context.Context, id int64) error {
	return v.api.Do(ctx, http.MethodDelete, fmt.Sprintf("/places/%d/like", id), nil, nil, nil)
}

// AddToCollection adds an external album or artist to a collection.
func (v *VinylKeeperService) AddToCollection(ctx context.Context, collectionID int64, req models.AddItemRequest) (*models.AddItemResult, error) {
	var out models.AddItemResult
	path := fmt.Sprintf("/external-references/collection/%d/add", collectionID)
	if err := v.api.Do(ctx, http.MethodPost, path, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddToWishlist adds an external album or artist to the wishlist.
func (v *VinylKeeperService) AddToWishlist(ctx context.Context, req models.AddItemRequest) (*models.AddItemResult, error) {
	var out models.AddItemResult
	if err := v.api.Do(ctx, http.MethodPost, "/external-references/wishlist/add", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveFromWishlist deletes a wishlist entry.
func (v *VinylKeeperService) RemoveFromWishlist(ctx context.Context, itemID int64) (*models.RemoveResult, error) {
	var out models.RemoveResult
	if err := v.api.Do(ctx, http.MethodDelete, fmt.Sprintf("/external-references/wishlist/%d", itemID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveAlbum detaches an album from a collection.
func (v *VinylKeeperService) RemoveAlbum(ctx context.Context, collectionID, albumID int64) (*models.RemoveResult, error) {
	var out models.RemoveResult
	if err := v.api.Do(ctx, http.MethodDelete, fmt.Sprintf("/collections/%d/albums/%d", collectionID, albumID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveArtist detaches an artist from a collection.
func (v *VinylKeeperService) RemoveArtist(ctx context.Context, collectionID, artistID int64) (*models.RemoveResult, error) {
	var out models.RemoveResult
	if err := v.api.Do(ctx, http.MethodDelete, fmt.Sprintf("/collections/%d/artists/%d", collectionID, artistID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SwitchVisibility makes a collection public or private.
func (v *VinylKeeperService) SwitchVisibility(ctx context.Context, collectionID int64, isPublic bool) (*models.CollectionListItem, error) {
	var out models.CollectionListItem
	path := fmt.Sprintf("/collections/area/%d", collectionID)
	if err := v.api.Do(ctx, http.MethodPatch, path, nil, models.VisibilityUpdate{IsPublic: isPublic}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCondition patches an album's condition metadata.
func (v *VinylKeeperService) UpdateCondition(ctx context.Context, collectionID, albumID int64, update models.ConditionUpdate) (*models.Condition, error) {
	var out models.Condition
	path := fmt.Sprintf("/collections/%d/albums/%d/metadata", collectionID, albumID)
	if err := v.api.Do(ctx, http.MethodPatch, path, nil, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCollection calls POST /collections/add.
func (v *VinylKeeperService) CreateCollection(ctx context.Context, req models.CollectionCreate) (*models.CreatedCollection, error) {
	var out models.CreatedCollection
	if err := v.api.Do(ctx, http.MethodPost, "/collections/add", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCollection calls PATCH /collections/update/{id}.
func (v *VinylKeeperService) UpdateCollection(ctx context.Context, collectionID int64, update models.CollectionUpdate) error {
	return v.api.Do(ctx, http.MethodPatch, fmt.Sprintf("/collections/update/%d", collectionID), nil, update, nil)
}

// DeleteCollection calls DELETE /collections/{id}.
func (v *VinylKeeperService) DeleteCollection(ctx context.Context, collectionID int64) error {
	return v.api.Do(ctx, http.MethodDelete, fmt.Sprintf("/collections/%d", collectionID), nil, nil, nil)
}

// CreatePlace submits a place for moderation.
func (v *VinylKeeperService) CreatePlace(ctx context.Context, req models.PlaceCreate) (*models.Place, error) {
	var out models.Place
	if err := v.api.Do(ctx, http.MethodPost, "/places/", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

var _ Service = (*VinylKeeperService)(nil)
