// package services defines the interfaces over the VinylKeeper REST API
package services

import (
	"context"

	"github.com/desertthunder/vkx/internal/models"
)

// Authenticator manages the cookie-backed login.
type Authenticator interface {
	// Login exchanges credentials for session cookies and returns the user.
	Login(ctx context.Context, email, password string) (*models.User, error)
	// Logout asks the backend to expire the session cookies.
	Logout(ctx context.Context) error
	// Me returns the user the current cookies belong to.
	Me(ctx context.Context) (*models.User, error)
}

// Catalog is the read side of the API.
type Catalog interface {
	Collections(ctx context.Context, page PageQuery) (*models.Paginated[models.CollectionListItem], error)
	PublicCollections(ctx context.Context, page PageQuery, sort models.PublicSort) (*models.Paginated[models.CollectionListItem], error)
	CollectionDetails(ctx context.Context, id int64) (*models.CollectionDetail, error)
	CollectionAlbums(ctx context.Context, id int64, page PageQuery) (*models.Paginated[models.CollectionAlbum], error)
	CollectionArtists(ctx context.Context, id int64, page PageQuery) (*models.Paginated[models.CollectionArtist], error)
	SearchCollection(ctx context.Context, id int64, query string, kind models.SearchType) (*models.CollectionSearch, error)
	Places(ctx context.Context) ([]models.Place, error)
	Place(ctx context.Context, id int64) (*models.Place, error)
	Wishlist(ctx context.Context) ([]models.WishlistItem, error)
	SearchMusic(ctx context.Context, query string, isArtist bool) ([]models.ExternalItem, error)
}

// Gateway is one call per mutating endpoint.
type Gateway interface {
	LikeCollection(ctx context.Context, id int64) error
	UnlikeCollection(ctx context.Context, id int64) error
	LikePlace(ctx context.Context, id int64) error
	UnlikePlace(ctx context.Context, id int64) error
	AddToCollection(ctx context.Context, collectionID int64, req models.AddItemRequest) (*models.AddItemResult, error)
	AddToWishlist(ctx context.Context, req models.AddItemRequest) (*models.AddItemResult, error)
	RemoveFromWishlist(ctx context.Context, itemID int64) (*models.RemoveResult, error)
	RemoveAlbum(ctx context.Context, collectionID, albumID int64) (*models.RemoveResult, error)
	RemoveArtist(ctx context.Context, collectionID, artistID int64) (*models.RemoveResult, error)
	SwitchVisibility(ctx context.Context, collectionID int64, isPublic bool) (*models.CollectionListItem, error)
	UpdateCondition(ctx context.Context, collectionID, albumID int64, update models.ConditionUpdate) (*models.Condition, error)
	CreateCollection(ctx context.Context, req models.CollectionCreate) (*models.CreatedCollection, error)
	UpdateCollection(ctx context.Context, collectionID int64, update models.CollectionUpdate) error
	DeleteCollection(ctx context.Context, collectionID int64) error
	CreatePlace(ctx context.Context, req models.PlaceCreate) (*models.Place, error)
}

// Service is the full API surface.
type Service interface {
	Authenticator
	Catalog
	Gateway
}

// PageQuery selects one page of a paginated listing. Zero values fall back to page 1 and [DefaultPageSize].
type PageQuery struct {
	Page  int
	Limit int
}

// DefaultPageSize matches the backend's default page length.
const DefaultPageSize = 20

func (p PageQuery) normalize() PageQuery {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	return p
}
