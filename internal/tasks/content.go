package tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/query"
	"github.com/desertthunder/vkx/internal/services"
	"github.com/desertthunder/vkx/internal/shared"
)

// Owner answers whether the current user owns an entity.
type Owner interface {
	IsOwner(ownerUUID string) bool
}

// ContentEngine performs collection and wishlist mutations.
type ContentEngine struct {
	gateway services.Gateway
	cache   *query.Client
	owner   Owner
	logger  *log.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewContentEngine creates a [ContentEngine]. cache may be nil. owner gates condition edits.
func NewContentEngine(gateway services.Gateway, cache *query.Client, owner Owner, opts ...Option) *ContentEngine {
	o := newEngineOpts(opts)
	return &ContentEngine{
		gateway:  gateway,
		cache:    cache,
		owner:    owner,
		logger:   o.logger,
		inFlight: make(map[string]struct{}),
	}
}

// acquire claims key and returns a release func, or false if an identical request is running.
func (e *ContentEngine) acquire(key string) (func(), bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[key]; busy {
		return nil, false
	}
	e.inFlight[key] = struct{}{}
	return func() {
		e.mu.Lock()
		delete(e.inFlight, key)
		e.mu.Unlock()
	}, true
}

// InFlight reports whether an add for the same target is running.
func (e *ContentEngine) InFlight(collectionID int64, req models.AddItemRequest) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, busy := e.inFlight[collectionKey(collectionID, req)]
	return busy
}

func collectionKey(collectionID int64, req models.AddItemRequest) string {
	return "collection:" + strconv.FormatInt(collectionID, 10) + ":" + req.TargetKey()
}

func wishlistKey(req models.AddItemRequest) string {
	return "wishlist:" + req.TargetKey()
}

func idKey(prefix string, ids ...int64) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, id := range ids {
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(id, 10))
	}
	return b.String()
}

// busy is the answer to a request whose twin is still running.
func busy(what string) (Notice, error) {
	return Notice{Severity: Info, Message: "Already " + what}, shared.ErrDuplicateInFlight
}

// mutate runs fn under the cache's mutation policy, which invalidates kind on success.
// Without a cache fn runs once as is.
func (e *ContentEngine) mutate(ctx context.Context, kind query.Kind, id int64, fn func(context.Context) error) error {
	if e.cache == nil {
		return fn(ctx)
	}
	return e.cache.Mutate(ctx, kind, id, fn)
}

// AddItem adds an album or artist to a collection. The server decides whether it was new;
// both outcomes refresh the collection's album, artist and search views.
func (e *ContentEngine) AddItem(ctx context.Context, collectionID int64, req models.AddItemRequest) (Notice, error) {
	if err := req.Validate(); err != nil {
		return errorNotice(err.Error()), fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	release, ok := e.acquire(collectionKey(collectionID, req))
	if !ok {
		return busy("adding " + req.Title)
	}
	defer release()

	var res *models.AddItemResult
	err := e.mutate(ctx, query.CollectionContents, collectionID, func(ctx context.Context) (err error) {
		res, err = e.gateway.AddToCollection(ctx, collectionID, req)
		return err
	})
	if err != nil {
		e.logger.Warn("add to collection failed", "collection", collectionID, "external_id", req.ExternalID, "error", err)
		return errorNotice(fmt.Sprintf("Failed to add %s: %v", req.Title, err)), err
	}

	if !res.IsNew {
		return Notice{Severity: Info, Message: fmt.Sprintf("You already have %s in this collection", req.Title)}, nil
	}
	e.logger.Info("added to collection", "collection", collectionID, "title", req.Title)
	return Notice{Severity: Success, Message: fmt.Sprintf("Added %s to collection", req.Title)}, nil
}

// AddToWishlist adds an item to the wishlist with the same semantics as [ContentEngine.AddItem].
func (e *ContentEngine) AddToWishlist(ctx context.Context, req models.AddItemRequest) (Notice, error) {
	if err := req.Validate(); err != nil {
		return errorNotice(err.Error()), fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	release, ok := e.acquire(wishlistKey(req))
	if !ok {
		return busy("adding " + req.Title)
	}
	defer release()

	var res *models.AddItemResult
	err := e.mutate(ctx, query.WishlistContents, 0, func(ctx context.Context) (err error) {
		res, err = e.gateway.AddToWishlist(ctx, req)
		return err
	})
	if err != nil {
		e.logger.Warn("add to wishlist failed", "external_id", req.ExternalID, "error", err)
		return errorNotice(fmt.Sprintf("Failed to add %s to wishlist: %v", req.Title, err)), err
	}

	if !res.IsNew {
		return Notice{Severity: Info, Message: fmt.Sprintf("%s is already in your wishlist", req.Title)}, nil
	}
	return Notice{Severity: Success, Message: fmt.Sprintf("Added %s to wishlist", req.Title)}, nil
}

// RemoveFromWishlist deletes a wishlist entry.
func (e *ContentEngine) RemoveFromWishlist(ctx context.Context, itemID int64) (Notice, error) {
	release, ok := e.acquire(idKey("wishlist:remove", itemID))
	if !ok {
		return busy("removing this item")
	}
	defer release()

	err := e.mutate(ctx, query.WishlistContents, 0, func(ctx context.Context) error {
		_, err := e.gateway.RemoveFromWishlist(ctx, itemID)
		return err
	})
	if err != nil {
		return errorNotice(fmt.Sprintf("Failed to remove wishlist item: %v", err)), err
	}
	return Notice{Severity: Success, Message: "Removed from wishlist"}, nil
}

// RemoveAlbum removes an album from a collection and invalidates every page and search of it.
func (e *ContentEngine) RemoveAlbum(ctx context.Context, collectionID, albumID int64) (Notice, error) {
	release, ok := e.acquire(idKey("remove:album", collectionID, albumID))
	if !ok {
		return busy("removing this album")
	}
	defer release()

	err := e.mutate(ctx, query.CollectionContents, collectionID, func(ctx context.Context) error {
		_, err := e.gateway.RemoveAlbum(ctx, collectionID, albumID)
		return err
	})
	if err != nil {
		return errorNotice(fmt.Sprintf("Failed to remove album: %v", err)), err
	}
	e.logger.Info("removed album", "collection", collectionID, "album", albumID)
	return Notice{Severity: Success, Message: "Album removed from collection"}, nil
}

// RemoveArtist removes an artist from a collection and invalidates every page and search of it.
func (e *ContentEngine) RemoveArtist(ctx context.Context, collectionID, artistID int64) (Notice, error) {
	release, ok := e.acquire(idKey("remove:artist", collectionID, artistID))
	if !ok {
		return busy("removing this artist")
	}
	defer release()

	err := e.mutate(ctx, query.CollectionContents, collectionID, func(ctx context.Context) error {
		_, err := e.gateway.RemoveArtist(ctx, collectionID, artistID)
		return err
	})
	if err != nil {
		return errorNotice(fmt.Sprintf("Failed to remove artist: %v", err)), err
	}
	e.logger.Info("removed artist", "collection", collectionID, "artist", artistID)
	return Notice{Severity: Success, Message: "Artist removed from collection"}, nil
}

// SwitchVisibility makes a collection public or private. It is not optimistic; views update once the cache refetches.
func (e *ContentEngine) SwitchVisibility(ctx context.Context, collectionID int64, isPublic bool) (Notice, error) {
	release, ok := e.acquire(idKey("visibility", collectionID))
	if !ok {
		return busy("switching visibility")
	}
	defer release()

	err := e.mutate(ctx, query.CollectionVisibility, collectionID, func(ctx context.Context) error {
		_, err := e.gateway.SwitchVisibility(ctx, collectionID, isPublic)
		return err
	})
	if err != nil {
		return errorNotice(fmt.Sprintf("Failed to update visibility: %v", err)), err
	}
	return Notice{Severity: Success, Message: "Collection is now " + strings.ToLower(shared.VisibilityString(isPublic))}, nil
}

// UpdateCondition edits an album's condition. Only the collection owner may do this; the
// check runs before any request is sent.
func (e *ContentEngine) UpdateCondition(
	ctx context.Context,
	collection models.CollectionDetail,
	albumID int64,
	update models.ConditionUpdate,
) (*models.Condition, Notice, error) {
	if !e.owns(collection) {
		return nil, errorNotice("Only the collection owner can edit album condition"), shared.ErrNotOwner
	}
	if update.IsEmpty() {
		return nil, Notice{Severity: Info, Message: "Nothing to update"}, nil
	}

	release, ok := e.acquire(idKey("condition", collection.ID, albumID))
	if !ok {
		n, err := busy("updating this album")
		return nil, n, err
	}
	defer release()

	var cond *models.Condition
	err := e.mutate(ctx, query.AlbumCondition, collection.ID, func(ctx context.Context) (err error) {
		cond, err = e.gateway.UpdateCondition(ctx, collection.ID, albumID, update)
		return err
	})
	if err != nil {
		return nil, errorNotice(fmt.Sprintf("Failed to update condition: %v", err)), err
	}
	return cond, Notice{Severity: Success, Message: "Condition updated"}, nil
}

func (e *ContentEngine) owns(c models.CollectionDetail) bool {
	return e.owner != nil && e.owner.IsOwner(c.OwnerUUID)
}

// CreateCollection creates a collection for the current user and returns its id.
func (e *ContentEngine) CreateCollection(ctx context.Context, req models.CollectionCreate) (int64, Notice, error) {
	if err := req.Validate(); err != nil {
		return 0, errorNotice(err.Error()), fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	release, ok := e.acquire("collection:create:" + strings.ToLower(req.Name))
	if !ok {
		n, err := busy("creating " + req.Name)
		return 0, n, err
	}
	defer release()

	var created *models.CreatedCollection
	err := e.mutate(ctx, query.CollectionLifecycle, 0, func(ctx context.Context) (err error) {
		created, err = e.gateway.CreateCollection(ctx, req)
		return err
	})
	if err != nil {
		e.logger.Warn("create collection failed", "name", req.Name, "error", err)
		return 0, errorNotice(fmt.Sprintf("Failed to create %s: %v", req.Name, err)), err
	}
	e.logger.Info("created collection", "collection", created.CollectionID, "name", req.Name)
	return created.CollectionID, Notice{Severity: Success, Message: fmt.Sprintf("Created %s", req.Name)}, nil
}

// UpdateCollection edits the name, description or visibility of a collection the current user owns.
func (e *ContentEngine) UpdateCollection(ctx context.Context, collection models.CollectionDetail, update models.CollectionUpdate) (Notice, error) {
	if !e.owns(collection) {
		return errorNotice("Only the collection owner can edit it"), shared.ErrNotOwner
	}
	if update.IsEmpty() {
		return Notice{Severity: Info, Message: "Nothing to update"}, nil
	}
	if err := update.Validate(); err != nil {
		return errorNotice(err.Error()), fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	release, ok := e.acquire(idKey("collection:update", collection.ID))
	if !ok {
		return busy("updating this collection")
	}
	defer release()

	err := e.mutate(ctx, query.CollectionMeta, collection.ID, func(ctx context.Context) error {
		return e.gateway.UpdateCollection(ctx, collection.ID, update)
	})
	if err != nil {
		return errorNotice(fmt.Sprintf("Failed to update collection: %v", err)), err
	}
	return Notice{Severity: Success, Message: fmt.Sprintf("Updated %s", collection.Apply(update).Name)}, nil
}

// DeleteCollection deletes a collection the current user owns, with everything in it.
func (e *ContentEngine) DeleteCollection(ctx context.Context, collection models.CollectionDetail) (Notice, error) {
	if !e.owns(collection) {
		return errorNotice("Only the collection owner can delete it"), shared.ErrNotOwner
	}

	release, ok := e.acquire(idKey("collection:delete", collection.ID))
	if !ok {
		return busy("deleting this collection")
	}
	defer release()

	err := e.mutate(ctx, query.CollectionLifecycle, collection.ID, func(ctx context.Context) error {
		return e.gateway.DeleteCollection(ctx, collection.ID)
	})
	if err != nil {
		return errorNotice(fmt.Sprintf("Failed to delete collection: %v", err)), err
	}
	e.logger.Info("deleted collection", "collection", collection.ID)
	return Notice{Severity: Success, Message: fmt.Sprintf("Deleted %s", collection.Name)}, nil
}

// CreatePlace submits a place. It is listed once a moderator approves it.
func (e *ContentEngine) CreatePlace(ctx context.Context, req models.PlaceCreate) (*models.Place, Notice, error) {
	if err := req.Validate(); err != nil {
		return nil, errorNotice(err.Error()), fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	release, ok := e.acquire("place:create:" + strings.ToLower(req.Name+"|"+req.City))
	if !ok {
		n, err := busy("submitting " + req.Name)
		return nil, n, err
	}
	defer release()

	var place *models.Place
	err := e.mutate(ctx, query.PlaceSubmission, 0, func(ctx context.Context) (err error) {
		place, err = e.gateway.CreatePlace(ctx, req)
		return err
	})
	if err != nil {
		return nil, errorNotice(fmt.Sprintf("Failed to submit %s: %v", req.Name, err)), err
	}
	return place, Notice{Severity: Success, Message: fmt.Sprintf("Submitted %s for moderation", req.Name)}, nil
}
