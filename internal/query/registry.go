package query

import "sync"

// Kind is a class of mutation that makes some views stale.
type Kind int

const (
	// CollectionLike is a like or unlike on a collection.
	CollectionLike Kind = iota + 1
	// PlaceLike is a like or unlike on a place.
	PlaceLike
	// CollectionContents is an add or removal of an album or artist.
	CollectionContents
	// CollectionVisibility is a public/private switch.
	CollectionVisibility
	// AlbumCondition is a change to an album's condition metadata.
	AlbumCondition
	// WishlistContents is an add or removal on the wishlist.
	WishlistContents
	// CollectionMeta is an edit of a collection's name, description or visibility.
	CollectionMeta
	// CollectionLifecycle is the creation or deletion of a collection.
	CollectionLifecycle
	// PlaceSubmission is a new place sent for moderation.
	PlaceSubmission
)

var kindNames = map[Kind]string{
	CollectionLike:       "collection like",
	PlaceLike:            "place like",
	CollectionContents:   "collection contents",
	CollectionVisibility: "collection visibility",
	AlbumCondition:       "album condition",
	WishlistContents:     "wishlist contents",
	CollectionMeta:       "collection meta",
	CollectionLifecycle:  "collection lifecycle",
	PlaceSubmission:      "place submission",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Target is a view family that a kind invalidates. Scoped targets only match keys for the mutated id.
type Target struct {
	View   View
	Scoped bool
}

// All matches every key of v.
func All(v View) Target { return Target{View: v} }

// ByID matches keys of v for the mutated id.
func ByID(v View) Target { return Target{View: v, Scoped: true} }

// Registry maps each mutation kind to the views it invalidates.
type Registry struct {
	mu      sync.RWMutex
	targets map[Kind][]Target
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{targets: make(map[Kind][]Target)}
}

// DefaultRegistry declares the invalidation graph of the VinylKeeper views.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(CollectionLike, All(OwnCollections), All(PublicCollections), ByID(CollectionDetail))
	r.Register(PlaceLike, All(Places), ByID(PlaceDetail))
	r.Register(CollectionContents,
		ByID(CollectionAlbums), ByID(CollectionArtists), ByID(CollectionSearch), ByID(CollectionDetail),
		All(OwnCollections), All(PublicCollections),
	)
	r.Register(CollectionVisibility, All(OwnCollections), All(PublicCollections), ByID(CollectionDetail))
	r.Register(AlbumCondition, ByID(CollectionAlbums), ByID(CollectionSearch))
	r.Register(WishlistContents, All(Wishlist))
	r.Register(CollectionMeta, All(OwnCollections), All(PublicCollections), ByID(CollectionDetail))
	r.Register(CollectionLifecycle,
		All(OwnCollections), All(PublicCollections),
		ByID(CollectionDetail), ByID(CollectionAlbums), ByID(CollectionArtists), ByID(CollectionSearch),
	)
	r.Register(PlaceSubmission, All(Places))
	return r
}

// Register adds targets for kind.
func (r *Registry) Register(kind Kind, targets ...Target) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[kind] = append(r.targets[kind], targets...)
}

// Targets returns the view families registered for kind.
func (r *Registry) Targets(kind Kind) []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Target, len(r.targets[kind]))
	copy(out, r.targets[kind])
	return out
}

// Matches reports whether a mutation of kind on id makes key stale.
func (r *Registry) Matches(kind Kind, id int64, key Key) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.targets[kind] {
		if t.View != key.View {
			continue
		}
		if !t.Scoped || key.ID == id {
			return true
		}
	}
	return false
}
