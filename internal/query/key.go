package query

import (
	"fmt"
	"strings"
)

// View is a family of cached reads.
type View int

const (
	OwnCollections View = iota + 1
	PublicCollections
	CollectionDetail
	CollectionAlbums
	CollectionArtists
	CollectionSearch
	Places
	PlaceDetail
	Wishlist
	MusicSearch
	CurrentUser
)

var viewNames = map[View]string{
	OwnCollections:    "collections",
	PublicCollections: "publicCollections",
	CollectionDetail:  "collectionDetails",
	CollectionAlbums:  "collectionAlbums",
	CollectionArtists: "collectionArtists",
	CollectionSearch:  "collectionSearch",
	Places:            "places",
	PlaceDetail:       "placeDetails",
	Wishlist:          "wishlist",
	MusicSearch:       "musicSearch",
	CurrentUser:       "me",
}

func (v View) String() string {
	if n, ok := viewNames[v]; ok {
		return n
	}
	return fmt.Sprintf("view(%d)", int(v))
}

// Key addresses one cached read. Zero-valued fields are not part of the request.
type Key struct {
	View  View
	ID    int64
	Page  int
	Limit int
	Query string
	Param string
}

func (k Key) String() string {
	parts := []string{k.View.String()}
	if k.ID != 0 {
		parts = append(parts, fmt.Sprintf("id=%d", k.ID))
	}
	if k.Page != 0 {
		parts = append(parts, fmt.Sprintf("page=%d", k.Page))
	}
	if k.Limit != 0 {
		parts = append(parts, fmt.Sprintf("limit=%d", k.Limit))
	}
	if k.Query != "" {
		parts = append(parts, "q="+k.Query)
	}
	if k.Param != "" {
		parts = append(parts, "p="+k.Param)
	}
	return strings.Join(parts, "|")
}

// OwnCollectionsKey is the current user's collections page.
func OwnCollectionsKey(page, limit int) Key {
	return Key{View: OwnCollections, Page: page, Limit: limit}
}

// PublicCollectionsKey is a page of public collections in the given order.
func PublicCollectionsKey(page, limit int, sort string) Key {
	return Key{View: PublicCollections, Page: page, Limit: limit, Param: sort}
}

// CollectionDetailKey is the header of one collection.
func CollectionDetailKey(id int64) Key {
	return Key{View: CollectionDetail, ID: id}
}

// CollectionAlbumsKey is a page of a collection's albums.
func CollectionAlbumsKey(id int64, page, limit int) Key {
	return Key{View: CollectionAlbums, ID: id, Page: page, Limit: limit}
}

// CollectionArtistsKey is a page of a collection's artists.
func CollectionArtistsKey(id int64, page, limit int) Key {
	return Key{View: CollectionArtists, ID: id, Page: page, Limit: limit}
}

// CollectionSearchKey is a search inside one collection.
func CollectionSearchKey(id int64, q, searchType string) Key {
	return Key{View: CollectionSearch, ID: id, Query: q, Param: searchType}
}

// PlacesKey is the list of places.
func PlacesKey() Key {
	return Key{View: Places}
}

// PlaceDetailKey is one place.
func PlaceDetailKey(id int64) Key {
	return Key{View: PlaceDetail, ID: id}
}

// WishlistKey is the current user's wishlist.
func WishlistKey() Key {
	return Key{View: Wishlist}
}

// MusicSearchKey is a metadata proxy search.
func MusicSearchKey(q string, artists bool) Key {
	k := Key{View: MusicSearch, Query: q, Param: "album"}
	if artists {
		k.Param = "artist"
	}
	return k
}
