package models

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// CollectionListItem is a collection as it appears in owner and public listings.
type CollectionListItem struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	IsPublic     bool      `json:"is_public"`
	OwnerID      int64     `json:"owner_id"`
	Owner        *UserMini `json:"owner,omitempty"`
	LikesCount   int       `json:"likes_count"`
	IsLiked      bool      `json:"is_liked_by_user"`
	AlbumsCount  int       `json:"albums_count"`
	ArtistsCount int       `json:"artists_count"`
	ImagePreview string    `json:"image_preview,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LikeState implements [Likeable].
func (c CollectionListItem) LikeState() LikeState {
	return NewLikeState(c.ID, c.LikesCount, c.IsLiked)
}

// CollectionDetail is the header of a single collection page.
type CollectionDetail struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsPublic    bool      `json:"is_public"`
	OwnerUUID   string    `json:"owner_uuid"`
	Owner       *UserMini `json:"owner,omitempty"`
	LikesCount  int       `json:"likes_count"`
	IsLiked     bool      `json:"is_liked_by_user"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LikeState implements [Likeable].
func (c CollectionDetail) LikeState() LikeState {
	return NewLikeState(c.ID, c.LikesCount, c.IsLiked)
}

// OwnedBy reports whether u owns the collection.
func (c CollectionDetail) OwnedBy(u *User) bool {
	return u != nil && u.UUID != "" && u.UUID == c.OwnerUUID
}

// Source names the external provider an item was imported from.
type Source struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CollectionAlbum is an album attached to a collection.
type CollectionAlbum struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"external_album_id"`
	Title      string    `json:"title"`
	ImageURL   string    `json:"image_url,omitempty"`
	Source     Source    `json:"external_source"`
	CreatedAt  time.Time `json:"created_at"`
	Condition
}

// CollectionArtist is an artist attached to a collection.
type CollectionArtist struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"external_artist_id"`
	Title      string    `json:"title"`
	ImageURL   string    `json:"image_url,omitempty"`
	Source     Source    `json:"external_source"`
	CreatedAt  time.Time `json:"created_at"`
}

// SearchType scopes a search inside one collection.
type SearchType string

const (
	SearchAlbums  SearchType = "album"
	SearchArtists SearchType = "artist"
	SearchBoth    SearchType = "both"
)

// CollectionSearch is the result of searching one collection's contents.
type CollectionSearch struct {
	Albums     []CollectionAlbum  `json:"albums"`
	Artists    []CollectionArtist `json:"artists"`
	Query      string             `json:"query"`
	SearchType SearchType         `json:"search_type"`
}

// Len is the total number of hits.
func (s CollectionSearch) Len() int {
	return len(s.Albums) + len(s.Artists)
}

// PublicSort orders the public collections listing.
type PublicSort string

const (
	SortUpdated PublicSort = "updated_at"
	SortCreated PublicSort = "created_at"
	SortLikes   PublicSort = "likes"
)

// MaxCollectionText bounds collection names and descriptions.
const MaxCollectionText = 255

// CollectionCreate is the body of the create collection call.
type CollectionCreate struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPublic    bool   `json:"is_public"`
}

// Validate trims the name and checks both text fields against the backend's limits.
func (c *CollectionCreate) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return errors.New("collection name cannot be empty")
	}
	return checkCollectionText(c.Name, c.Description)
}

// CreatedCollection is the answer to a create call.
type CreatedCollection struct {
	Message      string `json:"message"`
	CollectionID int64  `json:"collection_id"`
}

// CollectionUpdate is a partial edit of a collection. Nil fields are left as they are.
type CollectionUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u CollectionUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.IsPublic == nil
}

// Validate trims the name and applies the same limits as [CollectionCreate.Validate].
func (u *CollectionUpdate) Validate() error {
	name, desc := "", ""
	if u.Name != nil {
		trimmed := strings.TrimSpace(*u.Name)
		if trimmed == "" {
			return errors.New("collection name cannot be empty")
		}
		u.Name = &trimmed
		name = trimmed
	}
	if u.Description != nil {
		desc = *u.Description
	}
	return checkCollectionText(name, desc)
}

func checkCollectionText(name, description string) error {
	if utf8.RuneCountInString(name) > MaxCollectionText {
		return errors.New("collection name cannot be longer than 255 characters")
	}
	if utf8.RuneCountInString(description) > MaxCollectionText {
		return errors.New("description cannot be longer than 255 characters")
	}
	return nil
}

// Apply returns c with the non-nil fields of u.
func (c CollectionDetail) Apply(u CollectionUpdate) CollectionDetail {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.IsPublic != nil {
		c.IsPublic = *u.IsPublic
	}
	return c
}

// VisibilityUpdate is the body of the switch visibility call.
type VisibilityUpdate struct {
	IsPublic bool `json:"is_public"`
}

// CollectionExport is a collection header with all of its contents, as written by the export command.
type CollectionExport struct {
	Collection CollectionDetail   `json:"collection"`
	Albums     []CollectionAlbum  `json:"albums"`
	Artists    []CollectionArtist `json:"artists"`
}
