package models

import (
	"fmt"
	"strings"
	"time"
)

// EntityType distinguishes albums from artists in add requests.
type EntityType string

const (
	EntityAlbum  EntityType = "ALBUM"
	EntityArtist EntityType = "ARTIST"
)

// ParseEntityType accepts "album"/"artist" in any case.
func ParseEntityType(s string) (EntityType, error) {
	switch EntityType(strings.ToUpper(strings.TrimSpace(s))) {
	case EntityAlbum:
		return EntityAlbum, nil
	case EntityArtist:
		return EntityArtist, nil
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// ExternalSource is the metadata provider an item came from.
type ExternalSource string

const (
	SourceDeezer      ExternalSource = "DEEZER"
	SourceDiscogs     ExternalSource = "DISCOGS"
	SourceMusicBrainz ExternalSource = "MUSICBRAINZ"
	SourceSpotify     ExternalSource = "SPOTIFY"
	SourceLastFM      ExternalSource = "LASTFM"
)

// ExternalItem is one hit from the metadata proxy search.
type ExternalItem struct {
	ExternalID string         `json:"external_id"`
	EntityType EntityType     `json:"entity_type"`
	Title      string         `json:"title"`
	Artist     string         `json:"artist,omitempty"`
	ImageURL   string         `json:"image_url,omitempty"`
	Source     ExternalSource `json:"source"`
}

// Request builds the add payload for this hit.
func (e ExternalItem) Request() AddItemRequest {
	return AddItemRequest{
		ExternalID: e.ExternalID,
		EntityType: e.EntityType,
		Title:      e.Title,
		ImageURL:   e.ImageURL,
		Source:     e.Source,
	}
}

// ProxySearchRequest is the body of the metadata proxy search.
type ProxySearchRequest struct {
	Query    string `json:"query"`
	IsArtist bool   `json:"is_artist"`
}

// AddItemRequest adds an external album or artist to a collection or the wishlist.
type AddItemRequest struct {
	ExternalID string         `json:"external_id"`
	EntityType EntityType     `json:"entity_type"`
	Title      string         `json:"title"`
	ImageURL   string         `json:"image_url"`
	Source     ExternalSource `json:"source"`
	Condition  *Condition     `json:"album_data,omitempty"`
}

// Validate checks the fields the backend requires.
func (r AddItemRequest) Validate() error {
	if strings.TrimSpace(r.ExternalID) == "" {
		return fmt.Errorf("external id is required")
	}
	if r.EntityType != EntityAlbum && r.EntityType != EntityArtist {
		return fmt.Errorf("entity type must be ALBUM or ARTIST, got %q", r.EntityType)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if r.Condition != nil && r.EntityType != EntityAlbum {
		return fmt.Errorf("condition only applies to albums")
	}
	return nil
}

// TargetKey identifies the item independent of its title, for duplicate suppression.
func (r AddItemRequest) TargetKey() string {
	return string(r.EntityType) + ":" + string(r.Source) + ":" + r.ExternalID
}

// AddItemResult is the server's verdict on an add. IsNew is false when the item was already present.
type AddItemResult struct {
	IsNew   bool   `json:"is_new"`
	Message string `json:"message"`
}

// RemoveResult is the response to a removal.
type RemoveResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WishlistItem is an external reference saved to the user's wishlist.
type WishlistItem struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"external_id"`
	EntityType string    `json:"entity_type"`
	Title      string    `json:"title"`
	ImageURL   string    `json:"image_url,omitempty"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
}
