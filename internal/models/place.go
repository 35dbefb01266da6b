package models

import (
	"errors"
	"strings"
	"time"
)

// PlaceType categorizes a community place.
type PlaceType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Place is a shop, venue or market submitted by the community.
type Place struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address,omitempty"`
	City        string    `json:"city,omitempty"`
	Country     string    `json:"country,omitempty"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Description string    `json:"description,omitempty"`
	SourceURL   string    `json:"source_url,omitempty"`
	PlaceType   PlaceType `json:"place_type"`
	SubmittedBy *UserMini `json:"submitted_by,omitempty"`
	IsModerated bool      `json:"is_moderated"`
	IsValid     bool      `json:"is_valid"`
	LikesCount  int       `json:"likes_count"`
	IsLiked     bool      `json:"is_liked"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LikeState implements [Likeable].
func (p Place) LikeState() LikeState {
	return NewLikeState(p.ID, p.LikesCount, p.IsLiked)
}

// Location joins city and country for display.
func (p Place) Location() string {
	switch {
	case p.City != "" && p.Country != "":
		return p.City + ", " + p.Country
	case p.City != "":
		return p.City
	default:
		return p.Country
	}
}

// PlaceCreate is the body of a place submission. PlaceType is the type's name; the backend
// resolves it. Coordinates are optional and geocoded from city and country when missing.
type PlaceCreate struct {
	Name        string   `json:"name"`
	Address     string   `json:"address,omitempty"`
	City        string   `json:"city"`
	Country     string   `json:"country"`
	Description string   `json:"description,omitempty"`
	SourceURL   string   `json:"source_url,omitempty"`
	PlaceType   string   `json:"place_type_id"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// Validate checks the fields the backend requires.
func (p *PlaceCreate) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	switch {
	case p.Name == "":
		return errors.New("place name is required")
	case strings.TrimSpace(p.City) == "" || strings.TrimSpace(p.Country) == "":
		return errors.New("city and country are required")
	case strings.TrimSpace(p.PlaceType) == "":
		return errors.New("place type is required")
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		return errors.New("latitude and longitude go together")
	}
	if p.Latitude != nil && (*p.Latitude < -90 || *p.Latitude > 90 || *p.Longitude < -180 || *p.Longitude > 180) {
		return errors.New("coordinates are out of range")
	}
	return nil
}
