// package models defines the data model for the vkx client
package models

import (
	"time"
)

// Model defines the base interface for locally persisted records.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}

// Paginated is the page envelope the backend wraps list responses in.
type Paginated[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// HasNext reports whether another page follows this one.
func (p Paginated[T]) HasNext() bool {
	return p.Page < p.TotalPages
}

// NewPage slices items into page (1-based) of size limit.
func NewPage[T any](items []T, page, limit int) Paginated[T] {
	if limit < 1 {
		limit = 1
	}
	if page < 1 {
		page = 1
	}
	total := len(items)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	out := make([]T, end-start)
	copy(out, items[start:end])
	return Paginated[T]{
		Items:      out,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
}

// User is the authenticated account as returned by /users/me.
type User struct {
	ID       int64  `json:"id"`
	UUID     string `json:"user_uuid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
}

// UserMini is the owner summary embedded in collections.
type UserMini struct {
	Username string `json:"username"`
	UUID     string `json:"user_uuid"`
}
