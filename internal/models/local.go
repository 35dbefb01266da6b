package models

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// StoredSession is the persisted login for one backend.
type StoredSession struct {
	id        string
	sequence  int
	baseURL   string
	user      User
	cookies   []*http.Cookie
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewStoredSession creates an unsaved session record.
func NewStoredSession(baseURL string, user User, cookies []*http.Cookie) *StoredSession {
	now := time.Now()
	return &StoredSession{
		baseURL:   baseURL,
		user:      user,
		cookies:   cookies,
		createdAt: now,
		updatedAt: now,
	}
}

func (s *StoredSession) ID() string                  { return s.id }
func (s *StoredSession) Sequence() int               { return s.sequence }
func (s *StoredSession) BaseURL() string             { return s.baseURL }
func (s *StoredSession) User() User                  { return s.user }
func (s *StoredSession) Cookies() []*http.Cookie     { return s.cookies }
func (s *StoredSession) CreatedAt() time.Time        { return s.createdAt }
func (s *StoredSession) UpdatedAt() time.Time        { return s.updatedAt }
func (s *StoredSession) DeletedAt() *time.Time       { return s.deletedAt }
func (s *StoredSession) SetID(id string)             { s.id = id }
func (s *StoredSession) SetSequence(n int)           { s.sequence = n }
func (s *StoredSession) SetUser(u User)              { s.user = u }
func (s *StoredSession) SetCookies(c []*http.Cookie) { s.cookies = c }
func (s *StoredSession) SetCreatedAt(t time.Time)    { s.createdAt = t }
func (s *StoredSession) SetUpdatedAt(t time.Time)    { s.updatedAt = t }
func (s *StoredSession) SetDeletedAt(t *time.Time)   { s.deletedAt = t }

// Validate implements [Model].
func (s *StoredSession) Validate() error {
	if strings.TrimSpace(s.baseURL) == "" {
		return fmt.Errorf("base url is required")
	}
	return nil
}

// SearchEntry is one committed search kept for recall.
type SearchEntry struct {
	id          string
	sequence    int
	userID      int64
	scope       string
	query       string
	resultCount int
	createdAt   time.Time
}

// NewSearchEntry creates an unsaved history row. Scope names where the search ran,
// e.g. "proxy" or "collection:12".
func NewSearchEntry(userID int64, scope, query string, resultCount int) *SearchEntry {
	return &SearchEntry{
		userID:      userID,
		scope:       scope,
		query:       query,
		resultCount: resultCount,
		createdAt:   time.Now(),
	}
}

func (e *SearchEntry) ID() string               { return e.id }
func (e *SearchEntry) Sequence() int            { return e.sequence }
func (e *SearchEntry) UserID() int64            { return e.userID }
func (e *SearchEntry) Scope() string            { return e.scope }
func (e *SearchEntry) Query() string            { return e.query }
func (e *SearchEntry) ResultCount() int         { return e.resultCount }
func (e *SearchEntry) CreatedAt() time.Time     { return e.createdAt }
func (e *SearchEntry) UpdatedAt() time.Time     { return e.createdAt }
func (e *SearchEntry) SetID(id string)          { e.id = id }
func (e *SearchEntry) SetSequence(n int)        { e.sequence = n }
func (e *SearchEntry) SetCreatedAt(t time.Time) { e.createdAt = t }

// Validate implements [Model].
func (e *SearchEntry) Validate() error {
	if strings.TrimSpace(e.scope) == "" {
		return fmt.Errorf("scope is required")
	}
	if strings.TrimSpace(e.query) == "" {
		return fmt.Errorf("query is required")
	}
	return nil
}

var (
	_ Model = (*StoredSession)(nil)
	_ Model = (*SearchEntry)(nil)
)
