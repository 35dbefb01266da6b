package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/shared"
)

// storedCookie is the subset of [http.Cookie] a jar needs to replay a session.
type storedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain,omitempty"`
	Path     string    `json:"path,omitempty"`
	Expires  time.Time `json:"expires,omitzero"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

func encodeCookies(cookies []*http.Cookie) (string, error) {
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{
			Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path,
			Expires: c.Expires, Secure: c.Secure, HttpOnly: c.HttpOnly,
		})
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("failed to encode cookies: %w", err)
	}
	return string(data), nil
}

func decodeCookies(data string) ([]*http.Cookie, error) {
	var stored []storedCookie
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to decode cookies: %w", err)
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{
			Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path,
			Expires: c.Expires, Secure: c.Secure, HttpOnly: c.HttpOnly,
		})
	}
	return cookies, nil
}

// SessionRepository implements [models.Repository] for [models.StoredSession] persistence.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, sequence, base_url, user_id, username, email, user_uuid, role, cookies, created_at, updated_at, deleted_at`

// Create inserts a new session with generated ID and sequence
func (r *SessionRepository) Create(s *models.StoredSession) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "sessions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	cookies, err := encodeCookies(s.Cookies())
	if err != nil {
		return err
	}

	id := shared.GenerateID()
	u := s.User()

	query := `
		INSERT INTO sessions (id, sequence, base_url, user_id, username, email, user_uuid, role, cookies, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, id, sequence, s.BaseURL(), u.ID, u.Username, u.Email, u.UUID, u.Role,
		cookies, s.CreatedAt(), s.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	s.SetID(id)
	s.SetSequence(sequence)
	return nil
}

// Get retrieves a session by ID, excluding logged-out sessions
func (r *SessionRepository) Get(id string) (*models.StoredSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ? AND deleted_at IS NULL`

	s, err := scanSession(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return s, nil
}

// Current returns the newest live session for baseURL.
func (r *SessionRepository) Current(baseURL string) (*models.StoredSession, error) {
	query := `
		SELECT ` + sessionColumns + ` FROM sessions
		WHERE base_url = ? AND deleted_at IS NULL
		ORDER BY sequence DESC LIMIT 1
	`

	s, err := scanSession(r.db.QueryRow(query, baseURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no session for %s", shared.ErrNotAuthenticated, baseURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return s, nil
}

// Update stores the current user and cookies of an existing session
func (r *SessionRepository) Update(s *models.StoredSession) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	cookies, err := encodeCookies(s.Cookies())
	if err != nil {
		return err
	}

	now := time.Now()
	u := s.User()

	query := `
		UPDATE sessions
		SET user_id = ?, username = ?, email = ?, user_uuid = ?, role = ?, cookies = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	result, err := r.db.Exec(query, u.ID, u.Username, u.Email, u.UUID, u.Role, cookies, now, s.ID())
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	if err := expectRow(result, "session", s.ID()); err != nil {
		return err
	}
	s.SetUpdatedAt(now)
	return nil
}

// Delete soft-deletes a session by ID and wipes its cookies
func (r *SessionRepository) Delete(id string) error {
	query := `
		UPDATE sessions
		SET deleted_at = ?, cookies = '[]'
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return expectRow(result, "session", id)
}

// List retrieves live sessions, optionally filtered by base_url
func (r *SessionRepository) List(criteria map[string]any) ([]*models.StoredSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE deleted_at IS NULL`
	args := []any{}

	if baseURL, ok := criteria["base_url"].(string); ok && baseURL != "" {
		query += " AND base_url = ?"
		args = append(args, baseURL)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.StoredSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return sessions, nil
}

func scanSession(row scanner) (*models.StoredSession, error) {
	var (
		id, baseURL, cookies string
		sequence             int
		u                    models.User
		createdAt, updatedAt time.Time
		deletedAt            sql.NullTime
	)

	err := row.Scan(&id, &sequence, &baseURL, &u.ID, &u.Username, &u.Email, &u.UUID, &u.Role,
		&cookies, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	jar, err := decodeCookies(cookies)
	if err != nil {
		return nil, err
	}

	s := models.NewStoredSession(baseURL, u, jar)
	s.SetID(id)
	s.SetSequence(sequence)
	s.SetCreatedAt(createdAt)
	s.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		s.SetDeletedAt(&deletedAt.Time)
	}
	return s, nil
}

func expectRow(result sql.Result, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s not found or already deleted: %s", entity, id)
	}
	return nil
}

var _ models.Repository[*models.StoredSession] = (*SessionRepository)(nil)
