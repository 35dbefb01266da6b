package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/shared"
)

// SearchHistoryRepository implements [models.Repository] for [models.SearchEntry] persistence.
type SearchHistoryRepository struct {
	db *sql.DB
}

// NewSearchHistoryRepository creates a new [SearchHistoryRepository] with the given database connection
func NewSearchHistoryRepository(db *sql.DB) *SearchHistoryRepository {
	return &SearchHistoryRepository{db: db}
}

const searchColumns = `id, sequence, user_id, scope, query, result_count, created_at`

// Create records a committed search
func (r *SearchHistoryRepository) Create(e *models.SearchEntry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "search_history")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	query := `
		INSERT INTO search_history (id, sequence, user_id, scope, query, result_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, id, sequence, e.UserID(), e.Scope(), e.Query(), e.ResultCount(), e.CreatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert search: %w", err)
	}

	e.SetID(id)
	e.SetSequence(sequence)
	return nil
}

// Get retrieves a search by ID
func (r *SearchHistoryRepository) Get(id string) (*models.SearchEntry, error) {
	query := `SELECT ` + searchColumns + ` FROM search_history WHERE id = ?`

	e, err := scanSearch(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("search not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query search: %w", err)
	}
	return e, nil
}

// Update rewrites the query text and result count of a recorded search
func (r *SearchHistoryRepository) Update(e *models.SearchEntry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result, err := r.db.Exec(
		`UPDATE search_history SET query = ?, result_count = ? WHERE id = ?`,
		e.Query(), e.ResultCount(), e.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update search: %w", err)
	}
	return expectRow(result, "search", e.ID())
}

// Delete removes a search by ID. History rows are not soft-deleted.
func (r *SearchHistoryRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM search_history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete search: %w", err)
	}
	return expectRow(result, "search", id)
}

// List retrieves searches newest first.
//
// Criteria: "user_id" (int64), "scope" (string), "limit" (int).
func (r *SearchHistoryRepository) List(criteria map[string]any) ([]*models.SearchEntry, error) {
	query := `SELECT ` + searchColumns + ` FROM search_history WHERE 1 = 1`
	args := []any{}

	if userID, ok := criteria["user_id"].(int64); ok {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	if scope, ok := criteria["scope"].(string); ok && scope != "" {
		query += " AND scope = ?"
		args = append(args, scope)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query searches: %w", err)
	}
	defer rows.Close()

	var entries []*models.SearchEntry
	for rows.Next() {
		e, err := scanSearch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Recent returns up to n distinct queries for a user and scope, newest first.
func (r *SearchHistoryRepository) Recent(userID int64, scope string, n int) ([]string, error) {
	query := `
		SELECT query FROM search_history
		WHERE user_id = ? AND scope = ?
		GROUP BY query
		ORDER BY MAX(sequence) DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, userID, scope, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent searches: %w", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("failed to scan search: %w", err)
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

// Clear deletes all history for a user and returns the number of rows removed.
func (r *SearchHistoryRepository) Clear(userID int64) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM search_history WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear search history: %w", err)
	}
	return result.RowsAffected()
}

func scanSearch(row scanner) (*models.SearchEntry, error) {
	var (
		id, scope, query string
		sequence, count  int
		userID           int64
		createdAt        time.Time
	)

	if err := row.Scan(&id, &sequence, &userID, &scope, &query, &count, &createdAt); err != nil {
		return nil, err
	}

	e := models.NewSearchEntry(userID, scope, query, count)
	e.SetID(id)
	e.SetSequence(sequence)
	e.SetCreatedAt(createdAt)
	return e, nil
}

var _ models.Repository[*models.SearchEntry] = (*SearchHistoryRepository)(nil)
