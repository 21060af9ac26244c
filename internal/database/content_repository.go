package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/link-health/internal/domain"
)

const contentSelectColumns = `feed_id, title, description, link, category, pub_date, expires_at`

// ContentRepository stores validated feed items for renderers.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository creates a new content repository.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Upsert writes entries in one transaction, replacing rows with the same
// (feed_id, title).
func (r *ContentRepository) Upsert(ctx context.Context, entries []domain.ContentCacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin content transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	query := `
		INSERT INTO content_cache (` + contentSelectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (feed_id, title) DO UPDATE SET
			description = EXCLUDED.description,
			link = EXCLUDED.link,
			category = EXCLUDED.category,
			pub_date = EXCLUDED.pub_date,
			expires_at = EXCLUDED.expires_at
	`

	for _, e := range entries {
		if _, execErr := tx.ExecContext(ctx, query,
			e.FeedID, e.Title, e.Description, e.Link, e.Category, e.PubDate, e.ExpiresAt,
		); execErr != nil {
			return fmt.Errorf("failed to upsert content %q: %w", e.Title, execErr)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("failed to commit content transaction: %w", commitErr)
	}

	return nil
}

// ListActive returns unexpired rows, newest first. An empty category matches all.
func (r *ContentRepository) ListActive(ctx context.Context, category string) ([]domain.ContentCacheEntry, error) {
	query := `
		SELECT ` + contentSelectColumns + `
		FROM content_cache
		WHERE expires_at > NOW()
		  AND ($1 = '' OR category = $1)
		ORDER BY pub_date DESC NULLS LAST, title ASC
	`

	var entries []domain.ContentCacheEntry
	if err := r.db.SelectContext(ctx, &entries, query, category); err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}

	if entries == nil {
		entries = []domain.ContentCacheEntry{}
	}

	return entries, nil
}

// DeleteExpired removes rows past their expiry and returns how many went.
func (r *ContentRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM content_cache WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired content: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted content: %w", err)
	}
	return n, nil
}
