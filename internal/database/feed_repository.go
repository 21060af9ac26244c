package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/link-health/internal/domain"
)

// ErrFeedNotFound is returned when a feed id is not in the registry.
var ErrFeedNotFound = errors.New("feed not found")

const feedSelectColumns = `id, url, category, name, active`

// FeedRepository reads the feed registry. The engine never writes to it.
type FeedRepository struct {
	db *sqlx.DB
}

// NewFeedRepository creates a new feed repository.
func NewFeedRepository(db *sqlx.DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// ListActive returns active feeds ordered by name.
func (r *FeedRepository) ListActive(ctx context.Context) ([]domain.Feed, error) {
	query := `SELECT ` + feedSelectColumns + ` FROM content_feeds WHERE active = TRUE ORDER BY name, id`

	var feeds []domain.Feed
	if err := r.db.SelectContext(ctx, &feeds, query); err != nil {
		return nil, fmt.Errorf("failed to list active feeds: %w", err)
	}

	if feeds == nil {
		feeds = []domain.Feed{}
	}

	return feeds, nil
}

// GetByID returns one feed, active or not.
func (r *FeedRepository) GetByID(ctx context.Context, id string) (domain.Feed, error) {
	query := `SELECT ` + feedSelectColumns + ` FROM content_feeds WHERE id = $1`

	var feed domain.Feed
	if err := r.db.GetContext(ctx, &feed, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Feed{}, fmt.Errorf("%w: %s", ErrFeedNotFound, id)
		}
		return domain.Feed{}, fmt.Errorf("failed to get feed %s: %w", id, err)
	}

	return feed, nil
}
