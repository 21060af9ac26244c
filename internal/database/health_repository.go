package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/north-cloud/link-health/internal/domain"
)

const healthSelectColumns = `feed_id, status, total_items, valid_items, average_response_time_ms,
	uptime_percentage, last_checked_at, errors`

type healthRow struct {
	FeedID                string         `db:"feed_id"`
	Status                string         `db:"status"`
	TotalItems            int            `db:"total_items"`
	ValidItems            int            `db:"valid_items"`
	AverageResponseTimeMs int64          `db:"average_response_time_ms"`
	UptimePercentage      float64        `db:"uptime_percentage"`
	LastCheckedAt         time.Time      `db:"last_checked_at"`
	Errors                pq.StringArray `db:"errors"`
}

func (h healthRow) toDomain() domain.FeedHealth {
	errs := []string(h.Errors)
	if errs == nil {
		errs = []string{}
	}
	return domain.FeedHealth{
		FeedID:                h.FeedID,
		Status:                domain.HealthStatus(h.Status),
		TotalItems:            h.TotalItems,
		ValidItems:            h.ValidItems,
		AverageResponseTimeMs: h.AverageResponseTimeMs,
		UptimePercentage:      h.UptimePercentage,
		LastCheckedAt:         h.LastCheckedAt,
		Errors:                errs,
	}
}

// HealthRepository stores one health record per feed.
type HealthRepository struct {
	db *sqlx.DB
}

// NewHealthRepository creates a new health repository.
func NewHealthRepository(db *sqlx.DB) *HealthRepository {
	return &HealthRepository{db: db}
}

// Upsert inserts or replaces the health record of h.FeedID.
func (r *HealthRepository) Upsert(ctx context.Context, h domain.FeedHealth) error {
	query := `
		INSERT INTO feed_health (` + healthSelectColumns + `, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (feed_id) DO UPDATE SET
			status = EXCLUDED.status,
			total_items = EXCLUDED.total_items,
			valid_items = EXCLUDED.valid_items,
			average_response_time_ms = EXCLUDED.average_response_time_ms,
			uptime_percentage = EXCLUDED.uptime_percentage,
			last_checked_at = EXCLUDED.last_checked_at,
			errors = EXCLUDED.errors,
			updated_at = NOW()
	`

	result, err := r.db.ExecContext(ctx, query,
		h.FeedID, string(h.Status), h.TotalItems, h.ValidItems, h.AverageResponseTimeMs,
		h.UptimePercentage, h.LastCheckedAt, pq.Array(h.Errors),
	)
	if err = execRequireRows(result, err, fmt.Errorf("feed health not written: %s", h.FeedID)); err != nil {
		return fmt.Errorf("failed to upsert feed health: %w", err)
	}

	return nil
}

// List returns every health record, worst status first.
func (r *HealthRepository) List(ctx context.Context) ([]domain.FeedHealth, error) {
	query := `
		SELECT ` + healthSelectColumns + `
		FROM feed_health
		ORDER BY uptime_percentage ASC, feed_id ASC
	`

	var rows []healthRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list feed health: %w", err)
	}

	out := make([]domain.FeedHealth, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
