package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/link-health/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/link-health/infrastructure/retry"
	"github.com/jonesrussell/north-cloud/link-health/internal/config"
	"github.com/jonesrussell/north-cloud/link-health/internal/database"
)

// SetupDatabase connects to PostgreSQL, retrying while the server comes up.
func SetupDatabase(ctx context.Context, cfg *config.Config, log logger.Logger) (*sqlx.DB, error) {
	var db *sqlx.DB

	retryCfg := retry.DefaultConfig()
	retryCfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		log.Warn("Database not ready, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Error(err),
		)
	}

	err := retry.Do(ctx, retryCfg, func(ctx context.Context) error {
		conn, connErr := database.NewPostgres(ctx, cfg.Database)
		if connErr != nil {
			return connErr
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}

	log.Info("Connected to database",
		logger.String("host", cfg.Database.Host),
		logger.String("dbname", cfg.Database.DBName),
	)
	return db, nil
}
