// Package bootstrap handles application initialization and lifecycle management
// for the link-health service and its command-line tools.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/link-health/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/link-health/internal/config"
	"github.com/jonesrussell/north-cloud/link-health/internal/database"
	"github.com/jonesrussell/north-cloud/link-health/internal/metrics"
	"github.com/jonesrussell/north-cloud/link-health/internal/monitor"
	"github.com/jonesrussell/north-cloud/link-health/internal/queue"
	"github.com/jonesrussell/north-cloud/link-health/internal/scheduler"
	"github.com/jonesrussell/north-cloud/link-health/internal/validator"
)

// Options selects which dependencies New connects.
type Options struct {
	// Database connects PostgreSQL and builds the repositories, the storing
	// monitor and the scheduler. Without it only validation and stateless
	// feed checks are available.
	Database bool
}

// App holds the wired components.
type App struct {
	Config   *config.Config
	Logger   logger.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	DB    *sqlx.DB
	Redis *redis.Client

	Queue     *queue.Queue
	Validator *validator.Validator
	Monitor   *monitor.Monitor

	Feeds     *database.FeedRepository
	Health    *database.HealthRepository
	Content   *database.ContentRepository
	Scheduler *scheduler.Scheduler
}

// New wires the application.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	app := &App{
		Config:   cfg,
		Logger:   log,
		Registry: reg,
		Metrics:  m,
	}

	c, rdb := setupCache(ctx, cfg, log, m)
	app.Redis = rdb
	app.Validator, app.Queue = SetupValidation(cfg, c, m, log)

	deps := monitorDeps(cfg, SetupFeedFetcher(cfg), app.Validator, m, log)

	if !opts.Database {
		app.Monitor = monitor.New(deps)
		return app, nil
	}

	db, err := SetupDatabase(ctx, cfg, log)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.DB = db
	app.Feeds = database.NewFeedRepository(db)
	app.Health = database.NewHealthRepository(db)
	app.Content = database.NewContentRepository(db)

	deps.Health = app.Health
	deps.Content = app.Content
	app.Monitor = monitor.New(deps)

	app.Scheduler = scheduler.New(scheduler.Deps{
		Feeds:       app.Feeds,
		Monitor:     app.Monitor,
		Cache:       c,
		Content:     app.Content,
		Concurrency: cfg.Scheduler.Concurrency,
		Schedule:    cfg.Scheduler.Schedule,
		Metrics:     m,
		Logger:      log,
	})

	return app, nil
}

// StartQueue runs the probe worker in the background until ctx is cancelled.
func (a *App) StartQueue(ctx context.Context) {
	go func() {
		if err := a.Queue.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.Logger.Error("Probe queue stopped", logger.Error(err))
		}
	}()
}

// Close releases connections.
func (a *App) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("Failed to close database", logger.Error(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("Failed to close redis", logger.Error(err))
		}
	}
}

// RequireDatabase reports an error when the app was built without storage.
func (a *App) RequireDatabase() error {
	if a.DB == nil {
		return fmt.Errorf("%s requires a database connection", serviceName)
	}
	return nil
}
