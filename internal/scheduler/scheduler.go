// Package scheduler runs aggregation passes over every active feed, either on
// demand or on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/north-cloud/link-health/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/link-health/internal/cache"
	"github.com/jonesrussell/north-cloud/link-health/internal/domain"
	"github.com/jonesrussell/north-cloud/link-health/internal/metrics"
)

const (
	// DefaultConcurrency is how many feeds are checked at once.
	DefaultConcurrency = 4
	// DefaultSchedule runs an aggregation at the top of every hour.
	DefaultSchedule = "0 * * * *"
)

// ErrRunInProgress is returned when a run is triggered while another is active.
var ErrRunInProgress = errors.New("aggregation run already in progress")

// cronParser accepts standard 5-field expressions.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// FeedLister reads the feed registry.
type FeedLister interface {
	ListActive(ctx context.Context) ([]domain.Feed, error)
}

// FeedChecker checks a feed and persists the outcome.
type FeedChecker interface {
	CheckAndStore(ctx context.Context, feed domain.Feed) (domain.FeedHealth, error)
}

// ContentPruner removes expired content rows.
type ContentPruner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Deps are the collaborators of a Scheduler. Cache, Content, Metrics, Logger
// and Now are optional.
type Deps struct {
	Feeds       FeedLister
	Monitor     FeedChecker
	Cache       cache.Pruner
	Content     ContentPruner
	Concurrency int
	Schedule    string
	Metrics     *metrics.Metrics
	Logger      logger.Logger
	Now         func() time.Time
}

// Scheduler coordinates aggregation runs.
type Scheduler struct {
	feeds       FeedLister
	monitor     FeedChecker
	cache       cache.Pruner
	content     ContentPruner
	concurrency int
	schedule    string
	metrics     *metrics.Metrics
	log         logger.Logger
	now         func() time.Time

	running atomic.Bool
}

// New builds a Scheduler from deps.
func New(deps Deps) *Scheduler {
	s := &Scheduler{
		feeds:       deps.Feeds,
		monitor:     deps.Monitor,
		cache:       deps.Cache,
		content:     deps.Content,
		concurrency: deps.Concurrency,
		schedule:    deps.Schedule,
		metrics:     deps.Metrics,
		log:         deps.Logger,
		now:         deps.Now,
	}
	if s.concurrency <= 0 {
		s.concurrency = DefaultConcurrency
	}
	if s.schedule == "" {
		s.schedule = DefaultSchedule
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.log = s.log.With(logger.String("component", "scheduler"))
	return s
}

// ValidateSchedule reports whether expr is a valid 5-field cron expression.
func ValidateSchedule(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// Running reports whether a run is active.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// RunOnce checks every active feed and returns the per-feed outcomes. Feed
// failures are reported in the summary; the error is reserved for runs that
// could not start.
func (s *Scheduler) RunOnce(ctx context.Context) (domain.RunSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return domain.RunSummary{}, ErrRunInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	runID := uuid.NewString()
	log := s.log.With(logger.String("run_id", runID))

	feeds, err := s.feeds.ListActive(ctx)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("list active feeds: %w", err)
	}
	log.Info("Aggregation run started",
		logger.Int("feeds", len(feeds)),
		logger.Int("concurrency", s.concurrency),
	)

	results := make([]domain.FeedRunResult, len(feeds))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, feed := range feeds {
		g.Go(func() error {
			results[i] = s.runFeed(ctx, log, feed)
			return nil
		})
	}
	_ = g.Wait()

	summary := domain.RunSummary{RunID: runID, Processed: len(results), Results: results}
	s.afterRun(ctx, log)

	s.metrics.RecordRun(summary.Failed() > 0, time.Since(start))
	log.Info("Aggregation run finished",
		logger.Int("processed", summary.Processed),
		logger.Int("failed", summary.Failed()),
		logger.Duration("duration", time.Since(start)),
	)
	return summary, nil
}

func (s *Scheduler) runFeed(ctx context.Context, log logger.Logger, feed domain.Feed) domain.FeedRunResult {
	start := time.Now()
	health, err := s.monitor.CheckAndStore(ctx, feed)

	result := domain.FeedRunResult{
		FeedID:         feed.ID,
		Status:         domain.RunSuccess,
		ItemsProcessed: health.TotalItems,
		ResponseTimeMs: time.Since(start).Milliseconds(),
		Health:         health.Status,
	}
	if err != nil {
		log.Error("Feed run failed", logger.String("feed_id", feed.ID), logger.Error(err))
		result.Status = domain.RunError
		result.Error = err.Error()
	}
	return result
}

// afterRun sweeps expired cache entries and content rows. Failures are logged.
func (s *Scheduler) afterRun(ctx context.Context, log logger.Logger) {
	if s.cache != nil {
		if n := s.cache.Prune(s.now()); n > 0 {
			log.Debug("Pruned validation cache", logger.Int("removed", n))
		}
	}
	if s.content != nil && ctx.Err() == nil {
		n, err := s.content.DeleteExpired(ctx)
		if err != nil {
			log.Warn("Failed to delete expired content", logger.Error(err))
			return
		}
		log.Debug("Deleted expired content", logger.Int64("removed", n))
	}
}

// Start runs RunOnce on the configured cron schedule until ctx is cancelled.
// Triggers that fire while a run is active are skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)

	if _, err := c.AddFunc(s.schedule, func() { s.trigger(ctx) }); err != nil {
		return fmt.Errorf("schedule aggregation %q: %w", s.schedule, err)
	}

	c.Start()
	s.log.Info("Aggregation scheduler started", logger.String("schedule", s.schedule))

	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	s.log.Info("Aggregation scheduler stopped")
	return nil
}

func (s *Scheduler) trigger(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			s.log.Warn("Skipping scheduled run, previous run still active")
			return
		}
		s.log.Error("Scheduled run failed", logger.Error(err))
	}
}
