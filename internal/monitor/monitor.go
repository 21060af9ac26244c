// Package monitor computes per-feed health from the validity of item links
// and records validated items for renderers.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/link-health/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/link-health/internal/domain"
	"github.com/jonesrussell/north-cloud/link-health/internal/metrics"
)

// DefaultContentTTL is how long a content row stays visible to renderers.
const DefaultContentTTL = 6 * time.Hour

// errNoLinkedItems is recorded when a feed parses but offers nothing to validate.
var errNoLinkedItems = errors.New("feed has no items with links")

// FeedFetcher downloads and normalizes a feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]domain.FeedItem, error)
}

// LinkValidator validates item links.
type LinkValidator interface {
	ValidateBatch(ctx context.Context, urls []string) (map[string]domain.ValidationResult, error)
}

// HealthStore persists FeedHealth records.
type HealthStore interface {
	Upsert(ctx context.Context, health domain.FeedHealth) error
}

// ContentStore persists content rows.
type ContentStore interface {
	Upsert(ctx context.Context, entries []domain.ContentCacheEntry) error
}

// Deps are the collaborators of a Monitor. Health and Content are only needed
// by CheckAndStore.
type Deps struct {
	Fetcher    FeedFetcher
	Validator  LinkValidator
	Health     HealthStore
	Content    ContentStore
	ContentTTL time.Duration
	Metrics    *metrics.Metrics
	Logger     logger.Logger
	Now        func() time.Time
}

// Monitor checks feeds.
type Monitor struct {
	fetcher    FeedFetcher
	validator  LinkValidator
	health     HealthStore
	content    ContentStore
	contentTTL time.Duration
	metrics    *metrics.Metrics
	log        logger.Logger
	now        func() time.Time
}

// New builds a Monitor from deps.
func New(deps Deps) *Monitor {
	m := &Monitor{
		fetcher:    deps.Fetcher,
		validator:  deps.Validator,
		health:     deps.Health,
		content:    deps.Content,
		contentTTL: deps.ContentTTL,
		metrics:    deps.Metrics,
		log:        deps.Logger,
		now:        deps.Now,
	}
	if m.contentTTL <= 0 {
		m.contentTTL = DefaultContentTTL
	}
	if m.log == nil {
		m.log = logger.NewNop()
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.log = m.log.With(logger.String("component", "monitor"))
	return m
}

// CheckFeed fetches feed, validates its linked items and classifies it. Fetch
// and parse failures yield an offline record rather than an error. Links that
// could not be probed count as invalid.
func (m *Monitor) CheckFeed(ctx context.Context, feed domain.Feed) domain.FeedHealth {
	health, _, _ := m.check(ctx, feed)
	return health
}

// CheckAndStore runs CheckFeed and persists the health record plus a content
// row for every valid item. Nothing is written when ctx ends during the check
// or when some link could not be probed at all.
func (m *Monitor) CheckAndStore(ctx context.Context, feed domain.Feed) (domain.FeedHealth, error) {
	health, entries, err := m.check(ctx, feed)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return health, fmt.Errorf("check feed %s: %w", feed.ID, err)
	}

	if err := m.health.Upsert(ctx, health); err != nil {
		return health, fmt.Errorf("store health for feed %s: %w", feed.ID, err)
	}
	if len(entries) > 0 {
		if err := m.content.Upsert(ctx, entries); err != nil {
			return health, fmt.Errorf("store content for feed %s: %w", feed.ID, err)
		}
	}
	return health, nil
}

// check returns an error only when validation was interrupted; the health
// record is then incomplete.
func (m *Monitor) check(ctx context.Context, feed domain.Feed) (domain.FeedHealth, []domain.ContentCacheEntry, error) {
	log := m.log.With(logger.String("feed_id", feed.ID), logger.String("feed_url", feed.URL))
	checkedAt := m.now()

	items, err := m.fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		log.Warn("Feed fetch failed", logger.Error(err))
		health := offline(feed.ID, checkedAt, err)
		m.metrics.RecordFeedCheck(feed.ID, string(health.Status), 0, 0)
		return health, nil, nil
	}

	links := make([]string, 0, len(items))
	for _, item := range items {
		if item.Link != "" {
			links = append(links, item.Link)
		}
	}
	if len(links) == 0 {
		log.Info("Feed has nothing to validate", logger.Int("items", len(items)))
		health := offline(feed.ID, checkedAt, errNoLinkedItems)
		m.metrics.RecordFeedCheck(feed.ID, string(health.Status), 0, 0)
		return health, nil, nil
	}

	results, incomplete := m.validator.ValidateBatch(ctx, links)

	var (
		total, valid  int
		totalResponse int64
		errs          = make([]string, 0)
		entries       = make([]domain.ContentCacheEntry, 0, len(links))
		expiresAt     = checkedAt.Add(m.contentTTL)
	)
	for _, item := range items {
		if item.Link == "" {
			continue
		}
		r := results[item.Link]
		total++
		totalResponse += r.ResponseTimeMs

		if !r.IsValid {
			errs = append(errs, fmt.Sprintf("%s: %s", item.Link, r.Error))
			continue
		}
		valid++

		category := item.Category
		if category == "" {
			category = feed.Category
		}
		entries = append(entries, domain.ContentCacheEntry{
			FeedID:      feed.ID,
			Title:       item.Title,
			Description: item.Description,
			Link:        r.PreferredLink(),
			Category:    category,
			PubDate:     item.PubDate,
			ExpiresAt:   expiresAt,
		})
	}

	health := domain.FeedHealth{
		FeedID:                feed.ID,
		Status:                domain.ClassifyHealth(valid, total),
		TotalItems:            total,
		ValidItems:            valid,
		AverageResponseTimeMs: totalResponse / int64(total),
		UptimePercentage:      domain.UptimePercentage(valid, total),
		LastCheckedAt:         checkedAt,
		Errors:                errs,
	}

	if incomplete != nil {
		log.Warn("Feed check interrupted", logger.Error(incomplete))
		return health, entries, incomplete
	}

	m.metrics.RecordFeedCheck(feed.ID, string(health.Status), valid, total)
	log.Info("Feed checked",
		logger.String("status", string(health.Status)),
		logger.Int("total_items", total),
		logger.Int("valid_items", valid),
		logger.Float64("uptime_percentage", health.UptimePercentage),
	)
	return health, entries, nil
}

func offline(feedID string, at time.Time, err error) domain.FeedHealth {
	return domain.FeedHealth{
		FeedID:        feedID,
		Status:        domain.StatusOffline,
		LastCheckedAt: at,
		Errors:        []string{err.Error()},
	}
}
