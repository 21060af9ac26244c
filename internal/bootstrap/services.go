package bootstrap

import (
	"github.com/jonesrussell/north-cloud/link-health/infrastructure/circuitbreaker"
	infrahttp "github.com/jonesrussell/north-cloud/link-health/infrastructure/http"
	"github.com/jonesrussell/north-cloud/link-health/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/link-health/internal/archive"
	"github.com/jonesrussell/north-cloud/link-health/internal/cache"
	"github.com/jonesrussell/north-cloud/link-health/internal/config"
	"github.com/jonesrussell/north-cloud/link-health/internal/feed"
	"github.com/jonesrussell/north-cloud/link-health/internal/metrics"
	"github.com/jonesrussell/north-cloud/link-health/internal/monitor"
	"github.com/jonesrussell/north-cloud/link-health/internal/probe"
	"github.com/jonesrussell/north-cloud/link-health/internal/queue"
	"github.com/jonesrussell/north-cloud/link-health/internal/validator"
)

// SetupValidation wires prober, archive resolver, probe queue and validator.
// The queue must be started with Run before the validator is used.
func SetupValidation(
	cfg *config.Config,
	c cache.Cache,
	m *metrics.Metrics,
	log logger.Logger,
) (*validator.Validator, *queue.Queue) {
	client := infrahttp.NewClient(&infrahttp.ClientConfig{
		Timeout:      cfg.Validator.ProbeTimeout,
		MaxRedirects: cfg.Validator.MaxRedirects,
		UserAgent:    cfg.Validator.UserAgent,
	})

	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.Validator.BreakerFailures,
		OpenTimeout:      cfg.Validator.BreakerOpenTimeout,
		OnStateChange: func(from, to circuitbreaker.State) {
			log.Warn("Archive circuit breaker state changed",
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})

	resolver := archive.NewResolver(client, archive.Config{
		Endpoint: cfg.Validator.ArchiveEndpoint,
		Timeout:  cfg.Validator.ArchiveTimeout,
	}, breaker, log)

	q := queue.New(cfg.Validator.QueueDelay, log, m)

	v := validator.New(validator.Deps{
		Cache:   c,
		Queue:   q,
		Prober:  probe.New(client, cfg.Validator.ProbeTimeout, log),
		Archive: resolver,
		Metrics: m,
		Logger:  log,
	})
	return v, q
}

// SetupFeedFetcher builds the rate-limited feed fetcher.
func SetupFeedFetcher(cfg *config.Config) *feed.Fetcher {
	client := infrahttp.NewClient(&infrahttp.ClientConfig{
		Timeout:   cfg.Monitor.FeedTimeout,
		UserAgent: cfg.Validator.UserAgent,
	})
	limiter := feed.NewHostLimiter(cfg.Monitor.HostInterval)
	return feed.NewFetcher(
		feed.NewHTTPFetcher(client, limiter, cfg.Monitor.MaxFeedBytes),
		cfg.Monitor.MaxItems,
		cfg.Monitor.FeedTimeout,
	)
}

// monitorDeps returns the store-independent part of the monitor wiring.
func monitorDeps(cfg *config.Config, fetcher *feed.Fetcher, v *validator.Validator, m *metrics.Metrics, log logger.Logger) monitor.Deps {
	return monitor.Deps{
		Fetcher:    fetcher,
		Validator:  v,
		ContentTTL: cfg.Monitor.ContentTTL,
		Metrics:    m,
		Logger:     log,
	}
}
