package bootstrap

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/link-health/infrastructure/logger"
	infraredis "github.com/jonesrussell/north-cloud/link-health/infrastructure/redis"
	"github.com/jonesrussell/north-cloud/link-health/internal/cache"
	"github.com/jonesrussell/north-cloud/link-health/internal/config"
	"github.com/jonesrussell/north-cloud/link-health/internal/metrics"
)

const redisConnectAttempts = 3

// validationCache is the cache handed to the validator and the scheduler.
type validationCache interface {
	cache.Cache
	cache.Pruner
}

// setupCache returns the in-process cache, tiered over Redis when Redis is
// enabled and reachable. The returned client is nil when Redis is not used.
func setupCache(
	ctx context.Context,
	cfg *config.Config,
	log logger.Logger,
	m *metrics.Metrics,
) (validationCache, *redis.Client) {
	local := cache.NewMemory(cfg.Validator.CacheTTL, cache.WithMetrics(m))
	if !cfg.Redis.Enabled {
		return local, nil
	}

	client, err := infraredis.Connect(ctx, cfg.Redis,
		infraredis.WithAttempts(redisConnectAttempts),
		infraredis.WithRetryHook(func(attempt int, delay time.Duration, err error) {
			log.Debug("Redis not ready, retrying",
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.Error(err),
			)
		}),
	)
	if err != nil {
		log.Warn("Redis not available, using in-process validation cache only",
			logger.String("redis_address", cfg.Redis.Address),
			logger.Error(err),
		)
		return local, nil
	}

	log.Info("Shared validation cache initialized",
		logger.String("redis_address", cfg.Redis.Address),
	)
	return cache.NewTiered(local, cache.NewRedis(client, cfg.Validator.CacheTTL, log, m)), client
}
