package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/link-health/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/link-health/internal/domain"
	"github.com/jonesrussell/north-cloud/link-health/internal/metrics"
)

const (
	tierRedis = "redis"
	keyPrefix = "linkhealth:validation:"
)

// Redis shares validation results between instances. Expiry is delegated to
// Redis key TTLs. Redis errors are logged and reported as misses.
type Redis struct {
	client  *redis.Client
	ttl     time.Duration
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewRedis returns a Redis-backed cache. ttl <= 0 uses DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration, log logger.Logger, m *metrics.Metrics) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Redis{client: client, ttl: ttl, log: log, metrics: m}
}

func (r *Redis) key(url string) string {
	return keyPrefix + url
}

// Get loads and decodes the result stored for url.
func (r *Redis) Get(ctx context.Context, url string) (domain.ValidationResult, bool) {
	raw, err := r.client.Get(ctx, r.key(url)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("Redis cache read failed",
				logger.String("url", url),
				logger.Error(err),
			)
		}
		r.metrics.RecordCacheLookup(tierRedis, false)
		return domain.ValidationResult{}, false
	}

	var result domain.ValidationResult
	if err = json.Unmarshal(raw, &result); err != nil {
		r.log.Warn("Discarding undecodable cache entry",
			logger.String("url", url),
			logger.Error(err),
		)
		r.metrics.RecordCacheLookup(tierRedis, false)
		return domain.ValidationResult{}, false
	}

	r.metrics.RecordCacheLookup(tierRedis, true)
	return result, true
}

// Put stores result for url with the cache TTL. Failures are logged only.
func (r *Redis) Put(ctx context.Context, url string, result domain.ValidationResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		r.log.Error("Encode cache entry failed", logger.String("url", url), logger.Error(err))
		return
	}

	if err = r.client.Set(ctx, r.key(url), raw, r.ttl).Err(); err != nil {
		r.log.Warn("Redis cache write failed",
			logger.String("url", url),
			logger.Duration("ttl", r.ttl),
			logger.Error(err),
		)
	}
}
