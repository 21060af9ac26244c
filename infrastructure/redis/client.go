// Package redis connects go-redis clients for services that share state
// through Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	infraconfig "github.com/jonesrussell/north-cloud/link-health/infrastructure/config"
	"github.com/jonesrussell/north-cloud/link-health/infrastructure/retry"
)

// ErrEmptyAddress is returned when no address is configured.
var ErrEmptyAddress = errors.New("redis address is required")

const (
	defaultAttempts    = 3
	defaultPingTimeout = 5 * time.Second
)

type connectOptions struct {
	attempts    int
	pingTimeout time.Duration
	onRetry     func(attempt int, delay time.Duration, err error)
}

// Option adjusts how Connect waits for the server.
type Option func(*connectOptions)

// WithAttempts sets how many pings Connect makes before giving up.
func WithAttempts(n int) Option {
	return func(o *connectOptions) { o.attempts = n }
}

// WithPingTimeout bounds each ping and the dial behind it.
func WithPingTimeout(d time.Duration) Option {
	return func(o *connectOptions) { o.pingTimeout = d }
}

// WithRetryHook is called before each backoff sleep.
func WithRetryHook(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(o *connectOptions) { o.onRetry = fn }
}

// Connect builds a client for cfg and pings it with backoff until the server
// answers, the attempts run out or ctx ends. On failure the client is closed.
func Connect(ctx context.Context, cfg infraconfig.RedisConfig, opts ...Option) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	o := connectOptions{attempts: defaultAttempts, pingTimeout: defaultPingTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: o.pingTimeout,
	})

	backoff := retry.DefaultConfig()
	backoff.MaxAttempts = o.attempts
	backoff.OnRetry = o.onRetry

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, o.pingTimeout)
		defer cancel()
		return client.Ping(pingCtx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis at %s: %w", cfg.Address, err)
	}

	return client, nil
}
