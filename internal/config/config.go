// Package config defines the link-health service configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	infraconfig "github.com/jonesrussell/north-cloud/link-health/infrastructure/config"
	"github.com/jonesrussell/north-cloud/link-health/infrastructure/profiling"
	"github.com/jonesrussell/north-cloud/link-health/internal/archive"
	"github.com/jonesrussell/north-cloud/link-health/internal/scheduler"
)

const (
	defaultServerPort      = 8070
	defaultServerTimeout   = 30 * time.Second
	defaultDatabasePort    = 5432
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	defaultRedisAddress    = "localhost:6379"

	defaultProbeTimeout   = 10 * time.Second
	defaultArchiveTimeout = 5 * time.Second
	defaultCacheTTL       = 24 * time.Hour
	defaultQueueDelay     = 100 * time.Millisecond
	defaultMaxRedirects   = 10
	defaultUserAgent      = "north-cloud-link-health/1.0 (+https://northcloud.one)"

	defaultBreakerFailures = 5
	defaultBreakerOpen     = time.Minute

	defaultMaxItems        = 10
	defaultContentTTL      = 6 * time.Hour
	defaultFeedTimeout     = 15 * time.Second
	defaultHostInterval    = time.Second
	defaultMaxFeedBytes    = 5 << 20
	defaultFeedConcurrency = 4

	// DefaultConfigPath is used when neither --config nor CONFIG_PATH is set.
	DefaultConfigPath = "config.yml"
)

// Config is the root configuration.
type Config struct {
	Debug     bool                       `env:"APP_DEBUG" yaml:"debug"`
	Server    infraconfig.ServerConfig   `yaml:"server"`
	Database  infraconfig.DatabaseConfig `yaml:"database"`
	Redis     infraconfig.RedisConfig    `yaml:"redis"`
	Logging   infraconfig.LoggingConfig  `yaml:"logging"`
	Profiling profiling.Config           `yaml:"profiling"`
	Validator ValidatorConfig            `yaml:"validator"`
	Monitor   MonitorConfig              `yaml:"monitor"`
	Scheduler SchedulerConfig            `yaml:"scheduler"`
}

// ValidatorConfig tunes link probing.
type ValidatorConfig struct {
	ProbeTimeout    time.Duration `env:"PROBE_TIMEOUT"    yaml:"probe_timeout"`
	ArchiveEndpoint string        `env:"ARCHIVE_ENDPOINT" yaml:"archive_endpoint"`
	ArchiveTimeout  time.Duration `env:"ARCHIVE_TIMEOUT"  yaml:"archive_timeout"`
	CacheTTL        time.Duration `env:"CACHE_TTL"        yaml:"cache_ttl"`
	QueueDelay      time.Duration `env:"QUEUE_DELAY"      yaml:"queue_delay"`
	MaxRedirects    int           `yaml:"max_redirects"`
	UserAgent       string        `env:"PROBE_USER_AGENT" yaml:"user_agent"`
	// Archive circuit breaker
	BreakerFailures    int           `yaml:"breaker_failures"`
	BreakerOpenTimeout time.Duration `yaml:"breaker_open_timeout"`
}

// MonitorConfig tunes feed checks.
type MonitorConfig struct {
	MaxItems     int           `env:"MONITOR_MAX_ITEMS"   yaml:"max_items"`
	ContentTTL   time.Duration `env:"CONTENT_TTL"         yaml:"content_ttl"`
	FeedTimeout  time.Duration `env:"FEED_TIMEOUT"        yaml:"feed_timeout"`
	HostInterval time.Duration `yaml:"host_interval"`
	MaxFeedBytes int64         `yaml:"max_feed_bytes"`
}

// SchedulerConfig controls periodic aggregation.
type SchedulerConfig struct {
	Enabled     bool   `env:"SCHEDULER_ENABLED"     yaml:"enabled"`
	Schedule    string `env:"SCHEDULER_CRON"        yaml:"schedule"`
	Concurrency int    `env:"SCHEDULER_CONCURRENCY" yaml:"concurrency"`
}

// Load reads path, applies defaults and env overrides, and validates. A
// missing file is tolerated so the service can run from env alone.
func Load(path string) (*Config, error) {
	cfg, err := infraconfig.Load(path, setDefaults, infraconfig.Options{AllowMissing: true})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("invalid config: %w", validateErr)
	}

	return cfg, nil
}

// Validate checks required fields and ranges.
func (c *Config) Validate() error {
	errs := []error{
		infraconfig.Required("server.host", c.Server.Host),
		infraconfig.Port("server.port", c.Server.Port),
		infraconfig.Required("database.host", c.Database.Host),
		infraconfig.Port("database.port", c.Database.Port),
		infraconfig.Required("database.user", c.Database.User),
		infraconfig.Required("database.dbname", c.Database.DBName),
		infraconfig.LogLevel(c.Logging.Level),
		infraconfig.Positive("validator.probe_timeout", c.Validator.ProbeTimeout),
		infraconfig.Positive("validator.archive_timeout", c.Validator.ArchiveTimeout),
		infraconfig.Positive("validator.cache_ttl", c.Validator.CacheTTL),
		infraconfig.Required("validator.archive_endpoint", c.Validator.ArchiveEndpoint),
		infraconfig.Positive("monitor.max_items", c.Monitor.MaxItems),
		infraconfig.Positive("monitor.content_ttl", c.Monitor.ContentTTL),
		infraconfig.Positive("monitor.feed_timeout", c.Monitor.FeedTimeout),
		infraconfig.Positive("scheduler.concurrency", c.Scheduler.Concurrency),
	}

	if c.Validator.QueueDelay < 0 {
		errs = append(errs, &infraconfig.ValidationError{Field: "validator.queue_delay", Message: "must not be negative"})
	}
	if c.Redis.Enabled {
		errs = append(errs, infraconfig.Required("redis.address", c.Redis.Address))
	}
	if c.Scheduler.Enabled {
		if err := scheduler.ValidateSchedule(c.Scheduler.Schedule); err != nil {
			errs = append(errs, &infraconfig.ValidationError{Field: "scheduler.schedule", Message: err.Error()})
		}
	}

	return errors.Join(errs...)
}

func setDefaults(cfg *Config) {
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = defaultServerPort
	cfg.Server.ReadTimeout = defaultServerTimeout
	cfg.Server.WriteTimeout = defaultServerTimeout
	cfg.Server.CORSOrigins = []string{"http://localhost:3002"}

	cfg.Database.Host = "localhost"
	cfg.Database.Port = defaultDatabasePort
	cfg.Database.User = "postgres"
	cfg.Database.DBName = "link_health"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxOpenConns = defaultMaxOpenConns
	cfg.Database.MaxIdleConns = defaultMaxIdleConns
	cfg.Database.ConnMaxLifetime = defaultConnMaxLifetime

	cfg.Redis.Address = defaultRedisAddress
	cfg.Logging.Level = "info"
	cfg.Profiling.Address = profiling.DefaultAddress

	cfg.Validator = ValidatorConfig{
		ProbeTimeout:       defaultProbeTimeout,
		ArchiveEndpoint:    archive.DefaultEndpoint,
		ArchiveTimeout:     defaultArchiveTimeout,
		CacheTTL:           defaultCacheTTL,
		QueueDelay:         defaultQueueDelay,
		MaxRedirects:       defaultMaxRedirects,
		UserAgent:          defaultUserAgent,
		BreakerFailures:    defaultBreakerFailures,
		BreakerOpenTimeout: defaultBreakerOpen,
	}

	cfg.Monitor = MonitorConfig{
		MaxItems:     defaultMaxItems,
		ContentTTL:   defaultContentTTL,
		FeedTimeout:  defaultFeedTimeout,
		HostInterval: defaultHostInterval,
		MaxFeedBytes: defaultMaxFeedBytes,
	}

	cfg.Scheduler = SchedulerConfig{
		Enabled:     true,
		Schedule:    scheduler.DefaultSchedule,
		Concurrency: defaultFeedConcurrency,
	}
}
