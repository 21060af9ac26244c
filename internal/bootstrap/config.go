package bootstrap

import (
	"fmt"

	infraconfig "github.com/jonesrussell/north-cloud/link-health/infrastructure/config"
	"github.com/jonesrussell/north-cloud/link-health/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/link-health/internal/config"
)

const serviceName = "link-health"

// LoadConfig loads configuration from path, falling back to CONFIG_PATH and
// then config.yml when path is empty.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = infraconfig.GetConfigPath(config.DefaultConfigPath)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// CreateLogger creates a logger instance from configuration. outputPaths
// defaults to stdout.
func CreateLogger(cfg *config.Config, version string, outputPaths ...string) (logger.Logger, error) {
	level := cfg.Logging.Level
	if cfg.Debug {
		level = "debug"
	}

	log, err := logger.New(logger.Config{
		Level:       level,
		Development: cfg.Debug,
		OutputPaths: outputPaths,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		logger.String("service", serviceName),
		logger.String("version", version),
	), nil
}
