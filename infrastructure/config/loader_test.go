package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/link-health/infrastructure/config"
)

type sample struct {
	Name    string        `env:"SAMPLE_NAME"    yaml:"name"`
	Port    int           `env:"SAMPLE_PORT"    yaml:"port"`
	Timeout time.Duration `env:"SAMPLE_TIMEOUT" yaml:"timeout"`
	Enabled bool          `env:"SAMPLE_ENABLED" yaml:"enabled"`
	Tags    []string      `env:"SAMPLE_TAGS"    yaml:"tags"`
	Nested  struct {
		Level string `env:"SAMPLE_LEVEL" yaml:"level"`
	} `yaml:"nested"`
}

func sampleDefaults(s *sample) {
	s.Name = "default"
	s.Port = 80
	s.Timeout = time.Second
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeYAML(t, "port: 9090\nnested:\n  level: debug\n")

	cfg, err := config.Load(path, sampleDefaults)
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Name)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.Nested.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeYAML(t, "port: 9090\ntimeout: 2s\n")
	t.Setenv("SAMPLE_PORT", "7070")
	t.Setenv("SAMPLE_TIMEOUT", "150ms")
	t.Setenv("SAMPLE_ENABLED", "yes")
	t.Setenv("SAMPLE_TAGS", "a, b ,c")
	t.Setenv("SAMPLE_LEVEL", "warn")

	cfg, err := config.Load(path, sampleDefaults)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, 150*time.Millisecond, cfg.Timeout)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Tags)
	assert.Equal(t, "warn", cfg.Nested.Level)
}

func TestLoad_UnparseableEnvIsIgnored(t *testing.T) {
	path := writeYAML(t, "port: 9090\n")
	t.Setenv("SAMPLE_PORT", "not-a-number")

	cfg, err := config.Load(path, sampleDefaults)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yml")

	_, err := config.Load(missing, sampleDefaults)
	require.ErrorIs(t, err, config.ErrConfigNotFound)

	cfg, err := config.Load(missing, sampleDefaults, config.Options{AllowMissing: true})
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Port)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeYAML(t, "port: [unterminated\n")

	_, err := config.Load(path, sampleDefaults)
	require.Error(t, err)
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "config.yml", config.GetConfigPath("config.yml"))

	t.Setenv("CONFIG_PATH", "/etc/link-health.yml")
	assert.Equal(t, "/etc/link-health.yml", config.GetConfigPath("config.yml"))
}

func TestValidators(t *testing.T) {
	t.Parallel()

	var vErr *config.ValidationError
	require.ErrorAs(t, config.Port("server.port", 0), &vErr)
	assert.Equal(t, "server.port", vErr.Field)

	require.NoError(t, config.Port("server.port", 8080))
	require.Error(t, config.Required("database.host", ""))
	require.Error(t, config.Positive("queue.capacity", 0))
	require.NoError(t, config.Positive("validator.cache_ttl", time.Hour))
	require.Error(t, config.LogLevel("loud"))
	require.NoError(t, config.LogLevel("warn"))
}
