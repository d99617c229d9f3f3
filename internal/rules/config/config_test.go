package config

import (
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "rules", cfg.OutputDir)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, int64(5*1024*1024), cfg.FetchMaxBytes)
	assert.Equal(t, 0.01, cfg.BloomFPRate)
	assert.Empty(t, cfg.Catalog)
	assert.Empty(t, cfg.SnapshotDB)
	assert.Equal(t, "data/ai_projects.json", cfg.DocumentPath())
}

func TestLoad_ValidOverrides(t *testing.T) {
	t.Setenv("AIRULES_ENV", "dev")
	t.Setenv("AIRULES_LOG_LEVEL", "debug")
	t.Setenv("AIRULES_CATALOG", "/etc/ai-rules/catalog.yaml")
	t.Setenv("AIRULES_DATA_DIR", "/var/lib/ai-rules")
	t.Setenv("AIRULES_OUTPUT_DIR", "/srv/rules")
	t.Setenv("AIRULES_SNAPSHOT_DB", "/var/lib/ai-rules/rules.db")
	t.Setenv("AIRULES_FETCH_TIMEOUT", "30s")
	t.Setenv("AIRULES_FETCH_MAX_BYTES", "1048576")
	t.Setenv("AIRULES_USER_AGENT", " ai-rules/2.0 (+https://example.com) ")
	t.Setenv("AIRULES_TAG_OVERRIDE", "AI")
	t.Setenv("AIRULES_METRICS_FILE", "/var/lib/node_exporter/airules.prom")
	t.Setenv("AIRULES_BLOOM_FP_RATE", "0.001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/etc/ai-rules/catalog.yaml", cfg.Catalog)
	assert.Equal(t, "/var/lib/ai-rules/ai_projects.json", cfg.DocumentPath())
	assert.Equal(t, "/srv/rules", cfg.OutputDir)
	assert.Equal(t, "/var/lib/ai-rules/rules.db", cfg.SnapshotDB)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, int64(1048576), cfg.FetchMaxBytes)
	assert.Equal(t, "ai-rules/2.0 (+https://example.com)", cfg.UserAgent)
	assert.Equal(t, "AI", cfg.TagOverride)
	assert.Equal(t, "/var/lib/node_exporter/airules.prom", cfg.MetricsFile)
	assert.Equal(t, 0.001, cfg.BloomFPRate)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"AIRULES_ENV":           "staging",
		"AIRULES_LOG_LEVEL":     "chatty",
		"AIRULES_BLOOM_FP_RATE": "1.5",
		"AIRULES_METRICS_FILE":  "/tmp/metrics.txt",
		"AIRULES_FETCH_TIMEOUT": "0s",
		"AIRULES_USER_AGENT":    "   ",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestLoad_UnparsableDuration(t *testing.T) {
	t.Setenv("AIRULES_FETCH_TIMEOUT", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error unmarshalling config")
}

func TestLoad_LoaderErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("defaults", func(t *testing.T) {
		orig := defaultLoader
		t.Cleanup(func() { defaultLoader = orig })
		defaultLoader = func(*koanf.Koanf) error { return boom }
		_, err := Load()
		assert.ErrorIs(t, err, boom)
	})
	t.Run("env", func(t *testing.T) {
		orig := envLoader
		t.Cleanup(func() { envLoader = orig })
		envLoader = func(*koanf.Koanf) error { return boom }
		_, err := Load()
		assert.ErrorIs(t, err, boom)
	})
	t.Run("validation registration", func(t *testing.T) {
		orig := registerValidation
		t.Cleanup(func() { registerValidation = orig })
		registerValidation = func(*validator.Validate) error { return boom }
		_, err := Load()
		assert.ErrorIs(t, err, boom)
	})
}
