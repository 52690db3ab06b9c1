package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 30, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, 24, cfg.Fetch.CacheMaxAgeHrs)
	assert.True(t, cfg.Fetch.RespectRobots)
	assert.Equal(t, 0.95, cfg.Validation.Thresholds.Excellent)
	assert.Equal(t, 0.70, cfg.Validation.Thresholds.Acceptable)
	assert.InDelta(t, 1.0, cfg.Validation.Weights.Sum(), 1e-9)
}

func TestLoad_FileOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := []byte("fetch:\n  rate_limit_secs: 2.5\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vanillacost.yaml"), yaml, 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.Fetch.RateLimitSecs)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidationConfig_Validate(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load()
	require.NoError(t, err)

	bad := cfg.Validation
	bad.Weights.HasSource = 0.5
	assert.Error(t, bad.Validate())

	bad = cfg.Validation
	bad.Thresholds.Good = 0.99
	assert.Error(t, bad.Validate())
}

func TestLoad_BadWeights(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := []byte("validation:\n  weights:\n    has_source: 0.9\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vanillacost.yaml"), yaml, 0o644))

	_, err := Load()
	assert.Error(t, err)
}
