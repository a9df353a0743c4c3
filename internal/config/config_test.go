package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/groundd/internal/claim"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.7, cfg.Scorer.ValidatedThreshold)
	assert.Equal(t, 0.4, cfg.Scorer.PartialThreshold)
	assert.Equal(t, 0.1, cfg.Scorer.WeakThreshold)
	assert.Equal(t, 365.0, cfg.Ledger.HalfLifeDays)
	assert.Equal(t, 3, cfg.Trigger.ScanInterval)
	assert.Equal(t, 5*time.Minute, cfg.Trigger.MinElapsed)
	assert.Equal(t, 5, cfg.Resilience.DegradedThreshold)
	assert.Len(t, cfg.Scorer.Weights, len(claim.SourceTypes()))
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"weight above one", func(c *Config) { c.Scorer.Weights["health_score"] = 1.5 }},
		{"negative weight", func(c *Config) { c.Scorer.Weights["health_score"] = -0.1 }},
		{"unordered thresholds", func(c *Config) { c.Scorer.PartialThreshold = 0.8 }},
		{"validated above one", func(c *Config) { c.Scorer.ValidatedThreshold = 1.2 }},
		{"static default at zero", func(c *Config) { c.Ledger.StaticDefault = 0 }},
		{"non-positive half life", func(c *Config) { c.Ledger.HalfLifeDays = 0 }},
		{"similarity threshold zero", func(c *Config) { c.Dedupe.SimilarityThreshold = 0 }},
		{"scan interval zero", func(c *Config) { c.Trigger.ScanInterval = 0 }},
		{"no retry backoffs", func(c *Config) { c.Resilience.RetryBackoffs = nil }},
		{"empty claims path", func(c *Config) { c.Stores.ClaimsPath = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSourceWeightFallback(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 0.5, cfg.SourceWeight(claim.SourceCouplingMetric))
	assert.Equal(t, 1.0, cfg.SourceWeight(claim.SourceHealthScore))

	delete(cfg.Scorer.Weights, string(claim.SourceHealthScore))
	assert.Equal(t, 1.0, cfg.SourceWeight(claim.SourceHealthScore))
}

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Scorer.ValidatedThreshold, cfg.Scorer.ValidatedThreshold)
}

func TestLoadMissingFileIsFine(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groundd.yaml")
	content := `
logging:
  level: debug
scorer:
  validated_threshold: 0.8
stores:
  claims_path: /tmp/claims.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 0.8, cfg.Scorer.ValidatedThreshold)
	assert.Equal(t, "/tmp/claims.db", cfg.Stores.ClaimsPath)
	// Untouched fields keep their defaults.
	assert.Equal(t, 0.4, cfg.Scorer.PartialThreshold)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groundd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600))

	t.Setenv("GROUNDD_LOGGING_LEVEL", "warn")
	t.Setenv("GROUNDD_SCORER_VALIDATED_THRESHOLD", "0.9")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 0.9, cfg.Scorer.ValidatedThreshold)
}

func TestLoadInvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groundd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scorer:\n  validated_threshold: 0.2\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err, "thresholds out of order must fail validation")
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groundd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
