// Package config provides configuration loading for groundd.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/groundd/internal/claim"
)

// Config is the root configuration for the grounding engine.
type Config struct {
	Logging    LoggingConfig    `koanf:"logging"`
	Stores     StoresConfig     `koanf:"stores"`
	Scorer     ScorerConfig     `koanf:"scorer"`
	Ledger     LedgerConfig     `koanf:"ledger"`
	Causal     CausalConfig     `koanf:"causal"`
	Dedupe     DedupeConfig     `koanf:"dedupe"`
	Trigger    TriggerConfig    `koanf:"trigger"`
	Resilience ResilienceConfig `koanf:"resilience"`
	Server     ServerConfig     `koanf:"server"`
}

// LoggingConfig controls zap output.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is "json" or "console".
	Format string `koanf:"format"`
}

// StoresConfig locates the two embedded databases. The claim store and
// the metrics store evolve independently and are never written inside
// one transaction.
type StoresConfig struct {
	// ClaimsPath is the claims database path (":memory:" for tests).
	ClaimsPath string `koanf:"claims_path"`

	// MetricsPath is the analysis-metrics database path.
	MetricsPath string `koanf:"metrics_path"`
}

// ScorerConfig holds per-source evidence weights and verdict thresholds.
type ScorerConfig struct {
	// Weights maps evidence source names to weights in [0.0, 1.0].
	// A weight of exactly 0.0 excludes the source from every pass.
	Weights map[string]float64 `koanf:"weights"`

	// ValidatedThreshold is the minimum score for VerdictValidated.
	ValidatedThreshold float64 `koanf:"validated_threshold"`

	// PartialThreshold is the minimum score for VerdictPartial.
	PartialThreshold float64 `koanf:"partial_threshold"`

	// WeakThreshold is the minimum score for VerdictWeak; anything
	// below is invalidated.
	WeakThreshold float64 `koanf:"weak_threshold"`
}

// LedgerConfig controls Bayesian parameter handling and time decay.
type LedgerConfig struct {
	// StaticDefault is the prior baseline decay converges toward.
	StaticDefault float64 `koanf:"static_default"`

	// HalfLifeDays is the decay half-life in days.
	HalfLifeDays float64 `koanf:"half_life_days"`

	// MaxParam clamps stored alpha/beta values.
	MaxParam float64 `koanf:"max_param"`
}

// CausalConfig controls graph maintenance.
type CausalConfig struct {
	// MinEdgeStrength is the pruning floor for weak edges.
	MinEdgeStrength float64 `koanf:"min_edge_strength"`

	// InferenceThreshold is the minimum correlation for proposed edges.
	InferenceThreshold float64 `koanf:"inference_threshold"`

	// MaxTraversalDepth bounds counterfactual/intervention traversals.
	MaxTraversalDepth int `koanf:"max_traversal_depth"`
}

// DedupeConfig controls finding deduplication.
type DedupeConfig struct {
	// SimilarityThreshold is the minimum Jaccard index for two findings
	// to be considered near-duplicates.
	SimilarityThreshold float64 `koanf:"similarity_threshold"`
}

// TriggerConfig controls when grounding passes fire.
type TriggerConfig struct {
	// ScanInterval fires a pass on every Nth scan.
	ScanInterval int `koanf:"scan_interval"`

	// MinElapsed is the minimum wall-clock gap between passes.
	MinElapsed time.Duration `koanf:"min_elapsed"`
}

// ResilienceConfig controls error budgets and write retries.
type ResilienceConfig struct {
	// DegradedThreshold is the consecutive-failure count at which a
	// subsystem reports degraded.
	DegradedThreshold int `koanf:"degraded_threshold"`

	// RetryBackoffs are the write retry delays, in order.
	RetryBackoffs []time.Duration `koanf:"retry_backoffs"`
}

// ServerConfig configures the metrics/health listener for groundd serve.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	weights := make(map[string]float64, len(claim.SourceTypes()))
	for _, st := range claim.SourceTypes() {
		weights[string(st)] = 1.0
	}
	// Secondary structural signals carry less weight by default.
	weights[string(claim.SourceCouplingMetric)] = 0.5
	weights[string(claim.SourceBoundaryScore)] = 0.5
	weights[string(claim.SourceDecisionHistory)] = 0.6

	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Stores: StoresConfig{
			ClaimsPath:  "claims.db",
			MetricsPath: "metrics.db",
		},
		Scorer: ScorerConfig{
			Weights:            weights,
			ValidatedThreshold: 0.7,
			PartialThreshold:   0.4,
			WeakThreshold:      0.1,
		},
		Ledger: LedgerConfig{
			StaticDefault: 0.5,
			HalfLifeDays:  365,
			MaxParam:      1e6,
		},
		Causal: CausalConfig{
			MinEdgeStrength:    0.3,
			InferenceThreshold: 0.6,
			MaxTraversalDepth:  10,
		},
		Dedupe: DedupeConfig{
			SimilarityThreshold: 0.7,
		},
		Trigger: TriggerConfig{
			ScanInterval: 3,
			MinElapsed:   5 * time.Minute,
		},
		Resilience: ResilienceConfig{
			DegradedThreshold: 5,
			RetryBackoffs: []time.Duration{
				10 * time.Millisecond,
				50 * time.Millisecond,
				200 * time.Millisecond,
			},
		},
		Server: ServerConfig{Addr: ":9472"},
	}
}

// Validate checks ranges and ordering across all sections.
func (c *Config) Validate() error {
	for name, w := range c.Scorer.Weights {
		if w < 0.0 || w > 1.0 {
			return fmt.Errorf("scorer weight %q out of range [0,1]: %v", name, w)
		}
	}
	if c.Scorer.ValidatedThreshold <= c.Scorer.PartialThreshold ||
		c.Scorer.PartialThreshold <= c.Scorer.WeakThreshold ||
		c.Scorer.WeakThreshold < 0 || c.Scorer.ValidatedThreshold > 1 {
		return fmt.Errorf("scorer thresholds must satisfy 0 <= weak < partial < validated <= 1, got %v/%v/%v",
			c.Scorer.WeakThreshold, c.Scorer.PartialThreshold, c.Scorer.ValidatedThreshold)
	}
	if c.Ledger.StaticDefault <= 0 || c.Ledger.StaticDefault >= 1 {
		return fmt.Errorf("ledger static default must lie in (0,1): %v", c.Ledger.StaticDefault)
	}
	if c.Ledger.HalfLifeDays <= 0 {
		return fmt.Errorf("ledger half life must be positive: %v", c.Ledger.HalfLifeDays)
	}
	if c.Causal.MinEdgeStrength < 0 || c.Causal.MinEdgeStrength > 1 {
		return fmt.Errorf("causal min edge strength out of range [0,1]: %v", c.Causal.MinEdgeStrength)
	}
	if c.Dedupe.SimilarityThreshold <= 0 || c.Dedupe.SimilarityThreshold > 1 {
		return fmt.Errorf("dedupe similarity threshold out of range (0,1]: %v", c.Dedupe.SimilarityThreshold)
	}
	if c.Trigger.ScanInterval < 1 {
		return fmt.Errorf("trigger scan interval must be >= 1: %d", c.Trigger.ScanInterval)
	}
	if c.Resilience.DegradedThreshold < 1 {
		return fmt.Errorf("resilience degraded threshold must be >= 1: %d", c.Resilience.DegradedThreshold)
	}
	if len(c.Resilience.RetryBackoffs) == 0 {
		return fmt.Errorf("resilience retry backoffs cannot be empty")
	}
	if c.Stores.ClaimsPath == "" || c.Stores.MetricsPath == "" {
		return fmt.Errorf("store paths cannot be empty")
	}
	return nil
}

// SourceWeight returns the configured weight for an evidence source,
// falling back to 1.0 when unset.
func (c *Config) SourceWeight(st claim.SourceType) float64 {
	if w, ok := c.Scorer.Weights[string(st)]; ok {
		return w
	}
	return 1.0
}
