// Package evidence collects per-claim signals from the metrics store.
//
// Each evidence source is one variant of a closed enum
// (claim.SourceTypes) with a pure-read adapter. The aggregator runs all
// adapters for one claim, isolates their failures, applies configured
// weights, and produces the composite evidence set the scorer consumes.
package evidence

import (
	"context"
	"math"
	"time"

	"github.com/fyrsmithlabs/groundd/internal/claim"
)

// MetricSource is the lookup surface adapters read. Absence (ok=false)
// is a normal outcome, not a failure.
type MetricSource interface {
	Lookup(ctx context.Context, claimID string, source claim.SourceType) (value float64, ok bool, err error)
}

// collect reads and normalizes one source for one claim. Returns nil
// when the underlying signal is absent. Dispatch is an exhaustive
// switch over the closed source set so that adding a variant without a
// normalization rule fails loudly in tests rather than silently
// passing raw values through.
func collect(ctx context.Context, src MetricSource, claimID string, st claim.SourceType, weight float64) (*claim.Evidence, error) {
	raw, ok, err := src.Lookup(ctx, claimID, st)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var value float64
	switch st {
	case claim.SourcePatternConfidence,
		claim.SourceOccurrenceRate,
		claim.SourceHealthScore,
		claim.SourceTestCoverage,
		claim.SourceBoundaryScore,
		claim.SourceConstraintVerified:
		value = clamp01(raw)
	case claim.SourceFalsePositiveRate,
		claim.SourceCouplingMetric:
		// Rates that count against the claim are inverted so higher is
		// always better after normalization.
		value = 1.0 - clamp01(raw)
	case claim.SourceDecisionHistory:
		// Count of supporting decisions; saturates at 10.
		value = clamp01(raw / 10.0)
	case claim.SourceErrorGaps:
		// Count of unhandled-error gaps; each gap erodes the signal.
		value = 1.0 - clamp01(raw/10.0)
	default:
		value = clamp01(raw)
	}

	return &claim.Evidence{
		SourceType:  st,
		ClaimID:     claimID,
		Value:       value,
		Weight:      weight,
		CollectedAt: time.Now(),
	}, nil
}

// clamp01 bounds a value to [0,1], replacing non-finite input with 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.0
	}
	return math.Min(math.Max(v, 0.0), 1.0)
}
