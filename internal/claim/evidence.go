package claim

import "time"

// SourceType identifies one independent evidence signal. The set is
// closed and exhaustively dispatched so that per-source weighting and
// ordering stay deterministic; adding a source means adding a variant
// here, an adapter case, and a default weight.
type SourceType string

const (
	// SourcePatternConfidence is the detector's own confidence in the pattern.
	SourcePatternConfidence SourceType = "pattern_confidence"

	// SourceOccurrenceRate is how widely the pattern occurs across files.
	SourceOccurrenceRate SourceType = "occurrence_rate"

	// SourceFalsePositiveRate is the accumulated FP rate for the claim's detector.
	SourceFalsePositiveRate SourceType = "false_positive_rate"

	// SourceConstraintVerified is whether the linked constraint still holds.
	SourceConstraintVerified SourceType = "constraint_verified"

	// SourceCouplingMetric is the structural coupling around the claim's code.
	SourceCouplingMetric SourceType = "coupling_metric"

	// SourceHealthScore is the module health score where the claim lives.
	SourceHealthScore SourceType = "health_score"

	// SourceTestCoverage is test coverage over the claim's locations.
	SourceTestCoverage SourceType = "test_coverage"

	// SourceDecisionHistory is how many recorded decisions reference the claim.
	SourceDecisionHistory SourceType = "decision_history"

	// SourceErrorGaps is the count of unhandled-error gaps near the claim.
	SourceErrorGaps SourceType = "error_gaps"

	// SourceBoundaryScore is the data-boundary sensitivity score.
	SourceBoundaryScore SourceType = "boundary_score"
)

// Valid reports whether st names a known evidence source.
func (st SourceType) Valid() bool {
	switch st {
	case SourcePatternConfidence, SourceOccurrenceRate, SourceFalsePositiveRate,
		SourceConstraintVerified, SourceCouplingMetric, SourceHealthScore,
		SourceTestCoverage, SourceDecisionHistory, SourceErrorGaps, SourceBoundaryScore:
		return true
	}
	return false
}

// SourceTypes returns every evidence source in stable collection order.
func SourceTypes() []SourceType {
	return []SourceType{
		SourcePatternConfidence,
		SourceOccurrenceRate,
		SourceFalsePositiveRate,
		SourceConstraintVerified,
		SourceCouplingMetric,
		SourceHealthScore,
		SourceTestCoverage,
		SourceDecisionHistory,
		SourceErrorGaps,
		SourceBoundaryScore,
	}
}

// Evidence is one independently sourced signal about a claim's validity.
// Evidence is ephemeral: produced per grounding pass and discarded after
// scoring, except for the audit trail of source types used.
type Evidence struct {
	// SourceType identifies the signal.
	SourceType SourceType `json:"source_type"`

	// ClaimID is the claim the evidence is about.
	ClaimID string `json:"claim_id"`

	// Value is the normalized signal value in [0.0, 1.0]. Boolean
	// signals map to 0.0/1.0; rates that count against the claim
	// (false positives, error gaps) are inverted by their adapter.
	Value float64 `json:"value"`

	// Weight is the configured per-source weight in [0.0, 1.0].
	Weight float64 `json:"weight"`

	// CollectedAt is when the adapter produced the evidence.
	CollectedAt time.Time `json:"collected_at"`
}

// Set is the composite evidence collected for one claim in one pass.
type Set struct {
	// ClaimID is the claim all items refer to.
	ClaimID string `json:"claim_id"`

	// Items holds the successfully collected evidence, ordered by
	// SourceTypes() order.
	Items []Evidence `json:"items"`

	// SourcesUsed records which source types contributed, for the
	// pass audit trail.
	SourcesUsed []SourceType `json:"sources_used"`
}

// Empty reports whether no source produced evidence.
func (s *Set) Empty() bool {
	return len(s.Items) == 0
}
