package claim

import (
	"math"
	"time"
)

// ConfidenceParams holds a claim's Beta distribution parameters.
// Invariant: Alpha and Beta stay strictly positive, so the derived
// confidence alpha/(alpha+beta) always lies in (0, 1).
type ConfidenceParams struct {
	ClaimID string `json:"claim_id"`

	// Alpha is the success pseudo-count.
	Alpha float64 `json:"alpha"`

	// Beta is the failure pseudo-count.
	Beta float64 `json:"beta"`

	// StaticDefault is the prior baseline that time decay converges
	// toward.
	StaticDefault float64 `json:"static_default"`

	// LastUpdated is the timestamp of the last parameter write; decay
	// is computed lazily from it on every read.
	LastUpdated time.Time `json:"last_updated"`
}

// NewConfidenceParams returns the uniform prior Beta(1,1) for a claim.
func NewConfidenceParams(claimID string, staticDefault float64) *ConfidenceParams {
	return &ConfidenceParams{
		ClaimID:       claimID,
		Alpha:         1.0,
		Beta:          1.0,
		StaticDefault: staticDefault,
		LastUpdated:   time.Now(),
	}
}

// Confidence returns the Beta distribution mean alpha/(alpha+beta),
// guarded against non-finite parameters.
func (p *ConfidenceParams) Confidence() float64 {
	sum := p.Alpha + p.Beta
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0.5
	}
	mean := p.Alpha / sum
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return 0.5
	}
	return math.Min(math.Max(mean, 0.0), 1.0)
}

// Variance returns the Beta distribution variance, used by the explain
// surface to report how settled a confidence value is.
func (p *ConfidenceParams) Variance() float64 {
	sum := p.Alpha + p.Beta
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0.25
	}
	denom := sum * sum * (sum + 1.0)
	if denom <= 0 || math.IsInf(denom, 0) {
		return 0.25
	}
	v := (p.Alpha * p.Beta) / denom
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.25
	}
	return math.Max(v, 0.0)
}

// CausalRelation labels a directed edge between two claims.
type CausalRelation string

const (
	RelationCauses     CausalRelation = "causes"
	RelationSupports   CausalRelation = "supports"
	RelationDerivedOf  CausalRelation = "derived_of"
	RelationConflicts  CausalRelation = "conflicts"
	RelationCorrelates CausalRelation = "correlates"
)

// CausalEdge is a directed, weighted relationship between two claims.
type CausalEdge struct {
	SourceID     string         `json:"source_id"`
	TargetID     string         `json:"target_id"`
	Relation     CausalRelation `json:"relation"`
	Strength     float64        `json:"strength"`
	EvidenceNote string         `json:"evidence_note,omitempty"`
}
