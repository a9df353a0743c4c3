package grounding

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/groundd/internal/claim"
)

var testThresholds = Thresholds{Validated: 0.7, Partial: 0.4, Weak: 0.1}

func evidenceSet(pairs ...float64) *claim.Set {
	// pairs is (value, weight) repeated.
	set := &claim.Set{ClaimID: "c1"}
	for i := 0; i < len(pairs); i += 2 {
		set.Items = append(set.Items, claim.Evidence{
			SourceType: claim.SourcePatternConfidence,
			ClaimID:    "c1",
			Value:      pairs[i],
			Weight:     pairs[i+1],
		})
	}
	return set
}

func TestScoreEmptySetIsError(t *testing.T) {
	score, verdict := Score(nil, testThresholds)
	assert.Zero(t, score)
	assert.Equal(t, claim.VerdictError, verdict)

	score, verdict = Score(&claim.Set{ClaimID: "c1"}, testThresholds)
	assert.Zero(t, score)
	assert.Equal(t, claim.VerdictError, verdict, "no evidence is a collection failure, never invalidation")
}

func TestScoreWeightedMean(t *testing.T) {
	// (0.9*1 + 0.3*0.5) / 1.5 = 0.7
	score, verdict := Score(evidenceSet(0.9, 1.0, 0.3, 0.5), testThresholds)
	assert.InDelta(t, 0.7, score, 1e-9)
	assert.Equal(t, claim.VerdictValidated, verdict)
}

func TestScoreVerdictBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		verdict claim.Verdict
	}{
		{"validated at threshold", 0.7, claim.VerdictValidated},
		{"partial just below validated", 0.69, claim.VerdictPartial},
		{"partial at threshold", 0.4, claim.VerdictPartial},
		{"weak just below partial", 0.39, claim.VerdictWeak},
		{"weak at threshold", 0.1, claim.VerdictWeak},
		{"invalidated below weak", 0.09, claim.VerdictInvalidated},
		{"invalidated at zero", 0.0, claim.VerdictInvalidated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, verdict := Score(evidenceSet(tt.value, 1.0), testThresholds)
			assert.InDelta(t, tt.value, score, 1e-9)
			assert.Equal(t, tt.verdict, verdict)
		})
	}
}

func TestScoreIgnoresZeroWeightItems(t *testing.T) {
	score, verdict := Score(evidenceSet(0.9, 1.0, 0.0, 0.0), testThresholds)
	assert.InDelta(t, 0.9, score, 1e-9)
	assert.Equal(t, claim.VerdictValidated, verdict)

	// All weights zero leaves nothing to score.
	score, verdict = Score(evidenceSet(0.9, 0.0), testThresholds)
	assert.Zero(t, score)
	assert.Equal(t, claim.VerdictError, verdict)
}
