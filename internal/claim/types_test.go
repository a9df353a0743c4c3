package claim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackActionDeltas(t *testing.T) {
	tests := []struct {
		action FeedbackAction
		alpha  float64
		beta   float64
	}{
		{ActionConfirm, 1.0, 0.0},
		{ActionReject, 0.0, 0.5},
		{ActionEscalate, 1.5, 0.0},
		{ActionNeutral, 0.0, 0.0},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			alpha, beta := tt.action.Deltas()
			assert.Equal(t, tt.alpha, alpha)
			assert.Equal(t, tt.beta, beta)
		})
	}
}

func TestFeedbackActionValid(t *testing.T) {
	assert.True(t, ActionConfirm.Valid())
	assert.True(t, ActionNeutral.Valid())
	assert.False(t, FeedbackAction("approve").Valid())
	assert.False(t, FeedbackAction("").Valid())
}

func TestClaimValidate(t *testing.T) {
	c := &Claim{ID: "pattern:retry-loop", Type: TypePattern, CreatedAt: time.Now()}
	require.NoError(t, c.Validate())

	assert.ErrorIs(t, (&Claim{Type: TypePattern}).Validate(), ErrEmptyClaimID)
	assert.ErrorIs(t, (&Claim{ID: "x", Type: Type("guess")}).Validate(), ErrInvalidClaimType)
}

func TestNewFeedbackRecord(t *testing.T) {
	rec, err := NewFeedbackRecord("claim-1", ActionConfirm, "reviewer")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "claim-1", rec.ClaimID)
	assert.Equal(t, "reviewer", rec.Actor)
	assert.False(t, rec.Timestamp.IsZero())

	_, err = NewFeedbackRecord("", ActionConfirm, "reviewer")
	assert.ErrorIs(t, err, ErrEmptyClaimID)

	_, err = NewFeedbackRecord("claim-1", FeedbackAction("maybe"), "reviewer")
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = NewFeedbackRecord("claim-1", ActionConfirm, "")
	assert.ErrorIs(t, err, ErrEmptyActor)
}

func TestSourceTypesClosedSet(t *testing.T) {
	types := SourceTypes()
	assert.Len(t, types, 10)

	seen := make(map[SourceType]bool)
	for _, st := range types {
		assert.True(t, st.Valid(), st)
		assert.False(t, seen[st], "duplicate %s", st)
		seen[st] = true
	}
	assert.False(t, SourceType("vibes").Valid())
}

func TestVerdictConclusive(t *testing.T) {
	assert.True(t, VerdictValidated.Conclusive())
	assert.True(t, VerdictInvalidated.Conclusive())
	assert.False(t, VerdictError.Conclusive())
}

func TestLocationKey(t *testing.T) {
	assert.Equal(t, "internal/api/server.go:42", Location{File: "internal/api/server.go", Line: 42}.Key())
}

func TestConfidenceParams(t *testing.T) {
	p := NewConfidenceParams("claim-1", 0.5)
	assert.InDelta(t, 0.5, p.Confidence(), 1e-9)
	assert.InDelta(t, 1.0/12.0, p.Variance(), 1e-9)

	p.Alpha = 3.0
	p.Beta = 1.0
	assert.InDelta(t, 0.75, p.Confidence(), 1e-9)

	// Degenerate parameters fall back rather than dividing by zero.
	p.Alpha = 0
	p.Beta = 0
	assert.Equal(t, 0.5, p.Confidence())
	assert.Equal(t, 0.25, p.Variance())
}
