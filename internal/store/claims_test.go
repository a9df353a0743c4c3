package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/groundd/internal/claim"
)

func newTestClaimStore(t *testing.T) *ClaimStore {
	t.Helper()
	s, err := OpenClaimStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestClaimRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestClaimStore(t)

	c := &claim.Claim{
		ID:        "pattern:retry-loop",
		Type:      claim.TypePattern,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.UpsertClaim(ctx, c))

	got, err := s.GetClaim(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, claim.TypePattern, got.Type)
	assert.True(t, got.LastGroundedAt.IsZero())

	// Upsert is idempotent.
	require.NoError(t, s.UpsertClaim(ctx, c))

	_, err = s.GetClaim(ctx, "missing")
	assert.ErrorIs(t, err, claim.ErrClaimNotFound)
}

func TestTouchGrounded(t *testing.T) {
	ctx := context.Background()
	s := newTestClaimStore(t)

	c := &claim.Claim{ID: "c1", Type: claim.TypeConstraint, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.UpsertClaim(ctx, c))

	at := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.TouchGrounded(ctx, "c1", at))

	got, err := s.GetClaim(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, at, got.LastGroundedAt.UTC())
}

func TestParamsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestClaimStore(t)

	_, err := s.GetParams(ctx, "c1")
	assert.ErrorIs(t, err, claim.ErrClaimNotFound)

	p := &claim.ConfidenceParams{
		ClaimID:       "c1",
		Alpha:         2.5,
		Beta:          1.5,
		StaticDefault: 0.5,
		LastUpdated:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.PutParams(ctx, p))

	got, err := s.GetParams(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2.5, got.Alpha)
	assert.Equal(t, 1.5, got.Beta)
	assert.Equal(t, 0.5, got.StaticDefault)

	// Overwrite.
	p.Alpha = 3.5
	require.NoError(t, s.PutParams(ctx, p))
	got, err = s.GetParams(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 3.5, got.Alpha)
}

func TestFeedbackLog(t *testing.T) {
	ctx := context.Background()
	s := newTestClaimStore(t)

	for _, action := range []claim.FeedbackAction{claim.ActionConfirm, claim.ActionReject} {
		rec, err := claim.NewFeedbackRecord("c1", action, "reviewer")
		require.NoError(t, err)
		require.NoError(t, s.AppendFeedback(ctx, rec))
	}

	recs, err := s.ListFeedback(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, claim.ActionConfirm, recs[0].Action)
	assert.Equal(t, claim.ActionReject, recs[1].Action)
	assert.Equal(t, "reviewer", recs[0].Actor)

	recs, err = s.ListFeedback(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestVerdictHistoryOrdered(t *testing.T) {
	ctx := context.Background()
	s := newTestClaimStore(t)

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	verdicts := []claim.Verdict{claim.VerdictWeak, claim.VerdictPartial, claim.VerdictValidated}
	for i, v := range verdicts {
		e := &claim.VerdictEntry{
			ClaimID:   "c1",
			Verdict:   v,
			Score:     0.3 * float64(i+1),
			CheckedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, s.AppendVerdict(ctx, e))
	}

	history, err := s.VerdictHistory(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, v := range verdicts {
		assert.Equal(t, v, history[i].Verdict, "history must be oldest first")
	}
}

func TestEdgePersistence(t *testing.T) {
	ctx := context.Background()
	s := newTestClaimStore(t)

	e := &claim.CausalEdge{
		SourceID:     "a",
		TargetID:     "b",
		Relation:     claim.RelationCauses,
		Strength:     0.8,
		EvidenceNote: "observed together",
	}
	require.NoError(t, s.PersistEdge(ctx, e))

	// Same triple upserts rather than duplicating.
	e.Strength = 0.9
	require.NoError(t, s.PersistEdge(ctx, e))

	edges, err := s.LoadEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, 0.9, edges[0].Strength)

	require.NoError(t, s.RemoveEdge(ctx, "a", "b", claim.RelationCauses))
	edges, err = s.LoadEdges(ctx)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestContradictions(t *testing.T) {
	ctx := context.Background()
	s := newTestClaimStore(t)

	n, err := s.CountContradictions(ctx, "c1")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.AppendContradiction(ctx, "c1", "sources disagreed"))
	require.NoError(t, s.AppendContradiction(ctx, "c1", "still disagreeing"))

	n, err = s.CountContradictions(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestListClaimIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestClaimStore(t)

	ids, err := s.ListClaimIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, s.UpsertClaim(ctx, &claim.Claim{ID: id, Type: claim.TypePattern, CreatedAt: time.Now().UTC()}))
	}

	ids, err = s.ListClaimIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
