package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/groundd/internal/claim"
)

func newTestMetricsStore(t *testing.T) *MetricsStore {
	t.Helper()
	s, err := OpenMetricsStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMetricsLookupAbsent(t *testing.T) {
	ctx := context.Background()
	s := newTestMetricsStore(t)

	v, ok, err := s.Lookup(ctx, "c1", claim.SourceHealthScore)
	require.NoError(t, err)
	assert.False(t, ok, "absence is a normal outcome, not an error")
	assert.Zero(t, v)
}

func TestMetricsPutLookup(t *testing.T) {
	ctx := context.Background()
	s := newTestMetricsStore(t)

	require.NoError(t, s.Put(ctx, "c1", claim.SourceHealthScore, 0.82))

	v, ok, err := s.Lookup(ctx, "c1", claim.SourceHealthScore)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.82, v)

	// Upsert replaces.
	require.NoError(t, s.Put(ctx, "c1", claim.SourceHealthScore, 0.4))
	v, ok, err = s.Lookup(ctx, "c1", claim.SourceHealthScore)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.4, v)

	// Other sources for the same claim stay independent.
	_, ok, err = s.Lookup(ctx, "c1", claim.SourceTestCoverage)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClassifyContention(t *testing.T) {
	assert.NoError(t, classify(nil))

	err := classify(errTable{"database is locked (5) (SQLITE_BUSY)"})
	assert.ErrorIs(t, err, ErrContention)

	plain := classify(errTable{"no such table: metrics"})
	assert.NotErrorIs(t, plain, ErrContention)
	assert.Error(t, plain)
}

type errTable struct{ msg string }

func (e errTable) Error() string { return e.msg }
