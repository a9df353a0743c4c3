package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/groundd/internal/claim"
)

func locs(keys ...int) []claim.Location {
	out := make([]claim.Location, len(keys))
	for i, k := range keys {
		out[i] = claim.Location{File: "internal/api/server.go", Line: k}
	}
	return out
}

func TestJaccardIdentities(t *testing.T) {
	a := locs(1, 2, 3)

	assert.Equal(t, 1.0, Jaccard(a, a), "a set against itself is a perfect match")
	assert.Equal(t, 0.0, Jaccard(a, nil))
	assert.Equal(t, 0.0, Jaccard(nil, a))
	assert.Equal(t, 0.0, Jaccard(nil, nil))
}

func TestJaccardPartialOverlap(t *testing.T) {
	a := locs(1, 2, 3)
	b := locs(2, 3, 4)

	// Two shared of four total.
	assert.InDelta(t, 0.5, Jaccard(a, b), 1e-9)
	assert.Equal(t, Jaccard(a, b), Jaccard(b, a))

	c := []claim.Location{{File: "other.go", Line: 1}}
	assert.Equal(t, 0.0, Jaccard(a, c))
}

func TestJaccardDuplicateLocations(t *testing.T) {
	// Repeated fingerprints collapse into the set.
	a := locs(1, 1, 2)
	b := locs(1, 2)
	assert.Equal(t, 1.0, Jaccard(a, b))
}

func TestGroupTransitiveMerge(t *testing.T) {
	d := New(0.5, zap.NewNop())

	// A~B and B~C overlap pairwise, A and C do not.
	findings := []claim.Finding{
		{ClaimID: "a", Severity: 1, Confidence: 0.5, Locations: locs(1, 2, 3)},
		{ClaimID: "b", Severity: 1, Confidence: 0.5, Locations: locs(2, 3, 4)},
		{ClaimID: "c", Severity: 1, Confidence: 0.5, Locations: locs(3, 4, 5)},
	}
	assert.Less(t, Jaccard(findings[0].Locations, findings[2].Locations), 0.5)

	groups := d.Group(findings)
	require.Len(t, groups, 1, "overlap chains merge transitively")
	assert.Len(t, groups[0].Duplicates, 2, "duplicates are retained, not dropped")
}

func TestGroupCanonicalSelection(t *testing.T) {
	d := New(0.5, zap.NewNop())

	findings := []claim.Finding{
		{ClaimID: "low", Severity: 1, Confidence: 0.9, Locations: locs(1, 2)},
		{ClaimID: "high", Severity: 3, Confidence: 0.2, Locations: locs(1, 2)},
		{ClaimID: "mid", Severity: 2, Confidence: 0.8, Locations: locs(1, 2)},
	}
	groups := d.Group(findings)
	require.Len(t, groups, 1)
	assert.Equal(t, "high", groups[0].Canonical.ClaimID, "severity outranks confidence")

	// Equal severity falls back to confidence.
	findings = []claim.Finding{
		{ClaimID: "weaker", Severity: 2, Confidence: 0.3, Locations: locs(9)},
		{ClaimID: "stronger", Severity: 2, Confidence: 0.7, Locations: locs(9)},
	}
	groups = d.Group(findings)
	require.Len(t, groups, 1)
	assert.Equal(t, "stronger", groups[0].Canonical.ClaimID)
}

func TestGroupDisjointFindings(t *testing.T) {
	d := New(0.7, zap.NewNop())

	findings := []claim.Finding{
		{ClaimID: "a", Severity: 1, Confidence: 0.5, Locations: locs(1)},
		{ClaimID: "b", Severity: 1, Confidence: 0.5, Locations: locs(2)},
	}
	groups := d.Group(findings)
	require.Len(t, groups, 2)
	assert.Empty(t, groups[0].Duplicates)
	assert.Empty(t, groups[1].Duplicates)
}

func TestGroupEmpty(t *testing.T) {
	d := New(0.7, zap.NewNop())
	assert.Nil(t, d.Group(nil))
}

func TestGroupStableOrder(t *testing.T) {
	d := New(0.7, zap.NewNop())

	findings := []claim.Finding{
		{ClaimID: "z", Severity: 1, Confidence: 0.5, Locations: locs(1)},
		{ClaimID: "a", Severity: 1, Confidence: 0.5, Locations: locs(2)},
	}
	groups := d.Group(findings)
	require.Len(t, groups, 2)
	assert.Equal(t, "a", groups[0].Canonical.ClaimID)
	assert.Equal(t, "z", groups[1].Canonical.ClaimID)
}
