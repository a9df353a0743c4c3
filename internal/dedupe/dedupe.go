// Package dedupe collapses findings that describe the same underlying
// issue. Similarity is Jaccard overlap over location fingerprints;
// groups are formed transitively with a union-find structure, so
// A~B and B~C place all three in one group even when A and C are
// below threshold.
package dedupe

import (
	"sort"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/groundd/internal/claim"
)

// Group is one cluster of findings judged to be the same issue. The
// canonical finding represents the group; duplicates are retained for
// audit, never dropped.
type Group struct {
	Canonical  claim.Finding   `json:"canonical"`
	Duplicates []claim.Finding `json:"duplicates,omitempty"`
}

// Deduplicator groups findings by location overlap.
type Deduplicator struct {
	threshold float64
	logger    *zap.Logger
}

// New creates a Deduplicator. threshold is the minimum Jaccard
// similarity for two findings to be considered duplicates.
func New(threshold float64, logger *zap.Logger) *Deduplicator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduplicator{threshold: threshold, logger: logger}
}

// Jaccard computes |A∩B| / |A∪B| over the location fingerprints of
// two findings. Identical non-empty sets score 1.0; if either set is
// empty the score is 0.0 (an unlocated finding matches nothing,
// including itself being compared against an empty peer).
func Jaccard(a, b []claim.Location) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	setA := make(map[string]struct{}, len(a))
	for _, loc := range a {
		setA[loc.Key()] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, loc := range b {
		setB[loc.Key()] = struct{}{}
	}
	intersection := 0
	for k := range setA {
		if _, ok := setB[k]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// Group clusters the findings. Pairwise similarities at or above the
// threshold are merged transitively. Within each group the canonical
// finding is the one with the highest severity, breaking ties by
// confidence and then by claim ID for determinism.
func (d *Deduplicator) Group(findings []claim.Finding) []Group {
	if len(findings) == 0 {
		return nil
	}

	uf := newUnionFind(len(findings))
	for i := 0; i < len(findings); i++ {
		for j := i + 1; j < len(findings); j++ {
			if Jaccard(findings[i].Locations, findings[j].Locations) >= d.threshold {
				uf.union(i, j)
			}
		}
	}

	members := make(map[int][]int)
	for i := range findings {
		root := uf.find(i)
		members[root] = append(members[root], i)
	}

	groups := make([]Group, 0, len(members))
	for _, idxs := range members {
		sort.Slice(idxs, func(a, b int) bool {
			return moreCanonical(findings[idxs[a]], findings[idxs[b]])
		})
		g := Group{Canonical: findings[idxs[0]]}
		for _, i := range idxs[1:] {
			g.Duplicates = append(g.Duplicates, findings[i])
		}
		groups = append(groups, g)
	}
	sort.Slice(groups, func(a, b int) bool {
		return groups[a].Canonical.ClaimID < groups[b].Canonical.ClaimID
	})

	if collapsed := len(findings) - len(groups); collapsed > 0 {
		d.logger.Debug("deduplicated findings",
			zap.Int("input", len(findings)),
			zap.Int("groups", len(groups)),
			zap.Int("collapsed", collapsed))
	}
	return groups
}

func moreCanonical(a, b claim.Finding) bool {
	if a.Severity != b.Severity {
		return a.Severity > b.Severity
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.ClaimID < b.ClaimID
}

// unionFind with path compression and union by rank.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}
