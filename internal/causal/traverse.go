package causal

import (
	"sort"
)

// impactDampening is applied per hop when propagating impact through
// the graph during counterfactual and intervention analysis.
const impactDampening = 0.85

// Linked is one claim reached during a traversal.
type Linked struct {
	ClaimID  string  `json:"claim_id"`
	Relation string  `json:"relation"`
	Strength float64 `json:"strength"`
	Depth    int     `json:"depth"`
}

// Impact is one claim affected by a hypothetical change, with the
// propagated impact magnitude.
type Impact struct {
	ClaimID string  `json:"claim_id"`
	Impact  float64 `json:"impact"`
	Depth   int     `json:"depth"`
}

// TraceOrigins walks incoming edges from the claim: the claims this
// one was caused by, supported by, or derived from. Unknown or
// edgeless claims yield an empty slice, never an error.
func (g *Graph) TraceOrigins(claimID string) []Linked {
	return g.trace(claimID, false)
}

// TraceEffects walks outgoing edges: the claims this one causes,
// supports, or that derive from it.
func (g *Graph) TraceEffects(claimID string) []Linked {
	return g.trace(claimID, true)
}

func (g *Graph) trace(claimID string, outgoing bool) []Linked {
	g.mu.RLock()
	defer g.mu.RUnlock()

	start, ok := g.index[claimID]
	if !ok {
		return nil
	}
	adj := g.in
	if outgoing {
		adj = g.out
	}

	type frame struct {
		node  int
		depth int
	}
	visited := map[int]bool{start: true}
	queue := []frame{{start, 0}}
	var result []Linked

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if f.depth >= g.maxDepth {
			continue
		}
		for _, he := range adj[f.node] {
			if visited[he.node] {
				continue
			}
			visited[he.node] = true
			result = append(result, Linked{
				ClaimID:  g.nodes[he.node],
				Relation: string(he.relation),
				Strength: he.strength,
				Depth:    f.depth + 1,
			})
			queue = append(queue, frame{he.node, f.depth + 1})
		}
	}
	sortLinked(result)
	return result
}

// Counterfactual answers "what would not hold if this claim were
// absent": every claim reachable downstream, with impact decaying by
// edge strength and a per-hop dampening factor. The starting claim is
// assigned impact 1.0 and excluded from the result.
func (g *Graph) Counterfactual(claimID string) []Impact {
	return g.propagate(claimID, nil)
}

// Intervention answers "what breaks if this claim is invalidated":
// like Counterfactual, but only dependency relations propagate —
// a conflicting or merely correlated claim does not break when its
// counterpart falls.
func (g *Graph) Intervention(claimID string) []Impact {
	deps := map[string]bool{"causes": true, "supports": true, "derived_of": true}
	return g.propagate(claimID, deps)
}

// propagate walks outgoing edges breadth-first, multiplying impact by
// edge strength and the hop dampening factor. A claim reachable by
// multiple paths keeps its strongest impact.
func (g *Graph) propagate(claimID string, relations map[string]bool) []Impact {
	g.mu.RLock()
	defer g.mu.RUnlock()

	start, ok := g.index[claimID]
	if !ok {
		return nil
	}

	type frame struct {
		node   int
		impact float64
		depth  int
	}
	best := map[int]Impact{}
	queue := []frame{{start, 1.0, 0}}
	visitedAt := map[int]float64{start: 1.0}

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if f.depth >= g.maxDepth {
			continue
		}
		for _, he := range g.out[f.node] {
			if relations != nil && !relations[string(he.relation)] {
				continue
			}
			impact := f.impact * he.strength * impactDampening
			if prev, seen := visitedAt[he.node]; seen && prev >= impact {
				continue
			}
			visitedAt[he.node] = impact
			best[he.node] = Impact{
				ClaimID: g.nodes[he.node],
				Impact:  impact,
				Depth:   f.depth + 1,
			}
			queue = append(queue, frame{he.node, impact, f.depth + 1})
		}
	}

	result := make([]Impact, 0, len(best))
	for node, im := range best {
		if node == start {
			continue
		}
		result = append(result, im)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Impact != result[j].Impact {
			return result[i].Impact > result[j].Impact
		}
		return result[i].ClaimID < result[j].ClaimID
	})
	return result
}

func sortLinked(ls []Linked) {
	sort.Slice(ls, func(i, j int) bool {
		if ls[i].Depth != ls[j].Depth {
			return ls[i].Depth < ls[j].Depth
		}
		if ls[i].Strength != ls[j].Strength {
			return ls[i].Strength > ls[j].Strength
		}
		return ls[i].ClaimID < ls[j].ClaimID
	})
}
