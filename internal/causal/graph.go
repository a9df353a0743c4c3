// Package causal maintains the directed graph of relationships between
// claims, used for explanation and impact analysis.
//
// The graph is an arena: nodes are stable integer handles into a slice,
// with adjacency lists per handle. Traversals use visited sets, so
// cycles are safe, and pruning never invalidates handles. Claims are
// referenced by ID only — the graph owns edges, never claims.
package causal

import (
	"context"
	"errors"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/groundd/internal/claim"
)

// ErrSelfLoop rejects edges from a claim to itself at the API boundary.
var ErrSelfLoop = errors.New("causal edge cannot be a self-loop")

// reinforceRate scales the strength contribution of repeat
// observations of an existing edge.
const reinforceRate = 0.25

// EdgePersister is the optional durable backing for edges. A nil
// persister keeps the graph purely in memory (tests, dry runs).
type EdgePersister interface {
	PersistEdge(ctx context.Context, e *claim.CausalEdge) error
	RemoveEdge(ctx context.Context, sourceID, targetID string, relation claim.CausalRelation) error
}

// halfEdge is one adjacency entry, pointing at a node handle.
type halfEdge struct {
	node     int
	relation claim.CausalRelation
	strength float64
	note     string
}

// Graph is the arena-indexed claim relationship graph.
// Thread-safety: all exported methods are safe for concurrent use.
type Graph struct {
	mu    sync.RWMutex
	nodes []string
	index map[string]int
	out   map[int][]halfEdge
	in    map[int][]halfEdge

	inferenceThreshold float64
	maxDepth           int
	persister          EdgePersister
	logger             *zap.Logger
}

// Option configures a Graph.
type Option func(*Graph)

// WithPersister attaches durable edge storage.
func WithPersister(p EdgePersister) Option {
	return func(g *Graph) { g.persister = p }
}

// WithInferenceThreshold sets the minimum propagated strength for
// InferAndConnect proposals.
func WithInferenceThreshold(t float64) Option {
	return func(g *Graph) { g.inferenceThreshold = t }
}

// WithMaxDepth bounds traversal depth.
func WithMaxDepth(d int) Option {
	return func(g *Graph) { g.maxDepth = d }
}

// New creates an empty graph.
func New(logger *zap.Logger, opts ...Option) *Graph {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Graph{
		index:              make(map[string]int),
		out:                make(map[int][]halfEdge),
		in:                 make(map[int][]halfEdge),
		inferenceThreshold: 0.6,
		maxDepth:           10,
		logger:             logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Hydrate loads persisted edges into the in-memory arena. Called once
// at startup after the claim store is available.
func (g *Graph) Hydrate(edges []claim.CausalEdge) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range edges {
		e := &edges[i]
		if e.SourceID == e.TargetID {
			continue
		}
		g.insertLocked(e.SourceID, e.TargetID, e.Relation, clampStrength(e.Strength), e.EvidenceNote)
	}
}

// AddEdge records a directed relationship. Idempotent on the
// (source, target, relation) triple: a repeat observation reinforces
// the existing edge's strength instead of duplicating it. Self-loops
// are rejected with ErrSelfLoop. Non-finite or out-of-range strengths
// are clamped to [0, 1].
func (g *Graph) AddEdge(ctx context.Context, sourceID, targetID string, relation claim.CausalRelation, strength float64, note string) error {
	if sourceID == "" || targetID == "" {
		return claim.ErrEmptyClaimID
	}
	if sourceID == targetID {
		return ErrSelfLoop
	}
	strength = clampStrength(strength)

	g.mu.Lock()
	final := g.insertLocked(sourceID, targetID, relation, strength, note)
	g.mu.Unlock()

	if g.persister != nil {
		edge := &claim.CausalEdge{
			SourceID:     sourceID,
			TargetID:     targetID,
			Relation:     relation,
			Strength:     final,
			EvidenceNote: note,
		}
		if err := g.persister.PersistEdge(ctx, edge); err != nil {
			return err
		}
	}
	return nil
}

// insertLocked adds or reinforces an edge and returns the resulting
// strength. Caller holds the write lock.
func (g *Graph) insertLocked(sourceID, targetID string, relation claim.CausalRelation, strength float64, note string) float64 {
	src := g.handleLocked(sourceID)
	dst := g.handleLocked(targetID)

	for i := range g.out[src] {
		he := &g.out[src][i]
		if he.node == dst && he.relation == relation {
			he.strength = clampStrength(he.strength + strength*reinforceRate)
			if note != "" {
				he.note = note
			}
			g.mirrorInLocked(src, dst, relation, he.strength, he.note)
			return he.strength
		}
	}

	g.out[src] = append(g.out[src], halfEdge{node: dst, relation: relation, strength: strength, note: note})
	g.in[dst] = append(g.in[dst], halfEdge{node: src, relation: relation, strength: strength, note: note})
	return strength
}

// mirrorInLocked keeps the incoming adjacency entry in sync with its
// outgoing twin.
func (g *Graph) mirrorInLocked(src, dst int, relation claim.CausalRelation, strength float64, note string) {
	for i := range g.in[dst] {
		he := &g.in[dst][i]
		if he.node == src && he.relation == relation {
			he.strength = strength
			he.note = note
			return
		}
	}
}

// handleLocked returns the arena handle for a claim ID, creating the
// node if needed. Caller holds the write lock.
func (g *Graph) handleLocked(claimID string) int {
	if h, ok := g.index[claimID]; ok {
		return h
	}
	h := len(g.nodes)
	g.nodes = append(g.nodes, claimID)
	g.index[claimID] = h
	return h
}

// InferAndConnect runs a transitive-closure pass over the given
// claims: where a→b and b→c exist with no direct a→c edge, an edge is
// proposed with the product of the two strengths, kept when it clears
// the inference threshold. Returns the number of new edges.
func (g *Graph) InferAndConnect(ctx context.Context, claimIDs []string) (int, error) {
	type proposal struct {
		source, target string
		strength       float64
	}
	var proposals []proposal

	g.mu.RLock()
	for _, id := range claimIDs {
		a, ok := g.index[id]
		if !ok {
			continue
		}
		for _, ab := range g.out[a] {
			for _, bc := range g.out[ab.node] {
				if bc.node == a {
					continue
				}
				if g.hasEdgeLocked(a, bc.node) {
					continue
				}
				s := ab.strength * bc.strength
				if s < g.inferenceThreshold {
					continue
				}
				proposals = append(proposals, proposal{
					source:   g.nodes[a],
					target:   g.nodes[bc.node],
					strength: s,
				})
			}
		}
	}
	g.mu.RUnlock()

	added := 0
	for _, p := range proposals {
		err := g.AddEdge(ctx, p.source, p.target, claim.RelationCorrelates, p.strength, "inferred via transitive closure")
		if err != nil {
			g.logger.Warn("inferred edge rejected",
				zap.String("source", p.source),
				zap.String("target", p.target),
				zap.Error(err))
			continue
		}
		added++
	}
	return added, nil
}

// hasEdgeLocked reports whether any relation connects src→dst.
func (g *Graph) hasEdgeLocked(src, dst int) bool {
	for _, he := range g.out[src] {
		if he.node == dst {
			return true
		}
	}
	return false
}

// PruneResult reports what a pruning pass removed.
type PruneResult struct {
	Removed int `json:"removed"`
}

// PruneWeakEdges removes edges with strength strictly below
// minStrength. Called after grounding passes invalidate claims, to
// keep the graph bounded.
func (g *Graph) PruneWeakEdges(ctx context.Context, minStrength float64) (PruneResult, error) {
	type removed struct {
		source, target string
		relation       claim.CausalRelation
	}
	var gone []removed

	g.mu.Lock()
	for src, edges := range g.out {
		kept := edges[:0]
		for _, he := range edges {
			if he.strength < minStrength {
				gone = append(gone, removed{g.nodes[src], g.nodes[he.node], he.relation})
				continue
			}
			kept = append(kept, he)
		}
		g.out[src] = kept
	}
	for dst, edges := range g.in {
		kept := edges[:0]
		for _, he := range edges {
			if he.strength < minStrength {
				continue
			}
			kept = append(kept, he)
		}
		g.in[dst] = kept
	}
	g.mu.Unlock()

	for _, r := range gone {
		if g.persister != nil {
			if err := g.persister.RemoveEdge(ctx, r.source, r.target, r.relation); err != nil {
				g.logger.Warn("failed to remove persisted edge",
					zap.String("source", r.source),
					zap.String("target", r.target),
					zap.Error(err))
			}
		}
	}
	return PruneResult{Removed: len(gone)}, nil
}

// Stats returns (nodes, edges).
func (g *Graph) Stats() (int, int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := 0
	for _, out := range g.out {
		edges += len(out)
	}
	return len(g.nodes), edges
}

func clampStrength(s float64) float64 {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0.0
	}
	return math.Min(math.Max(s, 0.0), 1.0)
}
