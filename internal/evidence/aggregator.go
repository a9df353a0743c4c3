package evidence

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/groundd/internal/claim"
)

// ErrNoEvidence marks a pass where every adapter failed: nothing was
// collected and at least one source was expected to respond.
var ErrNoEvidence = errors.New("no evidence collected")

// Weights maps source types to configured weights. A weight of exactly
// zero excludes the source from the pass before its adapter runs.
type Weights map[claim.SourceType]float64

// Failure records one adapter failure during a pass.
type Failure struct {
	SourceType claim.SourceType
	Err        error
}

// Aggregator fans out over every registered evidence source for a
// claim. Adapters are independent reads and run concurrently within a
// pass; an adapter failure or an absent signal never aborts the pass.
type Aggregator struct {
	source  MetricSource
	weights Weights
	logger  *zap.Logger
}

// NewAggregator creates an aggregator over the given metric source.
func NewAggregator(source MetricSource, weights Weights, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{source: source, weights: weights, logger: logger}
}

// CollectAll gathers evidence for one claim from every source with a
// non-zero weight. The returned set lists items in claim.SourceTypes()
// order regardless of collection timing, so scoring stays
// deterministic. Failures are returned alongside the set for the
// resilience layer; an empty set with no failures means every source
// was legitimately absent.
func (a *Aggregator) CollectAll(ctx context.Context, claimID string) (*claim.Set, []Failure) {
	sources := claim.SourceTypes()
	results := make([]*claim.Evidence, len(sources))
	failures := make([]Failure, 0)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for i, st := range sources {
		weight := a.weightFor(st)
		if weight == 0.0 {
			continue
		}

		g.Go(func() error {
			ev, err := collect(gctx, a.source, claimID, st, weight)
			if err != nil {
				a.logger.Warn("evidence adapter failed",
					zap.String("claim_id", claimID),
					zap.String("source", string(st)),
					zap.Error(err),
				)
				mu.Lock()
				failures = append(failures, Failure{SourceType: st, Err: err})
				mu.Unlock()
				return nil // isolated: never aborts the pass
			}
			mu.Lock()
			results[i] = ev
			mu.Unlock()
			return nil
		})
	}

	// Adapter goroutines swallow their own errors.
	_ = g.Wait()

	set := &claim.Set{ClaimID: claimID}
	for _, ev := range results {
		if ev == nil {
			continue
		}
		set.Items = append(set.Items, *ev)
		set.SourcesUsed = append(set.SourcesUsed, ev.SourceType)
	}
	return set, failures
}

// weightFor returns the configured weight, defaulting to 1.0 for
// sources without an entry.
func (a *Aggregator) weightFor(st claim.SourceType) float64 {
	if w, ok := a.weights[st]; ok {
		return w
	}
	return 1.0
}
