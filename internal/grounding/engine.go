package grounding

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/groundd/internal/causal"
	"github.com/fyrsmithlabs/groundd/internal/claim"
	"github.com/fyrsmithlabs/groundd/internal/dedupe"
	"github.com/fyrsmithlabs/groundd/internal/evidence"
	"github.com/fyrsmithlabs/groundd/internal/ledger"
	"github.com/fyrsmithlabs/groundd/internal/resilience"
	"github.com/fyrsmithlabs/groundd/internal/store"
)

// passConcurrency bounds how many claims a pass grounds in parallel.
const passConcurrency = 4

// Result is the outcome of grounding one claim.
type Result struct {
	ClaimID         string             `json:"claim_id"`
	Verdict         claim.Verdict      `json:"verdict"`
	Score           float64            `json:"score"`
	Confidence      float64            `json:"confidence"`
	DataSourcesUsed []claim.SourceType `json:"data_sources_used"`
	CheckedAt       time.Time          `json:"checked_at"`
	Skipped         bool               `json:"skipped,omitempty"`
	Err             error              `json:"-"`
}

// Explanation bundles everything known about a claim for display.
type Explanation struct {
	ClaimID    string               `json:"claim_id"`
	Confidence float64              `json:"confidence"`
	Narrative  causal.Narrative     `json:"narrative"`
	History    []claim.VerdictEntry `json:"history,omitempty"`
}

// Engine drives grounding passes: evidence collection, scoring,
// ledger updates, verdict history, and graph upkeep. At most one pass
// per claim is in flight at any time; concurrent requests for the
// same claim are skipped, not queued.
type Engine struct {
	agg    *evidence.Aggregator
	ledger *ledger.Ledger
	claims *store.ClaimStore
	graph  *causal.Graph
	dedup  *dedupe.Deduplicator
	logger *zap.Logger

	thresholds Thresholds
	pruneMin   float64
	backoffs   []time.Duration
	budgets    Budgets

	mu       sync.Mutex
	inflight map[string]struct{}
}

// EngineConfig carries the engine's tunables.
type EngineConfig struct {
	Thresholds      Thresholds
	MinEdgeStrength float64
	RetryBackoffs   []time.Duration
}

// Budgets are the error budgets the engine feeds. Either may be nil.
type Budgets struct {
	// Store tracks claim store write health.
	Store *resilience.Budget

	// Sources tracks evidence source health: a pass where every
	// source fails counts one failure, any evidence counts success.
	Sources *resilience.Budget
}

// NewEngine wires the engine.
func NewEngine(
	agg *evidence.Aggregator,
	ldg *ledger.Ledger,
	claims *store.ClaimStore,
	graph *causal.Graph,
	dedup *dedupe.Deduplicator,
	cfg EngineConfig,
	budgets Budgets,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	backoffs := cfg.RetryBackoffs
	if backoffs == nil {
		backoffs = resilience.DefaultBackoffs
	}
	return &Engine{
		agg:        agg,
		ledger:     ldg,
		claims:     claims,
		graph:      graph,
		dedup:      dedup,
		logger:     logger,
		thresholds: cfg.Thresholds,
		pruneMin:   cfg.MinEdgeStrength,
		backoffs:   backoffs,
		budgets:    budgets,
		inflight:   make(map[string]struct{}),
	}
}

// RunGroundingPass grounds each claim and returns one result per
// input, in input order. Individual claim failures are recorded in
// their result; the pass itself only fails on context cancellation.
// After the pass, invalidations trigger a weak-edge prune.
func (e *Engine) RunGroundingPass(ctx context.Context, claimIDs []string) ([]Result, error) {
	start := time.Now()
	passesTotal.Inc()

	results := make([]Result, len(claimIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(passConcurrency)

	for i, id := range claimIDs {
		g.Go(func() error {
			results[i] = e.groundOne(gctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	invalidated := false
	for _, r := range results {
		if r.Verdict == claim.VerdictInvalidated {
			invalidated = true
			break
		}
	}
	if invalidated && e.graph != nil {
		pruned, err := e.graph.PruneWeakEdges(ctx, e.pruneMin)
		if err != nil {
			e.logger.Warn("post-pass edge prune failed", zap.Error(err))
		} else if pruned.Removed > 0 {
			e.logger.Info("pruned weak causal edges", zap.Int("removed", pruned.Removed))
		}
	}

	passDuration.Observe(time.Since(start).Seconds())
	return results, ctx.Err()
}

// groundOne runs the collect → score → ledger → history sequence for
// a single claim under its single-flight slot.
func (e *Engine) groundOne(ctx context.Context, claimID string) Result {
	now := time.Now().UTC()
	res := Result{ClaimID: claimID, CheckedAt: now}

	if claimID == "" {
		res.Verdict = claim.VerdictError
		res.Err = claim.ErrEmptyClaimID
		return res
	}
	if !e.acquire(claimID) {
		claimsSkipped.Inc()
		res.Skipped = true
		res.Verdict = claim.VerdictError
		return res
	}
	defer e.release(claimID)

	set, failures := e.agg.CollectAll(ctx, claimID)
	for _, f := range failures {
		sourceFailuresTotal.WithLabelValues(string(f.SourceType)).Inc()
	}
	e.recordSources(set, failures)

	score, verdict := Score(set, e.thresholds)
	res.Score = score
	res.Verdict = verdict
	if verdict == claim.VerdictError && len(failures) > 0 {
		// Absence of signals is normal; every adapter failing is not.
		res.Err = evidence.ErrNoEvidence
	}
	if set != nil {
		res.DataSourcesUsed = set.SourcesUsed
	}
	verdictsTotal.WithLabelValues(string(verdict)).Inc()
	if verdict.Conclusive() {
		groundingScore.Observe(score)
	}

	conf, err := e.ledger.ApplyGrounding(ctx, claimID, verdict, score)
	if err != nil {
		e.recordWrite(err)
		res.Err = err
		return res
	}
	res.Confidence = conf

	entry := &claim.VerdictEntry{ClaimID: claimID, Verdict: verdict, Score: score, CheckedAt: now}
	err = resilience.RetryWrite(ctx, e.backoffs, func() error {
		return e.claims.AppendVerdict(ctx, entry)
	})
	e.recordWrite(err)
	if err != nil {
		res.Err = err
		return res
	}

	if verdict.Conclusive() {
		if err := e.claims.TouchGrounded(ctx, claimID, now); err != nil {
			e.logger.Warn("failed to update last grounded time",
				zap.String("claim_id", claimID), zap.Error(err))
		}
	}

	e.logger.Debug("claim grounded",
		zap.String("claim_id", claimID),
		zap.String("verdict", string(verdict)),
		zap.Float64("score", score),
		zap.Float64("confidence", conf),
		zap.Int("sources_used", len(res.DataSourcesUsed)),
		zap.Int("sources_failed", len(failures)))
	return res
}

// GroundFindings deduplicates raw findings, then grounds the
// canonical claim of each group.
func (e *Engine) GroundFindings(ctx context.Context, findings []claim.Finding) ([]dedupe.Group, []Result, error) {
	groups := e.dedup.Group(findings)
	if len(groups) == 0 {
		return nil, nil, nil
	}

	seen := make(map[string]struct{}, len(groups))
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		if _, dup := seen[g.Canonical.ClaimID]; dup {
			continue
		}
		seen[g.Canonical.ClaimID] = struct{}{}
		ids = append(ids, g.Canonical.ClaimID)
	}

	results, err := e.RunGroundingPass(ctx, ids)
	return groups, results, err
}

// RecordFeedback persists a feedback event and folds exactly one
// delta into the claim's confidence. Returns the updated confidence.
func (e *Engine) RecordFeedback(ctx context.Context, claimID string, action claim.FeedbackAction, actor string) (float64, error) {
	rec, err := claim.NewFeedbackRecord(claimID, action, actor)
	if err != nil {
		return 0, err
	}

	err = resilience.RetryWrite(ctx, e.backoffs, func() error {
		return e.claims.AppendFeedback(ctx, rec)
	})
	e.recordWrite(err)
	if err != nil {
		return 0, err
	}

	return e.ledger.ApplyFeedback(ctx, claimID, action)
}

// AdjustRelatedPrior applies the bounded retroactive step to a prior
// claim related to one that just received feedback: confirm raises it,
// reject lowers it. The claim receiving the feedback itself goes
// through RecordFeedback, never through here.
func (e *Engine) AdjustRelatedPrior(ctx context.Context, priorClaimID string, confirm bool) (float64, error) {
	return e.ledger.AdjustPrior(ctx, priorClaimID, confirm)
}

// Explain assembles the narrative, current confidence, and verdict
// history for a claim. Unknown claims explain as unconnected with
// prior confidence, never as an error.
func (e *Engine) Explain(ctx context.Context, claimID string) (*Explanation, error) {
	if claimID == "" {
		return nil, claim.ErrEmptyClaimID
	}
	conf, err := e.ledger.Read(ctx, claimID)
	if err != nil {
		return nil, err
	}
	history, err := e.claims.VerdictHistory(ctx, claimID)
	if err != nil {
		e.logger.Warn("verdict history unavailable",
			zap.String("claim_id", claimID), zap.Error(err))
		history = nil
	}
	return &Explanation{
		ClaimID:    claimID,
		Confidence: conf,
		Narrative:  e.graph.Narrative(claimID),
		History:    history,
	}, nil
}

// VerdictHistory returns the append-only verdict log for a claim,
// oldest first.
func (e *Engine) VerdictHistory(ctx context.Context, claimID string) ([]claim.VerdictEntry, error) {
	return e.claims.VerdictHistory(ctx, claimID)
}

func (e *Engine) acquire(claimID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, held := e.inflight[claimID]; held {
		return false
	}
	e.inflight[claimID] = struct{}{}
	return true
}

func (e *Engine) release(claimID string) {
	e.mu.Lock()
	delete(e.inflight, claimID)
	e.mu.Unlock()
}

func (e *Engine) recordWrite(err error) {
	if e.budgets.Store == nil {
		return
	}
	if err != nil {
		e.budgets.Store.RecordFailure(err)
		return
	}
	e.budgets.Store.RecordSuccess()
}

func (e *Engine) recordSources(set *claim.Set, failures []evidence.Failure) {
	if e.budgets.Sources == nil {
		return
	}
	if (set == nil || set.Empty()) && len(failures) > 0 {
		e.budgets.Sources.RecordFailure(failures[0].Err)
		return
	}
	if set != nil && !set.Empty() {
		e.budgets.Sources.RecordSuccess()
	}
}
