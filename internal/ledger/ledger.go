// Package ledger owns per-claim Bayesian confidence parameters.
//
// Each claim carries a Beta(alpha, beta) pair. Feedback actions and
// grounding verdicts fold into (alphaDelta, betaDelta) adjustments;
// time decay is applied lazily on every read, pulling parameters back
// toward the claim's static default as evidence ages. The ledger is the only
// writer of confidence state — the causal graph and deduplicator
// reference claims but never touch their parameters.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/groundd/internal/claim"
)

// priorMass is the total pseudo-count decay converges toward. At the
// 0.5 static default this is the uniform prior Beta(1,1).
const priorMass = 2.0

// Prior-claim adjustment steps: a correction on one claim retroactively
// nudges the confidence of a related prior claim by a bounded step.
const (
	priorConfirmStep = 0.15
	priorConfirmCap  = 0.99
	priorRejectStep  = 0.20
	priorRejectFloor = 0.10
)

// ParamStore is the persistence surface the ledger needs.
type ParamStore interface {
	GetParams(ctx context.Context, claimID string) (*claim.ConfidenceParams, error)
	PutParams(ctx context.Context, p *claim.ConfidenceParams) error
	AppendContradiction(ctx context.Context, claimID, note string) error
}

// Ledger applies feedback and grounding adjustments to claim
// confidence. All exported methods are safe for concurrent use across
// claims; the engine serializes per-claim access.
type Ledger struct {
	store         ParamStore
	staticDefault float64
	halfLifeDays  float64
	maxParam      float64
	logger        *zap.Logger

	// now is swappable for decay tests.
	now func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the ledger clock.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithHalfLife overrides the decay half-life in days.
func WithHalfLife(days float64) Option {
	return func(l *Ledger) { l.halfLifeDays = days }
}

// New creates a ledger over the given parameter store.
func New(store ParamStore, staticDefault, maxParam float64, logger *zap.Logger, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, fmt.Errorf("param store cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{
		store:         store,
		staticDefault: staticDefault,
		halfLifeDays:  365,
		maxParam:      maxParam,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Read returns the claim's current confidence with pending decay
// applied. Unknown claims read as the uniform prior (0.5); reading
// never writes.
func (l *Ledger) Read(ctx context.Context, claimID string) (float64, error) {
	p, err := l.load(ctx, claimID)
	if err != nil {
		return 0, err
	}
	eff := l.decayed(p)
	return eff.Confidence(), nil
}

// ReadParams returns the claim's effective parameters (decay applied)
// for the explain and health surfaces.
func (l *Ledger) ReadParams(ctx context.Context, claimID string) (*claim.ConfidenceParams, error) {
	p, err := l.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	return l.decayed(p), nil
}

// ApplyFeedback folds one feedback action into the claim's parameters
// and returns the new confidence. Neutral actions change nothing but
// still refresh nothing — parameters and last_updated are untouched,
// so repeated suppression does not reset decay.
func (l *Ledger) ApplyFeedback(ctx context.Context, claimID string, action claim.FeedbackAction) (float64, error) {
	if !action.Valid() {
		return 0, claim.ErrInvalidAction
	}

	alphaDelta, betaDelta := action.Deltas()
	if alphaDelta == 0 && betaDelta == 0 {
		return l.Read(ctx, claimID)
	}
	return l.adjust(ctx, claimID, alphaDelta, betaDelta)
}

// ApplyGrounding folds one grounding verdict into the claim's
// parameters. Validated boosts alpha proportionally to the score;
// Invalidated boosts beta and records a contradiction — invalidation
// is a first-class event, not just a smaller number. VerdictError
// leaves the ledger untouched: a failed pass never corrupts state.
func (l *Ledger) ApplyGrounding(ctx context.Context, claimID string, verdict claim.Verdict, score float64) (float64, error) {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		score = 0
	}

	var alphaDelta, betaDelta float64
	switch verdict {
	case claim.VerdictValidated:
		alphaDelta = score
	case claim.VerdictPartial:
		alphaDelta = score / 2
	case claim.VerdictWeak:
		betaDelta = 0.25
	case claim.VerdictInvalidated:
		betaDelta = 1.0
	case claim.VerdictError:
		return l.Read(ctx, claimID)
	default:
		return 0, fmt.Errorf("unknown verdict %q", verdict)
	}

	conf, err := l.adjust(ctx, claimID, alphaDelta, betaDelta)
	if err != nil {
		return 0, err
	}

	if verdict == claim.VerdictInvalidated {
		note := fmt.Sprintf("grounding pass contradicted claim (score %.3f)", score)
		if err := l.store.AppendContradiction(ctx, claimID, note); err != nil {
			l.logger.Warn("failed to record contradiction",
				zap.String("claim_id", claimID), zap.Error(err))
		}
	}
	return conf, nil
}

// AdjustPrior applies the bounded correction step to a related prior
// claim: confirm raises its confidence by 0.15 (ceiling 0.99), reject
// lowers it by 0.2 (floor 0.1). The adjustment rewrites the original
// claim's stored parameters in place, preserving their accumulated
// evidence mass.
func (l *Ledger) AdjustPrior(ctx context.Context, claimID string, confirm bool) (float64, error) {
	p, err := l.load(ctx, claimID)
	if err != nil {
		return 0, err
	}
	eff := l.decayed(p)

	conf := eff.Confidence()
	if confirm {
		conf = math.Min(conf+priorConfirmStep, priorConfirmCap)
	} else {
		conf = math.Max(conf-priorRejectStep, priorRejectFloor)
	}

	// Re-derive alpha/beta at the adjusted confidence, keeping the
	// total pseudo-count so certainty is preserved.
	mass := eff.Alpha + eff.Beta
	eff.Alpha = clampParam(conf*mass, l.maxParam)
	eff.Beta = clampParam((1-conf)*mass, l.maxParam)
	eff.LastUpdated = l.monotonicNow(p)

	if err := l.store.PutParams(ctx, eff); err != nil {
		return 0, fmt.Errorf("persist prior adjustment: %w", err)
	}
	return eff.Confidence(), nil
}

// adjust folds pending decay into the stored parameters, applies the
// deltas, clamps, and persists.
func (l *Ledger) adjust(ctx context.Context, claimID string, alphaDelta, betaDelta float64) (float64, error) {
	p, err := l.load(ctx, claimID)
	if err != nil {
		return 0, err
	}

	eff := l.decayed(p)
	eff.Alpha = clampParam(eff.Alpha+alphaDelta, l.maxParam)
	eff.Beta = clampParam(eff.Beta+betaDelta, l.maxParam)
	eff.LastUpdated = l.monotonicNow(p)

	if err := l.store.PutParams(ctx, eff); err != nil {
		return 0, fmt.Errorf("persist confidence params: %w", err)
	}
	return eff.Confidence(), nil
}

// load fetches stored parameters, seeding the uniform prior in memory
// for unknown claims.
func (l *Ledger) load(ctx context.Context, claimID string) (*claim.ConfidenceParams, error) {
	if claimID == "" {
		return nil, claim.ErrEmptyClaimID
	}
	p, err := l.store.GetParams(ctx, claimID)
	if errors.Is(err, claim.ErrClaimNotFound) {
		return claim.NewConfidenceParams(claimID, l.staticDefault), nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// decayed returns a copy of p with pending decay applied to both
// parameters, clamped before and after. The decay targets derive from
// the row's static default: a fully decayed claim reads its configured
// default at the uniform prior's mass.
func (l *Ledger) decayed(p *claim.ConfidenceParams) *claim.ConfidenceParams {
	elapsedDays := l.now().Sub(p.LastUpdated).Hours() / 24.0
	alphaTarget, betaTarget := decayTargets(p.StaticDefault)

	out := *p
	out.Alpha = clampParam(Decay(clampParam(p.Alpha, l.maxParam), alphaTarget, elapsedDays, l.halfLifeDays), l.maxParam)
	out.Beta = clampParam(Decay(clampParam(p.Beta, l.maxParam), betaTarget, elapsedDays, l.halfLifeDays), l.maxParam)
	return &out
}

// decayTargets splits the static default confidence into the Beta
// pseudo-count pair decay converges toward. Non-finite or out-of-range
// defaults fall back to the uniform prior.
func decayTargets(staticDefault float64) (alpha, beta float64) {
	sd := staticDefault
	if math.IsNaN(sd) || math.IsInf(sd, 0) || sd <= 0 || sd >= 1 {
		sd = 0.5
	}
	return priorMass * sd, priorMass * (1 - sd)
}

// monotonicNow guarantees last_updated never moves backward, so decay
// windows are always non-negative even with skewed clocks.
func (l *Ledger) monotonicNow(p *claim.ConfidenceParams) time.Time {
	now := l.now()
	if now.Before(p.LastUpdated) {
		return p.LastUpdated
	}
	return now
}
