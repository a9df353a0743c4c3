// Package grounding orchestrates evidence-backed re-validation of
// claims: evidence collection, scoring, verdicts, ledger updates, and
// the bookkeeping around them.
package grounding

import (
	"math"

	"github.com/fyrsmithlabs/groundd/internal/claim"
)

// Thresholds partitions the [0, 1] grounding score into verdicts.
// Values must be strictly descending.
type Thresholds struct {
	Validated float64
	Partial   float64
	Weak      float64
}

// Score reduces an evidence set to a single grounding score: the
// weighted mean of the normalized source values. An empty set yields
// (0, VerdictError) — absence of evidence is a collection failure,
// never a judgment against the claim.
func Score(set *claim.Set, t Thresholds) (float64, claim.Verdict) {
	if set == nil || set.Empty() {
		return 0.0, claim.VerdictError
	}

	var weighted, total float64
	for _, ev := range set.Items {
		w := ev.Weight
		if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
			continue
		}
		weighted += ev.Value * w
		total += w
	}
	if total == 0 {
		return 0.0, claim.VerdictError
	}

	score := weighted / total
	return score, verdictFor(score, t)
}

func verdictFor(score float64, t Thresholds) claim.Verdict {
	switch {
	case score >= t.Validated:
		return claim.VerdictValidated
	case score >= t.Partial:
		return claim.VerdictPartial
	case score >= t.Weak:
		return claim.VerdictWeak
	default:
		return claim.VerdictInvalidated
	}
}
