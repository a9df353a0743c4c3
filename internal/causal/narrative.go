package causal

import (
	"fmt"
	"math"
	"strings"
)

// ConfidenceLevel buckets a chain confidence score for display.
type ConfidenceLevel string

const (
	ConfidenceHigh    ConfidenceLevel = "high"
	ConfidenceMedium  ConfidenceLevel = "medium"
	ConfidenceLow     ConfidenceLevel = "low"
	ConfidenceVeryLow ConfidenceLevel = "very_low"
)

// Narrative is a human-readable explanation of a claim's place in the
// graph: where it came from, what it influences, and what would be
// affected if it fell.
type Narrative struct {
	ClaimID         string          `json:"claim_id"`
	Summary         string          `json:"summary"`
	Origins         []Linked        `json:"origins,omitempty"`
	Effects         []Linked        `json:"effects,omitempty"`
	Counterfactual  []Impact        `json:"counterfactual,omitempty"`
	ChainConfidence float64         `json:"chain_confidence"`
	Confidence      ConfidenceLevel `json:"confidence"`
}

// chainDampening discounts chain confidence per additional link.
const chainDampening = 0.95

// Narrative builds the explanation surface for a claim. A claim with
// no edges gets a valid narrative stating it stands alone, never an
// error.
func (g *Graph) Narrative(claimID string) Narrative {
	origins := g.TraceOrigins(claimID)
	effects := g.TraceEffects(claimID)

	n := Narrative{
		ClaimID: claimID,
		Origins: origins,
		Effects: effects,
	}

	if len(origins) == 0 && len(effects) == 0 {
		n.Summary = fmt.Sprintf("Claim %s has no recorded causal relationships; it stands alone.", claimID)
		n.ChainConfidence = 0.0
		n.Confidence = ConfidenceVeryLow
		return n
	}

	n.Counterfactual = g.Counterfactual(claimID)
	n.ChainConfidence = chainConfidence(origins, effects)
	n.Confidence = levelFor(n.ChainConfidence)
	n.Summary = summarize(claimID, origins, effects, n.Counterfactual)
	return n
}

// chainConfidence is weakest-link with a per-link discount: the
// minimum edge strength across the neighborhood, dampened by chain
// length. Long chains of strong edges still read less certain than a
// single direct link.
func chainConfidence(origins, effects []Linked) float64 {
	weakest := 1.0
	links := 0
	for _, set := range [][]Linked{origins, effects} {
		for _, l := range set {
			weakest = math.Min(weakest, l.Strength)
			links++
		}
	}
	if links == 0 {
		return 0.0
	}
	return weakest * math.Pow(chainDampening, float64(links-1))
}

func levelFor(c float64) ConfidenceLevel {
	switch {
	case c >= 0.7:
		return ConfidenceHigh
	case c >= 0.4:
		return ConfidenceMedium
	case c >= 0.15:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

func summarize(claimID string, origins, effects []Linked, cf []Impact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Claim %s", claimID)

	switch {
	case len(origins) == 1:
		fmt.Fprintf(&b, " traces back to %s (%s)", origins[0].ClaimID, origins[0].Relation)
	case len(origins) > 1:
		fmt.Fprintf(&b, " traces back to %d upstream claims, nearest %s (%s)",
			len(origins), origins[0].ClaimID, origins[0].Relation)
	default:
		b.WriteString(" has no upstream origins")
	}

	switch {
	case len(effects) == 1:
		fmt.Fprintf(&b, " and influences %s", effects[0].ClaimID)
	case len(effects) > 1:
		fmt.Fprintf(&b, " and influences %d downstream claims", len(effects))
	default:
		b.WriteString(" and influences nothing downstream")
	}
	b.WriteString(".")

	if len(cf) > 0 {
		fmt.Fprintf(&b, " Without it, %d claims would be affected; the strongest impact falls on %s (%.2f).",
			len(cf), cf[0].ClaimID, cf[0].Impact)
	}
	return b.String()
}
