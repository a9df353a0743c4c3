package claim

import (
	"strconv"
	"time"
)

// Verdict is the discrete outcome of one grounding pass for one claim.
type Verdict string

const (
	// VerdictValidated means the evidence strongly supports the claim.
	VerdictValidated Verdict = "validated"

	// VerdictPartial means the evidence is favorable but mixed.
	VerdictPartial Verdict = "partial"

	// VerdictWeak means the evidence barely supports the claim.
	VerdictWeak Verdict = "weak"

	// VerdictInvalidated means the sources responded and contradicted
	// the claim. Distinct from VerdictError: invalidation is an
	// evidence outcome, not a collection failure.
	VerdictInvalidated Verdict = "invalidated"

	// VerdictError means every source failed or was absent; the pass
	// produced no evidence and the ledger is left untouched.
	VerdictError Verdict = "error"
)

// Conclusive reports whether the verdict was derived from evidence
// (everything except VerdictError).
func (v Verdict) Conclusive() bool {
	return v != VerdictError
}

// VerdictEntry is one row of a claim's verdict history.
type VerdictEntry struct {
	ClaimID   string    `json:"claim_id"`
	Verdict   Verdict   `json:"verdict"`
	Score     float64   `json:"score"`
	CheckedAt time.Time `json:"checked_at"`
}

// Finding is a raw detection produced upstream, identified by its
// location fingerprint set. Findings feed the deduplicator before any
// grounding work so overlapping detections are not double counted.
type Finding struct {
	// ClaimID is the claim the finding supports.
	ClaimID string `json:"claim_id"`

	// Severity ranks the finding (higher is more severe).
	Severity int `json:"severity"`

	// Confidence is the detector's confidence in this finding.
	Confidence float64 `json:"confidence"`

	// Locations is the (file, line) fingerprint set.
	Locations []Location `json:"locations"`
}

// Location is one (file, line) fingerprint.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Key returns the canonical "file:line" fingerprint key.
func (l Location) Key() string {
	return l.File + ":" + strconv.Itoa(l.Line)
}
