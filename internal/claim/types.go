package claim

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors for claim operations.
var (
	ErrClaimNotFound     = errors.New("claim not found")
	ErrEmptyClaimID      = errors.New("claim ID cannot be empty")
	ErrInvalidClaimType  = errors.New("invalid claim type")
	ErrInvalidWeight     = errors.New("evidence weight must be between 0.0 and 1.0")
	ErrInvalidAction     = errors.New("invalid feedback action")
	ErrEmptyActor        = errors.New("feedback actor cannot be empty")
	ErrInvalidConfidence = errors.New("confidence must be between 0.0 and 1.0")
)

// Type categorizes a unit of derived knowledge.
type Type string

const (
	// TypePattern is a detected code pattern.
	TypePattern Type = "pattern"

	// TypeConstraint is an architectural rule inferred from the codebase.
	TypeConstraint Type = "constraint"

	// TypeMemory is a distilled cross-session memory.
	TypeMemory Type = "memory"

	// TypeDecision is a recorded architectural decision.
	TypeDecision Type = "decision"
)

// Types returns all claim types in stable order.
func Types() []Type {
	return []Type{TypePattern, TypeConstraint, TypeMemory, TypeDecision}
}

// Valid reports whether t is a known claim type.
func (t Type) Valid() bool {
	switch t {
	case TypePattern, TypeConstraint, TypeMemory, TypeDecision:
		return true
	}
	return false
}

// Claim is a unit of derived knowledge whose trustworthiness the engine
// tracks. Claims are created by upstream producers (detectors, distillers)
// and are never deleted by the engine; the confidence ledger owns the
// confidence parameters and the causal graph references claims by ID.
type Claim struct {
	// ID is the stable claim identifier assigned by the producer.
	ID string `json:"id"`

	// Type categorizes the claim.
	Type Type `json:"type"`

	// CreatedAt is when the upstream producer created the claim.
	CreatedAt time.Time `json:"created_at"`

	// LastGroundedAt is when a grounding pass last checked this claim.
	// Zero until the first pass completes.
	LastGroundedAt time.Time `json:"last_grounded_at,omitempty"`
}

// Validate checks the claim's required fields.
func (c *Claim) Validate() error {
	if c.ID == "" {
		return ErrEmptyClaimID
	}
	if !c.Type.Valid() {
		return ErrInvalidClaimType
	}
	return nil
}

// FeedbackAction is a human or agent judgement about a claim.
type FeedbackAction string

const (
	// ActionConfirm marks the claim as correct.
	ActionConfirm FeedbackAction = "confirm"

	// ActionReject marks the claim as a false positive.
	ActionReject FeedbackAction = "reject"

	// ActionEscalate marks the claim as correct and important.
	ActionEscalate FeedbackAction = "escalate"

	// ActionNeutral suppresses the claim without judging it.
	ActionNeutral FeedbackAction = "neutral"
)

// Valid reports whether a is a known feedback action.
func (a FeedbackAction) Valid() bool {
	switch a {
	case ActionConfirm, ActionReject, ActionEscalate, ActionNeutral:
		return true
	}
	return false
}

// Deltas returns the (alphaDelta, betaDelta) pair a feedback action
// contributes to a claim's Beta parameters. The mapping is part of the
// engine's public contract and must not drift:
//
//	Confirm  → (+1.0, 0.0)
//	Reject   → (0.0, +0.5)
//	Escalate → (+1.5, 0.0)
//	Neutral  → (0.0, 0.0)
func (a FeedbackAction) Deltas() (alpha, beta float64) {
	switch a {
	case ActionConfirm:
		return 1.0, 0.0
	case ActionReject:
		return 0.0, 0.5
	case ActionEscalate:
		return 1.5, 0.0
	default:
		return 0.0, 0.0
	}
}

// FeedbackRecord is one append-only feedback event for a claim.
type FeedbackRecord struct {
	// ID is the unique record identifier.
	ID string `json:"id"`

	// ClaimID is the claim the feedback applies to.
	ClaimID string `json:"claim_id"`

	// Action is the judgement.
	Action FeedbackAction `json:"action"`

	// Actor identifies who gave the feedback (user, agent, CI).
	Actor string `json:"actor"`

	// Timestamp is when the feedback was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// NewFeedbackRecord creates a feedback record with a generated ID and
// current timestamp.
func NewFeedbackRecord(claimID string, action FeedbackAction, actor string) (*FeedbackRecord, error) {
	if claimID == "" {
		return nil, ErrEmptyClaimID
	}
	if !action.Valid() {
		return nil, ErrInvalidAction
	}
	if actor == "" {
		return nil, ErrEmptyActor
	}
	return &FeedbackRecord{
		ID:        uuid.New().String(),
		ClaimID:   claimID,
		Action:    action,
		Actor:     actor,
		Timestamp: time.Now(),
	}, nil
}
