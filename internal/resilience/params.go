package resilience

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/groundd/internal/claim"
)

// ParamStore is the confidence-parameter persistence surface whose
// writes get the contention retry schedule.
type ParamStore interface {
	GetParams(ctx context.Context, claimID string) (*claim.ConfidenceParams, error)
	PutParams(ctx context.Context, p *claim.ConfidenceParams) error
	AppendContradiction(ctx context.Context, claimID, note string) error
}

// RetryingParams decorates a parameter store so writes retry on
// transient contention. Reads pass through untouched: a contended
// read falls back to defaults at the call site instead of blocking.
type RetryingParams struct {
	inner    ParamStore
	backoffs []time.Duration
}

// NewRetryingParams wraps inner with the given backoff schedule. A nil
// schedule falls back to DefaultBackoffs.
func NewRetryingParams(inner ParamStore, backoffs []time.Duration) *RetryingParams {
	if backoffs == nil {
		backoffs = DefaultBackoffs
	}
	return &RetryingParams{inner: inner, backoffs: backoffs}
}

func (r *RetryingParams) GetParams(ctx context.Context, claimID string) (*claim.ConfidenceParams, error) {
	return r.inner.GetParams(ctx, claimID)
}

func (r *RetryingParams) PutParams(ctx context.Context, p *claim.ConfidenceParams) error {
	return RetryWrite(ctx, r.backoffs, func() error {
		return r.inner.PutParams(ctx, p)
	})
}

func (r *RetryingParams) AppendContradiction(ctx context.Context, claimID, note string) error {
	return RetryWrite(ctx, r.backoffs, func() error {
		return r.inner.AppendContradiction(ctx, claimID, note)
	})
}
