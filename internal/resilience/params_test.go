package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/groundd/internal/claim"
	"github.com/fyrsmithlabs/groundd/internal/store"
)

// contendingParams fails writes with contention until failures runs out.
type contendingParams struct {
	failures int
	puts     int
	appends  int
	gets     int
}

func (c *contendingParams) GetParams(context.Context, string) (*claim.ConfidenceParams, error) {
	c.gets++
	return nil, claim.ErrClaimNotFound
}

func (c *contendingParams) PutParams(context.Context, *claim.ConfidenceParams) error {
	c.puts++
	if c.failures > 0 {
		c.failures--
		return fmt.Errorf("wrapped: %w", store.ErrContention)
	}
	return nil
}

func (c *contendingParams) AppendContradiction(context.Context, string, string) error {
	c.appends++
	if c.failures > 0 {
		c.failures--
		return fmt.Errorf("wrapped: %w", store.ErrContention)
	}
	return nil
}

func TestRetryingParamsPutRetriesContention(t *testing.T) {
	inner := &contendingParams{failures: 2}
	rp := NewRetryingParams(inner, testBackoffs)

	err := rp.PutParams(context.Background(), &claim.ConfidenceParams{ClaimID: "c1", Alpha: 2, Beta: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, inner.puts)
}

func TestRetryingParamsAppendRetriesContention(t *testing.T) {
	inner := &contendingParams{failures: 1}
	rp := NewRetryingParams(inner, testBackoffs)

	err := rp.AppendContradiction(context.Background(), "c1", "contradicted")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.appends)
}

func TestRetryingParamsExhaustsSchedule(t *testing.T) {
	inner := &contendingParams{failures: 10}
	rp := NewRetryingParams(inner, testBackoffs)

	err := rp.PutParams(context.Background(), &claim.ConfidenceParams{ClaimID: "c1"})
	assert.ErrorIs(t, err, store.ErrContention)
	assert.Equal(t, 1+len(testBackoffs), inner.puts)
}

func TestRetryingParamsReadsPassThrough(t *testing.T) {
	inner := &contendingParams{}
	rp := NewRetryingParams(inner, testBackoffs)

	_, err := rp.GetParams(context.Background(), "ghost")
	assert.ErrorIs(t, err, claim.ErrClaimNotFound)
	assert.Equal(t, 1, inner.gets)
}

func TestRetryingParamsDefaultSchedule(t *testing.T) {
	rp := NewRetryingParams(&contendingParams{}, nil)
	assert.Equal(t, DefaultBackoffs, rp.backoffs)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 50 * time.Millisecond, 200 * time.Millisecond}, rp.backoffs)
}

func TestRetryingParamsNonContentionFailsFast(t *testing.T) {
	boom := errors.New("constraint violation")
	rp := NewRetryingParams(failingParams{err: boom}, testBackoffs)

	err := rp.PutParams(context.Background(), &claim.ConfidenceParams{ClaimID: "c1"})
	assert.ErrorIs(t, err, boom)
}

type failingParams struct{ err error }

func (f failingParams) GetParams(context.Context, string) (*claim.ConfidenceParams, error) {
	return nil, f.err
}
func (f failingParams) PutParams(context.Context, *claim.ConfidenceParams) error { return f.err }
func (f failingParams) AppendContradiction(context.Context, string, string) error {
	return f.err
}
