// Package resilience provides the degradation controls: bounded
// retries for contended writes, per-subsystem error budgets, and the
// aggregate health report. Failures degrade behavior, they do not
// crash the process.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fyrsmithlabs/groundd/internal/store"
)

// DefaultBackoffs is the write retry schedule. Reads are never
// retried; a failed read falls back to defaults at the call site.
var DefaultBackoffs = []time.Duration{
	10 * time.Millisecond,
	50 * time.Millisecond,
	200 * time.Millisecond,
}

// RetryWrite runs fn, retrying on store contention with the given
// backoff schedule. Any error other than contention returns
// immediately: retrying a constraint violation or a closed database
// only wastes the budget. A nil or empty schedule means no retries.
func RetryWrite(ctx context.Context, backoffs []time.Duration, fn func() error) error {
	err := fn()
	if err == nil || !errors.Is(err, store.ErrContention) {
		return err
	}
	for _, wait := range backoffs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		err = fn()
		if err == nil || !errors.Is(err, store.ErrContention) {
			return err
		}
	}
	return err
}

// Budget tracks consecutive failures for one subsystem. Crossing the
// threshold marks the subsystem degraded; a single success resets it.
// Degradation is re-evaluated on every state change, not on a timer.
type Budget struct {
	mu          sync.Mutex
	name        string
	threshold   int
	consecutive int
	lastErr     error
}

// NewBudget creates a budget that degrades after threshold
// consecutive failures.
func NewBudget(name string, threshold int) *Budget {
	if threshold <= 0 {
		threshold = 5
	}
	return &Budget{name: name, threshold: threshold}
}

// Name returns the subsystem name.
func (b *Budget) Name() string { return b.name }

// RecordSuccess resets the consecutive failure count.
func (b *Budget) RecordSuccess() {
	b.mu.Lock()
	b.consecutive = 0
	b.lastErr = nil
	b.mu.Unlock()
}

// RecordFailure increments the consecutive failure count.
func (b *Budget) RecordFailure(err error) {
	b.mu.Lock()
	b.consecutive++
	b.lastErr = err
	b.mu.Unlock()
}

// Degraded reports whether the subsystem has exhausted its budget,
// along with the most recent error when it has.
func (b *Budget) Degraded() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.consecutive >= b.threshold {
		return true, b.lastErr
	}
	return false, nil
}
