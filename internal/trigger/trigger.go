// Package trigger decides when grounding passes fire and runs the
// background loop that fires them.
package trigger

import (
	"fmt"
	"sync"
	"time"
)

// Policy gates grounding passes: a pass fires on every Nth scan, and
// only when enough wall-clock time has passed since the previous one.
// Both conditions must hold.
type Policy struct {
	mu           sync.Mutex
	scanInterval int
	minElapsed   time.Duration
	scanCount    int
	lastFired    time.Time
	now          func() time.Time
}

// NewPolicy creates a Policy. scanInterval <= 0 defaults to 1 (every
// scan is a candidate).
func NewPolicy(scanInterval int, minElapsed time.Duration) *Policy {
	if scanInterval <= 0 {
		scanInterval = 1
	}
	return &Policy{
		scanInterval: scanInterval,
		minElapsed:   minElapsed,
		now:          time.Now,
	}
}

// ShouldTrigger is the pure trigger predicate: a pass is due when the
// scan count lands on the interval AND enough time has elapsed since
// the previous pass. Both conditions are required.
func ShouldTrigger(scanCount, scanInterval int, elapsed, minElapsed time.Duration) bool {
	if scanInterval <= 0 {
		scanInterval = 1
	}
	return scanCount%scanInterval == 0 && elapsed >= minElapsed
}

// Decision explains why a pass did or did not fire. Reasons are
// observability output only; they never influence the gate.
type Decision struct {
	Fire    bool     `json:"fire"`
	Reasons []string `json:"reasons,omitempty"`
}

// ObserveScan records a completed scan and reports whether a
// grounding pass should run now. Firing resets the elapsed clock.
func (p *Policy) ObserveScan() Decision {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.scanCount++
	elapsed := p.now().Sub(p.lastFired)
	if p.lastFired.IsZero() {
		// No prior pass; only the scan interval gates.
		elapsed = p.minElapsed
	}
	onInterval := p.scanCount%p.scanInterval == 0
	enoughTime := elapsed >= p.minElapsed

	d := Decision{Fire: ShouldTrigger(p.scanCount, p.scanInterval, elapsed, p.minElapsed)}
	if !onInterval {
		d.Reasons = append(d.Reasons, fmt.Sprintf("scan %d of %d in interval", p.scanCount%p.scanInterval, p.scanInterval))
	}
	if !enoughTime {
		d.Reasons = append(d.Reasons, fmt.Sprintf("only %s since last pass, minimum %s", elapsed.Round(time.Second), p.minElapsed))
	}
	if d.Fire {
		d.Reasons = append(d.Reasons, fmt.Sprintf("scan interval %d reached with %s elapsed", p.scanInterval, elapsedLabel(p.lastFired, elapsed)))
		p.lastFired = p.now()
	}
	return d
}

func elapsedLabel(last time.Time, elapsed time.Duration) string {
	if last.IsZero() {
		return "no prior pass"
	}
	return elapsed.Round(time.Second).String()
}
