package resilience

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Status is the aggregate health state.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusDegraded    Status = "degraded"
	StatusUnavailable Status = "unavailable"
)

// HealthReport summarizes subsystem budgets into one status.
type HealthReport struct {
	Status    Status    `json:"status"`
	Reasons   []string  `json:"reasons,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Health evaluates the budgets. All healthy yields available; some
// degraded yields degraded with one reason per exhausted budget; all
// degraded yields unavailable.
func Health(budgets ...*Budget) HealthReport {
	report := HealthReport{Status: StatusAvailable, CheckedAt: time.Now().UTC()}
	if len(budgets) == 0 {
		return report
	}

	degraded := 0
	for _, b := range budgets {
		bad, err := b.Degraded()
		if !bad {
			continue
		}
		degraded++
		reason := fmt.Sprintf("%s: error budget exhausted", b.Name())
		if err != nil {
			reason = fmt.Sprintf("%s: error budget exhausted: %v", b.Name(), err)
		}
		report.Reasons = append(report.Reasons, reason)
	}

	switch {
	case degraded == 0:
		report.Status = StatusAvailable
	case degraded == len(budgets):
		report.Status = StatusUnavailable
	default:
		report.Status = StatusDegraded
	}
	return report
}

// Prober is anything that can verify its own liveness.
type Prober interface {
	Ping(ctx context.Context) error
}

// ProbeHealth actively pings each named subsystem and aggregates the
// results with the same all/some/none rule as Health.
func ProbeHealth(ctx context.Context, probers map[string]Prober) HealthReport {
	report := HealthReport{Status: StatusAvailable, CheckedAt: time.Now().UTC()}
	if len(probers) == 0 {
		return report
	}

	names := make([]string, 0, len(probers))
	for name := range probers {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := 0
	for _, name := range names {
		if err := probers[name].Ping(ctx); err != nil {
			failed++
			report.Reasons = append(report.Reasons, fmt.Sprintf("%s: %v", name, err))
		}
	}

	switch {
	case failed == 0:
		report.Status = StatusAvailable
	case failed == len(probers):
		report.Status = StatusUnavailable
	default:
		report.Status = StatusDegraded
	}
	return report
}
