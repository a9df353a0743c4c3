package grounding

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	passesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "groundd",
		Subsystem: "grounding",
		Name:      "passes_total",
		Help:      "Total grounding passes executed.",
	})

	verdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "groundd",
		Subsystem: "grounding",
		Name:      "verdicts_total",
		Help:      "Verdicts issued, by outcome.",
	}, []string{"verdict"})

	sourceFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "groundd",
		Subsystem: "grounding",
		Name:      "source_failures_total",
		Help:      "Evidence source failures, by source type.",
	}, []string{"source"})

	passDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "groundd",
		Subsystem: "grounding",
		Name:      "pass_duration_seconds",
		Help:      "Wall time of a full grounding pass.",
		Buckets:   prometheus.DefBuckets,
	})

	claimsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "groundd",
		Subsystem: "grounding",
		Name:      "claims_skipped_total",
		Help:      "Claims skipped because a pass was already in flight.",
	})

	groundingScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "groundd",
		Subsystem: "grounding",
		Name:      "score",
		Help:      "Distribution of grounding scores.",
		Buckets:   prometheus.LinearBuckets(0.0, 0.1, 11),
	})
)
