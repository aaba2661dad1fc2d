// Package telemetry exposes the simulator's Prometheus instrumentation.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every collector the engine and sink layer report into.
// Construct one per process with New and share it across components.
type Metrics struct {
	RecordsGenerated   prometheus.Counter
	AmountRealized     prometheus.Counter
	DuplicatesFiltered prometheus.Counter
	SinkDegraded       prometheus.Counter
	DaysSkipped        prometheus.Counter
	AchievementRatio   prometheus.Gauge
	PersistSeconds     prometheus.Histogram
}

// New registers the simulator's collectors against reg. Pass
// prometheus.DefaultRegisterer for production wiring or a fresh registry in
// tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fmcgsim",
			Name:      "records_generated_total",
			Help:      "Sales transactions synthesized across all runs.",
		}),
		AmountRealized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fmcgsim",
			Name:      "amount_realized_total",
			Help:      "Monetary total of synthesized transactions.",
		}),
		DuplicatesFiltered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fmcgsim",
			Name:      "duplicates_filtered_total",
			Help:      "Records dropped by the incremental load guard.",
		}),
		SinkDegraded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fmcgsim",
			Name:      "sink_degraded_total",
			Help:      "Appends that proceeded without dedup after a sink read failure.",
		}),
		DaysSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fmcgsim",
			Name:      "days_skipped_total",
			Help:      "Simulated days skipped because no valid entities were available.",
		}),
		AchievementRatio: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "fmcgsim",
			Name:      "achievement_ratio",
			Help:      "Realized over target amount for the most recent run.",
		}),
		PersistSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fmcgsim",
			Name:      "persist_seconds",
			Help:      "Wall time per batch persist.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Nop returns metrics bound to a throwaway registry, for callers that do not
// report.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
