// Package metrics provides Prometheus metrics for lumen — counters,
// gauges, and histograms covering selections, signals, policy churn,
// and the idle timer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Selection ──────────────────────────────────────────────────────────────

// SelectionsTotal counts refresh rate decisions by outcome.
var SelectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lumen",
	Name:      "selections_total",
	Help:      "Total refresh rate selections by outcome.",
}, []string{"outcome"})

// ChosenRefreshRate tracks the rate of the most recent selection.
var ChosenRefreshRate = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "lumen",
	Name:      "chosen_refresh_rate_hz",
	Help:      "Refresh rate chosen by the most recent selection.",
})

// SelectionDuration tracks how long one selection takes.
var SelectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "lumen",
	Name:      "selection_duration_seconds",
	Help:      "Duration of one refresh rate selection.",
	Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
})

// ─── Signals ────────────────────────────────────────────────────────────────

// SignalConsumed counts selections decided by a global signal.
var SignalConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lumen",
	Name:      "signal_consumed_total",
	Help:      "Selections short-circuited by a global signal.",
}, []string{"signal"})

// ─── Policy ─────────────────────────────────────────────────────────────────

// PolicyChanges counts effective policy changes by layer.
var PolicyChanges = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lumen",
	Name:      "policy_changes_total",
	Help:      "Effective policy changes by originating layer.",
}, []string{"layer"})

// ─── Idle Timer ─────────────────────────────────────────────────────────────

// IdleTimerActions counts idle timer verdicts emitted to the kernel.
var IdleTimerActions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lumen",
	Name:      "idle_timer_actions_total",
	Help:      "Idle timer verdicts by action.",
}, []string{"action"})

// ─── Surfaces ───────────────────────────────────────────────────────────────

// SurfacesTracked tracks the number of registered surfaces.
var SurfacesTracked = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "lumen",
	Name:      "surfaces_tracked",
	Help:      "Number of surfaces currently registered.",
})
