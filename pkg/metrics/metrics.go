// Package metrics registers the planner's Prometheus collectors once per
// process.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the planner collectors.
type Metrics struct {
	PlansGenerated     *prometheus.CounterVec
	GateRejections     *prometheus.CounterVec
	CatalogRejections  *prometheus.CounterVec
	PhaseTransitions   *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	SafeCandidates     prometheus.Histogram
}

var (
	once   sync.Once
	shared *Metrics
)

// Outcomes for PlansGenerated.
const (
	OutcomeSuccess   = "success"
	OutcomeNoSafe    = "no_safe_exercises"
	OutcomeUpstream  = "upstream_error"
	OutcomeOtherFail = "failed"
)

// Default returns the process-wide metrics, registering them on first use.
func Default() *Metrics {
	once.Do(func() {
		shared = New(prometheus.DefaultRegisterer)
	})
	return shared
}

// New registers a fresh set of collectors on reg. Tests pass their own
// registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PlansGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fitglue_plans_generated_total",
			Help: "Weekly plans generated, by outcome.",
		}, []string{"outcome"}),
		GateRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fitglue_safety_gate_rejections_total",
			Help: "Exercises rejected by the clinical safety filter, by reason.",
		}, []string{"reason"}),
		CatalogRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fitglue_catalog_rejections_total",
			Help: "Catalog rows dropped during normalization, by reason.",
		}, []string{"reason"}),
		PhaseTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fitglue_phase_transitions_total",
			Help: "Phase machine transitions, by kind and target phase.",
		}, []string{"kind", "to"}),
		GenerationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fitglue_plan_generation_seconds",
			Help:    "Time to generate one weekly plan, reads included.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		SafeCandidates: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fitglue_safe_candidates",
			Help:    "Exercises left after the safety filter.",
			Buckets: []float64{0, 6, 12, 25, 50, 100, 200},
		}),
	}
}

// ObserveDuration records the time since start.
func (m *Metrics) ObserveDuration(start time.Time) {
	m.GenerationDuration.Observe(time.Since(start).Seconds())
}
