package scenario

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Build outcomes recorded on BuildsTotal.
const (
	StatusBalanced   = "balanced"
	StatusUnbalanced = "unbalanced"
	StatusFailed     = "failed"
	StatusCached     = "cached"
)

// Metrics instruments scenario builds. A nil *Metrics records nothing.
type Metrics struct {
	BuildsTotal      *prometheus.CounterVec
	BuildDuration    prometheus.Histogram
	MaxBalanceError  *prometheus.GaugeVec
	SolverIterations prometheus.Histogram
}

// NewMetrics creates the scenario metrics and registers them on reg.
// A nil registerer creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BuildsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "statement_engine",
				Name:      "builds_total",
				Help:      "Total number of model builds by outcome",
			},
			[]string{"status"}, // status: balanced, unbalanced, failed, cached
		),
		BuildDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "statement_engine",
				Name:      "build_duration_seconds",
				Help:      "Model build duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), // 100us to ~1.6s
			},
		),
		MaxBalanceError: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "statement_engine",
				Name:      "max_balance_error",
				Help:      "Largest |assets - (liabilities + equity)| in the last build of each scenario",
			},
			[]string{"scenario"},
		),
		SolverIterations: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "statement_engine",
				Name:      "solver_iterations",
				Help:      "Fixed-point iterations per forecast period",
				Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10, 20, 50, 100},
			},
		),
	}
}

func (m *Metrics) recordRun(run Run) {
	if m == nil {
		return
	}
	switch {
	case run.Err != nil:
		m.BuildsTotal.WithLabelValues(StatusFailed).Inc()
		return
	case run.Cached:
		m.BuildsTotal.WithLabelValues(StatusCached).Inc()
		return
	case run.Result.AllPeriodsBalanced:
		m.BuildsTotal.WithLabelValues(StatusBalanced).Inc()
	default:
		m.BuildsTotal.WithLabelValues(StatusUnbalanced).Inc()
	}

	m.BuildDuration.Observe(run.Duration.Seconds())
	m.MaxBalanceError.WithLabelValues(run.Scenario).Set(run.Result.MaxBalanceError)
	for _, p := range run.Result.Forecast() {
		m.SolverIterations.Observe(float64(p.Iterations))
	}
}
