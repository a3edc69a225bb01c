// Package metrics registers the Prometheus instruments the promotion
// engine emits. Exposing them over /metrics is a host-application
// concern (out of scope here, see SPEC_FULL.md); this package only
// registers and updates the instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SolverMetrics contains the counters and histograms the engine
// updates on every solve.
type SolverMetrics struct {
	SolvesTotal       *prometheus.CounterVec
	SolveDuration     prometheus.Histogram
	LayersEvaluated   prometheus.Counter
	RedemptionsTotal  *prometheus.CounterVec
	BudgetExhausted   *prometheus.CounterVec
	Infeasible        prometheus.Counter
	Timeouts          prometheus.Counter
	GraphBuildFailure prometheus.Counter
}

// Solver is the singleton instance used by the engine package. It is
// set by Init or InitWithRegisterer, or lazily by Get on first use, so
// tests that never call Init still get a working set of instruments
// registered against a private registry.
var Solver *SolverMetrics

// Init registers the solver metrics under the given namespace. Calling
// Init more than once panics (promauto registers against the default
// registry), matching this codebase's existing Init-once convention;
// callers that need isolation should use InitWithRegisterer.
func Init(namespace string) {
	Solver = initSolverMetrics(namespace, prometheus.DefaultRegisterer)
}

// InitWithRegisterer registers the solver metrics against a specific
// registerer, for use in tests that want an isolated registry.
func InitWithRegisterer(namespace string, reg prometheus.Registerer) {
	Solver = initSolverMetrics(namespace, reg)
}

func initSolverMetrics(namespace string, reg prometheus.Registerer) *SolverMetrics {
	factory := promauto.With(reg)
	return &SolverMetrics{
		SolvesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "promo_solves_total",
				Help:      "Total number of graph solves, partitioned by outcome",
			},
			[]string{"outcome"},
		),
		SolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "promo_solve_duration_seconds",
			Help:      "Wall-clock duration of a full graph solve",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		LayersEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_layers_evaluated_total",
			Help:      "Total number of layer invocations across all solves",
		}),
		RedemptionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "promo_redemptions_total",
				Help:      "Total number of redemptions granted, by promotion key",
			},
			[]string{"promotion_key"},
		),
		BudgetExhausted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "promo_budget_exhausted_total",
				Help:      "Number of times a promotion's budget blocked a further redemption",
			},
			[]string{"promotion_key", "limit"},
		),
		Infeasible: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_infeasible_total",
			Help:      "Total number of solves that failed with Infeasible",
		}),
		Timeouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_timeouts_total",
			Help:      "Total number of solves that exceeded their deadline",
		}),
		GraphBuildFailure: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_graph_build_failures_total",
			Help:      "Total number of PromotionGraph builds that failed validation",
		}),
	}
}

// Get returns the initialized Solver metrics, lazily registering a set
// of detached instruments against a private registry if Init was never
// called, so engine code can record metrics unconditionally without a
// required startup step.
func Get() *SolverMetrics {
	if Solver == nil {
		Solver = initSolverMetrics("promo", prometheus.NewRegistry())
	}
	return Solver
}
