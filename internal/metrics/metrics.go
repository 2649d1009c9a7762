// Package metrics exposes Prometheus instrumentation for the search engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine holds the collectors updated by the multistart coordinators.
type Engine struct {
	// Restarts counts completed restarts across all workers.
	Restarts prometheus.Counter
	// Iterations counts completed search iterations across all workers.
	Iterations prometheus.Counter
	// BestCost reports the cost of the best result found so far.
	BestCost prometheus.Gauge
	// Snapshots counts best-so-far snapshots recorded by timed searches.
	Snapshots prometheus.Counter
	// WorkerFailures counts worker tasks that ended in a panic.
	WorkerFailures prometheus.Counter
}

// NewEngine creates the engine collectors and registers them with reg.
func NewEngine(reg prometheus.Registerer) *Engine {
	factory := promauto.With(reg)
	return &Engine{
		Restarts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kiln",
			Subsystem: "search",
			Name:      "restarts_total",
			Help:      "Completed restarts across all workers.",
		}),
		Iterations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kiln",
			Subsystem: "search",
			Name:      "iterations_total",
			Help:      "Completed search iterations across all workers.",
		}),
		BestCost: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "kiln",
			Subsystem: "search",
			Name:      "best_cost",
			Help:      "Cost of the best result found so far.",
		}),
		Snapshots: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kiln",
			Subsystem: "search",
			Name:      "snapshots_total",
			Help:      "Best-so-far snapshots recorded by timed searches.",
		}),
		WorkerFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kiln",
			Subsystem: "search",
			Name:      "worker_failures_total",
			Help:      "Worker tasks that ended in a panic.",
		}),
	}
}
