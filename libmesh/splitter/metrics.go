package splitter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the prometheus collectors updated by a refinement run.
type Metrics struct {
	Rounds      prometheus.Counter
	Splits      prometheus.Counter
	Conflicts   prometheus.Counter
	IdleWorkers prometheus.Counter // worker-rounds that found no splittable mesh
	Meshes      prometheus.Gauge
}

// NewMetrics creates the run collectors and registers them with reg.  A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Rounds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gomesh",
			Subsystem: "refine",
			Name:      "rounds_total",
			Help:      "Refinement rounds completed",
		}),
		Splits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gomesh",
			Subsystem: "refine",
			Name:      "splits_total",
			Help:      "Meshes split",
		}),
		Conflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gomesh",
			Subsystem: "refine",
			Name:      "conflicts_total",
			Help:      "Split targets deferred because another splitter claimed them first",
		}),
		IdleWorkers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gomesh",
			Subsystem: "refine",
			Name:      "idle_worker_rounds_total",
			Help:      "Worker rounds that found no splittable mesh",
		}),
		Meshes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "gomesh",
			Subsystem: "refine",
			Name:      "meshes",
			Help:      "Current partition size",
		}),
	}
}
