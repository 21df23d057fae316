// Package telemetry collects the Prometheus metrics and OpenTelemetry
// spans a running Model exposes, separate from the domain packages
// themselves so pkg/executive, pkg/taskgraph, and pkg/reaction stay
// free of any observability import.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsPumped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchsim_events_pumped_total",
			Help: "Number of events popped from the Executive's queue and dispatched to a receiver.",
		},
		[]string{"kind"},
	)
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "batchsim_event_queue_depth",
			Help: "Number of events currently queued in the Executive.",
		},
	)
	DetachablesLive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "batchsim_detachables_live",
			Help: "Number of detachable event goroutines currently parked or running.",
		},
	)
	TasksInvalidated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchsim_tasks_invalidated_total",
			Help: "Number of times a task's aggregateValid flipped from true to false.",
		},
		[]string{"task"},
	)
	ReactionsHappened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchsim_reactions_happened_total",
			Help: "Number of reaction steps applied to a mixture.",
		},
		[]string{"reaction"},
	)

	collectors = []prometheus.Collector{
		EventsPumped,
		QueueDepth,
		DetachablesLive,
		TasksInvalidated,
		ReactionsHappened,
	}
)

// MustRegister registers every batchsim collector against reg. Each
// Model owns its own registry, so registration is idempotent per reg
// rather than process-wide: calling it again against the same reg, or
// against a second registry a different Model owns, both work.
func MustRegister(reg prometheus.Registerer) {
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, already := err.(prometheus.AlreadyRegisteredError); already {
				continue
			}
			panic(err)
		}
	}
}
