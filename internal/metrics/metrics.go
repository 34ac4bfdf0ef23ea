// Package metrics holds the Prometheus collectors shared by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemoteCalls counts calls to the generation API by operation and outcome.
	RemoteCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stencil",
			Name:      "remote_calls_total",
			Help:      "Generation API calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// PollRounds counts readiness rounds run by the poller.
	PollRounds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stencil",
			Name:      "poll_rounds_total",
			Help:      "Readiness poll rounds by result",
		},
		[]string{"result"},
	)

	// Probes counts individual readiness probes.
	Probes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stencil",
			Name:      "probes_total",
			Help:      "Pending result probes by result",
		},
		[]string{"result"},
	)

	// BaaSCalls counts backend-as-a-service operations.
	BaaSCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stencil",
			Name:      "baas_calls_total",
			Help:      "Backend service operations by area and outcome",
		},
		[]string{"area", "outcome"},
	)
)

// Outcome maps an error to the "ok"/"error" label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ReadyLabel maps a readiness flag to a label value.
func ReadyLabel(ready bool) string {
	if ready {
		return "ready"
	}
	return "pending"
}
