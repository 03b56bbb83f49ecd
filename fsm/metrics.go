package fsm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric outcome labels.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// labelUnknown replaces the state and event of a dispatch that matched no row.
const labelUnknown = "unknown"

var (
	// transitionsRegisteredTotal counts RegisterTransition calls, including overwrites.
	transitionsRegisteredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsm_transitions_registered_total",
		Help: "Total number of transition registrations by machine (overwrites included)",
	}, []string{"machine"})

	// tableSize tracks the number of distinct keys in a machine's table.
	tableSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fsm_table_size",
		Help: "Number of distinct (state, event) rows in the transition table",
	}, []string{"machine"})

	// eventsProcessedTotal counts dispatches by outcome and failure reason.
	eventsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsm_events_processed_total",
		Help: "Total number of processed events by machine, registered state and event, outcome and reason",
	}, []string{"machine", "state", "event", "outcome", "reason"})

	// dispatchDuration tracks the time spent in a single dispatch.
	dispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fsm_dispatch_duration_seconds",
		Help:    "Duration of event dispatch by machine and outcome",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"machine", "outcome"})
)

func outcomeLabel(err error) string {
	if err != nil {
		return outcomeFailure
	}

	return outcomeSuccess
}

// dispatchLabels returns the state and event labels for an outcome. Only
// registered rows name a series, so unmatched input cannot grow the label
// set.
func dispatchLabels(outcome Outcome, matched bool) (string, string) {
	if !matched {
		return labelUnknown, labelUnknown
	}

	return sanitizeLabel(outcome.From, "none"), sanitizeLabel(outcome.Event, "none")
}

func sanitizeLabel(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
