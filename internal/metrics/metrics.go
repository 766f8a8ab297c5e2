// Package metrics defines the prometheus collectors exposed on /metrics,
// fed by the SMPP dispatcher and server, the lifecycle engine and the MO
// service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ActiveSessions reports the current count of bound sessions.
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "smppsim",
		Name:      "active_sessions",
		Help:      "Number of currently bound SMPP sessions.",
	})

	// MessagesSubmitted counts submit_sm requests accepted.
	MessagesSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "smppsim",
		Name:      "messages_submitted_total",
		Help:      "Total submit_sm requests accepted.",
	})

	// ReceiptsEmitted counts delivery receipts by terminal state.
	ReceiptsEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smppsim",
		Name:      "receipts_emitted_total",
		Help:      "Total delivery receipts emitted, by stat.",
	}, []string{"stat"})

	// MoDispatched counts mobile-originated messages successfully routed.
	MoDispatched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "smppsim",
		Name:      "mo_dispatched_total",
		Help:      "Total mobile-originated messages delivered to a subscriber session.",
	})

	// MoDropped counts mobile-originated messages with no matching subscriber.
	MoDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "smppsim",
		Name:      "mo_dropped_total",
		Help:      "Total mobile-originated messages dropped for lack of a subscriber.",
	})
)

// MustRegister registers every collector with the default registry. Called
// once during process bootstrap.
func MustRegister() {
	prometheus.MustRegister(ActiveSessions, MessagesSubmitted, ReceiptsEmitted, MoDispatched, MoDropped)
}
