// Package metrics exposes Prometheus counters for the assistant service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ChatRequests counts chat API requests by endpoint and outcome.
	ChatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drcloud_chat_requests_total",
		Help: "Number of chat requests processed, by endpoint and status.",
	}, []string{"endpoint", "status"})

	// CapabilityInvocations counts capability calls by name and result status.
	CapabilityInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drcloud_capability_invocations_total",
		Help: "Number of capability invocations, by capability and status.",
	}, []string{"capability", "status"})

	// EmergencyNotifications counts out-of-band emergency notifications sent.
	EmergencyNotifications = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drcloud_emergency_notifications_total",
		Help: "Number of emergency notifications fired.",
	})

	// DocumentationRecords counts persisted documentation records.
	DocumentationRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drcloud_documentation_records_total",
		Help: "Number of documentation records written to the store.",
	})

	// TurnDuration observes end-to-end turn processing time in seconds.
	TurnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "drcloud_turn_duration_seconds",
		Help:    "End-to-end conversation turn processing time.",
		Buckets: prometheus.DefBuckets,
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
