package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crafthire_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crafthire_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	applicationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crafthire_applications_created_total",
		Help: "Applications created by submission channel",
	}, []string{"channel"})

	applicationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crafthire_application_transitions_total",
		Help: "Application review transitions by resulting status",
	}, []string{"status"})

	applicationsWithdrawn = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crafthire_applications_withdrawn_total",
		Help: "Pending applications withdrawn by craftworkers",
	})

	rosterOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crafthire_roster_operations_total",
		Help: "Roster operations by kind and result",
	}, []string{"operation", "result"})

	reconcileRepairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crafthire_reconcile_repairs_total",
		Help: "Roster/affiliation mismatches repaired by the reconciler",
	}, []string{"kind"})

	reconcileRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crafthire_reconcile_runs_total",
		Help: "Reconciliation passes by result",
	}, []string{"result"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crafthire_cache_lookups_total",
		Help: "Public job cache lookups by result",
	}, []string{"result"})

	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crafthire_websocket_connections",
		Help: "Open event stream connections",
	})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crafthire_events_published_total",
		Help: "Notifications published by type and result",
	}, []string{"type", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveApplicationCreated counts a new application by channel (self or provider)
func ObserveApplicationCreated(channel string) {
	applicationsCreated.WithLabelValues(channel).Inc()
}

// ObserveApplicationTransition counts a review transition
func ObserveApplicationTransition(status string) {
	applicationTransitions.WithLabelValues(status).Inc()
}

// ObserveApplicationWithdrawn counts a withdrawal
func ObserveApplicationWithdrawn() {
	applicationsWithdrawn.Inc()
}

// ObserveRosterOperation counts add/remove/set_status calls with their outcome
func ObserveRosterOperation(operation, result string) {
	rosterOperations.WithLabelValues(operation, result).Inc()
}

// ObserveReconcileRepair counts one repaired mismatch
func ObserveReconcileRepair(kind string) {
	reconcileRepairs.WithLabelValues(kind).Inc()
}

// ObserveReconcileRun counts one reconciliation pass
func ObserveReconcileRun(result string) {
	reconcileRuns.WithLabelValues(result).Inc()
}

// ObserveCacheLookup records a hit, miss or error
func ObserveCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

// IncrementWebsocket and DecrementWebsocket track open event streams
func IncrementWebsocket() {
	wsConnections.Inc()
}

func DecrementWebsocket() {
	wsConnections.Dec()
}

// ObserveEventPublished counts a notification delivery attempt
func ObserveEventPublished(eventType, result string) {
	eventsPublished.WithLabelValues(eventType, result).Inc()
}
