package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	transitionsAppliedTotal   *prometheus.CounterVec
	transitionsRejectedTotal  *prometheus.CounterVec
	notificationsCreatedTotal *prometheus.CounterVec
	outboxRedispatchesTotal   prometheus.Counter
	streamClientsActive       prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		transitionsAppliedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_transitions_applied_total",
			Help: "Review transitions committed, by resulting event kind.",
		}, []string{"kind"})

		transitionsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_transitions_rejected_total",
			Help: "Review transitions refused by the stage guard, by expected stage.",
		}, []string{"stage"})

		notificationsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Notifications written by the fan-out dispatcher, by type.",
		}, []string{"type"})

		outboxRedispatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "outbox_redispatches_total",
			Help: "Outbox events re-delivered by the background dispatcher.",
		})

		streamClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notification_stream_clients_active",
			Help: "Currently connected notification stream subscribers.",
		})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			transitionsAppliedTotal, transitionsRejectedTotal,
			notificationsCreatedTotal, outboxRedispatchesTotal,
			streamClientsActive,
		)
	})
}

// HTTPRequests exposes the counter for served requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for served requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// TransitionsAppliedTotal exposes the counter for committed review transitions.
func TransitionsAppliedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return transitionsAppliedTotal
}

// TransitionsRejectedTotal exposes the counter for stage-guard rejections.
func TransitionsRejectedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return transitionsRejectedTotal
}

// NotificationsCreatedTotal exposes the counter for fanned-out notifications.
func NotificationsCreatedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsCreatedTotal
}

// OutboxRedispatchesTotal exposes the counter for outbox re-deliveries.
func OutboxRedispatchesTotal() prometheus.Counter {
	RegisterMetrics()
	return outboxRedispatchesTotal
}

// StreamClientsActive exposes the gauge for connected stream subscribers.
func StreamClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return streamClientsActive
}
