package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for the health endpoint.
type MetricsService struct {
	registry             *prometheus.Registry
	handler              http.Handler
	requestDuration      *prometheus.HistogramVec
	requestTotal         *prometheus.CounterVec
	approvalsSubmitted   *prometheus.CounterVec
	approvalsResolved    *prometheus.CounterVec
	custodyEvents        *prometheus.CounterVec
	identifiers          *prometheus.CounterVec
	notificationsSent    prometheus.Counter
	notificationsDropped prometheus.Counter

	requestCount         uint64
	requestDurationTotal uint64
	droppedCount         uint64
}

// MetricsSnapshot is a compact view of process counters.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	NotificationsDropped     uint64    `json:"notifications_dropped"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	approvalsSubmitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "approvals_submitted_total",
		Help: "Approval requests opened, by type",
	}, []string{"type"})

	approvalsResolved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "approvals_resolved_total",
		Help: "Approval requests resolved, by type and outcome",
	}, []string{"type", "status"})

	custodyEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "custody_events_total",
		Help: "Custody events appended, by event type",
	}, []string{"event_type"})

	identifiers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "identifiers_allocated_total",
		Help: "Lab and exhibit numbers allocated",
	}, []string{"kind"})

	notificationsSent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_published_total",
		Help: "Activity notifications published",
	})

	notificationsDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_dropped_total",
		Help: "Activity notifications discarded",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, approvalsSubmitted, approvalsResolved, custodyEvents,
		identifiers, notificationsSent, notificationsDropped, goroutines)

	return &MetricsService{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		approvalsSubmitted:   approvalsSubmitted,
		approvalsResolved:    approvalsResolved,
		custodyEvents:        custodyEvents,
		identifiers:          identifiers,
		notificationsSent:    notificationsSent,
		notificationsDropped: notificationsDropped,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ApprovalSubmitted counts a new approval request.
func (m *MetricsService) ApprovalSubmitted(approvalType string) {
	if m == nil {
		return
	}
	m.approvalsSubmitted.WithLabelValues(approvalType).Inc()
}

// ApprovalResolved counts a resolution.
func (m *MetricsService) ApprovalResolved(approvalType, status string) {
	if m == nil {
		return
	}
	m.approvalsResolved.WithLabelValues(approvalType, status).Inc()
}

// CustodyEvent counts an appended ledger entry.
func (m *MetricsService) CustodyEvent(eventType string) {
	if m == nil {
		return
	}
	m.custodyEvents.WithLabelValues(eventType).Inc()
}

// IdentifiersAllocated counts numbers handed out; kind is "lab" or "exhibit".
func (m *MetricsService) IdentifiersAllocated(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.identifiers.WithLabelValues(kind).Add(float64(n))
}

// NotificationPublished counts a delivered notification.
func (m *MetricsService) NotificationPublished() {
	if m == nil {
		return
	}
	m.notificationsSent.Inc()
}

// NotificationDropped counts a discarded notification.
func (m *MetricsService) NotificationDropped() {
	if m == nil {
		return
	}
	m.notificationsDropped.Inc()
	atomic.AddUint64(&m.droppedCount, 1)
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		NotificationsDropped:     atomic.LoadUint64(&m.droppedCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
