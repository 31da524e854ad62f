package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec
	ErrorTotal      *prometheus.CounterVec

	// Domain metrics
	PrescriptionFills  *prometheus.CounterVec
	FillConflicts      prometheus.Counter
	OrdersCreated      prometheus.Counter
	RefillRequests     prometheus.Counter
	AuditWriteFailures prometheus.Counter

	// Event metrics
	EventsPublished *prometheus.CounterVec
	EmailsSent      *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "path", "status"}),
		RequestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		ErrorTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Total number of HTTP error responses",
		}, []string{"method", "path"}),

		PrescriptionFills: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prescription_fills_total",
			Help:      "Fill operations by resulting prescription status",
		}, []string{"result"}),
		FillConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prescription_fill_conflicts_total",
			Help:      "Fill operations aborted by the concurrent-decrement guard",
		}),
		OrdersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Total number of checkout orders created",
		}),
		RefillRequests: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refill_requests_total",
			Help:      "Total number of refill requests",
		}),
		AuditWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_write_failures_total",
			Help:      "Audit log writes that failed (mutation not rolled back)",
		}),

		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events published to the broker",
		}, []string{"event_type", "status"}),
		EmailsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Notification emails sent by the worker",
		}, []string{"template", "status"}),
	}
}
