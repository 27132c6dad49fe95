package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sixdegrees_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "caller", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sixdegrees_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	auditEventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sixdegrees_audit_events_published_total",
			Help: "Total number of audit events published.",
		},
		[]string{"action", "outcome"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sixdegrees_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
	rateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sixdegrees_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		},
		[]string{"route"},
	)
	metricsOnce sync.Once
)

func InitMetrics(reg prometheus.Registerer) {
	metricsOnce.Do(func() {
		reg.MustRegister(httpRequestsTotal, httpRequestDuration, auditEventsPublishedTotal, amqpPublishErrorsTotal, rateLimitedTotal)
	})
}

// RecordHTTPRequest counts one request. caller is "authenticated" or
// "anonymous".
func RecordHTTPRequest(method, route, caller string, status int, duration time.Duration) {
	if route == "" {
		route = "unknown"
	}
	httpRequestsTotal.WithLabelValues(method, route, caller, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func IncAuditEventPublished(action, outcome string) {
	if action == "" {
		action = "unknown"
	}
	auditEventsPublishedTotal.WithLabelValues(action, outcome).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}

func IncRateLimited(route string) {
	if route == "" {
		route = "unknown"
	}
	rateLimitedTotal.WithLabelValues(route).Inc()
}
