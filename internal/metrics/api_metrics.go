package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// API and scheduler metrics
var (
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total number of API requests by route and status code",
	}, []string{"route", "code"})
	APIRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "API request latency by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
	APIRateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter",
	})
	ScheduledRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduled_runs_total",
		Help:      "Scheduled prediction refreshes by event and status",
	}, []string{"event", "status"})
)

// RecordAPIRequest records one served request.
func RecordAPIRequest(route string, code int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	APIRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordRateLimited counts a rejected request.
func RecordRateLimited() {
	APIRateLimitedTotal.Inc()
}

// RecordScheduledRun records a cron-triggered refresh.
func RecordScheduledRun(event, status string) {
	ScheduledRunsTotal.WithLabelValues(event, status).Inc()
}
