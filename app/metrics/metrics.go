// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yatube_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yatube_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "yatube_http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	PageCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yatube_page_cache_lookups_total",
			Help: "Page cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss"
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yatube_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	CSRFRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yatube_csrf_rejections_total",
			Help: "Unsafe requests rejected for a missing or bad CSRF token",
		},
	)

	ContentCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yatube_content_created_total",
			Help: "Posts, comments, follows and signups created",
		},
		[]string{"kind"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yatube_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"}, // "success", "failure"
	)

	StoreGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yatube_store_gc_runs_total",
			Help: "Background storage maintenance runs",
		},
		[]string{"task", "result"},
	)
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments the in-flight gauge and returns the matching decrement.
func TrackActiveRequest() func() {
	HTTPActiveRequests.Inc()
	return HTTPActiveRequests.Dec
}

func RecordCacheLookup(hit bool) {
	if hit {
		PageCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	PageCacheLookups.WithLabelValues("miss").Inc()
}

func RecordCSRFRejected() {
	CSRFRejections.Inc()
}

func RecordCreated(kind string) {
	ContentCreated.WithLabelValues(kind).Inc()
}

func RecordLogin(ok bool) {
	if ok {
		LoginAttempts.WithLabelValues("success").Inc()
		return
	}
	LoginAttempts.WithLabelValues("failure").Inc()
}

// RecordGC counts a maintenance run; err == nil is a success.
func RecordGC(task string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	StoreGCRuns.WithLabelValues(task, result).Inc()
}
