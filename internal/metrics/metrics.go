package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_errors_total",
			Help: "Total number of logged errors by type.",
		},
		[]string{"type"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		},
		[]string{"route", "method", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobboard_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ThrottledRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_throttled_requests_total",
			Help: "Requests rejected by a throttle scope.",
		},
		[]string{"scope"},
	)
	ApplicationsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobboard_applications_submitted_total",
			Help: "Total number of job applications submitted.",
		},
	)
	ApplicationsReviewed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_applications_reviewed_total",
			Help: "Application reviews by resulting status.",
		},
		[]string{"status"},
	)
)

// Register adds every collector to reg.  main passes prometheus.DefaultRegisterer.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		ErrorsCounter,
		HTTPRequests,
		HTTPDuration,
		ThrottledRequests,
		ApplicationsSubmitted,
		ApplicationsReviewed,
	)
}
