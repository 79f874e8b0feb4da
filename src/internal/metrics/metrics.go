package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "timeclock"

var (
	ClockTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_total",
		Help:      "Clock-in and clock-out attempts by outcome.",
	}, []string{"operation", "outcome"})

	SessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "session_duration_seconds",
		Help:      "Total time of archived sessions.",
		Buckets:   []float64{900, 1800, 3600, 7200, 14400, 28800, 43200, 86400},
	})

	PublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_publish_failures_total",
		Help:      "Events that could not be handed to the broker.",
	}, []string{"event"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

const (
	OutcomeSuccess      = "success"
	OutcomePrecondition = "precondition_failed"
	OutcomeLocation     = "location_unavailable"
	OutcomeConflict     = "conflict"
	OutcomeStoreError   = "store_error"
)
