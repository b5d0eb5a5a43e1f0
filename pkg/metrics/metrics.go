// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RedirectsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrredirect_redirects_created_total",
		Help: "Redirect records created",
	})

	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrredirect_resolutions_total",
		Help: "Resolution attempts by outcome",
	}, []string{"outcome"})

	StoreFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrredirect_store_failures_total",
		Help: "Redirect store operations that failed",
	}, []string{"op"})

	AnalyticsEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrredirect_analytics_events_total",
		Help: "Analytics events persisted",
	})

	AnalyticsWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrredirect_analytics_write_failures_total",
		Help: "Analytics events that could not be persisted",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qrredirect_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)
