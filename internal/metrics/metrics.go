package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surfsup_http_requests_total",
			Help: "Total HTTP requests served, by route pattern and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "surfsup_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	StoreSessionsOpened = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "surfsup_store_sessions_opened_total",
			Help: "Observation store sessions acquired",
		},
	)

	StoreSessionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "surfsup_store_sessions_in_use",
			Help: "Observation store sessions currently held by requests",
		},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surfsup_store_errors_total",
			Help: "Failed observation store operations",
		},
		[]string{"operation"},
	)
)
