// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ValuationsComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valuations_computed_total",
			Help: "Total number of valuations computed, by caller",
		},
		[]string{"source"},
	)

	ValuationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "valuation_duration_seconds",
			Help:    "Time spent resolving the industry range and computing a valuation",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)

	IndustryLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "industry_lookups_total",
			Help: "Industry multiplier lookups by resolution tier",
		},
		[]string{"resolution"},
	)

	IndustryCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "industry_cache_total",
			Help: "Industry multiplier cache results (hit, miss, error)",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by route pattern and status code",
		},
		[]string{"route", "code"},
	)
)
