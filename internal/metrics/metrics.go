// Package metrics 集中定义 Prometheus 指标；通过 /metrics 暴露。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 上游抓取
	FetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doubanhot_fetch_attempts_total",
			Help: "Upstream fetch attempts by outcome (ok, failed, rejected)",
		},
		[]string{"outcome"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "doubanhot_fetch_duration_seconds",
			Help:    "Duration of one logical upstream fetch including retries",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"kind"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "doubanhot_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	// 类别抽取
	CategoryRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "doubanhot_category_records",
			Help: "Number of records produced by the last run of a category",
		},
		[]string{"category"},
	)

	CategoryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doubanhot_category_failures_total",
			Help: "Category runs that collapsed to an empty list, by stage",
		},
		[]string{"category", "stage"},
	)

	AggregateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "doubanhot_aggregate_duration_seconds",
			Help:    "Duration of a full aggregation",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
	)

	// 缓存
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doubanhot_cache_lookups_total",
			Help: "Cache lookups by result (hit, miss, stale, error)",
		},
		[]string{"result"},
	)

	// API
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doubanhot_api_requests_total",
			Help: "API requests by route and status code",
		},
		[]string{"route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "doubanhot_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"route"},
	)
)
