package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/lhu-dashboard-api/internal/dto"
)

const (
	cacheOutcomeHit     = "hit"
	cacheOutcomeMiss    = "miss"
	cacheOutcomeExpired = "expired"
	cacheOutcomeStale   = "stale"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	cacheReadLatency *prometheus.HistogramVec
	cacheWrite       *prometheus.HistogramVec
	cacheHitRatio    prometheus.Gauge
	upstreamDuration *prometheus.HistogramVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	cacheStaleCount      uint64
	requestCount         uint64
	requestDurationTotal uint64
	upstreamCount        uint64
	upstreamFailures     uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by store and outcome (hit, miss, expired, stale)",
	}, []string{"store", "outcome"})

	cacheReadLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cache_read_seconds",
		Help:    "Latency for cache backend reads",
		Buckets: prometheus.DefBuckets,
	}, []string{"store"})

	cacheWrite := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache backend writes",
		Buckets: prometheus.DefBuckets,
	}, []string{"store"})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of fresh cache hits to total cache lookups",
	})

	upstreamDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of calls to the university API",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLookups, cacheReadLatency, cacheWrite, cacheHitRatio, upstreamDuration, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:         registry,
		handler:          handler,
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		cacheLookups:     cacheLookups,
		cacheReadLatency: cacheReadLatency,
		cacheWrite:       cacheWrite,
		cacheHitRatio:    cacheHitRatio,
		upstreamDuration: upstreamDuration,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheLookup counts a lookup outcome and updates the hit ratio.
func (m *MetricsService) RecordCacheLookup(store, outcome string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(store, outcome).Inc()
	switch outcome {
	case cacheOutcomeHit:
		atomic.AddUint64(&m.cacheHitCount, 1)
	case cacheOutcomeStale:
		atomic.AddUint64(&m.cacheStaleCount, 1)
		return
	default:
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheRead tracks backend read latency.
func (m *MetricsService) ObserveCacheRead(store string, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheReadLatency.WithLabelValues(store).Observe(duration.Seconds())
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(store string, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.WithLabelValues(store).Observe(duration.Seconds())
}

// ObserveUpstream records the latency and outcome of a call to the university API.
func (m *MetricsService) ObserveUpstream(endpoint string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		atomic.AddUint64(&m.upstreamFailures, 1)
	}
	atomic.AddUint64(&m.upstreamCount, 1)
	m.upstreamDuration.WithLabelValues(endpoint, outcome).Observe(duration.Seconds())
}

// Snapshot returns aggregated metrics suitable for the JSON metrics endpoint.
func (m *MetricsService) Snapshot() dto.MetricsSnapshot {
	if m == nil {
		return dto.MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	stale := atomic.LoadUint64(&m.cacheStaleCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return dto.MetricsSnapshot{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheStaleServes:         stale,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		UpstreamCalls:            atomic.LoadUint64(&m.upstreamCount),
		UpstreamFailures:         atomic.LoadUint64(&m.upstreamFailures),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
