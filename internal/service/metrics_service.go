package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openverse/campus-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface, the cache and the content engine, and provides lightweight
// snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	submissions     *prometheus.CounterVec
	votes           *prometheus.CounterVec
	verifications   *prometheus.CounterVec
	rejections      *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	submissionCount      uint64
	voteCount            uint64
	verificationCount    uint64
	rejectionCount       uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService(streamSubscribers func() int) *MetricsService {
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_submissions_total",
		Help: "Total content submissions by type",
	}, []string{"type"})

	votes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_votes_total",
		Help: "Total votes cast by direction",
	}, []string{"direction"})

	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_verifications_total",
		Help: "Total items verified, by community vote or admin override",
	}, []string{"mode"})

	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_rejections_total",
		Help: "Total items rejected, by community vote or admin override",
	}, []string{"mode"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite,
		cacheHitRatio, cacheHits, cacheMisses, submissions, votes, verifications, rejections, goroutines)

	if streamSubscribers != nil {
		subscribers := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "stream_subscribers",
			Help: "Live change-feed subscriber count",
		}, func() float64 {
			return float64(streamSubscribers())
		})
		registry.MustRegister(subscribers)
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		submissions:     submissions,
		votes:           votes,
		verifications:   verifications,
		rejections:      rejections,
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

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordSubmission counts an accepted content submission.
func (m *MetricsService) RecordSubmission(contentType string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(contentType).Inc()
	atomic.AddUint64(&m.submissionCount, 1)
}

// RecordVote counts a cast vote.
func (m *MetricsService) RecordVote(direction string) {
	if m == nil {
		return
	}
	m.votes.WithLabelValues(direction).Inc()
	atomic.AddUint64(&m.voteCount, 1)
}

// RecordVerification counts a verification transition.
func (m *MetricsService) RecordVerification(forced bool) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(overrideMode(forced)).Inc()
	atomic.AddUint64(&m.verificationCount, 1)
}

// RecordRejection counts a rejection deletion.
func (m *MetricsService) RecordRejection(forced bool) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(overrideMode(forced)).Inc()
	atomic.AddUint64(&m.rejectionCount, 1)
}

func overrideMode(forced bool) string {
	if forced {
		return "forced"
	}
	return "community"
}

// Snapshot returns aggregated metrics suitable for the stats endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		Submissions:              atomic.LoadUint64(&m.submissionCount),
		Votes:                    atomic.LoadUint64(&m.voteCount),
		Verifications:            atomic.LoadUint64(&m.verificationCount),
		Rejections:               atomic.LoadUint64(&m.rejectionCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
