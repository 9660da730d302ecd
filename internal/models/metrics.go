package models

import "time"

// SystemMetrics is a point-in-time aggregate surfaced by the stats
// endpoint for dashboards that do not scrape Prometheus.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	Submissions              uint64    `json:"submissions"`
	Votes                    uint64    `json:"votes"`
	Verifications            uint64    `json:"verifications"`
	Rejections               uint64    `json:"rejections"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
