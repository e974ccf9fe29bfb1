package fetch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated by a Fetcher.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// AttemptsTotal counts network attempts by proxy and result
	AttemptsTotal *prometheus.CounterVec
	// AttemptLatency observes the duration of network attempts by proxy
	AttemptLatency *prometheus.HistogramVec
	// FetchesTotal counts settled top-level fetches by result
	FetchesTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheHitsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "lainchan_cache_hits_total",
			Help: "Total number of fetches served from the cache",
		}),
		CacheMissesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "lainchan_cache_misses_total",
			Help: "Total number of fetches that missed the cache",
		}),
		AttemptsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lainchan_fetch_attempts_total",
			Help: "Total number of network attempts",
		}, []string{"proxy", "result"}), // primary/fallback, success/network/http/empty
		AttemptLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lainchan_fetch_attempt_duration_seconds",
			Help:    "Duration of network attempts in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"proxy"}),
		FetchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lainchan_fetches_total",
			Help: "Total number of settled fetches",
		}, []string{"result"}),
	}
}

func (m *Metrics) cacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
	m.FetchesTotal.WithLabelValues("cached").Inc()
}

func (m *Metrics) cacheMiss() {
	if m == nil {
		return
	}
	m.CacheMissesTotal.Inc()
}

func (m *Metrics) attempt(p Proxy, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(p.String(), kind(err)).Inc()
	m.AttemptLatency.WithLabelValues(p.String()).Observe(d.Seconds())
}

func (m *Metrics) settled(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.FetchesTotal.WithLabelValues(result).Inc()
}
