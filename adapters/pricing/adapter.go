// Package pricing provides the retail pricing adapter and its decorators.
// The adapter hides the retail API behind the core pricing.Source contract.
package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"avd-cost/core/pricing"
)

// CachingSource wraps a source with an in-memory TTL cache.
// Only found results are cached, so a failed lookup is retried on the next request.
type CachingSource struct {
	inner pricing.Source
	ttl   time.Duration
	cache map[string]cachedResult
	mu    sync.RWMutex
	now   func() time.Time
}

type cachedResult struct {
	result    pricing.LookupResult
	expiresAt time.Time
}

// NewCachingSource creates a caching wrapper; a non-positive ttl disables caching
func NewCachingSource(inner pricing.Source, ttl time.Duration) *CachingSource {
	return &CachingSource{
		inner: inner,
		ttl:   ttl,
		cache: make(map[string]cachedResult),
		now:   time.Now,
	}
}

// LookupUnitPrice implements pricing.Source
func (s *CachingSource) LookupUnitPrice(ctx context.Context, q pricing.Query) pricing.LookupResult {
	if s.ttl <= 0 {
		return s.inner.LookupUnitPrice(ctx, q)
	}

	key := string(q.Category) + "|" + q.Filter()

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok && s.now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		return cached.result
	}
	s.mu.RUnlock()

	result := s.inner.LookupUnitPrice(ctx, q)
	if !result.Found {
		return result
	}

	s.mu.Lock()
	s.cache[key] = cachedResult{
		result:    result,
		expiresAt: s.now().Add(s.ttl),
	}
	s.mu.Unlock()

	return result
}

// Len returns the number of cached entries, expired ones included
func (s *CachingSource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// MetricsSource wraps a source with Prometheus metrics
type MetricsSource struct {
	inner   pricing.Source
	lookups *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewMetricsSource creates a metrics wrapper registered on reg
func NewMetricsSource(inner pricing.Source, reg prometheus.Registerer) *MetricsSource {
	factory := promauto.With(reg)
	return &MetricsSource{
		inner: inner,
		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "avd_cost",
			Name:      "price_lookups_total",
			Help:      "Retail price lookups by category and outcome.",
		}, []string{"category", "outcome"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "avd_cost",
			Name:      "price_lookup_duration_seconds",
			Help:      "Retail price lookup latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"category"}),
	}
}

// LookupUnitPrice implements pricing.Source
func (s *MetricsSource) LookupUnitPrice(ctx context.Context, q pricing.Query) pricing.LookupResult {
	start := time.Now()
	result := s.inner.LookupUnitPrice(ctx, q)

	category := string(q.Category)
	s.latency.WithLabelValues(category).Observe(time.Since(start).Seconds())

	outcome := "found"
	if !result.Found {
		outcome = "not_found"
	}
	s.lookups.WithLabelValues(category, outcome).Inc()

	return result
}

// Lookups returns the lookup counter, for inspection
func (s *MetricsSource) Lookups() *prometheus.CounterVec {
	return s.lookups
}
