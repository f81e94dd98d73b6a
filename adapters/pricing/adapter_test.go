package pricing

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"avd-cost/core/pricing"
)

type countingSource struct {
	calls  atomic.Int32
	result pricing.LookupResult
}

func (s *countingSource) LookupUnitPrice(context.Context, pricing.Query) pricing.LookupResult {
	s.calls.Add(1)
	return s.result
}

func TestCachingSource_CachesFoundResults(t *testing.T) {
	inner := &countingSource{result: pricing.Priced(decimal.RequireFromString("0.19"), "1 GiB/Month")}
	src := NewCachingSource(inner, time.Hour)

	for i := 0; i < 3; i++ {
		res := src.LookupUnitPrice(context.Background(), storageQuery())
		assert.Equal(t, "0.19", res.Price.String())
	}
	assert.Equal(t, int32(1), inner.calls.Load())
	assert.Equal(t, 1, src.Len())

	src.LookupUnitPrice(context.Background(), pricing.DefaultTarget().ComputeQuery())
	assert.Equal(t, int32(2), inner.calls.Load())
	assert.Equal(t, 2, src.Len())
}

func TestCachingSource_DoesNotCacheFailures(t *testing.T) {
	inner := &countingSource{result: pricing.Unavailable(nil)}
	src := NewCachingSource(inner, time.Hour)

	src.LookupUnitPrice(context.Background(), storageQuery())
	src.LookupUnitPrice(context.Background(), storageQuery())

	assert.Equal(t, int32(2), inner.calls.Load())
	assert.Equal(t, 0, src.Len())
}

func TestCachingSource_Expires(t *testing.T) {
	inner := &countingSource{result: pricing.Priced(decimal.RequireFromString("0.19"), "")}
	src := NewCachingSource(inner, time.Minute)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return now }

	src.LookupUnitPrice(context.Background(), storageQuery())
	now = now.Add(30 * time.Second)
	src.LookupUnitPrice(context.Background(), storageQuery())
	assert.Equal(t, int32(1), inner.calls.Load())

	now = now.Add(time.Minute)
	src.LookupUnitPrice(context.Background(), storageQuery())
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestCachingSource_ZeroTTLDisables(t *testing.T) {
	inner := &countingSource{result: pricing.Priced(decimal.RequireFromString("0.19"), "")}
	src := NewCachingSource(inner, 0)

	src.LookupUnitPrice(context.Background(), storageQuery())
	src.LookupUnitPrice(context.Background(), storageQuery())
	assert.Equal(t, int32(2), inner.calls.Load())
	assert.Equal(t, 0, src.Len())
}

func TestCachingSource_ConcurrentAccess(t *testing.T) {
	inner := &countingSource{result: pricing.Priced(decimal.RequireFromString("0.19"), "")}
	src := NewCachingSource(inner, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = src.LookupUnitPrice(context.Background(), storageQuery())
			_ = src.LookupUnitPrice(context.Background(), pricing.DefaultTarget().ComputeQuery())
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, src.Len())
}

func TestMetricsSource_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()

	found := NewMetricsSource(&countingSource{result: pricing.Priced(decimal.RequireFromString("0.19"), "")}, reg)
	found.LookupUnitPrice(context.Background(), storageQuery())
	found.LookupUnitPrice(context.Background(), storageQuery())

	assert.Equal(t, 2.0, testutil.ToFloat64(found.Lookups().WithLabelValues("storage", "found")))
	assert.Equal(t, 0.0, testutil.ToFloat64(found.Lookups().WithLabelValues("storage", "not_found")))

	missing := NewMetricsSource(&countingSource{result: pricing.Unavailable(nil)}, prometheus.NewRegistry())
	missing.LookupUnitPrice(context.Background(), pricing.DefaultTarget().ComputeQuery())
	assert.Equal(t, 1.0, testutil.ToFloat64(missing.Lookups().WithLabelValues("compute", "not_found")))

	families, err := reg.Gather()
	assert.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "avd_cost_price_lookups_total")
	assert.Contains(t, names, "avd_cost_price_lookup_duration_seconds")
}
