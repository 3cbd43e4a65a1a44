package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/iurnickita/printshop/internal/metrics"
)

func newTestCache(t *testing.T) *Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return &Cache{R: redis.NewClient(&redis.Options{Addr: mr.Addr()}), TTL: time.Minute}
}

func TestCachedBuildsOnce(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	a := newAggregator()

	calls := 0
	build := func() (SalesReport, error) {
		calls++
		return a.Sales(fixtureOrders(), DateRange{}), nil
	}

	first, err := Cached(ctx, cache, "sales", DateRange{}, build)
	require.NoError(t, err)
	second, err := Cached(ctx, cache, "sales", DateRange{}, build)
	require.NoError(t, err)

	require.Equal(t, 1, calls)
	require.Equal(t, first.Summary, second.Summary)
	require.Len(t, second.Data, len(first.Data))
}

func TestCachedKeyedByWindow(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	calls := 0
	build := func() (int, error) {
		calls++
		return calls, nil
	}
	_, err := Cached(ctx, cache, "sales", DateRange{}, build)
	require.NoError(t, err)
	_, err = Cached(ctx, cache, "sales", DateRange{End: date(6)}, build)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestCacheInvalidate(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	calls := 0
	build := func() (int, error) {
		calls++
		return calls, nil
	}
	v, err := Cached(ctx, cache, "summary", DateRange{}, build)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	require.NoError(t, cache.Invalidate(ctx))

	v, err = Cached(ctx, cache, "summary", DateRange{}, build)
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestCacheDisabled(t *testing.T) {
	ctx := context.Background()
	calls := 0
	build := func() (int, error) {
		calls++
		return calls, nil
	}

	var cache *Cache
	_, _ = Cached(ctx, cache, "sales", DateRange{}, build)
	_, _ = Cached(ctx, &Cache{}, "sales", DateRange{}, build)
	require.Equal(t, 2, calls)
	require.NoError(t, cache.Invalidate(ctx))
}

func TestCachedDoesNotStoreErrors(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := Cached(ctx, cache, "sales", DateRange{}, func() (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)

	v, err := Cached(ctx, cache, "sales", DateRange{}, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	require.Equal(t, 7, v)
}

func TestCachedCountsWriteFailures(t *testing.T) {
	metrics.MustRegister(prometheus.NewRegistry())
	cache := newTestCache(t)
	ctx := context.Background()
	failures := func() float64 {
		return testutil.ToFloat64(metrics.ReportCacheTotal.WithLabelValues("error"))
	}
	before := failures()

	// канал не сериализуется в JSON, запись в кэш не происходит
	calls := 0
	build := func() (chan int, error) {
		calls++
		return make(chan int), nil
	}
	v, err := Cached(ctx, cache, "sales", DateRange{}, build)
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, before+1, failures())

	_, err = Cached(ctx, cache, "sales", DateRange{}, build)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Equal(t, before+2, failures())
}
