package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iurnickita/printshop/internal/metrics"
)

const generationKey = "report:generation"

// Cache keeps serialized reports in redis. Every write to orders, payments,
// expenses or reference data must call Invalidate, which moves all readers to
// a fresh key space.
type Cache struct {
	R   *redis.Client
	TTL time.Duration
}

func (c *Cache) enabled() bool {
	return c != nil && c.R != nil && c.TTL > 0
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

func (c *Cache) generation(ctx context.Context) (int64, error) {
	gen, err := c.R.Get(ctx, generationKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// Invalidate drops every cached report.
func (c *Cache) Invalidate(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.R.Incr(ctx, generationKey).Err()
}

// Cached returns the report stored under name and window, building and storing
// it on a miss. Redis failures fall back to building the report.
func Cached[T any](ctx context.Context, c *Cache, name string, r DateRange, build func() (T, error)) (T, error) {
	if !c.enabled() {
		return build()
	}
	gen, err := c.generation(ctx)
	if err != nil {
		metrics.Inc(metrics.ReportCacheTotal, "error")
		return build()
	}
	key := cacheKey("report", gen, name, r.String())
	if data, err := c.R.Get(ctx, key).Bytes(); err == nil {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			metrics.Inc(metrics.ReportCacheTotal, "hit")
			return cached, nil
		}
	}
	metrics.Inc(metrics.ReportCacheTotal, "miss")

	value, err := build()
	if err != nil {
		return value, err
	}
	data, err := json.Marshal(value)
	if err == nil {
		err = c.R.Set(ctx, key, data, c.TTL).Err()
	}
	if err != nil {
		metrics.Inc(metrics.ReportCacheTotal, "error")
	}
	return value, nil
}
