package depot

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Cached wraps src so that successful answers are reused for ttl.
//
// Within a single overview the same quote and rate are needed by several
// columns, the cache makes them consistent and queried once.
func Cached(src PriceSource, ttl time.Duration) PriceSource {
	c := &cached{src: src, ttl: ttl, now: time.Now, entries: make(map[string]cacheEntry)}
	if h, ok := src.(HistoricalRates); ok {
		return &cachedHistory{cached: c, hist: h}
	}
	return c
}

type cacheEntry struct {
	value   any
	fetched time.Time
}

type cached struct {
	src PriceSource
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// memo returns the cached value of key, or calls fetch and caches its result.
func memo[T any](ctx context.Context, c *cached, key string, fetch func(context.Context) (T, error)) (T, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(e.fetched) < c.ttl {
		log.Debug().Str("key", key).Msg("price source cache hit")
		return e.value.(T), nil
	}

	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: v, fetched: c.now()}
	c.mu.Unlock()
	return v, nil
}

func (c *cached) LatestPrice(ctx context.Context, symbol string) (Quote, error) {
	return memo(ctx, c, "price/"+symbol, func(ctx context.Context) (Quote, error) {
		return c.src.LatestPrice(ctx, symbol)
	})
}

func (c *cached) Metadata(ctx context.Context, symbol string) (Metadata, error) {
	return memo(ctx, c, "meta/"+symbol, func(ctx context.Context) (Metadata, error) {
		return c.src.Metadata(ctx, symbol)
	})
}

func (c *cached) ExchangeRate(ctx context.Context, from, to string) (float64, error) {
	return memo(ctx, c, "rate/"+from+"/"+to, func(ctx context.Context) (float64, error) {
		return c.src.ExchangeRate(ctx, from, to)
	})
}

type cachedHistory struct {
	*cached
	hist HistoricalRates
}

func (c *cachedHistory) ExchangeRateOn(ctx context.Context, from, to string, on Date) (float64, error) {
	return memo(ctx, c.cached, "rate/"+from+"/"+to+"/"+on.String(), func(ctx context.Context) (float64, error) {
		return c.hist.ExchangeRateOn(ctx, from, to, on)
	})
}
