package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iho/walletrecon/internal/usecase"
)

// RateCache keeps the last good USD rate table of each feed.
type RateCache struct {
	cache usecase.Cache
	ttl   time.Duration
}

// NewRateCache creates a RateCache storing tables for ttl.
func NewRateCache(cache usecase.Cache, ttl time.Duration) *RateCache {
	return &RateCache{cache: cache, ttl: ttl}
}

func rateTableKey(feed string) string {
	return "rates:" + feed
}

// StoreTable saves the table of a feed.
func (c *RateCache) StoreTable(ctx context.Context, feed string, table map[string]float64) error {
	raw, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode %s rate table: %w", feed, err)
	}
	return c.cache.Set(ctx, rateTableKey(feed), string(raw), c.ttl)
}

// LoadTable returns the cached table of a feed. ok is false on a miss.
// An entry that cannot be decoded is evicted.
func (c *RateCache) LoadTable(ctx context.Context, feed string) (map[string]float64, bool, error) {
	raw, err := c.cache.Get(ctx, rateTableKey(feed))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load %s rate table: %w", feed, err)
	}

	var table map[string]float64
	if err := json.Unmarshal([]byte(raw), &table); err != nil {
		if derr := c.cache.Delete(ctx, rateTableKey(feed)); derr != nil {
			return nil, false, fmt.Errorf("decode %s rate table: %w (evict: %v)", feed, err, derr)
		}
		return nil, false, fmt.Errorf("decode %s rate table: %w", feed, err)
	}
	return table, true, nil
}
