package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"
	"time"

	// External Packages
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// cachedPrice is the stored cache entry. FetchedAt is kept explicitly
// so staleness is judged against an injected clock rather than relying
// on key expiry alone.
type cachedPrice struct {
	Value     int    `json:"value"`
	HasValue  bool   `json:"has_value"`
	FetchedAt string `json:"fetched_at"`
}

// PriceCache is a read-through cache in front of the price override
// collection. A cached "no override" is as useful as a cached price,
// so absence is stored too.
type PriceCache struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time
}

func NewPriceCache(client *redis.Client, logger *zap.Logger, ttl time.Duration) *PriceCache {
	return &PriceCache{client: client, logger: logger, ttl: ttl, now: time.Now}
}

func cacheKey(key string) string {
	return fmt.Sprintf("price:%s", key)
}

// Get returns (value, hasOverride, hit). A miss or an entry older than
// the TTL reports hit=false.
func (c *PriceCache) Get(ctx context.Context, key string) (int, bool, bool) {
	raw, err := c.client.Get(ctx, cacheKey(key)).Result()
	if err == redis.Nil {
		return 0, false, false
	}
	if err != nil {
		c.logger.Warn("price cache read failed", zap.String("key", key), zap.Error(err))
		return 0, false, false
	}
	var entry cachedPrice
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return 0, false, false
	}
	fetchedAt, err := time.Parse(time.RFC3339, entry.FetchedAt)
	if err != nil || c.now().Sub(fetchedAt) > c.ttl {
		return 0, false, false
	}
	return entry.Value, entry.HasValue, true
}

// Put stores the resolved override (or its absence) for key.
func (c *PriceCache) Put(ctx context.Context, key string, value int, hasValue bool) {
	entry := cachedPrice{
		Value:     value,
		HasValue:  hasValue,
		FetchedAt: c.now().UTC().Format(time.RFC3339),
	}
	jsonData, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(key), jsonData, c.ttl).Err(); err != nil {
		c.logger.Warn("price cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops the cached entry for key, used when an operator
// changes an override.
func (c *PriceCache) Invalidate(ctx context.Context, key string) {
	if err := c.client.Del(ctx, cacheKey(key)).Err(); err != nil {
		c.logger.Warn("price cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
