// internal/store/cached.go
package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"zomato-recommender/internal/common/logger"
	"zomato-recommender/internal/models"
)

const (
	LocationsKey = "restaurants:locations"
	CuisinesKey  = "restaurants:cuisines"
)

// CachedStore caches the listing reads in Redis. FetchAll is never cached.
// A Redis failure is logged and the wrapped store is used instead.
type CachedStore struct {
	next   CandidateStore
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStore(next CandidateStore, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{next: next, redis: rdb, ttl: ttl, logger: log}
}

func (c *CachedStore) FetchAll(ctx context.Context) ([]models.Restaurant, error) {
	return c.next.FetchAll(ctx)
}

func (c *CachedStore) FetchLocations(ctx context.Context) ([]string, error) {
	return c.cachedList(ctx, LocationsKey, c.next.FetchLocations)
}

func (c *CachedStore) FetchCuisines(ctx context.Context) ([]string, error) {
	return c.cachedList(ctx, CuisinesKey, c.next.FetchCuisines)
}

// Invalidate drops both listing keys; the loader calls it after a load.
func (c *CachedStore) Invalidate(ctx context.Context) error {
	return c.redis.Del(ctx, LocationsKey, CuisinesKey).Err()
}

func (c *CachedStore) cachedList(ctx context.Context, key string, load func(context.Context) ([]string, error)) ([]string, error) {
	raw, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var values []string
		if jsonErr := json.Unmarshal([]byte(raw), &values); jsonErr == nil {
			return values, nil
		}
		c.logger.Warn("discarding corrupt cache entry", map[string]interface{}{"key": key})
	case stderrors.Is(err, redis.Nil):
	default:
		c.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err})
	}

	values, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(values); err == nil {
		if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err})
		}
	}
	return values, nil
}
