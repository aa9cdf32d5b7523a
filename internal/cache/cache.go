// Package cache implements the read-through booking cache on Redis.
// Entries live under one logical namespace and are invalidated
// wholesale on any mutation: clearing everything is simpler than
// composing per-filter keys and avoids staleness bugs from partial
// misses, at the accepted cost of a miss storm after writes.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/resource-booking/internal/model"
)

const namespace = "bookings"

// BookingCache is a cache-aside helper keyed by booking id.  A nil
// Redis client disables caching entirely; every read then goes to the
// loader.  Cache failures are logged and degrade to loader reads, they
// never fail the request: the cache is not required to be linearizable
// with store writes.
type BookingCache struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// New returns a BookingCache.  rdb may be nil.  A non-positive ttl
// falls back to one hour, matching the shared cache layer's default.
func New(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *BookingCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &BookingCache{rdb: rdb, ttl: ttl, log: log}
}

func key(id uint64) string {
	return fmt.Sprintf("%s:%d", namespace, id)
}

// GetOrLoad returns the cached booking for id or, on a miss, invokes
// load and stores its result.  Loader errors are returned unchanged so
// callers keep their error taxonomy.
func (c *BookingCache) GetOrLoad(ctx context.Context, id uint64, load func(context.Context) (*model.Booking, error)) (*model.Booking, error) {
	if c.rdb == nil {
		return load(ctx)
	}
	if raw, err := c.rdb.Get(ctx, key(id)).Bytes(); err == nil {
		var b model.Booking
		if err := json.Unmarshal(raw, &b); err == nil {
			return &b, nil
		}
		// Corrupt entry: drop it and fall through to the loader.
		_ = c.rdb.Del(ctx, key(id)).Err()
	}
	b, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(b); err == nil {
		if err := c.rdb.SetEx(ctx, key(b.ID), raw, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Uint64("booking_id", b.ID).Msg("cache set failed")
		}
	}
	return b, nil
}

// InvalidateAll removes every entry in the booking namespace.  Called
// after each mutation (create, cancel) so no stale booking survives a
// state change.
func (c *BookingCache) InvalidateAll(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	iter := c.rdb.Scan(ctx, 0, namespace+":*", 100).Iterator()
	keys := make([]string, 0, 100)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == 100 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				c.log.Warn().Err(err).Msg("cache invalidation failed")
				return
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Warn().Err(err).Msg("cache scan failed")
		return
	}
	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			c.log.Warn().Err(err).Msg("cache invalidation failed")
		}
	}
}
