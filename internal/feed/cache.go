package feed

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"backend-ripple/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache stores serialized feed pages in redis with a short TTL. It is an
// accelerator, never a source of truth: a nil Cache, a nil client or any
// redis failure behaves as a miss and the caller carries on.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
	log   zerolog.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{redis: client, ttl: ttl, log: log}
}

func pageKey(userID string, cursor *Cursor, limit int) string {
	return "feed:" + userID + ":" + cursor.key() + ":" + strconv.Itoa(limit)
}

func (c *Cache) GetPage(ctx context.Context, key string) (Page, bool) {
	if c == nil {
		return Page{}, false
	}
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Str("key", key).Msg("feed cache get failed")
		}
		return Page{}, false
	}
	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("feed cache entry corrupt")
		return Page{}, false
	}
	metrics.FeedCacheHits.Inc()
	return page, true
}

func (c *Cache) SetPage(ctx context.Context, key string, page Page) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(page)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("feed cache marshal failed")
		return
	}
	if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("feed cache set failed")
	}
}

// InvalidateUser deletes every cached page of one user. The cache has no tag
// index, so this is a scan-and-delete sweep over feed:{userID}:*.
func (c *Cache) InvalidateUser(ctx context.Context, userID string) error {
	if c == nil {
		return nil
	}
	pattern := "feed:" + userID + ":*"
	var cursor uint64
	for {
		keys, next, err := c.redis.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			pipe := c.redis.Pipeline()
			for _, key := range keys {
				pipe.Del(ctx, key)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
