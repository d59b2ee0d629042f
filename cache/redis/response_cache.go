package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/moviecat/cache"
)

// ResponseCache implements cache.ResponseCache on Redis so several API
// instances share upstream responses.
type ResponseCache struct {
	client *redis.Client
	prefix string // Optional prefix for keys
}

// NewResponseCache creates a new [ResponseCache] instance
func NewResponseCache(client *redis.Client, prefix string) *ResponseCache {
	return &ResponseCache{client: client, prefix: prefix}
}

func (r *ResponseCache) redisKey(key string) string {
	return r.prefix + ":tmdb:" + key
}

// Get implements cache.ResponseCache.
func (r *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, r.redisKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("redis cache get failed")
		}
		return nil, false
	}
	return val, true
}

// Set implements cache.ResponseCache.
func (r *ResponseCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, r.redisKey(key), value, ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("redis cache set failed")
	}
}

var _ cache.ResponseCache = (*ResponseCache)(nil)
