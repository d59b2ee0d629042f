package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryResponseCache implements ResponseCache using ttlcache.
type MemoryResponseCache struct {
	cache *ttlcache.Cache[string, []byte]
}

// NewMemoryResponseCache creates a new in-memory response cache with automatic
// cleanup. capacity bounds the number of entries (0 = unbounded); the least
// recently used entry is evicted first.
func NewMemoryResponseCache(defaultTTL time.Duration, capacity uint64) *MemoryResponseCache {
	opts := []ttlcache.Option[string, []byte]{
		ttlcache.WithTTL[string, []byte](defaultTTL),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, []byte](capacity))
	}
	cache := ttlcache.New(opts...)

	// Start the cleanup process
	go cache.Start()

	return &MemoryResponseCache{cache: cache}
}

// Get implements ResponseCache.Get.
func (s *MemoryResponseCache) Get(_ context.Context, key string) ([]byte, bool) {
	item := s.cache.Get(key)
	if item == nil || item.IsExpired() {
		return nil, false
	}
	return item.Value(), true
}

// Set implements ResponseCache.Set.
func (s *MemoryResponseCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	s.cache.Set(key, value, ttl)
}

// Len returns the number of cached entries.
func (s *MemoryResponseCache) Len() int {
	return s.cache.Len()
}

// Close stops the cleanup goroutine.
func (s *MemoryResponseCache) Close() error {
	s.cache.Stop()
	return nil
}

var _ ResponseCache = (*MemoryResponseCache)(nil)
