// Package cache provides the catalog cache on top of the mono storage interface.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-monolith/mono/pkg/storage"
)

// CacheService defines the caching operations used by the catalog.
type CacheService interface {
	// Get unmarshals a cached value into dest. Returns true on a cache hit.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores a JSON-encoded value with the default TTL.
	Set(ctx context.Context, key string, value any) error

	// SetWithTTL stores a JSON-encoded value with a custom TTL.
	SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes a single key.
	Delete(ctx context.Context, key string) error

	// InvalidateAll makes every key written by this service unreachable.
	// Other keys in the same Redis database are left alone.
	InvalidateAll(ctx context.Context) error

	// Close closes the underlying storage connection.
	Close() error
}

// cacheService implements CacheService over storage.Storage.
//
// Keys are namespaced as <prefix><generation>:<key>. InvalidateAll bumps the
// generation so stale entries are never read again and expire by TTL. This
// keeps invalidation from flushing sessions or rate-limit counters that may
// share the Redis database.
type cacheService struct {
	storage    storage.Storage
	prefix     string
	ttl        time.Duration
	generation atomic.Int64
}

// NewCacheService creates a CacheService wrapping the provided storage.
func NewCacheService(s storage.Storage, prefix string, ttl time.Duration) CacheService {
	c := &cacheService{
		storage: s,
		prefix:  prefix,
		ttl:     ttl,
	}
	c.generation.Store(time.Now().UnixNano())
	return c
}

func (c *cacheService) fullKey(key string) string {
	return c.prefix + strconv.FormatInt(c.generation.Load(), 36) + ":" + key
}

// Get retrieves a value from the cache.
func (c *cacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	fullKey := c.fullKey(key)

	data, err := c.storage.GetWithContext(ctx, fullKey)
	if err != nil {
		return false, fmt.Errorf("cache get error: %w", err)
	}

	// nil or empty means cache miss
	if len(data) == 0 {
		log.Printf("[cache] Cache Miss! key=%s", fullKey)
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	log.Printf("[cache] Cache Hit! key=%s", fullKey)
	return true, nil
}

// Set stores a value with the default TTL.
func (c *cacheService) Set(ctx context.Context, key string, value any) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL.
func (c *cacheService) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.storage.SetWithContext(ctx, c.fullKey(key), data, ttl); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

// Delete removes a single key.
func (c *cacheService) Delete(ctx context.Context, key string) error {
	if err := c.storage.DeleteWithContext(ctx, c.fullKey(key)); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

// InvalidateAll moves the service to a new key generation.
func (c *cacheService) InvalidateAll(_ context.Context) error {
	for {
		old := c.generation.Load()
		next := time.Now().UnixNano()
		if next <= old {
			next = old + 1
		}
		if c.generation.CompareAndSwap(old, next) {
			log.Printf("[cache] Invalidated generation %s", strconv.FormatInt(old, 36))
			return nil
		}
	}
}

// Close closes the underlying storage.
func (c *cacheService) Close() error {
	return c.storage.Close()
}

// noopService is used when no Redis address is configured. Every read misses.
type noopService struct{}

// NewNoopService returns a CacheService that stores nothing.
func NewNoopService() CacheService {
	return noopService{}
}

func (noopService) Get(context.Context, string, any) (bool, error) { return false, nil }
func (noopService) Set(context.Context, string, any) error { return nil }
func (noopService) SetWithTTL(context.Context, string, any, time.Duration) error { return nil }
func (noopService) Delete(context.Context, string) error { return nil }
func (noopService) InvalidateAll(context.Context) error { return nil }
func (noopService) Close() error { return nil }
