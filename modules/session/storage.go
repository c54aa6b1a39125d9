package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-monolith/mono/pkg/storage"
	kvjetstream "github.com/go-monolith/mono/plugin/kv-jetstream"
)

// ErrSessionNotFound is returned when no stored session matches the ID.
var ErrSessionNotFound = errors.New("session not found")

// Storage is the key-value collaborator that holds encoded sessions.
// Get returns ErrSessionNotFound for missing or expired keys.
type Storage interface {
	Get(ctx context.Context, id string) ([]byte, error)
	Set(ctx context.Context, id string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// ============================================================
// kv-jetstream bucket
// ============================================================

// KVStorage stores sessions in a kv-jetstream bucket.
type KVStorage struct {
	bucket kvjetstream.KVStoragePort
}

// NewKVStorage wraps a kv-jetstream bucket.
func NewKVStorage(bucket kvjetstream.KVStoragePort) *KVStorage {
	return &KVStorage{bucket: bucket}
}

// Get loads a session blob.
func (s *KVStorage) Get(_ context.Context, id string) ([]byte, error) {
	data, err := s.bucket.Get(id)
	if err != nil {
		if errors.Is(err, kvjetstream.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("kv get session: %w", err)
	}
	return data, nil
}

// Set stores a session blob.
func (s *KVStorage) Set(_ context.Context, id string, data []byte, ttl time.Duration) error {
	if err := s.bucket.Set(id, data, ttl); err != nil {
		return fmt.Errorf("kv set session: %w", err)
	}
	return nil
}

// Delete removes a session blob. Deleting a missing key is not an error.
func (s *KVStorage) Delete(_ context.Context, id string) error {
	if err := s.bucket.Delete(id); err != nil && !errors.Is(err, kvjetstream.ErrKeyNotFound) {
		return fmt.Errorf("kv delete session: %w", err)
	}
	return nil
}

// ============================================================
// Redis (gofiber/storage)
// ============================================================

// RedisStorage stores sessions through a mono storage.Storage, typically
// gofiber/storage/redis.
type RedisStorage struct {
	store  storage.Storage
	prefix string
}

// NewRedisStorage wraps a storage.Storage. Keys are namespaced with prefix.
func NewRedisStorage(store storage.Storage, prefix string) *RedisStorage {
	return &RedisStorage{store: store, prefix: prefix}
}

// Get loads a session blob. The storage returns nil data for missing keys.
func (s *RedisStorage) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := s.store.GetWithContext(ctx, s.prefix+id)
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrSessionNotFound
	}
	return data, nil
}

// Set stores a session blob.
func (s *RedisStorage) Set(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	if err := s.store.SetWithContext(ctx, s.prefix+id, data, ttl); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Delete removes a session blob.
func (s *RedisStorage) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteWithContext(ctx, s.prefix+id); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// Close closes the underlying storage.
func (s *RedisStorage) Close() error {
	return s.store.Close()
}

// ============================================================
// In-process memory
// ============================================================

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStorage keeps sessions in process memory. Used in tests and for
// single-instance development runs.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get loads a session blob, treating expired entries as missing.
func (s *MemoryStorage) Get(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		s.mu.Lock()
		// A concurrent Set may have refreshed the entry.
		if cur, ok := s.entries[id]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.entries, id)
		}
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

// Set stores a copy of data. A zero ttl never expires.
func (s *MemoryStorage) Set(_ context.Context, id string, data []byte, ttl time.Duration) error {
	e := memoryEntry{data: append([]byte(nil), data...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[id] = e
	s.mu.Unlock()
	return nil
}

// Delete removes a session blob.
func (s *MemoryStorage) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
