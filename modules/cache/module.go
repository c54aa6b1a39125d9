package cache

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/storage"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/storage/redis/v3"
)

// PluginModule provides the catalog cache as a mono plugin module.
// With an empty Redis address the plugin serves a no-op cache.
type PluginModule struct {
	container types.ServiceContainer
	storage   storage.Storage
	redisAddr string
	prefix    string
	ttl       time.Duration

	mu      sync.RWMutex
	service CacheService
}

// Compile-time interface checks.
var (
	_ mono.PluginModule          = (*PluginModule)(nil)
	_ mono.HealthCheckableModule = (*PluginModule)(nil)
)

// NewPluginModule creates a cache plugin with the default prefix and TTL.
func NewPluginModule(redisAddr string) *PluginModule {
	return NewPluginModuleWithConfig(redisAddr, "catalog:", 5*time.Minute)
}

// NewPluginModuleWithConfig creates a cache plugin with custom configuration.
func NewPluginModuleWithConfig(redisAddr, prefix string, ttl time.Duration) *PluginModule {
	return &PluginModule{
		redisAddr: redisAddr,
		prefix:    prefix,
		ttl:       ttl,
		service:   NewNoopService(),
	}
}

// ============================================================
// Module Interface Implementation
// ============================================================

// Name returns the module name.
func (m *PluginModule) Name() string {
	return "cache"
}

// Start connects to Redis when an address is configured.
func (m *PluginModule) Start(_ context.Context) error {
	if m.redisAddr == "" {
		log.Println("[cache] REDIS_ADDR not set, catalog cache disabled")
		return nil
	}

	host, port := parseRedisAddr(m.redisAddr)
	m.storage = redis.New(redis.Config{
		Host:     host,
		Port:     port,
		PoolSize: 50,
	})

	m.mu.Lock()
	m.service = NewCacheService(m.storage, m.prefix, m.ttl)
	m.mu.Unlock()

	log.Printf("[cache] Connected to Redis at %s (prefix: %s, TTL: %s)", m.redisAddr, m.prefix, m.ttl)
	log.Println("[cache] Plugin started")
	return nil
}

// Stop closes the Redis connection.
func (m *PluginModule) Stop(_ context.Context) error {
	m.mu.RLock()
	svc := m.service
	m.mu.RUnlock()

	if err := svc.Close(); err != nil {
		log.Printf("[cache] Error closing connection: %v", err)
		return fmt.Errorf("failed to close connection: %w", err)
	}
	log.Println("[cache] Plugin stopped")
	return nil
}

// ============================================================
// PluginModule Interface Implementation
// ============================================================

// SetContainer sets the service container for this plugin.
func (m *PluginModule) SetContainer(container types.ServiceContainer) {
	m.container = container
}

// Container returns the service container for this plugin.
func (m *PluginModule) Container() types.ServiceContainer {
	return m.container
}

// ============================================================
// Public API (Port Interface)
// ============================================================

// Port returns the CacheService for consumers. It may be taken before Start;
// calls are routed to whichever backing service is current.
func (m *PluginModule) Port() CacheService {
	return port{m: m}
}

func (m *PluginModule) current() CacheService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.service
}

// Enabled reports whether a Redis address was configured.
func (m *PluginModule) Enabled() bool {
	return m.redisAddr != ""
}

type port struct{ m *PluginModule }

func (p port) Get(ctx context.Context, key string, dest any) (bool, error) {
	return p.m.current().Get(ctx, key, dest)
}

func (p port) Set(ctx context.Context, key string, value any) error {
	return p.m.current().Set(ctx, key, value)
}

func (p port) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	return p.m.current().SetWithTTL(ctx, key, value, ttl)
}

func (p port) Delete(ctx context.Context, key string) error {
	return p.m.current().Delete(ctx, key)
}

func (p port) InvalidateAll(ctx context.Context) error {
	return p.m.current().InvalidateAll(ctx)
}

// Close is owned by the plugin lifecycle; consumers cannot close the shared cache.
func (p port) Close() error {
	return nil
}

// ============================================================
// Health Check
// ============================================================

// Health returns the current health status.
func (m *PluginModule) Health(_ context.Context) mono.HealthStatus {
	if !m.Enabled() {
		return mono.HealthStatus{
			Healthy: true,
			Message: "disabled",
		}
	}
	if m.storage == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "storage not initialized",
		}
	}

	if _, err := m.storage.Get("__health_check__"); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("health check failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"redis_addr": m.redisAddr,
			"prefix":     m.prefix,
			"ttl":        m.ttl.String(),
		},
	}
}

// ============================================================
// Helper Functions
// ============================================================

// ParseRedisAddr splits "host:port", defaulting to 127.0.0.1:6379 for
// missing or invalid parts.
func ParseRedisAddr(addr string) (string, int) {
	return parseRedisAddr(addr)
}

func parseRedisAddr(addr string) (string, int) {
	const defaultHost = "127.0.0.1"
	const defaultPort = 6379

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return defaultHost, defaultPort
	}
	if host == "" {
		host = defaultHost
	}

	p, err := strconv.Atoi(portStr)
	if err != nil {
		p = defaultPort
	}
	return host, p
}
