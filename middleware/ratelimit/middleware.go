package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// MsgTooManyRequests is returned to throttled clients.
const MsgTooManyRequests = "Demasiados intentos. Intenta nuevamente en unos minutos."

// Allower checks a key against a limit.
type Allower interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// KeyFunc identifies the client of a request.
type KeyFunc func(c *fiber.Ctx) string

// Middleware limits HTTP routes per client with Redis. Without a Redis
// address every request passes.
type Middleware struct {
	name    string
	config  Config
	client  *redis.Client
	limiter Allower
	logger  *slog.Logger
	now     func() time.Time
}

// Compile-time interface checks
var _ mono.Module = (*Middleware)(nil)
var _ mono.HealthCheckableModule = (*Middleware)(nil)

// New creates a new rate limiting middleware.
func New(opts ...Option) *Middleware {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &Middleware{
		name:   "rate-limit",
		config: config,
		logger: slog.Default(),
		now:    time.Now,
	}
}

// Name returns the module name.
func (m *Middleware) Name() string {
	return m.name
}

// Start connects to Redis when an address is configured.
func (m *Middleware) Start(ctx context.Context) error {
	if m.config.RedisAddr == "" {
		m.logger.Info("Rate limiting disabled (no Redis address)")
		return nil
	}

	m.client = redis.NewClient(&redis.Options{
		Addr:         m.config.RedisAddr,
		Password:     m.config.RedisPassword,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", m.config.RedisAddr, err)
	}

	m.limiter = NewLimiter(m.client, m.config.KeyPrefix)
	m.logger.Info("Rate limiting middleware started",
		"redis", m.config.RedisAddr,
		"rules", len(m.config.Rules))
	return nil
}

// Stop closes the Redis connection.
func (m *Middleware) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			m.logger.Error("Failed to close Redis connection", "error", err)
			return err
		}
	}
	m.logger.Info("Rate limiting middleware stopped")
	return nil
}

// Health reports the Redis connection state.
func (m *Middleware) Health(ctx context.Context) mono.HealthStatus {
	if m.client == nil {
		return mono.HealthStatus{Healthy: true, Message: "disabled"}
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("redis unreachable: %v", err)}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"redis": m.config.RedisAddr},
	}
}

// UseLimiter replaces the Redis limiter.
func (m *Middleware) UseLimiter(l Allower) {
	m.limiter = l
}

// Handler limits the route named rule. Routes without a rule, and all routes
// while limiting is disabled, pass through. Redis errors fail open.
func (m *Middleware) Handler(rule string, keyFn KeyFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, ok := m.config.Rules[rule]
		if !ok || m.limiter == nil {
			return c.Next()
		}

		clientID := keyFn(c)
		key := rule + ":" + clientID

		result, err := m.limiter.Allow(c.UserContext(), key, r.Limit, r.Window)
		if err != nil {
			m.logger.Error("Rate limit check failed",
				"rule", rule,
				"client_id", clientID,
				"error", err)
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			retry := result.RetryAfter(m.now())
			m.logger.Warn("Rate limit exceeded",
				"rule", rule,
				"client_id", clientID,
				"limit", result.Limit,
				"reset_at", result.ResetAt)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(retry/time.Second)))
			return fiber.NewError(fiber.StatusTooManyRequests, MsgTooManyRequests)
		}

		return c.Next()
	}
}

// maxClientIDLength limits client ID length to prevent abuse.
const maxClientIDLength = 128

// ByIP keys requests by client IP.
func ByIP(c *fiber.Ctx) string {
	return truncate(c.IP())
}

// ByLocal keys requests by a string stored in Locals under name, falling back
// to the client IP.
func ByLocal(name string) KeyFunc {
	return func(c *fiber.Ctx) string {
		if v, ok := c.Locals(name).(string); ok && v != "" {
			return truncate(v)
		}
		return ByIP(c)
	}
}

func truncate(id string) string {
	if len(id) > maxClientIDLength {
		return id[:maxClientIDLength]
	}
	return id
}
