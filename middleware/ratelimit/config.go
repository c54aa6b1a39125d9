package ratelimit

import "time"

// Rule bounds how many requests a client may make per window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Config holds rate limiter configuration.
type Config struct {
	// RedisAddr is the Redis server address. Empty disables limiting.
	RedisAddr string

	// RedisPassword is the Redis authentication password (optional)
	RedisPassword string

	// KeyPrefix is the prefix for Redis keys
	KeyPrefix string

	// Rules maps route names to their limits
	Rules map[string]Rule
}

// DefaultConfig returns a config with limiting disabled.
func DefaultConfig() Config {
	return Config{
		KeyPrefix: "ratelimit:",
		Rules:     make(map[string]Rule),
	}
}

// Option is a function that modifies Config.
type Option func(*Config)

// WithRedisAddr sets the Redis server address.
func WithRedisAddr(addr string) Option {
	return func(c *Config) {
		c.RedisAddr = addr
	}
}

// WithRedisPassword sets the Redis authentication password.
func WithRedisPassword(password string) Option {
	return func(c *Config) {
		c.RedisPassword = password
	}
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *Config) {
		c.KeyPrefix = prefix
	}
}

// WithRule sets the limit for a named route.
func WithRule(name string, limit int, window time.Duration) Option {
	return func(c *Config) {
		c.Rules[name] = Rule{Limit: limit, Window: window}
	}
}
