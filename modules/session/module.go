package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/000francisca0/Peluchemaniav3/domain/user"
	"github.com/000francisca0/Peluchemaniav3/events"
	"github.com/000francisca0/Peluchemaniav3/modules/backend"
	"github.com/000francisca0/Peluchemaniav3/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	kvjetstream "github.com/go-monolith/mono/plugin/kv-jetstream"
	"github.com/gofiber/storage/redis/v3"
)

// Session storage kinds.
const (
	StoreKV     = "kv"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// BucketName is the kv-jetstream bucket holding sessions.
const BucketName = "sessions"

// Config configures the session module.
type Config struct {
	Store     string
	RedisAddr string
	Token     TokenConfig
}

// Module provides the session store as request-reply services.
type Module struct {
	config   Config
	kv       *kvjetstream.PluginModule
	backend  *backend.PluginModule
	auth     Authenticator
	storage  Storage
	redis    *RedisStorage
	service  *Service
	eventBus mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.UsePluginModule       = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the session module.
func NewModule(config Config) *Module {
	if config.Store == "" {
		config.Store = StoreKV
	}
	return &Module{config: config}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "session"
}

// SetPlugin receives the kv and backend plugins.
func (m *Module) SetPlugin(alias string, plugin mono.PluginModule) {
	switch alias {
	case "kv":
		kv, ok := plugin.(*kvjetstream.PluginModule)
		if !ok {
			log.Printf("[session] Warning: plugin %q is not a kv-jetstream plugin", alias)
			return
		}
		m.kv = kv
		log.Println("[session] KV plugin injected")
	case "backend":
		bp, ok := plugin.(*backend.PluginModule)
		if !ok {
			log.Printf("[session] Warning: plugin %q is not the backend plugin", alias)
			return
		}
		m.backend = bp
		log.Println("[session] Backend plugin injected")
	}
}

// UseStorage overrides the configured storage. Must be called before Start.
func (m *Module) UseStorage(s Storage) {
	m.storage = s
}

// UseAuthenticator overrides the backend authenticator. Must be called before Start.
func (m *Module) UseAuthenticator(a Authenticator) {
	m.auth = a
}

// SetEventBus receives the event bus.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.SessionEndedV1.ToBase(),
	}
}

// Start opens the session storage and creates the service.
func (m *Module) Start(_ context.Context) error {
	if m.auth == nil {
		if m.backend == nil {
			return fmt.Errorf("required plugin 'backend' not registered")
		}
		m.auth = m.backend.Port()
	}

	if m.storage == nil {
		s, err := m.openStorage()
		if err != nil {
			return err
		}
		m.storage = s
	}

	m.service = NewService(m.storage, NewTokenManager(m.config.Token), m.auth)
	m.service.OnEnded(m.publishEnded)

	log.Printf("[session] Module started (store: %s, ttl: %s)", m.config.Store, m.config.Token.Duration)
	return nil
}

func (m *Module) openStorage() (Storage, error) {
	switch m.config.Store {
	case StoreKV:
		if m.kv == nil {
			return nil, fmt.Errorf("required plugin 'kv' not registered")
		}
		bucket := m.kv.Bucket(BucketName)
		if bucket == nil {
			return nil, fmt.Errorf("bucket '%s' not found in KV plugin", BucketName)
		}
		return NewKVStorage(bucket), nil
	case StoreRedis:
		host, port := cache.ParseRedisAddr(m.config.RedisAddr)
		m.redis = NewRedisStorage(redis.New(redis.Config{
			Host:     host,
			Port:     port,
			PoolSize: 50,
		}), "session:")
		return m.redis, nil
	case StoreMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", m.config.Store)
	}
}

// Stop closes the Redis connection when one was opened.
func (m *Module) Stop(_ context.Context) error {
	if m.redis != nil {
		if err := m.redis.Close(); err != nil {
			log.Printf("[session] Error closing Redis: %v", err)
		}
	}
	log.Println("[session] Module stopped")
	return nil
}

// Service returns the session service.
func (m *Module) Service() *Service {
	return m.service
}

// Health reports whether storage is ready.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "service not initialized",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"store": m.config.Store,
			"ttl":   m.config.Token.Duration.String(),
		},
	}
}

func (m *Module) publishEnded(sess user.Session) {
	if m.eventBus == nil {
		return
	}
	ev := events.SessionEndedEvent{
		SessionID: sess.ID,
		Email:     sess.User.Email,
		EndedAt:   time.Now(),
	}
	if err := events.SessionEndedV1.Publish(m.eventBus, ev, nil); err != nil {
		log.Printf("[session] Warning: failed to publish SessionEnded: %v", err)
	}
}

// ============================================================
// Request-reply services
// ============================================================

// RegisterServices registers the session services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "session-login", json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register session-login service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "session-register", json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register session-register service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "session-resolve", json.Unmarshal, json.Marshal, m.handleResolve,
	); err != nil {
		return fmt.Errorf("failed to register session-resolve service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "session-update-address", json.Unmarshal, json.Marshal, m.handleUpdateAddress,
	); err != nil {
		return fmt.Errorf("failed to register session-update-address service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "session-logout", json.Unmarshal, json.Marshal, m.handleLogout,
	); err != nil {
		return fmt.Errorf("failed to register session-logout service: %w", err)
	}

	log.Println("[session] Registered services: session-login, session-register, session-resolve, session-update-address, session-logout")
	return nil
}

// Handlers report failures in the response body so callers can tell
// credential and validation errors from transport errors.

func (m *Module) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (GrantResponse, error) {
	grant, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return GrantResponse{Error: toErrorInfo(err)}, nil
	}
	return GrantResponse{Token: grant.Token, Session: &grant.Session}, nil
}

func (m *Module) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (GrantResponse, error) {
	grant, err := m.service.Register(ctx, req.Form)
	if err != nil {
		return GrantResponse{Error: toErrorInfo(err)}, nil
	}
	return GrantResponse{Token: grant.Token, Session: &grant.Session}, nil
}

func (m *Module) handleResolve(ctx context.Context, req ResolveRequest, _ *mono.Msg) (SessionResponse, error) {
	sess, err := m.service.Resolve(ctx, req.Token)
	if err != nil {
		return SessionResponse{Error: toErrorInfo(err)}, nil
	}
	return SessionResponse{Session: &sess}, nil
}

func (m *Module) handleUpdateAddress(ctx context.Context, req UpdateAddressRequest, _ *mono.Msg) (SessionResponse, error) {
	sess, err := m.service.UpdateAddress(ctx, req.Token, req.Address)
	if err != nil {
		return SessionResponse{Error: toErrorInfo(err)}, nil
	}
	return SessionResponse{Session: &sess}, nil
}

func (m *Module) handleLogout(ctx context.Context, req LogoutRequest, _ *mono.Msg) (LogoutResponse, error) {
	if err := m.service.Logout(ctx, req.Token); err != nil {
		return LogoutResponse{Error: toErrorInfo(err)}, nil
	}
	return LogoutResponse{}, nil
}
