package backend

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// healthTimeout bounds the backend probe made by Health.
const healthTimeout = 3 * time.Second

// PluginModule shares one shop backend client with every module.
// Plugins start first and stop last, so the client is ready before any consumer starts.
type PluginModule struct {
	container types.ServiceContainer
	client    *Client
	baseURL   string
	timeout   time.Duration
}

// Compile-time interface checks.
var (
	_ mono.PluginModule          = (*PluginModule)(nil)
	_ mono.HealthCheckableModule = (*PluginModule)(nil)
)

// NewPluginModule creates the plugin. The client is built immediately so
// Port() is usable from SetPlugin.
func NewPluginModule(baseURL string, timeout time.Duration) *PluginModule {
	return &PluginModule{
		client:  NewClient(baseURL, timeout),
		baseURL: baseURL,
		timeout: timeout,
	}
}

// Name returns the module name.
func (m *PluginModule) Name() string {
	return "backend"
}

// Start logs the configured backend.
func (m *PluginModule) Start(_ context.Context) error {
	log.Printf("[backend] Plugin started (base URL: %s, timeout: %s)", m.client.BaseURL(), m.timeout)
	return nil
}

// Stop is a no-op; the HTTP client holds no resources that need closing.
func (m *PluginModule) Stop(_ context.Context) error {
	log.Println("[backend] Plugin stopped")
	return nil
}

// SetContainer sets the service container for this plugin.
func (m *PluginModule) SetContainer(container types.ServiceContainer) {
	m.container = container
}

// Container returns the service container for this plugin.
func (m *PluginModule) Container() types.ServiceContainer {
	return m.container
}

// Port returns the shared backend client.
func (m *PluginModule) Port() *Client {
	return m.client
}

// Health reports whether the shop backend answers.
func (m *PluginModule) Health(ctx context.Context) mono.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := m.client.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("backend unreachable: %v", err),
			Details: map[string]any{
				"base_url": m.baseURL,
			},
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"base_url": m.baseURL,
			"timeout":  m.timeout.String(),
		},
	}
}
