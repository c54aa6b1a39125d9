package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/000francisca0/Peluchemaniav3/events"
	"github.com/000francisca0/Peluchemaniav3/modules/backend"
	"github.com/go-monolith/mono"
)

// Module provides the back-office service.
type Module struct {
	backend  *backend.PluginModule
	service  *Service
	eventBus mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module              = (*Module)(nil)
	_ mono.UsePluginModule     = (*Module)(nil)
	_ mono.EventBusAwareModule = (*Module)(nil)
	_ mono.EventEmitterModule  = (*Module)(nil)
	_ CatalogNotifier          = (*Module)(nil)
)

// NewModule creates the admin module.
func NewModule() *Module {
	return &Module{}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "admin"
}

// SetPlugin receives the backend plugin.
func (m *Module) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "backend" {
		return
	}
	if bp, ok := plugin.(*backend.PluginModule); ok {
		m.backend = bp
		log.Println("[admin] Backend plugin injected")
	}
}

// SetEventBus receives the event bus.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.CatalogChangedV1.ToBase(),
	}
}

// Start creates the service.
func (m *Module) Start(_ context.Context) error {
	if m.backend == nil {
		return fmt.Errorf("required plugin 'backend' not registered")
	}
	m.service = NewService(m.backend.Port(), m)
	log.Println("[admin] Module started")
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[admin] Module stopped")
	return nil
}

// GetService returns the back-office service.
func (m *Module) GetService() *Service {
	return m.service
}

// CatalogChanged publishes a product or category mutation.
func (m *Module) CatalogChanged(_ context.Context, event events.CatalogChangedEvent) {
	if m.eventBus == nil {
		return
	}
	if err := events.CatalogChangedV1.Publish(m.eventBus, event, nil); err != nil {
		log.Printf("[admin] Warning: failed to publish CatalogChanged: %v", err)
	}
}
