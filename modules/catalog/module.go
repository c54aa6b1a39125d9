package catalog

import (
	"context"
	"fmt"
	"log"

	"github.com/000francisca0/Peluchemaniav3/events"
	"github.com/000francisca0/Peluchemaniav3/modules/backend"
	"github.com/000francisca0/Peluchemaniav3/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Module provides the catalog service.
type Module struct {
	backend *backend.PluginModule
	cache   cache.CacheService
	service *Service
}

// Compile-time interface checks.
var (
	_ mono.Module              = (*Module)(nil)
	_ mono.UsePluginModule     = (*Module)(nil)
	_ mono.EventConsumerModule = (*Module)(nil)
)

// NewModule creates the catalog module.
func NewModule() *Module {
	return &Module{}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "catalog"
}

// SetPlugin receives the backend and cache plugins.
func (m *Module) SetPlugin(alias string, plugin mono.PluginModule) {
	switch alias {
	case "backend":
		if bp, ok := plugin.(*backend.PluginModule); ok {
			m.backend = bp
			log.Println("[catalog] Backend plugin injected")
		}
	case "cache":
		if cp, ok := plugin.(*cache.PluginModule); ok {
			m.cache = cp.Port()
			log.Println("[catalog] Cache plugin injected")
		}
	}
}

// Start creates the service.
func (m *Module) Start(_ context.Context) error {
	if m.backend == nil {
		return fmt.Errorf("backend plugin not set - ensure 'backend' plugin is registered")
	}
	if m.cache == nil {
		log.Println("[catalog] No cache plugin, reading straight from the backend")
		m.cache = cache.NewNoopService()
	}

	m.service = NewService(m.backend.Port(), m.cache)
	log.Println("[catalog] Module started")
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[catalog] Module stopped")
	return nil
}

// GetService returns the catalog service.
func (m *Module) GetService() *Service {
	return m.service
}

// RegisterEventConsumers invalidates the cache on back-office changes.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.CatalogChangedV1, m.handleCatalogChanged, m); err != nil {
		return fmt.Errorf("failed to register CatalogChanged consumer: %w", err)
	}
	log.Println("[catalog] Registered event consumers: CatalogChanged")
	return nil
}

func (m *Module) handleCatalogChanged(ctx context.Context, event events.CatalogChangedEvent, _ *mono.Msg) error {
	if m.service == nil {
		return nil
	}
	m.service.Invalidate(ctx)
	log.Printf("[catalog] Cache invalidated after %s %s %d", event.Action, event.Resource, event.ID)
	return nil
}
