package report

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/000francisca0/Peluchemaniav3/modules/backend"
	"github.com/go-monolith/mono"
)

// Config configures the report module.
type Config struct {
	Location    *time.Location
	Concurrency int
}

// Module provides the report service.
type Module struct {
	config  Config
	backend *backend.PluginModule
	service *Service
}

// Compile-time interface checks.
var (
	_ mono.Module          = (*Module)(nil)
	_ mono.UsePluginModule = (*Module)(nil)
)

// NewModule creates the report module.
func NewModule(config Config) *Module {
	return &Module{config: config}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "report"
}

// SetPlugin receives the backend plugin.
func (m *Module) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "backend" {
		return
	}
	if bp, ok := plugin.(*backend.PluginModule); ok {
		m.backend = bp
		log.Println("[report] Backend plugin injected")
	}
}

// Start creates the service.
func (m *Module) Start(_ context.Context) error {
	if m.backend == nil {
		return fmt.Errorf("required plugin 'backend' not registered")
	}
	m.service = NewService(m.backend.Port(), m.config.Location, m.config.Concurrency)
	log.Printf("[report] Module started (timezone: %s, export concurrency: %d)", m.service.loc, m.service.concurrency)
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[report] Module stopped")
	return nil
}

// GetService returns the report service.
func (m *Module) GetService() *Service {
	return m.service
}
