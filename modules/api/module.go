// Package api serves the storefront and back-office over HTTP.
package api

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/000francisca0/Peluchemaniav3/middleware/ratelimit"
	"github.com/000francisca0/Peluchemaniav3/modules/admin"
	"github.com/000francisca0/Peluchemaniav3/modules/audit"
	cartmodule "github.com/000francisca0/Peluchemaniav3/modules/cart"
	"github.com/000francisca0/Peluchemaniav3/modules/catalog"
	"github.com/000francisca0/Peluchemaniav3/modules/checkout"
	"github.com/000francisca0/Peluchemaniav3/modules/report"
	"github.com/000francisca0/Peluchemaniav3/modules/session"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
)

// DefaultPort is the HTTP port used when none is configured.
const DefaultPort = 3000

// Modules are the in-process modules whose services the API calls directly.
type Modules struct {
	Catalog   *catalog.Module
	Checkout  *checkout.Module
	Admin     *admin.Module
	Reports   *report.Module
	Audit     *audit.AuditModule
	RateLimit *ratelimit.Middleware
}

// APIModule provides HTTP REST API endpoints.
type APIModule struct {
	port     int
	modules  Modules
	sessions session.SessionPort
	carts    cartmodule.CartPort
	app      *fiber.App
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*APIModule)(nil)
	_ mono.DependentModule       = (*APIModule)(nil)
	_ mono.HealthCheckableModule = (*APIModule)(nil)

	_ CatalogService = (*catalog.Service)(nil)
	_ CheckoutFlow   = (*checkout.Flow)(nil)
	_ AdminService   = (*admin.Service)(nil)
	_ ReportService  = (*report.Service)(nil)
	_ ActivityLog    = (*audit.AuditModule)(nil)
	_ RouteLimiter   = (*ratelimit.Middleware)(nil)
)

// NewModule creates a new APIModule listening on port.
func NewModule(port int, modules Modules) *APIModule {
	if port <= 0 {
		port = DefaultPort
	}
	return &APIModule{port: port, modules: modules}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the session and cart service providers plus every
// module handle set in Modules, so they are all started first.
func (m *APIModule) Dependencies() []string {
	deps := []string{"session", "cart"}
	if m.modules.Catalog != nil {
		deps = append(deps, m.modules.Catalog.Name())
	}
	if m.modules.Checkout != nil {
		deps = append(deps, m.modules.Checkout.Name())
	}
	if m.modules.Admin != nil {
		deps = append(deps, m.modules.Admin.Name())
	}
	if m.modules.Reports != nil {
		deps = append(deps, m.modules.Reports.Name())
	}
	if m.modules.Audit != nil {
		deps = append(deps, m.modules.Audit.Name())
	}
	if m.modules.RateLimit != nil {
		deps = append(deps, m.modules.RateLimit.Name())
	}
	return deps
}

// SetDependencyServiceContainer receives the service container for a dependency.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "session":
		m.sessions = session.NewSessionAdapter(container)
	case "cart":
		m.carts = cartmodule.NewCartAdapter(container)
	}
}

// services collects the handler collaborators from the dependency adapters
// and the started modules.
func (m *APIModule) services() (Services, error) {
	svc := Services{
		Sessions: m.sessions,
		Carts:    m.carts,
	}
	if mod := m.modules.Catalog; mod != nil && mod.GetService() != nil {
		svc.Catalog = mod.GetService()
	}
	if mod := m.modules.Checkout; mod != nil && mod.Flow() != nil {
		svc.Checkout = mod.Flow()
	}
	if mod := m.modules.Admin; mod != nil && mod.GetService() != nil {
		svc.Admin = mod.GetService()
	}
	if mod := m.modules.Reports; mod != nil && mod.GetService() != nil {
		svc.Reports = mod.GetService()
	}
	if m.modules.Audit != nil {
		svc.Activity = m.modules.Audit
	}
	return svc, svc.validate()
}

// Start starts the HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	svc, err := m.services()
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}

	var limiter RouteLimiter
	if m.modules.RateLimit != nil {
		limiter = m.modules.RateLimit
	}
	m.app = NewApp(NewHandlers(svc), limiter)

	addr := fmt.Sprintf(":%d", m.port)
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	log.Printf("[api] HTTP server started on %s", addr)
	return nil
}

// Stop stops the HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	if err := m.app.Shutdown(); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}
	log.Println("[api] HTTP server stopped")
	return nil
}

// Health returns the health status.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	if m.app == nil {
		return mono.HealthStatus{Healthy: false, Message: "not started"}
	}
	return mono.HealthStatus{Healthy: true, Message: fmt.Sprintf("listening on :%d", m.port)}
}
