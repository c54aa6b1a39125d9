package checkout

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/000francisca0/Peluchemaniav3/events"
	"github.com/000francisca0/Peluchemaniav3/modules/backend"
	"github.com/000francisca0/Peluchemaniav3/modules/cart"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Module runs the checkout flow over the cart module and the backend plugin.
type Module struct {
	dbPath    string
	db        *gorm.DB
	backend   *backend.PluginModule
	purchaser Purchaser
	carts     Carts
	flow      *Flow
	eventBus  mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.UsePluginModule       = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ Notifier                   = (*Module)(nil)
)

// NewModule creates the checkout module with its attempt ledger at dbPath.
func NewModule(dbPath string) *Module {
	return &Module{dbPath: dbPath}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "checkout"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"cart"}
}

// SetDependencyServiceContainer receives the cart service container.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "cart" {
		m.carts = cart.NewCartAdapter(container)
	}
}

// SetPlugin receives the backend plugin.
func (m *Module) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "backend" {
		return
	}
	if bp, ok := plugin.(*backend.PluginModule); ok {
		m.backend = bp
		log.Println("[checkout] Backend plugin injected")
	}
}

// UsePurchaser overrides the backend used to submit purchases. Must be called before Start.
func (m *Module) UsePurchaser(p Purchaser) {
	m.purchaser = p
}

// SetEventBus receives the event bus.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.OrderPlacedV1.ToBase(),
		events.PurchaseFailedV1.ToBase(),
	}
}

// RegisterEventConsumers drops checkout state of ended sessions.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.SessionEndedV1, m.handleSessionEnded, m); err != nil {
		return fmt.Errorf("failed to register SessionEnded consumer: %w", err)
	}
	log.Println("[checkout] Registered event consumers: SessionEnded")
	return nil
}

// Start opens the ledger database and creates the flow.
func (m *Module) Start(_ context.Context) error {
	if m.carts == nil {
		return fmt.Errorf("cart dependency not set")
	}
	if m.purchaser == nil {
		if m.backend == nil {
			return fmt.Errorf("required plugin 'backend' not registered")
		}
		m.purchaser = m.backend.Port()
	}

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	log.Printf("[checkout] Opening attempt ledger: %s", m.dbPath)
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	ledger := NewLedger(db)
	if err := ledger.Migrate(); err != nil {
		return err
	}

	m.flow = NewFlow(m.purchaser, m.carts, ledger, m)
	log.Println("[checkout] Module started")
	return nil
}

// Stop closes the ledger database.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	log.Println("[checkout] Module stopped")
	return nil
}

// Flow returns the checkout flow.
func (m *Module) Flow() *Flow {
	return m.flow
}

// Health reports whether the ledger database answers.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "not started"}
	}
	sqlDB, err := m.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("ledger unavailable: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"ledger": m.dbPath,
		},
	}
}

// OrderPlaced publishes an accepted purchase.
func (m *Module) OrderPlaced(_ context.Context, event events.OrderPlacedEvent) {
	if m.eventBus == nil {
		return
	}
	if err := events.OrderPlacedV1.Publish(m.eventBus, event, nil); err != nil {
		log.Printf("[checkout] Warning: failed to publish OrderPlaced: %v", err)
	}
}

// PurchaseFailed publishes a failed purchase.
func (m *Module) PurchaseFailed(_ context.Context, event events.PurchaseFailedEvent) {
	if m.eventBus == nil {
		return
	}
	if err := events.PurchaseFailedV1.Publish(m.eventBus, event, nil); err != nil {
		log.Printf("[checkout] Warning: failed to publish PurchaseFailed: %v", err)
	}
}

func (m *Module) handleSessionEnded(_ context.Context, event events.SessionEndedEvent, _ *mono.Msg) error {
	if m.flow != nil {
		m.flow.Forget(event.SessionID)
	}
	return nil
}
