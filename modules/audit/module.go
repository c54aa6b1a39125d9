package audit

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/000francisca0/Peluchemaniav3/domain/money"
	"github.com/000francisca0/Peluchemaniav3/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// DefaultCapacity is how many entries the log keeps.
const DefaultCapacity = 200

// Entry is one recorded shop event.
type Entry struct {
	Subject   string    `json:"subject"`
	Type      string    `json:"type"`
	Actor     string    `json:"actor"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditModule keeps the most recent shop events for the back-office.
type AuditModule struct {
	capacity int
	entries  []Entry
	mu       sync.RWMutex
}

var _ mono.Module = (*AuditModule)(nil)
var _ mono.EventConsumerModule = (*AuditModule)(nil)

func NewModule(capacity int) *AuditModule {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &AuditModule{
		capacity: capacity,
		entries:  make([]Entry, 0, capacity),
	}
}

func (m *AuditModule) Name() string {
	return "audit"
}

func (m *AuditModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.OrderPlacedV1, m.handleOrderPlaced, m); err != nil {
		return fmt.Errorf("failed to register OrderPlaced consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.PurchaseFailedV1, m.handlePurchaseFailed, m); err != nil {
		return fmt.Errorf("failed to register PurchaseFailed consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.SessionEndedV1, m.handleSessionEnded, m); err != nil {
		return fmt.Errorf("failed to register SessionEnded consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.CatalogChangedV1, m.handleCatalogChanged, m); err != nil {
		return fmt.Errorf("failed to register CatalogChanged consumer: %w", err)
	}

	log.Printf("[audit] Registered event consumers: OrderPlaced, PurchaseFailed, SessionEnded, CatalogChanged")
	return nil
}

func (m *AuditModule) handleOrderPlaced(_ context.Context, event events.OrderPlacedEvent, _ *mono.Msg) error {
	log.Printf("[audit] Order placed: %s by %s", event.OrderID, event.CustomerEmail)
	m.record(Entry{
		Subject:   event.OrderID,
		Type:      "order_placed",
		Actor:     event.CustomerEmail,
		Message:   fmt.Sprintf("Boleta #%s por %s (%d unidades)", event.OrderID, money.FormatCLP(event.Total), event.Units),
		Timestamp: event.PlacedAt,
	})
	return nil
}

func (m *AuditModule) handlePurchaseFailed(_ context.Context, event events.PurchaseFailedEvent, _ *mono.Msg) error {
	log.Printf("[audit] Purchase failed for %s: %s", event.CustomerEmail, event.Reason)
	m.record(Entry{
		Subject:   event.IdempotencyKey,
		Type:      "purchase_failed",
		Actor:     event.CustomerEmail,
		Message:   fmt.Sprintf("Compra rechazada por %s: %s", money.FormatCLP(event.Total), event.Reason),
		Timestamp: event.AttemptedAt,
	})
	return nil
}

func (m *AuditModule) handleSessionEnded(_ context.Context, event events.SessionEndedEvent, _ *mono.Msg) error {
	m.record(Entry{
		Subject:   event.SessionID,
		Type:      "session_ended",
		Actor:     event.Email,
		Message:   "Sesión cerrada",
		Timestamp: event.EndedAt,
	})
	return nil
}

func (m *AuditModule) handleCatalogChanged(_ context.Context, event events.CatalogChangedEvent, _ *mono.Msg) error {
	log.Printf("[audit] Catalog %s %d %s by %s", event.Resource, event.ID, event.Action, event.ChangedBy)
	m.record(Entry{
		Subject:   fmt.Sprintf("%s:%d", event.Resource, event.ID),
		Type:      "catalog_" + event.Action,
		Actor:     event.ChangedBy,
		Message:   fmt.Sprintf("%s %d %s", event.Resource, event.ID, event.Action),
		Timestamp: event.ChangedAt,
	})
	return nil
}

// record appends e, dropping the oldest entry when full.
func (m *AuditModule) record(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == m.capacity {
		copy(m.entries, m.entries[1:])
		m.entries = m.entries[:len(m.entries)-1]
	}
	m.entries = append(m.entries, e)
}

// Entries returns the log, newest first.
func (m *AuditModule) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Entry, len(m.entries))
	for i, e := range m.entries {
		result[len(m.entries)-1-i] = e
	}
	return result
}

func (m *AuditModule) Start(_ context.Context) error {
	log.Println("[audit] Module started - listening for shop events")
	return nil
}

func (m *AuditModule) Stop(_ context.Context) error {
	log.Println("[audit] Module stopped")
	return nil
}
