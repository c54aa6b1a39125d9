package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/000francisca0/Peluchemaniav3/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Module exposes the cart store as request-reply services.
type Module struct {
	store *Store
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the cart module.
func NewModule() *Module {
	return &Module{store: NewStore()}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "cart"
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[cart] Module started")
	return nil
}

// Stop stops the module. Carts live in memory and are dropped.
func (m *Module) Stop(_ context.Context) error {
	log.Printf("[cart] Module stopped (%d open carts dropped)", m.store.Sessions())
	return nil
}

// Store returns the underlying store.
func (m *Module) Store() *Store {
	return m.store
}

// Health returns the module status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"open_carts": m.store.Sessions(),
		},
	}
}

// RegisterServices registers the cart services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "cart-get", json.Unmarshal, json.Marshal, m.handleGet,
	); err != nil {
		return fmt.Errorf("failed to register cart-get service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "cart-add", json.Unmarshal, json.Marshal, m.handleAdd,
	); err != nil {
		return fmt.Errorf("failed to register cart-add service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "cart-decrement", json.Unmarshal, json.Marshal, m.handleDecrement,
	); err != nil {
		return fmt.Errorf("failed to register cart-decrement service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "cart-remove", json.Unmarshal, json.Marshal, m.handleRemove,
	); err != nil {
		return fmt.Errorf("failed to register cart-remove service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "cart-clear", json.Unmarshal, json.Marshal, m.handleClear,
	); err != nil {
		return fmt.Errorf("failed to register cart-clear service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "cart-subtract", json.Unmarshal, json.Marshal, m.handleSubtract,
	); err != nil {
		return fmt.Errorf("failed to register cart-subtract service: %w", err)
	}

	log.Println("[cart] Registered services: cart-get, cart-add, cart-decrement, cart-remove, cart-clear, cart-subtract")
	return nil
}

// RegisterEventConsumers drops the cart of every ended session.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.SessionEndedV1, m.handleSessionEnded, m); err != nil {
		return fmt.Errorf("failed to register SessionEnded consumer: %w", err)
	}
	log.Println("[cart] Registered event consumers: SessionEnded")
	return nil
}

func (m *Module) handleGet(_ context.Context, req GetCartRequest, _ *mono.Msg) (CartResponse, error) {
	return toResponse(m.store.Get(req.SessionID)), nil
}

func (m *Module) handleAdd(_ context.Context, req AddItemRequest, _ *mono.Msg) (CartResponse, error) {
	if req.SessionID == "" {
		return CartResponse{}, fmt.Errorf("session_id is required")
	}
	if req.Line.ProductID <= 0 {
		return CartResponse{}, fmt.Errorf("product id must be positive")
	}
	return toResponse(m.store.Add(req.SessionID, req.Line)), nil
}

func (m *Module) handleDecrement(_ context.Context, req ItemRequest, _ *mono.Msg) (CartResponse, error) {
	return toResponse(m.store.Decrement(req.SessionID, req.ProductID)), nil
}

func (m *Module) handleRemove(_ context.Context, req ItemRequest, _ *mono.Msg) (CartResponse, error) {
	return toResponse(m.store.RemoveItem(req.SessionID, req.ProductID)), nil
}

func (m *Module) handleClear(_ context.Context, req ClearRequest, _ *mono.Msg) (ClearResponse, error) {
	m.store.Clear(req.SessionID)
	return ClearResponse{Cleared: true}, nil
}

func (m *Module) handleSubtract(_ context.Context, req SubtractRequest, _ *mono.Msg) (CartResponse, error) {
	return toResponse(m.store.Subtract(req.SessionID, req.Lines)), nil
}

func (m *Module) handleSessionEnded(_ context.Context, event events.SessionEndedEvent, _ *mono.Msg) error {
	m.store.Clear(event.SessionID)
	log.Printf("[cart] Dropped cart of ended session %s", event.SessionID)
	return nil
}
