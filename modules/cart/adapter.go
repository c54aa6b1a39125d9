package cart

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/000francisca0/Peluchemaniav3/domain/cart"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// CartPort is the cart store as seen by other modules.
type CartPort interface {
	Get(ctx context.Context, sessionID string) (domain.Cart, error)
	Add(ctx context.Context, sessionID string, line domain.Line) (domain.Cart, error)
	Decrement(ctx context.Context, sessionID string, productID int64) (domain.Cart, error)
	Remove(ctx context.Context, sessionID string, productID int64) (domain.Cart, error)
	Clear(ctx context.Context, sessionID string) error
	Subtract(ctx context.Context, sessionID string, lines []domain.Line) (domain.Cart, error)
}

// CartAdapter implements CartPort over the service container.
type CartAdapter struct {
	container mono.ServiceContainer
}

var _ CartPort = (*CartAdapter)(nil)

// NewCartAdapter creates a CartAdapter.
func NewCartAdapter(container mono.ServiceContainer) *CartAdapter {
	return &CartAdapter{container: container}
}

// call invokes a request-reply service with concrete request and response types.
func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

// Get returns the session's cart.
func (a *CartAdapter) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	req := GetCartRequest{SessionID: sessionID}
	var resp CartResponse
	if err := call(ctx, a.container, "cart-get", &req, &resp); err != nil {
		return domain.Cart{}, err
	}
	return resp.Cart(), nil
}

// Add adds one unit of line's product.
func (a *CartAdapter) Add(ctx context.Context, sessionID string, line domain.Line) (domain.Cart, error) {
	req := AddItemRequest{SessionID: sessionID, Line: line}
	var resp CartResponse
	if err := call(ctx, a.container, "cart-add", &req, &resp); err != nil {
		return domain.Cart{}, err
	}
	return resp.Cart(), nil
}

// Decrement removes one unit of the product.
func (a *CartAdapter) Decrement(ctx context.Context, sessionID string, productID int64) (domain.Cart, error) {
	req := ItemRequest{SessionID: sessionID, ProductID: productID}
	var resp CartResponse
	if err := call(ctx, a.container, "cart-decrement", &req, &resp); err != nil {
		return domain.Cart{}, err
	}
	return resp.Cart(), nil
}

// Remove drops the product's line.
func (a *CartAdapter) Remove(ctx context.Context, sessionID string, productID int64) (domain.Cart, error) {
	req := ItemRequest{SessionID: sessionID, ProductID: productID}
	var resp CartResponse
	if err := call(ctx, a.container, "cart-remove", &req, &resp); err != nil {
		return domain.Cart{}, err
	}
	return resp.Cart(), nil
}

// Clear empties the cart.
func (a *CartAdapter) Clear(ctx context.Context, sessionID string) error {
	req := ClearRequest{SessionID: sessionID}
	var resp ClearResponse
	return call(ctx, a.container, "cart-clear", &req, &resp)
}

// Subtract takes the quantities of lines out of the cart.
func (a *CartAdapter) Subtract(ctx context.Context, sessionID string, lines []domain.Line) (domain.Cart, error) {
	req := SubtractRequest{SessionID: sessionID, Lines: lines}
	var resp CartResponse
	if err := call(ctx, a.container, "cart-subtract", &req, &resp); err != nil {
		return domain.Cart{}, err
	}
	return resp.Cart(), nil
}
