package cart

import domain "github.com/000francisca0/Peluchemaniav3/domain/cart"

// GetCartRequest is the request for the cart-get service.
type GetCartRequest struct {
	SessionID string `json:"session_id"`
}

// AddItemRequest is the request for the cart-add service.
type AddItemRequest struct {
	SessionID string      `json:"session_id"`
	Line      domain.Line `json:"line"`
}

// ItemRequest targets one line, for cart-decrement and cart-remove.
type ItemRequest struct {
	SessionID string `json:"session_id"`
	ProductID int64  `json:"product_id"`
}

// ClearRequest is the request for the cart-clear service.
type ClearRequest struct {
	SessionID string `json:"session_id"`
}

// SubtractRequest is the request for the cart-subtract service.
type SubtractRequest struct {
	SessionID string        `json:"session_id"`
	Lines     []domain.Line `json:"lines"`
}

// CartResponse is a cart snapshot.
type CartResponse struct {
	Lines []domain.Line `json:"lines"`
	Total int64         `json:"total"`
	Count int           `json:"count"`
}

// ClearResponse acknowledges cart-clear.
type ClearResponse struct {
	Cleared bool `json:"cleared"`
}

func toResponse(c domain.Cart) CartResponse {
	return CartResponse{
		Lines: c.Lines,
		Total: c.Total(),
		Count: c.Count(),
	}
}

// Cart converts the response back to the domain cart.
func (r CartResponse) Cart() domain.Cart {
	lines := r.Lines
	if lines == nil {
		lines = []domain.Line{}
	}
	return domain.Cart{Lines: lines}
}
