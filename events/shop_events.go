package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// OrderPlacedEvent is emitted when the shop backend accepts a purchase.
type OrderPlacedEvent struct {
	OrderID        string    `json:"order_id"`
	SessionID      string    `json:"session_id"`
	CustomerEmail  string    `json:"customer_email"`
	Total          int64     `json:"total"`
	Units          int       `json:"units"`
	IdempotencyKey string    `json:"idempotency_key"`
	PlacedAt       time.Time `json:"placed_at"`
}

// OrderPlacedV1 is the typed event definition for accepted purchases.
// Subject: events.checkout.v1.order-placed
var OrderPlacedV1 = helper.EventDefinition[OrderPlacedEvent](
	"checkout", "OrderPlaced", "v1",
)

// PurchaseFailedEvent is emitted when a purchase attempt is rejected or the
// backend cannot be reached.
type PurchaseFailedEvent struct {
	SessionID      string    `json:"session_id"`
	CustomerEmail  string    `json:"customer_email"`
	Total          int64     `json:"total"`
	Reason         string    `json:"reason"`
	IdempotencyKey string    `json:"idempotency_key"`
	AttemptedAt    time.Time `json:"attempted_at"`
}

// PurchaseFailedV1 is the typed event definition for failed purchases.
// Subject: events.checkout.v1.purchase-failed
var PurchaseFailedV1 = helper.EventDefinition[PurchaseFailedEvent](
	"checkout", "PurchaseFailed", "v1",
)

// SessionEndedEvent is emitted on logout.
type SessionEndedEvent struct {
	SessionID string    `json:"session_id"`
	Email     string    `json:"email"`
	EndedAt   time.Time `json:"ended_at"`
}

// SessionEndedV1 is the typed event definition for ended sessions.
// Subject: events.session.v1.session-ended
var SessionEndedV1 = helper.EventDefinition[SessionEndedEvent](
	"session", "SessionEnded", "v1",
)

// CatalogResource names the kind of catalog entity that changed.
type CatalogResource string

const (
	ResourceProduct  CatalogResource = "product"
	ResourceCategory CatalogResource = "category"
)

// CatalogChangedEvent is emitted after the back-office mutates products or categories.
type CatalogChangedEvent struct {
	Resource  CatalogResource `json:"resource"`
	ID        int64           `json:"id"`
	Action    string          `json:"action"`
	ChangedBy string          `json:"changed_by"`
	ChangedAt time.Time       `json:"changed_at"`
}

// CatalogChangedV1 is the typed event definition for catalog mutations.
// Subject: events.admin.v1.catalog-changed
var CatalogChangedV1 = helper.EventDefinition[CatalogChangedEvent](
	"admin", "CatalogChanged", "v1",
)
