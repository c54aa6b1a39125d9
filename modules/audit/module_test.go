package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/000francisca0/Peluchemaniav3/events"
)

func TestAuditModule_RecordsEvents(t *testing.T) {
	m := NewModule(0)
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	_ = m.handleOrderPlaced(ctx, events.OrderPlacedEvent{OrderID: "123", CustomerEmail: "ana@gmail.com", Total: 13000, Units: 3, PlacedAt: now}, nil)
	_ = m.handlePurchaseFailed(ctx, events.PurchaseFailedEvent{CustomerEmail: "ana@gmail.com", Total: 13000, Reason: "Error de conexión.", AttemptedAt: now}, nil)
	_ = m.handleSessionEnded(ctx, events.SessionEndedEvent{SessionID: "s1", Email: "ana@gmail.com"}, nil)
	_ = m.handleCatalogChanged(ctx, events.CatalogChangedEvent{Resource: events.ResourceProduct, ID: 4, Action: "deleted", ChangedBy: "admin@duoc.cl"}, nil)

	entries := m.Entries()
	if len(entries) != 4 {
		t.Fatalf("len(Entries()) = %d, want 4", len(entries))
	}

	want := []string{"catalog_deleted", "session_ended", "purchase_failed", "order_placed"}
	for i, typ := range want {
		if entries[i].Type != typ {
			t.Errorf("entries[%d].Type = %q, want %q", i, entries[i].Type, typ)
		}
	}
	if got := entries[3].Message; got != "Boleta #123 por $13.000 (3 unidades)" {
		t.Errorf("order message = %q", got)
	}
	if entries[1].Timestamp.IsZero() {
		t.Error("entries without a timestamp should be stamped")
	}
}

func TestAuditModule_KeepsMostRecent(t *testing.T) {
	m := NewModule(3)
	for i := 1; i <= 5; i++ {
		_ = m.handleSessionEnded(context.Background(), events.SessionEndedEvent{SessionID: fmt.Sprintf("s%d", i)}, nil)
	}

	entries := m.Entries()
	if len(entries) != 3 {
		t.Fatalf("len(Entries()) = %d, want 3", len(entries))
	}
	for i, want := range []string{"s5", "s4", "s3"} {
		if entries[i].Subject != want {
			t.Errorf("entries[%d].Subject = %q, want %q", i, entries[i].Subject, want)
		}
	}
}
