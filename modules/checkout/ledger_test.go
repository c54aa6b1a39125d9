package checkout

import (
	"testing"
)

func TestLedger_Record(t *testing.T) {
	ledger := setupTestLedger(t)

	if err := ledger.Record(&Attempt{IdempotencyKey: "k1", Status: AttemptFailed, Total: 13000, Message: "Error de conexión."}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := ledger.Succeeded("k1")
	if err != nil {
		t.Fatalf("Succeeded() error = %v", err)
	}
	if got != nil {
		t.Errorf("Succeeded() = %+v, want nil for a failed attempt", got)
	}

	if err := ledger.Record(&Attempt{IdempotencyKey: "k1", Status: AttemptSucceeded, Total: 13000, OrderID: "123"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err = ledger.Succeeded("k1")
	if err != nil {
		t.Fatalf("Succeeded() error = %v", err)
	}
	if got == nil {
		t.Fatal("Succeeded() = nil, want attempt")
	}
	if got.OrderID != "123" {
		t.Errorf("OrderID = %q, want %q", got.OrderID, "123")
	}
	if got.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", got.Attempts)
	}
}

func TestLedger_SucceededUnknownKey(t *testing.T) {
	ledger := setupTestLedger(t)

	got, err := ledger.Succeeded("missing")
	if err != nil {
		t.Fatalf("Succeeded() error = %v", err)
	}
	if got != nil {
		t.Errorf("Succeeded() = %+v, want nil", got)
	}
}

func TestLedger_LookupAndCovers(t *testing.T) {
	ledger := setupTestLedger(t)

	if err := ledger.Record(&Attempt{IdempotencyKey: "k1", CustomerEmail: "ana@gmail.com", Status: AttemptFailed, Total: 13000, Units: 3}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := ledger.Lookup("k1")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got == nil || got.Status != AttemptFailed {
		t.Fatalf("Lookup() = %+v, want the failed attempt", got)
	}

	if !got.OwnedBy("ANA@gmail.com") {
		t.Error("OwnedBy() = false, want true for the same address in another case")
	}
	if got.OwnedBy("luis@duoc.cl") {
		t.Error("OwnedBy() = true for another customer")
	}
	if !got.Covers("ana@gmail.com", 13000, 3) {
		t.Error("Covers() = false for the recorded cart")
	}
	if got.Covers("ana@gmail.com", 20000, 3) || got.Covers("ana@gmail.com", 13000, 4) {
		t.Error("Covers() = true for a different cart")
	}

	missing, err := ledger.Lookup("missing")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if missing != nil {
		t.Errorf("Lookup() = %+v, want nil", missing)
	}
}
