package order

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/000francisca0/Peluchemaniav3/domain/product"
)

func TestParseTimestamp(t *testing.T) {
	loc := time.UTC
	want := time.Date(2025, 11, 20, 14, 3, 22, 0, loc)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "local date time", input: "2025-11-20T14:03:22", want: want},
		{name: "fractional seconds", input: "2025-11-20T14:03:22.123456", want: want.Add(123456 * time.Microsecond)},
		{name: "space separated", input: "2025-11-20 14:03:22", want: want},
		{name: "rfc3339", input: "2025-11-20T14:03:22Z", want: want},
		{name: "minutes only", input: "2025-11-20T14:03", want: want.Add(-22 * time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input, loc)
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) error = %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got.Time, tt.want)
			}
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	if _, err := ParseTimestamp("20/11/2025", time.UTC); err == nil {
		t.Error("expected error for unsupported layout")
	}
}

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	var o struct {
		At Timestamp `json:"at"`
	}
	if err := json.Unmarshal([]byte(`{"at":"2025-01-02T03:04:05"}`), &o); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if o.At.Year() != 2025 || o.At.Month() != time.January || o.At.Day() != 2 {
		t.Errorf("unexpected date: %v", o.At.Time)
	}

	var empty struct {
		At Timestamp `json:"at"`
	}
	if err := json.Unmarshal([]byte(`{"at":null}`), &empty); err != nil {
		t.Fatalf("json.Unmarshal(null) error = %v", err)
	}
	if !empty.At.IsZero() {
		t.Error("null timestamp should be zero")
	}
}

func TestDetail_ProductName(t *testing.T) {
	withProduct := Detail{Quantity: 2, UnitPrice: 5000, Product: &product.Product{Name: "Oso Panda"}}
	if got := withProduct.ProductName("Eliminado"); got != "Oso Panda" {
		t.Errorf("ProductName() = %q, want %q", got, "Oso Panda")
	}
	if got := withProduct.Subtotal(); got != 10000 {
		t.Errorf("Subtotal() = %v, want 10000", got)
	}

	deleted := Detail{Quantity: 1, UnitPrice: 3000}
	if got := deleted.ProductName("Eliminado"); got != "Eliminado" {
		t.Errorf("ProductName() = %q, want %q", got, "Eliminado")
	}
}
