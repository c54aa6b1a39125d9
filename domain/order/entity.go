// Package order provides the receipt (boleta) entities recorded by the shop backend.
package order

import (
	"bytes"
	"fmt"
	"time"

	"github.com/000francisca0/Peluchemaniav3/domain/product"
)

// timestampLayouts are the forms the backend uses for zone-less LocalDateTime
// values, most specific first.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// Timestamp is a point in time decoded from the backend's LocalDateTime strings.
// Zone-less values are interpreted in time.Local.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses s using the backend layouts, interpreting zone-less values in loc.
func ParseTimestamp(s string, loc *time.Location) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// UnmarshalJSON accepts the backend's timestamp strings and null.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("timestamp must be a string, got %s", data)
	}
	parsed, err := ParseTimestamp(string(data[1:len(data)-1]), time.Local)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// MarshalJSON writes RFC 3339 with the zone offset.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + ts.Format(time.RFC3339) + `"`), nil
}

// Order is a purchase receipt.
type Order struct {
	ID              int64     `json:"id"`
	PlacedAt        Timestamp `json:"placed_at"`
	CustomerEmail   string    `json:"customer_email"`
	ShippingAddress string    `json:"shipping_address"`
	Total           float64   `json:"total"`
}

// Detail is a receipt line. Product is nil when the product was deleted after the sale.
type Detail struct {
	Quantity  int              `json:"quantity"`
	UnitPrice float64          `json:"unit_price"`
	Product   *product.Product `json:"product,omitempty"`
}

// Subtotal returns quantity times unit price.
func (d Detail) Subtotal() float64 {
	return float64(d.Quantity) * d.UnitPrice
}

// ProductName returns the product name or fallback when the product is gone.
func (d Detail) ProductName(fallback string) string {
	if d.Product == nil || d.Product.Name == "" {
		return fallback
	}
	return d.Product.Name
}
