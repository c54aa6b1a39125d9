// Package pricing derives the customer-facing price of a product.
//
// The backend's on-sale flag and discount fraction are the only inputs. Prices
// are whole Chilean pesos.
package pricing

import (
	"github.com/000francisca0/Peluchemaniav3/domain/product"
	"github.com/shopspring/decimal"
)

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
	cent = decimal.NewFromInt(100)
)

// Priced is a product together with its resolved price.
type Priced struct {
	product.Product
	OriginalPrice   int64 `json:"original_price"`
	FinalPrice      int64 `json:"final_price"`
	DiscountPercent int   `json:"discount_percent"`
	ShowDiscount    bool  `json:"show_discount"`
	CriticalStock   bool  `json:"critical_stock"`
}

// Resolve returns round(price*(1-discount)) when onSale, otherwise the price
// itself. The discount is clamped to [0,1] and negative prices to zero.
func Resolve(price float64, onSale bool, discount float64) int64 {
	p := decimal.NewFromFloat(price)
	if p.LessThan(zero) {
		p = zero
	}
	if !onSale {
		return p.Round(0).IntPart()
	}
	return p.Mul(one.Sub(clamp(discount))).Round(0).IntPart()
}

// Apply resolves the price of p.
func Apply(p product.Product) Priced {
	final := Resolve(p.Price, p.OnSale, p.DiscountPercentage)
	original := Resolve(p.Price, false, 0)
	percent := 0
	if p.OnSale {
		percent = int(clamp(p.DiscountPercentage).Mul(cent).Round(0).IntPart())
	}

	return Priced{
		Product:         p,
		OriginalPrice:   original,
		FinalPrice:      final,
		DiscountPercent: percent,
		ShowDiscount:    p.OnSale && percent > 0,
		CriticalStock:   p.IsCriticalStock(),
	}
}

// ApplyAll resolves the price of every product, preserving order.
func ApplyAll(products []product.Product) []Priced {
	out := make([]Priced, len(products))
	for i, p := range products {
		out[i] = Apply(p)
	}
	return out
}

// OnSale keeps only products flagged as on sale by the backend.
func OnSale(products []product.Product) []product.Product {
	out := make([]product.Product, 0, len(products))
	for _, p := range products {
		if p.OnSale {
			out = append(out, p)
		}
	}
	return out
}

func clamp(discount float64) decimal.Decimal {
	d := decimal.NewFromFloat(discount)
	if d.LessThan(zero) {
		return zero
	}
	if d.GreaterThan(one) {
		return one
	}
	return d
}
