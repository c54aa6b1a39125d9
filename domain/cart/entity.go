// Package cart provides the shopping cart entity.
package cart

// Line is a cart entry. UnitPrice is the resolved sale price in whole pesos at
// the time the product was added.
type Line struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	ImageURL  string `json:"image_url"`
	Quantity  int    `json:"quantity"`
}

// Subtotal returns unit price times quantity.
func (l Line) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Cart is an ordered set of lines keyed by product ID.
type Cart struct {
	Lines []Line `json:"lines"`
}

// Total returns the sum of every line subtotal.
func (c Cart) Total() int64 {
	return Total(c.Lines)
}

// Count returns the number of units in the cart.
func (c Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Total returns the sum of unit price times quantity over lines.
func Total(lines []Line) int64 {
	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}
