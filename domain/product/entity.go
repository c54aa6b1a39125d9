// Package product provides the catalog entities served by the shop backend.
package product

// CriticalStockThreshold is the stock level under which a product is flagged
// as critical in the back-office.
const CriticalStockThreshold = 5

// Category groups products in the storefront.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product represents a plush toy in the catalog.
type Product struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Price              float64   `json:"price"`
	Stock              int       `json:"stock"`
	Category           *Category `json:"category,omitempty"`
	ImageURL           string    `json:"image_url"`
	OnSale             bool      `json:"on_sale"`
	DiscountPercentage float64   `json:"discount_percentage"`
}

// IsCriticalStock reports whether the product is running low.
func (p Product) IsCriticalStock() bool {
	return p.Stock < CriticalStockThreshold
}

// CategoryID returns the category ID or zero when the product is uncategorized.
func (p Product) CategoryID() int64 {
	if p.Category == nil {
		return 0
	}
	return p.Category.ID
}

// CreateProductRequest holds the fields an admin submits for a new product.
type CreateProductRequest struct {
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	Price              float64 `json:"price"`
	Stock              int     `json:"stock"`
	CategoryID         int64   `json:"category_id"`
	ImageURL           string  `json:"image_url"`
	OnSale             bool    `json:"on_sale"`
	DiscountPercentage float64 `json:"discount_percentage"`
}

// UpdateProductRequest replaces every editable field of a product, matching
// the backend's PUT semantics.
type UpdateProductRequest = CreateProductRequest
