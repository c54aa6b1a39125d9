package api

import (
	"context"
	"time"

	"github.com/000francisca0/Peluchemaniav3/domain/cart"
	"github.com/000francisca0/Peluchemaniav3/domain/order"
	"github.com/000francisca0/Peluchemaniav3/domain/pricing"
	"github.com/000francisca0/Peluchemaniav3/domain/product"
	"github.com/000francisca0/Peluchemaniav3/domain/user"
	"github.com/000francisca0/Peluchemaniav3/modules/admin"
	"github.com/000francisca0/Peluchemaniav3/modules/audit"
	"github.com/000francisca0/Peluchemaniav3/modules/checkout"
	"github.com/000francisca0/Peluchemaniav3/modules/report"
)

// CatalogService is the storefront catalog.
type CatalogService interface {
	Products(ctx context.Context) ([]pricing.Priced, error)
	Offers(ctx context.Context) ([]pricing.Priced, error)
	Product(ctx context.Context, id int64) (pricing.Priced, error)
	ByCategory(ctx context.Context, categoryID int64) ([]pricing.Priced, error)
	Categories(ctx context.Context) ([]product.Category, error)
}

// CheckoutFlow is the per-session checkout state machine.
type CheckoutFlow interface {
	Prefill(sess user.Session, c cart.Cart) checkout.Form
	Status(sessionID string) checkout.Result
	Submit(ctx context.Context, sess *user.Session, addr user.Address, key string) (checkout.Result, error)
}

// AdminService is the back-office.
type AdminService interface {
	Products(ctx context.Context, filter admin.ProductFilter) ([]pricing.Priced, error)
	LowStock(ctx context.Context, actor user.Session) ([]pricing.Priced, error)
	CreateProduct(ctx context.Context, actor user.Session, req product.CreateProductRequest) ([]pricing.Priced, error)
	UpdateProduct(ctx context.Context, actor user.Session, id int64, req product.UpdateProductRequest) ([]pricing.Priced, error)
	DeleteProduct(ctx context.Context, actor user.Session, id int64, confirmed bool) ([]pricing.Priced, error)

	Categories(ctx context.Context) ([]product.Category, error)
	CreateCategory(ctx context.Context, actor user.Session, name string) ([]product.Category, error)
	UpdateCategory(ctx context.Context, actor user.Session, id int64, name string) ([]product.Category, error)
	DeleteCategory(ctx context.Context, actor user.Session, id int64, confirmed bool) ([]product.Category, error)

	Users(ctx context.Context, actor user.Session) ([]user.User, error)
	CreateUser(ctx context.Context, actor user.Session, req user.SaveUserRequest) ([]user.User, error)
	UpdateUser(ctx context.Context, actor user.Session, id int64, req user.SaveUserRequest) ([]user.User, error)
	DeleteUser(ctx context.Context, actor user.Session, id int64, confirmed bool) ([]user.User, error)
	UserOrders(ctx context.Context, actor user.Session, userID int64) ([]order.Order, error)

	Orders(ctx context.Context, actor user.Session) ([]order.Order, error)
	OrderDetails(ctx context.Context, actor user.Session, orderID int64) ([]order.Detail, error)
	Dashboard(ctx context.Context, actor user.Session) (admin.Dashboard, error)
}

// ReportService builds sales reports.
type ReportService interface {
	Report(ctx context.Context, actor user.Session, from, to string) (report.Report, error)
	Export(ctx context.Context, actor user.Session, from, to string) (report.Export, error)
}

// ActivityLog lists recent shop events.
type ActivityLog interface {
	Entries() []audit.Entry
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error    string            `json:"error"`
	Message  string            `json:"message"`
	Redirect string            `json:"redirect,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GrantResponse is returned on login and registration.
type GrantResponse struct {
	Token     string          `json:"token"`
	TokenType string          `json:"token_type"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      user.User       `json:"user"`
	Sections  []admin.Section `json:"sections"`
}

// SessionResponse describes the current session.
type SessionResponse struct {
	ID        string          `json:"id"`
	User      user.User       `json:"user"`
	ExpiresAt time.Time       `json:"expires_at"`
	Sections  []admin.Section `json:"sections"`
}

// CartResponse is a cart snapshot.
type CartResponse struct {
	Lines []cart.Line `json:"lines"`
	Total int64       `json:"total"`
	Count int         `json:"count"`
}

// AddItemRequest adds one unit of a product to the cart.
type AddItemRequest struct {
	ProductID int64 `json:"product_id"`
}

// CheckoutRequest submits the cart. An empty address falls back to the
// session's default address.
type CheckoutRequest struct {
	Address user.Address `json:"address"`
}

// CheckoutResponse is the checkout page state.
type CheckoutResponse struct {
	Form   checkout.Form   `json:"form"`
	Status checkout.Result `json:"status"`
}

// CategoryRequest creates or renames a category.
type CategoryRequest struct {
	Name string `json:"name"`
}

func toCartResponse(c cart.Cart) CartResponse {
	lines := c.Lines
	if lines == nil {
		lines = []cart.Line{}
	}
	return CartResponse{Lines: lines, Total: c.Total(), Count: c.Count()}
}
