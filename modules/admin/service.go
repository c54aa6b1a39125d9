// Package admin provides the back-office: catalog, account and order management.
package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/000francisca0/Peluchemaniav3/domain/order"
	"github.com/000francisca0/Peluchemaniav3/domain/pricing"
	"github.com/000francisca0/Peluchemaniav3/domain/product"
	"github.com/000francisca0/Peluchemaniav3/domain/user"
	"github.com/000francisca0/Peluchemaniav3/events"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrConfirmationRequired is returned by deletions that were not confirmed.
	ErrConfirmationRequired = errors.New("deletion requires confirmation")
	// ErrSelfDelete is returned when an account tries to delete itself.
	ErrSelfDelete = errors.New("cannot delete own account")
	// ErrUserNotFound is returned when the account to delete does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Messages shown in the back-office.
const (
	MsgProductRequired  = "Faltan datos obligatorios (Nombre, Precio, Categoría)"
	MsgDiscountRange    = "El descuento debe estar entre 0 y 1."
	MsgCategoryRequired = "El nombre de la categoría es obligatorio."
	MsgUserRequired     = "Nombre, Email y Contraseña son obligatorios."
	MsgSelfDelete       = "No puedes eliminar tu propia cuenta."
)

// DefaultImageURL is used for products created without an image.
const DefaultImageURL = "/osito.jpg"

// ValidationError carries a message for the back-office form.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Backend is the part of the shop backend the back-office uses.
type Backend interface {
	Products(ctx context.Context) ([]product.Product, error)
	LowStockProducts(ctx context.Context, token string) ([]product.Product, error)
	CreateProduct(ctx context.Context, token string, req product.CreateProductRequest) (product.Product, error)
	UpdateProduct(ctx context.Context, token string, id int64, req product.UpdateProductRequest) (product.Product, error)
	DeleteProduct(ctx context.Context, token string, id int64) error

	Categories(ctx context.Context) ([]product.Category, error)
	CreateCategory(ctx context.Context, token, name string) (product.Category, error)
	UpdateCategory(ctx context.Context, token string, id int64, name string) (product.Category, error)
	DeleteCategory(ctx context.Context, token string, id int64) error

	Users(ctx context.Context, token string) ([]user.User, error)
	CreateUser(ctx context.Context, token string, req user.SaveUserRequest) (user.User, error)
	UpdateUser(ctx context.Context, token string, id int64, req user.SaveUserRequest) (user.User, error)
	DeleteUser(ctx context.Context, token string, id int64) error
	UserOrders(ctx context.Context, token string, userID int64) ([]order.Order, error)

	Orders(ctx context.Context, token string) ([]order.Order, error)
	OrderDetails(ctx context.Context, token string, orderID int64) ([]order.Detail, error)
}

// CatalogNotifier is told about product and category mutations.
type CatalogNotifier interface {
	CatalogChanged(ctx context.Context, event events.CatalogChangedEvent)
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	CriticalOnly bool
}

// Service implements the back-office operations. Every mutation answers with
// the freshly fetched list.
type Service struct {
	backend  Backend
	notifier CatalogNotifier
	now      func() time.Time
}

// NewService creates a Service. notifier may be nil.
func NewService(backend Backend, notifier CatalogNotifier) *Service {
	return &Service{backend: backend, notifier: notifier, now: time.Now}
}

// ============================================================
// Products
// ============================================================

// Products lists products with prices resolved and critical stock flagged.
func (s *Service) Products(ctx context.Context, filter ProductFilter) ([]pricing.Priced, error) {
	products, err := s.backend.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	priced := pricing.ApplyAll(products)
	if !filter.CriticalOnly {
		return priced, nil
	}

	out := make([]pricing.Priced, 0, len(priced))
	for _, p := range priced {
		if p.CriticalStock {
			out = append(out, p)
		}
	}
	return out, nil
}

// LowStock lists the products the backend reports as low on stock.
func (s *Service) LowStock(ctx context.Context, actor user.Session) ([]pricing.Priced, error) {
	products, err := s.backend.LowStockProducts(ctx, actor.BackendToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list low-stock products: %w", err)
	}
	return pricing.ApplyAll(products), nil
}

// CreateProduct validates and creates a product.
func (s *Service) CreateProduct(ctx context.Context, actor user.Session, req product.CreateProductRequest) ([]pricing.Priced, error) {
	req, err := normalizeProduct(req)
	if err != nil {
		return nil, err
	}
	created, err := s.backend.CreateProduct(ctx, actor.BackendToken, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.catalogChanged(ctx, actor, events.ResourceProduct, created.ID, "created")
	return s.Products(ctx, ProductFilter{})
}

// UpdateProduct validates and replaces a product.
func (s *Service) UpdateProduct(ctx context.Context, actor user.Session, id int64, req product.UpdateProductRequest) ([]pricing.Priced, error) {
	req, err := normalizeProduct(req)
	if err != nil {
		return nil, err
	}
	if _, err := s.backend.UpdateProduct(ctx, actor.BackendToken, id, req); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	s.catalogChanged(ctx, actor, events.ResourceProduct, id, "updated")
	return s.Products(ctx, ProductFilter{})
}

// DeleteProduct deletes a product once confirmed. A product with sales is
// refused by the backend with a conflict.
func (s *Service) DeleteProduct(ctx context.Context, actor user.Session, id int64, confirmed bool) ([]pricing.Priced, error) {
	if !confirmed {
		return nil, ErrConfirmationRequired
	}
	if err := s.backend.DeleteProduct(ctx, actor.BackendToken, id); err != nil {
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	s.catalogChanged(ctx, actor, events.ResourceProduct, id, "deleted")
	return s.Products(ctx, ProductFilter{})
}

func normalizeProduct(req product.CreateProductRequest) (product.CreateProductRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Price <= 0 || req.CategoryID == 0 {
		return req, &ValidationError{Message: MsgProductRequired}
	}
	if req.DiscountPercentage < 0 || req.DiscountPercentage > 1 {
		return req, &ValidationError{Message: MsgDiscountRange}
	}
	if req.Stock < 0 {
		req.Stock = 0
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		req.ImageURL = DefaultImageURL
	}
	return req, nil
}

// ============================================================
// Categories
// ============================================================

// Categories lists every category.
func (s *Service) Categories(ctx context.Context) ([]product.Category, error) {
	categories, err := s.backend.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory creates a category.
func (s *Service) CreateCategory(ctx context.Context, actor user.Session, name string) ([]product.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Message: MsgCategoryRequired}
	}
	created, err := s.backend.CreateCategory(ctx, actor.BackendToken, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	s.catalogChanged(ctx, actor, events.ResourceCategory, created.ID, "created")
	return s.Categories(ctx)
}

// UpdateCategory renames a category.
func (s *Service) UpdateCategory(ctx context.Context, actor user.Session, id int64, name string) ([]product.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Message: MsgCategoryRequired}
	}
	if _, err := s.backend.UpdateCategory(ctx, actor.BackendToken, id, name); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	s.catalogChanged(ctx, actor, events.ResourceCategory, id, "updated")
	return s.Categories(ctx)
}

// DeleteCategory deletes a category once confirmed.
func (s *Service) DeleteCategory(ctx context.Context, actor user.Session, id int64, confirmed bool) ([]product.Category, error) {
	if !confirmed {
		return nil, ErrConfirmationRequired
	}
	if err := s.backend.DeleteCategory(ctx, actor.BackendToken, id); err != nil {
		return nil, fmt.Errorf("failed to delete category: %w", err)
	}
	s.catalogChanged(ctx, actor, events.ResourceCategory, id, "deleted")
	return s.Categories(ctx)
}

func (s *Service) catalogChanged(ctx context.Context, actor user.Session, resource events.CatalogResource, id int64, action string) {
	if s.notifier == nil {
		return
	}
	s.notifier.CatalogChanged(ctx, events.CatalogChangedEvent{
		Resource:  resource,
		ID:        id,
		Action:    action,
		ChangedBy: actor.User.Email,
		ChangedAt: s.now(),
	})
}

// ============================================================
// Users
// ============================================================

// Users lists every account.
func (s *Service) Users(ctx context.Context, actor user.Session) ([]user.User, error) {
	users, err := s.backend.Users(ctx, actor.BackendToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CreateUser creates an account. Name, email and password are required.
func (s *Service) CreateUser(ctx context.Context, actor user.Session, req user.SaveUserRequest) ([]user.User, error) {
	req, err := normalizeUser(req, true)
	if err != nil {
		return nil, err
	}
	if _, err := s.backend.CreateUser(ctx, actor.BackendToken, req); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return s.Users(ctx, actor)
}

// UpdateUser edits an account. An empty password keeps the current one.
func (s *Service) UpdateUser(ctx context.Context, actor user.Session, id int64, req user.SaveUserRequest) ([]user.User, error) {
	req, err := normalizeUser(req, false)
	if err != nil {
		return nil, err
	}
	if _, err := s.backend.UpdateUser(ctx, actor.BackendToken, id, req); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return s.Users(ctx, actor)
}

// DeleteUser deletes an account once confirmed. Nobody can delete their own account.
func (s *Service) DeleteUser(ctx context.Context, actor user.Session, id int64, confirmed bool) ([]user.User, error) {
	if id == actor.User.ID && id != 0 {
		return nil, ErrSelfDelete
	}

	users, err := s.Users(ctx, actor)
	if err != nil {
		return nil, err
	}
	target, ok := findUser(users, id)
	if !ok {
		return nil, ErrUserNotFound
	}
	if strings.EqualFold(target.Email, actor.User.Email) {
		return nil, ErrSelfDelete
	}
	if !confirmed {
		return nil, ErrConfirmationRequired
	}

	if err := s.backend.DeleteUser(ctx, actor.BackendToken, id); err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	return s.Users(ctx, actor)
}

// UserOrders lists an account's orders, newest first.
func (s *Service) UserOrders(ctx context.Context, actor user.Session, userID int64) ([]order.Order, error) {
	orders, err := s.backend.UserOrders(ctx, actor.BackendToken, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user orders: %w", err)
	}
	sortNewestFirst(orders)
	return orders, nil
}

func normalizeUser(req user.SaveUserRequest, creating bool) (user.SaveUserRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || (creating && req.Password == "") {
		return req, &ValidationError{Message: MsgUserRequired}
	}
	if req.Role == "" {
		req.Role = user.RoleCliente
	}
	return req, nil
}

func findUser(users []user.User, id int64) (user.User, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return user.User{}, false
}

// ============================================================
// Orders
// ============================================================

// Orders lists every order, newest first.
func (s *Service) Orders(ctx context.Context, actor user.Session) ([]order.Order, error) {
	orders, err := s.backend.Orders(ctx, actor.BackendToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	sortNewestFirst(orders)
	return orders, nil
}

// OrderDetails lists the lines of an order.
func (s *Service) OrderDetails(ctx context.Context, actor user.Session, orderID int64) ([]order.Detail, error) {
	details, err := s.backend.OrderDetails(ctx, actor.BackendToken, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order details: %w", err)
	}
	if details == nil {
		details = []order.Detail{}
	}
	return details, nil
}

// sortNewestFirst orders by ID descending; IDs grow with time.
func sortNewestFirst(orders []order.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].ID > orders[j].ID
	})
}

// ============================================================
// Dashboard
// ============================================================

// Dashboard fetches every list concurrently and counts them.
func (s *Service) Dashboard(ctx context.Context, actor user.Session) (Dashboard, error) {
	var (
		products   []product.Product
		categories []product.Category
		users      []user.User
		orders     []order.Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		products, err = s.backend.Products(gctx)
		return err
	})
	g.Go(func() (err error) {
		categories, err = s.backend.Categories(gctx)
		return err
	})
	g.Go(func() (err error) {
		orders, err = s.backend.Orders(gctx, actor.BackendToken)
		return err
	})
	if actor.User.Role.IsAdmin() {
		g.Go(func() (err error) {
			users, err = s.backend.Users(gctx, actor.BackendToken)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("failed to load dashboard: %w", err)
	}

	d := Dashboard{
		Greeting:   actor.User.Name,
		Role:       actor.User.Role,
		Sections:   SectionsFor(actor.User.Role),
		Products:   len(products),
		Categories: len(categories),
		Users:      len(users),
		Orders:     len(orders),
	}
	for _, p := range products {
		if p.IsCriticalStock() {
			d.CriticalStock++
		}
	}
	for _, o := range orders {
		d.Revenue += o.Total
	}
	return d, nil
}
