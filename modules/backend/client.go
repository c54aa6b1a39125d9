// Package backend provides the REST client for the shop backend as a mono plugin.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/000francisca0/Peluchemaniav3/domain/cart"
	"github.com/000francisca0/Peluchemaniav3/domain/order"
	"github.com/000francisca0/Peluchemaniav3/domain/product"
	"github.com/000francisca0/Peluchemaniav3/domain/user"
	"github.com/go-resty/resty/v2"
)

// IdempotencyHeader carries the purchase idempotency key.
const IdempotencyHeader = "Idempotency-Key"

// PurchaseRequest is a checkout submission.
type PurchaseRequest struct {
	CustomerEmail  string
	Lines          []cart.Line
	Address        user.Address
	Total          int64
	IdempotencyKey string
}

// PurchaseResult is the backend's answer to an accepted purchase.
type PurchaseResult struct {
	OrderID string
	Message string
}

// LoginResult holds the backend bearer token and, when the backend sends it,
// the account. Legacy deployments answer with a bare token and no account.
type LoginResult struct {
	Token string
	User  *user.User
}

// RegisterRequest holds a new customer account.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Address  user.Address
}

// Client calls the shop backend REST API.
type Client struct {
	http    *resty.Client
	baseURL string
}

// NewClient creates a Client for baseURL with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:    httpClient,
		baseURL: baseURL,
	}
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ============================================================
// Catalog
// ============================================================

// Products lists every product.
func (c *Client) Products(ctx context.Context) ([]product.Product, error) {
	var out []productDTO
	if err := c.do(ctx, "", http.MethodGet, "/productos", nil, &out, nil); err != nil {
		return nil, err
	}
	return mapSlice(out, productDTO.toDomain), nil
}

// Product fetches a single product.
func (c *Client) Product(ctx context.Context, id int64) (product.Product, error) {
	var out productDTO
	if err := c.do(ctx, "", http.MethodGet, fmt.Sprintf("/productos/%d", id), nil, &out, nil); err != nil {
		return product.Product{}, err
	}
	return out.toDomain(), nil
}

// ProductsByCategory lists the products of a category.
func (c *Client) ProductsByCategory(ctx context.Context, categoryID int64) ([]product.Product, error) {
	var out []productDTO
	if err := c.do(ctx, "", http.MethodGet, fmt.Sprintf("/productos/categoria/%d", categoryID), nil, &out, nil); err != nil {
		return nil, err
	}
	return mapSlice(out, productDTO.toDomain), nil
}

// LowStockProducts lists products the backend reports as low on stock.
func (c *Client) LowStockProducts(ctx context.Context, token string) ([]product.Product, error) {
	var out []productDTO
	if err := c.do(ctx, token, http.MethodGet, "/productos/low-stock", nil, &out, nil); err != nil {
		return nil, err
	}
	return mapSlice(out, productDTO.toDomain), nil
}

// CreateProduct creates a product.
func (c *Client) CreateProduct(ctx context.Context, token string, req product.CreateProductRequest) (product.Product, error) {
	var out productDTO
	if err := c.do(ctx, token, http.MethodPost, "/productos", productFromRequest(req), &out, nil); err != nil {
		return product.Product{}, err
	}
	return out.toDomain(), nil
}

// UpdateProduct replaces a product's editable fields.
func (c *Client) UpdateProduct(ctx context.Context, token string, id int64, req product.UpdateProductRequest) (product.Product, error) {
	var out productDTO
	if err := c.do(ctx, token, http.MethodPut, fmt.Sprintf("/productos/%d", id), productFromRequest(req), &out, nil); err != nil {
		return product.Product{}, err
	}
	return out.toDomain(), nil
}

// DeleteProduct deletes a product. The backend answers 409 when it has sales.
func (c *Client) DeleteProduct(ctx context.Context, token string, id int64) error {
	return c.do(ctx, token, http.MethodDelete, fmt.Sprintf("/productos/%d", id), nil, nil, nil)
}

// Categories lists every category.
func (c *Client) Categories(ctx context.Context) ([]product.Category, error) {
	var out []categoryDTO
	if err := c.do(ctx, "", http.MethodGet, "/categorias", nil, &out, nil); err != nil {
		return nil, err
	}
	return mapSlice(out, categoryDTO.toDomain), nil
}

// CreateCategory creates a category.
func (c *Client) CreateCategory(ctx context.Context, token, name string) (product.Category, error) {
	var out categoryDTO
	if err := c.do(ctx, token, http.MethodPost, "/categorias", categoryDTO{Nombre: name}, &out, nil); err != nil {
		return product.Category{}, err
	}
	return out.toDomain(), nil
}

// UpdateCategory renames a category.
func (c *Client) UpdateCategory(ctx context.Context, token string, id int64, name string) (product.Category, error) {
	var out categoryDTO
	if err := c.do(ctx, token, http.MethodPut, fmt.Sprintf("/categorias/%d", id), categoryDTO{Nombre: name}, &out, nil); err != nil {
		return product.Category{}, err
	}
	return out.toDomain(), nil
}

// DeleteCategory deletes a category.
func (c *Client) DeleteCategory(ctx context.Context, token string, id int64) error {
	return c.do(ctx, token, http.MethodDelete, fmt.Sprintf("/categorias/%d", id), nil, nil, nil)
}

// ============================================================
// Users
// ============================================================

// Users lists every account.
func (c *Client) Users(ctx context.Context, token string) ([]user.User, error) {
	var out []userDTO
	if err := c.do(ctx, token, http.MethodGet, "/users", nil, &out, nil); err != nil {
		return nil, err
	}
	return mapSlice(out, userDTO.toDomain), nil
}

// CreateUser creates an account.
func (c *Client) CreateUser(ctx context.Context, token string, req user.SaveUserRequest) (user.User, error) {
	var out userDTO
	if err := c.do(ctx, token, http.MethodPost, "/users", userFromRequest(req), &out, nil); err != nil {
		return user.User{}, err
	}
	return out.toDomain(), nil
}

// UpdateUser edits an account. An empty password keeps the current one.
func (c *Client) UpdateUser(ctx context.Context, token string, id int64, req user.SaveUserRequest) (user.User, error) {
	var out userDTO
	if err := c.do(ctx, token, http.MethodPut, fmt.Sprintf("/users/%d", id), userFromRequest(req), &out, nil); err != nil {
		return user.User{}, err
	}
	return out.toDomain(), nil
}

// DeleteUser deletes an account.
func (c *Client) DeleteUser(ctx context.Context, token string, id int64) error {
	return c.do(ctx, token, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil, nil, nil)
}

// UserOrders lists the receipts of an account.
func (c *Client) UserOrders(ctx context.Context, token string, userID int64) ([]order.Order, error) {
	var out []orderDTO
	if err := c.do(ctx, token, http.MethodGet, fmt.Sprintf("/users/%d/boletas", userID), nil, &out, nil); err != nil {
		return nil, err
	}
	return mapSlice(out, orderDTO.toDomain), nil
}

// ============================================================
// Orders
// ============================================================

// Orders lists every receipt.
func (c *Client) Orders(ctx context.Context, token string) ([]order.Order, error) {
	var out []orderDTO
	if err := c.do(ctx, token, http.MethodGet, "/boletas", nil, &out, nil); err != nil {
		return nil, err
	}
	return mapSlice(out, orderDTO.toDomain), nil
}

// OrderDetails lists the lines of a receipt. Receipts created before line
// items were recorded return an empty list.
func (c *Client) OrderDetails(ctx context.Context, token string, orderID int64) ([]order.Detail, error) {
	var out []detailDTO
	if err := c.do(ctx, token, http.MethodGet, fmt.Sprintf("/boletas/%d/detalles", orderID), nil, &out, nil); err != nil {
		return nil, err
	}
	return mapSlice(out, detailDTO.toDomain), nil
}

// Purchase submits a checkout. The idempotency key travels in the payload and
// in the Idempotency-Key header so the backend can deduplicate retries.
func (c *Client) Purchase(ctx context.Context, token string, req PurchaseRequest) (PurchaseResult, error) {
	payload := purchaseDTO{
		UserID:    req.CustomerEmail,
		CartItems: make([]purchaseItemDTO, len(req.Lines)),
		ShippingAddress: addressDTO{
			Calle:  req.Address.Street,
			Depto:  req.Address.Unit,
			Region: req.Address.Region,
			Comuna: req.Address.Comuna,
		},
		Total:          req.Total,
		IdempotencyKey: req.IdempotencyKey,
	}
	for i, l := range req.Lines {
		payload.CartItems[i] = purchaseItemDTO{
			ID:       l.ProductID,
			Nombre:   l.Name,
			Precio:   l.UnitPrice,
			Quantity: l.Quantity,
			Imagen:   l.ImageURL,
		}
	}

	var out purchaseResponseDTO
	headers := map[string]string{IdempotencyHeader: req.IdempotencyKey}
	if err := c.do(ctx, token, http.MethodPost, "/checkout/purchase", payload, &out, headers); err != nil {
		return PurchaseResult{}, err
	}
	if out.BoletaID == "" {
		return PurchaseResult{}, fmt.Errorf("%w: purchase response has no order id", ErrRejected)
	}

	return PurchaseResult{
		OrderID: out.BoletaID.String(),
		Message: out.Message,
	}, nil
}

// ============================================================
// Auth
// ============================================================

// Login exchanges credentials for a backend token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	resp, err := c.send(ctx, "", http.MethodPost, "/auth/login", loginDTO{Email: email, Password: password}, nil)
	if err != nil {
		return LoginResult{}, err
	}

	body := strings.TrimSpace(string(resp.Body()))
	if strings.HasPrefix(body, "{") {
		var out loginResponseDTO
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return LoginResult{}, fmt.Errorf("decode login response: %w", err)
		}
		result := LoginResult{Token: out.Token}
		if out.Usuario != nil {
			u := out.Usuario.toDomain()
			result.User = &u
		}
		if result.Token == "" {
			return LoginResult{}, fmt.Errorf("%w: login response has no token", ErrRejected)
		}
		return result, nil
	}

	// Legacy deployments answer with the bare token, sometimes JSON-quoted.
	token := strings.Trim(body, `"`)
	if token == "" {
		return LoginResult{}, fmt.Errorf("%w: empty login response", ErrRejected)
	}
	return LoginResult{Token: token}, nil
}

// Register creates a customer account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	payload := userDTO{
		Nombre:          req.Name,
		Email:           req.Email,
		Password:        req.Password,
		Rol:             user.RoleCliente.String(),
		DireccionRegion: req.Address.Region,
		DireccionComuna: req.Address.Comuna,
		DireccionCalle:  req.Address.Street,
		DireccionDepto:  req.Address.Unit,
	}
	return c.do(ctx, "", http.MethodPost, "/auth/register", payload, nil, nil)
}

// Ping checks that the backend answers a cheap public listing.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "", http.MethodGet, "/categorias", nil, nil, nil)
}

// ============================================================
// Transport
// ============================================================

// do sends a request and decodes a JSON success body into out when out is non-nil.
func (c *Client) do(ctx context.Context, token, method, path string, body, out any, headers map[string]string) error {
	resp, err := c.send(ctx, token, method, path, body, headers)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// send executes a request and converts transport failures and non-2xx
// responses into errors.
func (c *Client) send(ctx context.Context, token, method, path string, body any, headers map[string]string) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	for k, v := range headers {
		if v != "" {
			req.SetHeader(k, v)
		}
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp.StatusCode(), resp.Body())
	}
	return resp, nil
}
