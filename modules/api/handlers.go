package api

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/000francisca0/Peluchemaniav3/domain/cart"
	"github.com/000francisca0/Peluchemaniav3/domain/user"
	"github.com/000francisca0/Peluchemaniav3/modules/admin"
	cartmodule "github.com/000francisca0/Peluchemaniav3/modules/cart"
	"github.com/000francisca0/Peluchemaniav3/modules/checkout"
	"github.com/000francisca0/Peluchemaniav3/modules/session"
	"github.com/gofiber/fiber/v2"
)

// MsgOutOfStock is returned when adding a product with no units left.
const MsgOutOfStock = "Producto sin stock."

// Services are the collaborators behind the HTTP handlers.
type Services struct {
	Sessions session.SessionPort
	Carts    cartmodule.CartPort
	Catalog  CatalogService
	Checkout CheckoutFlow
	Admin    AdminService
	Reports  ReportService
	Activity ActivityLog
}

// validate reports the first missing collaborator.
func (s Services) validate() error {
	switch {
	case s.Sessions == nil:
		return errors.New("session service not set")
	case s.Carts == nil:
		return errors.New("cart service not set")
	case s.Catalog == nil:
		return errors.New("catalog service not set")
	case s.Checkout == nil:
		return errors.New("checkout flow not set")
	case s.Admin == nil:
		return errors.New("admin service not set")
	case s.Reports == nil:
		return errors.New("report service not set")
	case s.Activity == nil:
		return errors.New("activity log not set")
	}
	return nil
}

// Handlers serves the storefront and back-office routes.
type Handlers struct {
	svc Services
}

// NewHandlers creates the route handlers.
func NewHandlers(svc Services) *Handlers {
	return &Handlers{svc: svc}
}

// ============================================================
// Auth
// ============================================================

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	grant, err := h.svc.Sessions.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(toGrantResponse(grant))
}

// Register handles POST /api/v1/auth/register
func (h *Handlers) Register(c *fiber.Ctx) error {
	var form session.RegistrationForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	grant, err := h.svc.Sessions.Register(c.UserContext(), form)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toGrantResponse(grant))
}

// Logout handles POST /api/v1/auth/logout
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if err := h.svc.Sessions.Logout(c.UserContext(), currentToken(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Session handles GET /api/v1/session
func (h *Handlers) Session(c *fiber.Ctx) error {
	sess, _ := currentSession(c)
	return c.JSON(toSessionResponse(sess))
}

// UpdateAddress handles PUT /api/v1/session/address
func (h *Handlers) UpdateAddress(c *fiber.Ctx) error {
	var addr user.Address
	if err := c.BodyParser(&addr); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	sess, err := h.svc.Sessions.UpdateAddress(c.UserContext(), currentToken(c), addr)
	if err != nil {
		return err
	}
	c.Locals(LocalSession, sess)
	return c.JSON(toSessionResponse(sess))
}

func toGrantResponse(g session.Grant) GrantResponse {
	return GrantResponse{
		Token:     g.Token,
		TokenType: "Bearer",
		ExpiresAt: g.Session.ExpiresAt,
		User:      g.Session.User,
		Sections:  admin.SectionsFor(g.Session.User.Role),
	}
}

func toSessionResponse(sess user.Session) SessionResponse {
	return SessionResponse{
		ID:        sess.ID,
		User:      sess.User,
		ExpiresAt: sess.ExpiresAt,
		Sections:  admin.SectionsFor(sess.User.Role),
	}
}

// ============================================================
// Catalog
// ============================================================

// Products handles GET /api/v1/products
func (h *Handlers) Products(c *fiber.Ctx) error {
	products, err := h.svc.Catalog.Products(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// Offers handles GET /api/v1/products/offers
func (h *Handlers) Offers(c *fiber.Ctx) error {
	products, err := h.svc.Catalog.Offers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// Product handles GET /api/v1/products/:id
func (h *Handlers) Product(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	p, err := h.svc.Catalog.Product(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// Categories handles GET /api/v1/categories
func (h *Handlers) Categories(c *fiber.Ctx) error {
	categories, err := h.svc.Catalog.Categories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

// CategoryProducts handles GET /api/v1/categories/:id/products
func (h *Handlers) CategoryProducts(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	products, err := h.svc.Catalog.ByCategory(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// ============================================================
// Cart
// ============================================================

// Cart handles GET /api/v1/cart
func (h *Handlers) Cart(c *fiber.Ctx) error {
	sess, _ := currentSession(c)
	current, err := h.svc.Carts.Get(c.UserContext(), sess.ID)
	if err != nil {
		return err
	}
	return c.JSON(toCartResponse(current))
}

// AddCartItem handles POST /api/v1/cart/items
//
// The line is priced from the catalog so clients cannot choose their price.
func (h *Handlers) AddCartItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil || req.ProductID <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "product_id is required")
	}

	p, err := h.svc.Catalog.Product(c.UserContext(), req.ProductID)
	if err != nil {
		return err
	}
	if p.Stock <= 0 {
		return fiber.NewError(fiber.StatusConflict, MsgOutOfStock)
	}

	sess, _ := currentSession(c)
	updated, err := h.svc.Carts.Add(c.UserContext(), sess.ID, cart.Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.FinalPrice,
		ImageURL:  p.ImageURL,
		Quantity:  1,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toCartResponse(updated))
}

// DecrementCartItem handles POST /api/v1/cart/items/:id/decrement
func (h *Handlers) DecrementCartItem(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	sess, _ := currentSession(c)
	updated, err := h.svc.Carts.Decrement(c.UserContext(), sess.ID, id)
	if err != nil {
		return err
	}
	return c.JSON(toCartResponse(updated))
}

// RemoveCartItem handles DELETE /api/v1/cart/items/:id
func (h *Handlers) RemoveCartItem(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	sess, _ := currentSession(c)
	updated, err := h.svc.Carts.Remove(c.UserContext(), sess.ID, id)
	if err != nil {
		return err
	}
	return c.JSON(toCartResponse(updated))
}

// ClearCart handles DELETE /api/v1/cart
func (h *Handlers) ClearCart(c *fiber.Ctx) error {
	sess, _ := currentSession(c)
	if err := h.svc.Carts.Clear(c.UserContext(), sess.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ============================================================
// Checkout
// ============================================================

// Checkout handles GET /api/v1/checkout
//
// An empty cart redirects back to the cart page unless the last purchase
// succeeded, in which case its result is still shown.
func (h *Handlers) Checkout(c *fiber.Ctx) error {
	sess, _ := currentSession(c)
	current, err := h.svc.Carts.Get(c.UserContext(), sess.ID)
	if err != nil {
		return err
	}

	status := h.svc.Checkout.Status(sess.ID)
	if current.IsEmpty() && status.State != checkout.StateSuccess {
		return checkout.ErrEmptyCart
	}

	return c.JSON(CheckoutResponse{
		Form:   h.svc.Checkout.Prefill(sess, current),
		Status: status,
	})
}

// SubmitCheckout handles POST /api/v1/checkout
//
// A purchase rejected by the backend answers 502 with the failure result, so
// the client can show the attempted lines and retry.
func (h *Handlers) SubmitCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}

	sess, _ := currentSession(c)
	addr := req.Address
	if addr == (user.Address{}) {
		addr = sess.User.DefaultAddress
	}

	result, err := h.svc.Checkout.Submit(c.UserContext(), &sess, addr, c.Get("Idempotency-Key"))
	if err != nil {
		return err
	}

	if result.State == checkout.StateFailure {
		return c.Status(fiber.StatusBadGateway).JSON(result)
	}
	if result.Replayed {
		return c.JSON(result)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// ============================================================
// Helpers
// ============================================================

// paramID parses the :id route parameter.
func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Invalid id %q", c.Params("id")))
	}
	return id, nil
}

// queryBool reports whether the query parameter is "true" or "1".
func queryBool(c *fiber.Ctx, key string) bool {
	v := c.Query(key)
	return v == "true" || v == "1"
}
