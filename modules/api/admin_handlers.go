package api

import (
	"github.com/000francisca0/Peluchemaniav3/domain/product"
	"github.com/000francisca0/Peluchemaniav3/domain/user"
	"github.com/000francisca0/Peluchemaniav3/modules/admin"
	"github.com/gofiber/fiber/v2"
)

// Dashboard handles GET /api/v1/admin/dashboard
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	sess, _ := currentSession(c)
	dash, err := h.svc.Admin.Dashboard(c.UserContext(), sess)
	if err != nil {
		return err
	}
	return c.JSON(dash)
}

// Activity handles GET /api/v1/admin/activity
func (h *Handlers) Activity(c *fiber.Ctx) error {
	return c.JSON(h.svc.Activity.Entries())
}

// ============================================================
// Products
// ============================================================

// AdminProducts handles GET /api/v1/admin/products?critical=true
func (h *Handlers) AdminProducts(c *fiber.Ctx) error {
	products, err := h.svc.Admin.Products(c.UserContext(), admin.ProductFilter{
		CriticalOnly: queryBool(c, "critical"),
	})
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// LowStock handles GET /api/v1/admin/products/low-stock
func (h *Handlers) LowStock(c *fiber.Ctx) error {
	sess, _ := currentSession(c)
	products, err := h.svc.Admin.LowStock(c.UserContext(), sess)
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// CreateProduct handles POST /api/v1/admin/products
func (h *Handlers) CreateProduct(c *fiber.Ctx) error {
	var req product.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	sess, _ := currentSession(c)
	products, err := h.svc.Admin.CreateProduct(c.UserContext(), sess, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(products)
}

// UpdateProduct handles PUT /api/v1/admin/products/:id
func (h *Handlers) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var req product.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	sess, _ := currentSession(c)
	products, err := h.svc.Admin.UpdateProduct(c.UserContext(), sess, id, req)
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// DeleteProduct handles DELETE /api/v1/admin/products/:id?confirm=true
func (h *Handlers) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	sess, _ := currentSession(c)
	products, err := h.svc.Admin.DeleteProduct(c.UserContext(), sess, id, queryBool(c, "confirm"))
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// ============================================================
// Categories
// ============================================================

// AdminCategories handles GET /api/v1/admin/categories
func (h *Handlers) AdminCategories(c *fiber.Ctx) error {
	categories, err := h.svc.Admin.Categories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

// CreateCategory handles POST /api/v1/admin/categories
func (h *Handlers) CreateCategory(c *fiber.Ctx) error {
	var req admin.CategoryPayload
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	sess, _ := currentSession(c)
	categories, err := h.svc.Admin.CreateCategory(c.UserContext(), sess, req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(categories)
}

// UpdateCategory handles PUT /api/v1/admin/categories/:id
func (h *Handlers) UpdateCategory(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var req admin.CategoryPayload
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	sess, _ := currentSession(c)
	categories, err := h.svc.Admin.UpdateCategory(c.UserContext(), sess, id, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

// DeleteCategory handles DELETE /api/v1/admin/categories/:id?confirm=true
func (h *Handlers) DeleteCategory(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	sess, _ := currentSession(c)
	categories, err := h.svc.Admin.DeleteCategory(c.UserContext(), sess, id, queryBool(c, "confirm"))
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

// ============================================================
// Users
// ============================================================

// Users handles GET /api/v1/admin/users
func (h *Handlers) Users(c *fiber.Ctx) error {
	sess, _ := currentSession(c)
	users, err := h.svc.Admin.Users(c.UserContext(), sess)
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// CreateUser handles POST /api/v1/admin/users
func (h *Handlers) CreateUser(c *fiber.Ctx) error {
	var req user.SaveUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	sess, _ := currentSession(c)
	users, err := h.svc.Admin.CreateUser(c.UserContext(), sess, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(users)
}

// UpdateUser handles PUT /api/v1/admin/users/:id
func (h *Handlers) UpdateUser(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var req user.SaveUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	sess, _ := currentSession(c)
	users, err := h.svc.Admin.UpdateUser(c.UserContext(), sess, id, req)
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// DeleteUser handles DELETE /api/v1/admin/users/:id?confirm=true
func (h *Handlers) DeleteUser(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	sess, _ := currentSession(c)
	users, err := h.svc.Admin.DeleteUser(c.UserContext(), sess, id, queryBool(c, "confirm"))
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// UserOrders handles GET /api/v1/admin/users/:id/orders
func (h *Handlers) UserOrders(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	sess, _ := currentSession(c)
	orders, err := h.svc.Admin.UserOrders(c.UserContext(), sess, id)
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

// ============================================================
// Orders and reports
// ============================================================

// Orders handles GET /api/v1/admin/orders
func (h *Handlers) Orders(c *fiber.Ctx) error {
	sess, _ := currentSession(c)
	orders, err := h.svc.Admin.Orders(c.UserContext(), sess)
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

// OrderDetails handles GET /api/v1/admin/orders/:id/details
func (h *Handlers) OrderDetails(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	sess, _ := currentSession(c)
	details, err := h.svc.Admin.OrderDetails(c.UserContext(), sess, id)
	if err != nil {
		return err
	}
	return c.JSON(details)
}

// ReportSummary handles GET /api/v1/admin/reports/summary?from=&to=
func (h *Handlers) ReportSummary(c *fiber.Ctx) error {
	sess, _ := currentSession(c)
	rep, err := h.svc.Reports.Report(c.UserContext(), sess, c.Query("from"), c.Query("to"))
	if err != nil {
		return err
	}
	return c.JSON(rep)
}

// ReportExport handles GET /api/v1/admin/reports/export?from=&to=
func (h *Handlers) ReportExport(c *fiber.Ctx) error {
	sess, _ := currentSession(c)
	export, err := h.svc.Reports.Export(c.UserContext(), sess, c.Query("from"), c.Query("to"))
	if err != nil {
		return err
	}

	c.Attachment(export.FileName)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(export.Data)
}
