package api

import (
	"github.com/000francisca0/Peluchemaniav3/middleware/ratelimit"
	"github.com/000francisca0/Peluchemaniav3/modules/admin"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Rate limit rules applied by the routes.
const (
	RuleLogin    = "login"
	RuleCheckout = "checkout"
)

// RouteLimiter builds per-route rate limit handlers.
type RouteLimiter interface {
	Handler(rule string, keyFn ratelimit.KeyFunc) fiber.Handler
}

// NewApp builds the Fiber application with every route mounted. A nil
// limiter disables rate limiting.
func NewApp(h *Handlers, limiter RouteLimiter) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Peluchemania",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,Idempotency-Key",
	}))

	setupRoutes(app, h, limiter)
	return app
}

func setupRoutes(app *fiber.App, h *Handlers, limiter RouteLimiter) {
	limit := func(rule string, keyFn ratelimit.KeyFunc) fiber.Handler {
		if limiter == nil {
			return func(c *fiber.Ctx) error { return c.Next() }
		}
		return limiter.Handler(rule, keyFn)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.Post("/login", limit(RuleLogin, ratelimit.ByIP), h.Login)
	auth.Post("/register", limit(RuleLogin, ratelimit.ByIP), h.Register)

	v1.Get("/products", h.Products)
	v1.Get("/products/offers", h.Offers)
	v1.Get("/products/:id", h.Product)
	v1.Get("/categories", h.Categories)
	v1.Get("/categories/:id/products", h.CategoryProducts)

	// Session routes
	requireSession := SessionMiddleware(h.svc.Sessions)

	auth.Post("/logout", requireSession, h.Logout)

	v1.Get("/session", requireSession, h.Session)
	v1.Put("/session/address", requireSession, h.UpdateAddress)

	cart := v1.Group("/cart", requireSession)
	cart.Get("/", h.Cart)
	cart.Delete("/", h.ClearCart)
	cart.Post("/items", h.AddCartItem)
	cart.Post("/items/:id/decrement", h.DecrementCartItem)
	cart.Delete("/items/:id", h.RemoveCartItem)

	checkout := v1.Group("/checkout", requireSession)
	checkout.Get("/", h.Checkout)
	checkout.Post("/", limit(RuleCheckout, ratelimit.ByLocal(LocalSessionID)), h.SubmitCheckout)

	// Back-office routes
	back := v1.Group("/admin", requireSession)
	back.Get("/dashboard", RequireSection(admin.SectionProducts), h.Dashboard)
	back.Get("/activity", RequireSection(admin.SectionActivity), h.Activity)

	products := back.Group("/products", RequireSection(admin.SectionProducts))
	products.Get("/", h.AdminProducts)
	products.Get("/low-stock", h.LowStock)
	products.Post("/", h.CreateProduct)
	products.Put("/:id", h.UpdateProduct)
	products.Delete("/:id", h.DeleteProduct)

	categories := back.Group("/categories", RequireSection(admin.SectionCategories))
	categories.Get("/", h.AdminCategories)
	categories.Post("/", h.CreateCategory)
	categories.Put("/:id", h.UpdateCategory)
	categories.Delete("/:id", h.DeleteCategory)

	users := back.Group("/users", RequireSection(admin.SectionUsers))
	users.Get("/", h.Users)
	users.Post("/", h.CreateUser)
	users.Put("/:id", h.UpdateUser)
	users.Delete("/:id", h.DeleteUser)
	users.Get("/:id/orders", h.UserOrders)

	orders := back.Group("/orders", RequireSection(admin.SectionOrders))
	orders.Get("/", h.Orders)
	orders.Get("/:id/details", h.OrderDetails)

	reports := back.Group("/reports", RequireSection(admin.SectionReports))
	reports.Get("/summary", h.ReportSummary)
	reports.Get("/export", h.ReportExport)
}
