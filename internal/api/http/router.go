package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-tickets/internal/api/http/handlers"
	"github.com/spec-kit/storefront-tickets/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Orders         *handlers.OrdersHandler
	Loyalty        *handlers.LoyaltyHandler
	Products       *handlers.ProductsHandler
	Discounts      *handlers.DiscountsHandler
	AuthMiddleware *auth.AuthMiddleware
	// RateLimiter runs after authentication; nil disables it.
	RateLimiter fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	chain := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAnyRole()}
	if cfg.RateLimiter != nil {
		chain = append(chain, cfg.RateLimiter)
	}
	tickets := app.Group("/tickets", chain...)
	tickets.Post("/", cfg.Tickets.OpenTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/close", cfg.Tickets.CloseTicket)
	tickets.Post("/:id/items", cfg.Tickets.AddItem)
	tickets.Delete("/:id/items/:productId", cfg.Tickets.RemoveItem)
	tickets.Post("/:id/discount", cfg.Tickets.ApplyCode)
	tickets.Post("/:id/confirm", cfg.Tickets.Confirm)
	tickets.Post("/:id/cancel", cfg.Tickets.Cancel)
	tickets.Post("/:id/gift", cfg.Tickets.SetGiftRecipient)

	staff := app.Group("/staff", with(chain, auth.RequireStaff())...)
	staff.Get("/tickets", cfg.StaffTickets.ListTickets)
	staff.Get("/tickets/:id/controls", cfg.StaffTickets.Controls)
	staff.Post("/tickets/:id/claim", cfg.StaffTickets.Claim)
	staff.Delete("/tickets/:id/claim", cfg.StaffTickets.Unclaim)
	staff.Put("/products/:id", cfg.Products.PutProduct)
	staff.Post("/discounts", cfg.Discounts.CreatePromo)
	staff.Post("/loyalty/adjust", cfg.Loyalty.AdjustPoints)

	app.Get("/products", with(chain, cfg.Products.ListProducts)...)

	orders := app.Group("/orders", chain...)
	orders.Get("/:id", cfg.Orders.GetOrder)
	orders.Post("/:id/payment", auth.RequireStaff(), cfg.Orders.ConfirmPayment)
	orders.Post("/:id/deliver", auth.RequireStaff(), cfg.Orders.MarkDelivered)
	app.Get("/users/:id/orders", with(chain, cfg.Orders.History)...)

	loyalty := app.Group("/loyalty", chain...)
	loyalty.Get("/me", cfg.Loyalty.Balance)
	loyalty.Post("/redeem", cfg.Loyalty.Redeem)
	loyalty.Get("/leaderboard", cfg.Loyalty.Leaderboard)
	loyalty.Get("/referral", cfg.Loyalty.Referral)
}

// with returns a fresh slice so route groups never share a backing array.
func with(chain []fiber.Handler, more ...fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(chain)+len(more))
	out = append(out, chain...)
	return append(out, more...)
}
