package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/spec-kit/moderation-service/internal/api/http/handlers"
	"github.com/spec-kit/moderation-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Chats          *handlers.ChatsHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
		app.Get("/metrics", func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())

	tickets := api.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.StaffTickets.ListTickets)
	tickets.Get("/mine", cfg.Tickets.ListMine)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/messages", cfg.Tickets.ListMessages)
	tickets.Post("/:id/messages", cfg.Tickets.AddMessage)

	manageComplaints := auth.RequireCapability(auth.CapManageComplaints)
	tickets.Post("/:id/assign", manageComplaints, cfg.StaffTickets.Assign)
	tickets.Post("/:id/resolve", manageComplaints, cfg.StaffTickets.Resolve)
	tickets.Post("/:id/reject", manageComplaints, cfg.StaffTickets.Reject)

	api.Post("/shops/:shopId/chats", cfg.Chats.OpenChat)
	api.Get("/shops/:shopId/chats", cfg.Chats.ListShopChats)
	api.Get("/chats", cfg.Chats.ListMyChats)
	api.Get("/chats/:id/messages", cfg.Chats.ListMessages)
	api.Post("/chats/:id/messages", cfg.Chats.AddMessage)
	api.Post("/chats/:id/read", cfg.Chats.MarkRead)

	blockUsers := auth.RequireCapability(auth.CapBlockUsers)
	api.Post("/users/:id/block", blockUsers, cfg.Users.Block)
	api.Post("/users/:id/unblock", blockUsers, cfg.Users.Unblock)
	api.Get("/users/:id/block-log", blockUsers, cfg.Users.BlockLog)

	api.Get("/notifications/counts", cfg.Users.Counts)
}
