package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/complaintrack/complaint-service/internal/api/http/handlers"
	"github.com/complaintrack/complaint-service/internal/auth"
	"github.com/complaintrack/complaint-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/tickets")
	tickets.Get("/", cfg.Tickets.List)
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Put("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", cfg.Tickets.Delete)
	tickets.Post("/:id/assign", cfg.Tickets.Assign)
	tickets.Post("/:id/status", auth.RequireRole(domain.RoleAgent, domain.RoleAdmin), cfg.Tickets.UpdateStatus)

	tickets.Get("/:id/comments", cfg.Comments.ListByTicket)
	tickets.Post("/:id/comments", cfg.Comments.Add)
	api.Put("/comments/:id", cfg.Comments.Update)
	api.Delete("/comments/:id", cfg.Comments.Delete)

	api.Get("/agents", auth.RequireRole(domain.RoleAgent, domain.RoleAdmin), cfg.Users.ListAgents)
	api.Get("/dashboard/stats", auth.RequireRole(domain.RoleAgent, domain.RoleAdmin), cfg.Dashboard.Stats)
}
