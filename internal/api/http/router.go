package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-platform/internal/api/http/handlers"
	"github.com/spec-kit/event-platform/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Events         *handlers.EventsHandler
	Orders         *handlers.OrdersHandler
	Comments       *handlers.CommentsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Get("/users/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)
	authGroup.Patch("/users/me", cfg.AuthMiddleware.Handle, cfg.Users.UpdateMe)

	eventsGroup := app.Group("/events")
	eventsGroup.Get("/", cfg.Events.ListEvents)
	// /my registered before /:id so the literal segment wins
	eventsGroup.Get("/my", cfg.AuthMiddleware.Handle, cfg.Events.ListMyEvents)
	eventsGroup.Get("/:id", cfg.Events.GetEvent)
	eventsGroup.Post("/", cfg.AuthMiddleware.Handle, cfg.Events.CreateEvent)
	eventsGroup.Put("/:id", cfg.AuthMiddleware.Handle, cfg.Events.UpdateEvent)
	eventsGroup.Delete("/:id", cfg.AuthMiddleware.Handle, cfg.Events.DeleteEvent)
	eventsGroup.Post("/:id/register", cfg.AuthMiddleware.Handle, cfg.Orders.RegisterForEvent)

	ordersGroup := app.Group("/orders", cfg.AuthMiddleware.Handle)
	ordersGroup.Get("/", cfg.Orders.ListMyOrders)
	ordersGroup.Get("/:id", cfg.Orders.GetOrder)
	ordersGroup.Delete("/:id", cfg.Orders.CancelOrder)

	commentsGroup := app.Group("/comments")
	commentsGroup.Get("/events/:id", cfg.Comments.ListEventComments)
	commentsGroup.Post("/", cfg.AuthMiddleware.Handle, cfg.Comments.CreateComment)
	commentsGroup.Delete("/:id", cfg.AuthMiddleware.Handle, cfg.Comments.DeleteComment)
}
