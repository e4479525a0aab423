package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/asramahub/asrama-go-api/internal/config"
	"github.com/asramahub/asrama-go-api/internal/handler"
	"github.com/asramahub/asrama-go-api/internal/middleware"
	"github.com/asramahub/asrama-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	RoomHandler       *handler.RoomHandler
	AssignmentHandler *handler.AssignmentHandler
	DisciplineHandler *handler.DisciplineHandler
	StudentHandler    *handler.StudentHandler
	ActivityHandler   *handler.ActivityHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	adminOnly := middleware.RequireRole("admin", "warden")
	writeLimit := middleware.RateLimit("occupancy-write", 30, time.Minute)

	if deps.RoomHandler != nil {
		rooms := api.Group("/rooms", jwtMiddleware, adminOnly)
		deps.RoomHandler.Register(rooms)
	}

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware, adminOnly, writeLimit)
		deps.AssignmentHandler.Register(assignments)
	}

	if deps.DisciplineHandler != nil {
		actions := api.Group("/disciplinary-actions", jwtMiddleware, adminOnly, writeLimit)
		deps.DisciplineHandler.Register(actions)
	}

	students := api.Group("/students", jwtMiddleware)
	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(students)
	}
	if deps.DisciplineHandler != nil {
		deps.DisciplineHandler.RegisterStudentRoutes(students)
	}

	if deps.ActivityHandler != nil {
		activity := api.Group("/activity", jwtMiddleware, adminOnly)
		deps.ActivityHandler.Register(activity)
	}
}
