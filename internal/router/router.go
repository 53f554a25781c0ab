package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fileflow/fileflow-api/internal/config"
	"github.com/fileflow/fileflow-api/internal/handler"
	"github.com/fileflow/fileflow-api/internal/middleware"
	"github.com/fileflow/fileflow-api/internal/models"
	"github.com/fileflow/fileflow-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	UserHandler         *handler.UserHandler
	SubmissionHandler   *handler.SubmissionHandler
	AssignmentHandler   *handler.AssignmentHandler
	CommentHandler      *handler.CommentHandler
	NotificationHandler *handler.NotificationHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.UserHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", 10, time.Minute))
		deps.UserHandler.Register(auth)
	}

	if deps.SubmissionHandler != nil {
		files := api.Group("/files", jwtMiddleware)
		deps.SubmissionHandler.Register(files)

		teamLeaderFiles := api.Group("/files", jwtMiddleware,
			middleware.RequireRole(models.RoleTeamLeader))
		adminFiles := api.Group("/files", jwtMiddleware,
			middleware.RequireRole(models.RoleAdmin))
		deps.SubmissionHandler.RegisterReviews(teamLeaderFiles, adminFiles)
	}

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments)

		management := api.Group("/assignments", jwtMiddleware,
			middleware.RequireRole(models.RoleTeamLeader, models.RoleAdmin))
		deps.AssignmentHandler.RegisterManagement(management)
	}

	if deps.CommentHandler != nil {
		comments := api.Group("/comments", jwtMiddleware)
		deps.CommentHandler.Register(comments)
	}

	if deps.NotificationHandler != nil {
		notifications := api.Group("/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}
}
