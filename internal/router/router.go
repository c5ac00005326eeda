package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Exarkun1/pylab4/internal/config"
	"github.com/Exarkun1/pylab4/internal/handlers"
	"github.com/Exarkun1/pylab4/internal/logging"
	"github.com/Exarkun1/pylab4/internal/middleware"
	"github.com/Exarkun1/pylab4/internal/utils"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, svc handlers.TableService, cfg config.ServerConfig, version string) *handlers.Handler {
	h := handlers.New(logger, svc, version)

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddlewareWithConfig(logger, logging.DefaultMiddlewareConfig()))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	v1 := app.Group("/v1", middleware.APIKeyAuth(logger, cfg.APIKeys))
	v1.Get("/table", h.GetTable)
	v1.Get("/table/columns/:column", h.GetColumn)
	v1.Get("/extremes", h.GetExtremes)
	v1.Get("/chart", h.GetChart)

	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, svc handlers.TableService, cfg config.ServerConfig, version string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "tsanalyser",
		DisableStartupMessage: true,
		ReadTimeout:           utils.DefaultRequestTimeout,
		WriteTimeout:          utils.DefaultRequestTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, svc, cfg, version)

	return app
}
