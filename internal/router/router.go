package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/promptcoach-api/internal/config"
	"github.com/noah-isme/promptcoach-api/internal/handler"
	"github.com/noah-isme/promptcoach-api/internal/middleware"
	"github.com/noah-isme/promptcoach-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EvaluationHandler *handler.EvaluationHandler
	AccountHandler    *handler.AccountHandler
	ModelHandler      *handler.ModelHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.ModelHandler != nil {
		deps.ModelHandler.Register(api.Group("/models"))
	}

	if deps.EvaluationHandler != nil {
		evaluations := api.Group("/evaluations", middleware.OptionalJWT(cfg.JWTSecret))
		deps.EvaluationHandler.Register(evaluations, middleware.RateLimit("evaluate", cfg.EvaluateRateLimit, cfg.RateLimitWindow))
	}

	if deps.AccountHandler != nil {
		me := api.Group("/me", middleware.JWTProtected(cfg.JWTSecret))
		deps.AccountHandler.Register(me)
	}
}
