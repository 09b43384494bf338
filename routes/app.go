package routes

import (
	"bizdocs-backend/config"
	"bizdocs-backend/controllers"
	"bizdocs-backend/metrics"
	"bizdocs-backend/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// NewApp builds the fiber app with the global error handler, body limit, CORS,
// rate limiting, request metrics and every route.
func NewApp(cfg *config.Config, h *controllers.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    cfg.BodyLimitBytes(),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: false,
		AllowHeaders:     "Origin, Content-Type, Accept, Idempotency-Key",
	}))

	if cfg.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitMax,
			Expiration: cfg.RateLimitWindow(),
			Next: func(c *fiber.Ctx) bool {
				return c.Path() == "/healthz" || c.Path() == "/metrics"
			},
		}))
	}

	app.Use(metrics.Middleware())

	Register(app, h)
	return app
}
