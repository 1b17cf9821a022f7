package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	websocketManager "musicschool-news/infrastructure/websocket"
	"musicschool-news/interfaces/api/handlers"
	"musicschool-news/interfaces/api/middleware"
	"musicschool-news/pkg/config"
)

func SetupRoutes(app *fiber.App, h *handlers.Handlers, cfg *config.Config, hub *websocketManager.Hub, gatherer prometheus.Gatherer) {
	// Setup health and root routes
	SetupHealthRoutes(app, h.Health, cfg.App.Name)

	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// API version group
	api := app.Group("/api/v1")
	api.Use(middleware.RateLimiter(&cfg.RateLimit))

	SetupNewsRoutes(api, h, cfg.JWT.Secret)
	SetupActivityLogRoutes(api, h, cfg.JWT.Secret)
	SetupLogRoutes(api, h, cfg.JWT.Secret)

	// WebSocket routes hang off the app, not the api group
	if hub != nil {
		SetupWebSocketRoutes(app, hub, cfg.JWT.Secret)
	}
}
