package routes

import (
	"github.com/gofiber/fiber/v2"

	"musicschool-news/interfaces/api/handlers"
	"musicschool-news/interfaces/api/middleware"
)

// SetupLogRoutes sets up log-related routes
func SetupLogRoutes(router fiber.Router, h *handlers.Handlers, jwtSecret string) {
	admin := router.Group("/admin", middleware.Protected(jwtSecret), middleware.AdminOnly())

	admin.Get("/logs", h.Log.GetLogs)
	admin.Get("/logs/files", h.Log.GetLogFiles)
	admin.Get("/logs/stats", h.Log.GetLogStats)
	admin.Get("/logs/news/:id", h.Log.GetNewsLogs)
}
