package routes

import (
	"github.com/gofiber/fiber/v2"

	"musicschool-news/interfaces/api/handlers"
	"musicschool-news/interfaces/api/middleware"
)

func SetupActivityLogRoutes(api fiber.Router, h *handlers.Handlers, jwtSecret string) {
	if h.ActivityLog == nil {
		return
	}

	activity := api.Group("/admin/activity", middleware.Protected(jwtSecret), middleware.AdminOnly())

	activity.Get("/types", h.ActivityLog.GetActivityTypes)
	activity.Get("/recent", h.ActivityLog.GetRecentActivity)
	activity.Get("/news/:id", h.ActivityLog.GetNewsActivity)
}
