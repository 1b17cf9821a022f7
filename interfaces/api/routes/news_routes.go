package routes

import (
	"github.com/gofiber/fiber/v2"

	"musicschool-news/interfaces/api/handlers"
	"musicschool-news/interfaces/api/middleware"
)

func SetupNewsRoutes(router fiber.Router, h *handlers.Handlers, jwtSecret string) {
	news := router.Group("/news")

	// Public reads. A valid admin token unlocks hidden articles.
	news.Get("/", middleware.Optional(jwtSecret), h.News.ListNews)
	news.Get("/id/:id", middleware.Protected(jwtSecret), middleware.AdminOnly(), h.News.GetNewsByID)
	news.Get("/:slug", middleware.Optional(jwtSecret), h.News.GetNewsBySlug)
	news.Get("/:id/media", middleware.Optional(jwtSecret), h.News.ListMedia)

	// Everything below requires an admin
	admin := news.Group("", middleware.Protected(jwtSecret), middleware.AdminOnly())

	admin.Post("/", h.News.CreateNews)
	admin.Put("/:id", h.News.UpdateNews)
	admin.Patch("/:id", h.News.UpdateNews)
	admin.Delete("/:id", h.News.DeleteNews)

	admin.Put("/:id/media/order", h.News.ReorderMedia)
	admin.Put("/:id/media/:assetId/principal", h.News.SetPrincipal)
	admin.Delete("/:id/media/principal", h.News.ClearPrincipal)
	admin.Delete("/media/:assetId", h.News.DeleteMedia)
}
