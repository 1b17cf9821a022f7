package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	websocketManager "musicschool-news/infrastructure/websocket"
	"musicschool-news/interfaces/api/middleware"
	websocketHandler "musicschool-news/interfaces/api/websocket"
)

func SetupWebSocketRoutes(app *fiber.App, hub *websocketManager.Hub, jwtSecret string) {
	wsHandler := websocketHandler.NewWebSocketHandler(hub)

	// Browsers cannot set headers on WS connections, so the token may come in the query string
	app.Use("/ws/news", middleware.OptionalWithQueryToken(jwtSecret), wsHandler.WebSocketUpgrade)
	app.Get("/ws/news", websocket.New(wsHandler.HandleWebSocket))
}
