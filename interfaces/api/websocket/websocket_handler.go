package websocket

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	websocketManager "musicschool-news/infrastructure/websocket"
	"musicschool-news/interfaces/api/middleware"
	"musicschool-news/pkg/logger"
	"musicschool-news/pkg/utils"
)

type WebSocketHandler struct {
	hub *websocketManager.Hub
}

func NewWebSocketHandler(hub *websocketManager.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// WebSocketUpgrade rejects plain HTTP requests and records whether the caller is an admin.
func (h *WebSocketHandler) WebSocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	c.Locals("is_admin", middleware.IsAdmin(c))
	return c.Next()
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	var userID uuid.UUID
	if user, ok := c.Locals("user").(*utils.UserContext); ok {
		userID = user.ID
	}
	isAdmin, _ := c.Locals("is_admin").(bool)

	if userID == uuid.Nil {
		userID = uuid.New()
		logger.WebSocket("anonymous_connected", "Anonymous subscriber connected", map[string]interface{}{"user_id": userID.String()})
	} else {
		logger.WebSocket("authenticated_connected", "Authenticated subscriber connected", map[string]interface{}{"user_id": userID.String()})
	}

	h.hub.RegisterClient(c, userID, isAdmin)
	defer h.hub.UnregisterClient(c)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WebSocketError("read_message", "WebSocket read error", err, map[string]interface{}{"user_id": userID.String()})
			}
			return
		}

		h.hub.HandleMessage(c, messageType, message)
	}
}
