package websocket

import (
	"encoding/json"
	"sync"

	fiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"musicschool-news/domain/services"
	"musicschool-news/pkg/logger"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type client struct {
	userID  uuid.UUID
	isAdmin bool
	mu      sync.Mutex
}

// Message is the envelope every frame sent to subscribers uses.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Hub tracks connected subscribers and fans news events out to them.
// Events about hidden articles only reach admin connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[Conn]*client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[Conn]*client)}
}

func (h *Hub) RegisterClient(conn Conn, userID uuid.UUID, isAdmin bool) {
	h.mu.Lock()
	h.clients[conn] = &client{userID: userID, isAdmin: isAdmin}
	count := len(h.clients)
	h.mu.Unlock()

	logger.WebSocket("client_registered", "Client registered", map[string]interface{}{
		"user_id": userID.String(),
		"admin":   isAdmin,
		"clients": count,
	})
}

func (h *Hub) UnregisterClient(conn Conn) {
	h.mu.Lock()
	cl, ok := h.clients[conn]
	delete(h.clients, conn)
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		logger.WebSocket("client_unregistered", "Client unregistered", map[string]interface{}{
			"user_id": cl.userID.String(),
			"clients": count,
		})
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish implements services.NewsEventPublisher.
func (h *Hub) Publish(event services.NewsEvent) {
	payload, err := json.Marshal(Message{Type: string(event.Type), Data: event})
	if err != nil {
		logger.WebSocketError("marshal_event", "Failed to marshal news event", err, nil)
		return
	}

	h.mu.RLock()
	targets := make(map[Conn]*client, len(h.clients))
	for conn, cl := range h.clients {
		if event.Visible || cl.isAdmin {
			targets[conn] = cl
		}
	}
	h.mu.RUnlock()

	var failed []Conn
	for conn, cl := range targets {
		if err := cl.write(conn, payload); err != nil {
			logger.WebSocketError("broadcast_failed", "Failed to deliver news event", err, map[string]interface{}{
				"user_id": cl.userID.String(),
				"event":   string(event.Type),
			})
			failed = append(failed, conn)
		}
	}

	for _, conn := range failed {
		h.UnregisterClient(conn)
		conn.Close()
	}
}

// HandleMessage answers client frames. Only "ping" is understood.
func (h *Hub) HandleMessage(conn Conn, messageType int, message []byte) {
	if messageType != fiberws.TextMessage {
		return
	}

	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	if msg.Type != "ping" {
		return
	}

	h.mu.RLock()
	cl, ok := h.clients[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	pong, _ := json.Marshal(Message{Type: "pong"})
	if err := cl.write(conn, pong); err != nil {
		logger.WebSocketError("pong_failed", "Failed to answer ping", err, map[string]interface{}{"user_id": cl.userID.String()})
	}
}

func (c *client) write(conn Conn, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return conn.WriteMessage(fiberws.TextMessage, payload)
}
