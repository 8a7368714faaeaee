package websocket

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Handler struct {
	hub     *Hub
	handler EventHandler
}

func NewHandler(hub *Hub, eventHandler EventHandler) *Handler {
	return &Handler{
		hub:     hub,
		handler: eventHandler,
	}
}

// SetEventHandler wires the realtime event handler after construction, so the
// hub can be built before the services that consume it.
func (h *Handler) SetEventHandler(eventHandler EventHandler) {
	h.handler = eventHandler
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userObjectID, ok := userID.(primitive.ObjectID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(h.hub, h.handler, conn, userObjectID)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (h *Handler) GetHub() *Hub {
	return h.hub
}
