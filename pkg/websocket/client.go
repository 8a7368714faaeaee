package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Configure properly in production
	},
}

// ConfigureUpgrader overrides the upgrader buffers. Call before the first
// connection is accepted.
func ConfigureUpgrader(readBufferSize, writeBufferSize int, enableCompression bool) {
	if readBufferSize > 0 {
		upgrader.ReadBufferSize = readBufferSize
	}
	if writeBufferSize > 0 {
		upgrader.WriteBufferSize = writeBufferSize
	}
	upgrader.EnableCompression = enableCompression
}

// EventHandler receives every inbound client event. Implementations own all
// authorization: the hub only moves bytes.
type EventHandler interface {
	HandleEvent(ctx context.Context, client *Client, event *Event)
}

type Client struct {
	hub     *Hub
	handler EventHandler
	conn    *websocket.Conn
	send    chan []byte
	UserID  primitive.ObjectID
	rooms   map[string]bool
}

func NewClient(hub *Hub, handler EventHandler, conn *websocket.Conn, userID primitive.ObjectID) *Client {
	return &Client{
		hub:     hub,
		handler: handler,
		conn:    conn,
		send:    make(chan []byte, 256),
		UserID:  userID,
		rooms:   make(map[string]bool),
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(message []byte) {
	var event Event
	if err := json.Unmarshal(message, &event); err != nil {
		log.Printf("Error unmarshaling client event: %v", err)
		return
	}

	// The sender identity always comes from the authenticated connection.
	event.UserID = c.UserID.Hex()
	event.Timestamp = time.Now().Unix()

	if c.handler == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c.handler.HandleEvent(ctx, c, &event)
}
