package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	rooms      map[string]map[*Client]bool
	mutex      sync.RWMutex
}

type Event struct {
	Type      string                 `json:"type"`
	RideID    string                 `json:"ride_id,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rooms:      make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true
	log.Printf("Client registered: %s", client.UserID.Hex())

	// Every user listens on a personal room for direct events.
	h.joinRoom(client, "user_"+client.UserID.Hex())
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; ok {
		h.dropClient(client)
		log.Printf("Client unregistered: %s", client.UserID.Hex())
	}
}

// dropClient removes the connection from every room and closes its send
// channel. Callers must hold the write lock; the clients map entry guards
// the close, so a connection dropped twice is closed once.
func (h *Hub) dropClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	for roomID, room := range h.rooms {
		if _, exists := room[client]; exists {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.rooms = make(map[string]map[*Client]bool)
}

func (h *Hub) sendToRoom(roomID string, event Event) {
	data, _ := json.Marshal(event)

	// Write lock: evicting a slow consumer mutates the client and room maps.
	h.mutex.Lock()
	defer h.mutex.Unlock()

	room, exists := h.rooms[roomID]
	if !exists {
		return
	}

	for client := range room {
		select {
		case client.send <- data:
		default:
			// Slow consumer, drop the connection.
			h.dropClient(client)
		}
	}
}

// BroadcastToRide delivers an event to every socket joined to the ride room.
func (h *Hub) BroadcastToRide(rideID primitive.ObjectID, eventType string, data map[string]interface{}) {
	h.sendToRoom("ride_"+rideID.Hex(), Event{
		Type:      eventType,
		RideID:    rideID.Hex(),
		Timestamp: time.Now().Unix(),
		Data:      data,
	})
}

// SendToUser delivers an event to the user's personal room.
func (h *Hub) SendToUser(userID primitive.ObjectID, eventType string, data map[string]interface{}) {
	h.sendToRoom("user_"+userID.Hex(), Event{
		Type:      eventType,
		UserID:    userID.Hex(),
		Timestamp: time.Now().Unix(),
		Data:      data,
	})
}

// SendToClient delivers an event to a single connection.
func (h *Hub) SendToClient(client *Client, eventType string, data map[string]interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}
	payload, _ := json.Marshal(event)

	h.mutex.Lock()
	defer h.mutex.Unlock()
	select {
	case client.send <- payload:
	default:
		h.dropClient(client)
	}
}

func (h *Hub) joinRoom(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

// JoinRide subscribes the connection to the ride room. Membership checks
// happen before this is called, never inside the hub.
func (h *Hub) JoinRide(client *Client, rideID primitive.ObjectID) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.joinRoom(client, "ride_"+rideID.Hex())
}

func (h *Hub) LeaveRide(client *Client, rideID primitive.ObjectID) {
	h.leaveRoom(client, "ride_"+rideID.Hex())
}

func (h *Hub) leaveRoom(client *Client, roomID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if room, exists := h.rooms[roomID]; exists {
		delete(room, client)
		delete(client.rooms, roomID)

		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// EvictFromRide removes every connection of the given user from the ride
// room, used when a participant leaves or is removed.
func (h *Hub) EvictFromRide(userID, rideID primitive.ObjectID) {
	roomID := "ride_" + rideID.Hex()

	h.mutex.Lock()
	defer h.mutex.Unlock()

	room, exists := h.rooms[roomID]
	if !exists {
		return
	}
	for client := range room {
		if client.UserID == userID {
			delete(room, client)
			delete(client.rooms, roomID)
		}
	}
	if len(room) == 0 {
		delete(h.rooms, roomID)
	}
}
