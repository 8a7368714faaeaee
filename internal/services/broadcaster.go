package services

import "go.mongodb.org/mongo-driver/bson/primitive"

// Broadcaster is the realtime fan-out surface the services need. The
// websocket hub satisfies it; tests substitute a recorder.
type Broadcaster interface {
	BroadcastToRide(rideID primitive.ObjectID, eventType string, data map[string]interface{})
	SendToUser(userID primitive.ObjectID, eventType string, data map[string]interface{})
	EvictFromRide(userID, rideID primitive.ObjectID)
}

// Realtime event names shared between the chat channel and ride lifecycle.
const (
	EventChatNew       = "chat:new"
	EventChatPinned    = "chat:pinned"
	EventRideSystem    = "ride:system"
	EventRideDistance  = "ride:distance:update"
	EventNotification  = "notification:new"
	EventErrorResponse = "error"
	EventChatJoined    = "chat:joined"
)
