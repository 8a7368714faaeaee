package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageType string

const (
	MessageTypeText     MessageType = "TEXT"
	MessageTypeSystem   MessageType = "SYSTEM"
	MessageTypeLocation MessageType = "LOCATION"
)

// System event tags carried in SYSTEM message meta.
const (
	EventPickupCountdownStarted = "PICKUP_COUNTDOWN_STARTED"
	EventPickupExpired          = "PICKUP_EXPIRED"
	EventRideCancelled          = "RIDE_CANCELLED"
	EventRideCompleted          = "RIDE_COMPLETED"
	EventPassengerLeft          = "PASSENGER_LEFT"
	EventPanicAlert             = "PANIC_ALERT"
)

// Message is an append-only chat entry for a ride, ordered by creation time.
// Sender is nil for SYSTEM messages.
type Message struct {
	ID        primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	RideID    primitive.ObjectID  `json:"ride_id" bson:"ride_id" validate:"required"`
	Type      MessageType         `json:"type" bson:"type" default:"TEXT"`
	Sender    *primitive.ObjectID `json:"sender" bson:"sender"`
	Text      string              `json:"text" bson:"text"`
	Meta      bson.M              `json:"meta" bson:"meta"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
}
