package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatRoom gates access to a ride's realtime channel and message history.
// Members always mirror the owning ride's {rider} U {passengers} set as of the
// last lifecycle mutation.
type ChatRoom struct {
	ID             primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	RideID         primitive.ObjectID   `json:"ride_id" bson:"ride_id" validate:"required"`
	Members        []primitive.ObjectID `json:"members" bson:"members"`
	PinnedLocation *PinnedLocation      `json:"pinned_location" bson:"pinned_location"`
	CreatedAt      time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at" bson:"updated_at"`
}

// PinnedLocation is the last shared meeting point for a ride.
type PinnedLocation struct {
	Lat      float64            `json:"lat" bson:"lat"`
	Lng      float64            `json:"lng" bson:"lng"`
	Label    string             `json:"label" bson:"label"`
	PinnedBy primitive.ObjectID `json:"pinned_by" bson:"pinned_by"`
	PinnedAt time.Time          `json:"pinned_at" bson:"pinned_at"`
}

func (c *ChatRoom) HasMember(userID primitive.ObjectID) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}
