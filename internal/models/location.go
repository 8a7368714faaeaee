package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserLocation is a user's last known coordinate, one document per user.
type UserLocation struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	Lat       float64            `json:"lat" bson:"lat" validate:"min=-90,max=90"`
	Lng       float64            `json:"lng" bson:"lng" validate:"min=-180,max=180"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}
