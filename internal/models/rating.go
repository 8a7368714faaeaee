package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rating is a post-ride rating from one participant to another. A unique index
// on (ride_id, from_user, to_user) rejects duplicates.
type Rating struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RideID      primitive.ObjectID `json:"ride_id" bson:"ride_id" validate:"required"`
	FromUser    primitive.ObjectID `json:"from_user" bson:"from_user" validate:"required"`
	ToUser      primitive.ObjectID `json:"to_user" bson:"to_user" validate:"required"`
	Behavior    int                `json:"behavior" bson:"behavior" validate:"min=1,max=5"`
	Punctuality int                `json:"punctuality" bson:"punctuality" validate:"min=1,max=5"`
	Safety      int                `json:"safety" bson:"safety" validate:"min=1,max=5"`
	Comment     string             `json:"comment" bson:"comment"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

// Composite returns the mean of the three sub-ratings.
func (r *Rating) Composite() float64 {
	return float64(r.Behavior+r.Punctuality+r.Safety) / 3
}
