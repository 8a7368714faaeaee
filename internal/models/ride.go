package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideStatus string
type GenderPreference string

const (
	RideStatusOpen       RideStatus = "open"
	RideStatusPickupWait RideStatus = "pickup_wait"
	RideStatusStarted    RideStatus = "started"
	RideStatusCancelled  RideStatus = "cancelled"
	RideStatusCompleted  RideStatus = "completed"

	GenderPreferenceAny    GenderPreference = "any"
	GenderPreferenceFemale GenderPreference = "female"
	GenderPreferenceMale   GenderPreference = "male"
)

// GeoPoint is a resolved address with coordinates.
type GeoPoint struct {
	Address string  `json:"address" bson:"address" validate:"required"`
	Lat     float64 `json:"lat" bson:"lat" validate:"min=-90,max=90"`
	Lng     float64 `json:"lng" bson:"lng" validate:"min=-180,max=180"`
}

type Ride struct {
	ID               primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Rider            primitive.ObjectID   `json:"rider" bson:"rider" validate:"required"`
	Origin           GeoPoint             `json:"origin" bson:"origin" validate:"required"`
	Destination      GeoPoint             `json:"destination" bson:"destination" validate:"required"`
	Stops            []GeoPoint           `json:"stops" bson:"stops"`
	Seats            int                  `json:"seats" bson:"seats" validate:"min=1,max=6"`
	GenderPreference GenderPreference     `json:"gender_preference" bson:"gender_preference" default:"any"`
	RadiusMeters     int                  `json:"radius_meters" bson:"radius_meters" default:"1000"`
	Passengers       []primitive.ObjectID `json:"passengers" bson:"passengers"`
	Status           RideStatus           `json:"status" bson:"status" default:"open"`

	// Pickup countdown. The deadline is set once per entry into pickup_wait and
	// the notified flag guards the one-time expiry notice.
	PickupDeadline        *time.Time `json:"pickup_deadline" bson:"pickup_deadline"`
	PickupExpiredNotified bool       `json:"pickup_expired_notified" bson:"pickup_expired_notified" default:"false"`

	// Set when this ride was materialized from an accepted scheduled ride.
	ScheduledFromID *primitive.ObjectID `json:"scheduled_from_id" bson:"scheduled_from_id"`
	ScheduledFor    *time.Time          `json:"scheduled_for" bson:"scheduled_for"`

	CancelledAt *time.Time `json:"cancelled_at" bson:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at" bson:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// IsTerminal reports whether the ride can no longer change state.
func (r *Ride) IsTerminal() bool {
	return r.Status == RideStatusCancelled || r.Status == RideStatusCompleted
}

func (r *Ride) IsRider(userID primitive.ObjectID) bool {
	return r.Rider == userID
}

func (r *Ride) HasPassenger(userID primitive.ObjectID) bool {
	for _, p := range r.Passengers {
		if p == userID {
			return true
		}
	}
	return false
}

func (r *Ride) IsParticipant(userID primitive.ObjectID) bool {
	return r.IsRider(userID) || r.HasPassenger(userID)
}

// ParticipantIDs returns rider plus passengers.
func (r *Ride) ParticipantIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(r.Passengers)+1)
	ids = append(ids, r.Rider)
	ids = append(ids, r.Passengers...)
	return ids
}

// RideWithDistance is a ride annotated with the distance from a query point to
// its origin, rounded to whole meters.
type RideWithDistance struct {
	*Ride          `bson:",inline"`
	DistanceMeters int `json:"distance_meters" bson:"-"`
}
