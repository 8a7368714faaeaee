package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ScheduleStatus string

const (
	ScheduleStatusScheduled ScheduleStatus = "scheduled"
	ScheduleStatusMatched   ScheduleStatus = "matched"
	ScheduleStatusCancelled ScheduleStatus = "cancelled"
)

// ScheduledRide is a future-dated ride intent. An accepted schedule ends as two
// records in terminal "matched" state: the creator's original and a generated
// acceptor copy, so both parties see it in their own list.
type ScheduledRide struct {
	ID   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	User primitive.ObjectID `json:"user" bson:"user" validate:"required"`

	// For an acceptor copy, the original creator of the schedule.
	HostUser *primitive.ObjectID `json:"host_user" bson:"host_user"`

	Origin           GeoPoint         `json:"origin" bson:"origin" validate:"required"`
	Destination      GeoPoint         `json:"destination" bson:"destination" validate:"required"`
	Seats            int              `json:"seats" bson:"seats" default:"2"`
	GenderPreference GenderPreference `json:"gender_preference" bson:"gender_preference" default:"any"`
	RadiusMeters     int              `json:"radius_meters" bson:"radius_meters" default:"1000"`

	ScheduledFor time.Time      `json:"scheduled_for" bson:"scheduled_for" validate:"required"`
	Status       ScheduleStatus `json:"status" bson:"status" default:"scheduled"`
	CancelReason string         `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`

	LinkedRideID *primitive.ObjectID `json:"linked_ride_id" bson:"linked_ride_id"`
	AcceptedBy   *primitive.ObjectID `json:"accepted_by" bson:"accepted_by"`
	AcceptedAt   *time.Time          `json:"accepted_at" bson:"accepted_at"`

	ReminderSentAt *time.Time `json:"reminder_sent_at" bson:"reminder_sent_at"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// ScheduledRideWithDistance annotates a schedule with the distance from a query
// point to its origin.
type ScheduledRideWithDistance struct {
	*ScheduledRide `bson:",inline"`
	DistanceMeters int `json:"distance_meters" bson:"-"`
}
