package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationTypeRideRequest      NotificationType = "RIDE_REQUEST"
	NotificationTypeRideUpdate       NotificationType = "RIDE_UPDATE"
	NotificationTypeScheduleAccepted NotificationType = "SCHEDULE_ACCEPTED"
	NotificationTypeScheduleReminder NotificationType = "SCHEDULE_REMINDER"
	NotificationTypePanicAlert       NotificationType = "PANIC_ALERT"
)

type Notification struct {
	ID        primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	User      primitive.ObjectID  `json:"user" bson:"user" validate:"required"`
	Type      NotificationType    `json:"type" bson:"type" validate:"required"`
	Title     string              `json:"title" bson:"title"`
	Body      string              `json:"body" bson:"body"`
	RideID    *primitive.ObjectID `json:"ride_id" bson:"ride_id"`
	Read      bool                `json:"read" bson:"read" default:"false"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
}
