package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRole string
type Gender string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"

	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
	GenderOther  Gender = "other"
)

type User struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name" validate:"required,min=2,max=80"`
	Phone           string             `json:"phone" bson:"phone" validate:"required"`
	Password        string             `json:"-" bson:"password"`
	Gender          Gender             `json:"gender" bson:"gender" default:"other"`
	Role            UserRole           `json:"role" bson:"role" default:"user"`
	Photo           string             `json:"photo" bson:"photo"`
	DeviceToken     string             `json:"-" bson:"device_token"`
	DND             bool               `json:"dnd" bson:"dnd" default:"false"`
	IsPhoneVerified bool               `json:"is_phone_verified" bson:"is_phone_verified" default:"false"`
	IsAdminApproved bool               `json:"is_admin_approved" bson:"is_admin_approved" default:"false"`

	// Derived reliability fields. Only the rating/reliability path writes these.
	RatingAvg        float64 `json:"rating_avg" bson:"rating_avg" default:"0"`
	RatingCount      int     `json:"rating_count" bson:"rating_count" default:"0"`
	Cancellations    int     `json:"cancellations" bson:"cancellations" default:"0"`
	CompletedRides   int     `json:"completed_rides" bson:"completed_rides" default:"0"`
	ReliabilityScore int     `json:"reliability_score" bson:"reliability_score" default:"100"`
	DiscountPct      int     `json:"discount_pct" bson:"discount_pct" default:"0"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// AuthContext is the authenticated identity attached to every request by the
// auth middleware. Core operations take it instead of reading request state.
type AuthContext struct {
	UserID        primitive.ObjectID
	Role          UserRole
	Gender        Gender
	PhoneVerified bool
	AdminApproved bool
}

func (a *AuthContext) IsAdmin() bool {
	return a.Role == UserRoleAdmin
}
