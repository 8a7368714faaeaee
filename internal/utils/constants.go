package utils

import "time"

// Application Constants
const (
	AppName    = "GoTogether"
	AppVersion = "1.0.0"

	// Authentication
	JWTAccessTokenTTL  = 24 * time.Hour
	JWTRefreshTokenTTL = 7 * 24 * time.Hour
	OTPLength          = 6
	OTPExpiry          = 10 * time.Minute

	// Ride Constants
	MinSeats             = 1
	MaxSeats             = 6
	DefaultSeats         = 2
	MinRadiusMeters      = 500
	MaxRadiusMeters      = 2000
	DefaultRadiusMeters  = 1000
	PickupCountdown      = 10 * time.Minute
	MinCountdownSeconds  = 60
	MaxCountdownSeconds  = 3600
	PickupExpiryBatch    = 50
	PickupExpiryInterval = 5 * time.Second

	// Scheduled ride reminders: one reminder roughly an hour ahead.
	ReminderWindow    = 60 * time.Minute
	ReminderTolerance = 5 * time.Minute
	ReminderBatch     = 200
	ReminderInterval  = 60 * time.Second

	// Ratings
	MinRatingValue = 1
	MaxRatingValue = 5
	MaxCommentLen  = 500

	// Fare formula (informational estimate, never charged)
	FareBase  = 60.0
	FarePerKM = 18.0

	// ETA fallback: conservative city average including stops.
	FallbackSpeedKMH  = 22.0
	MinLegSeconds     = 60
	DefaultETASeconds = 8 * 60

	// Geo
	EarthRadiusM = 6371000.0
)

// Response status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error messages
const (
	ErrUnauthorizedMsg     = "Authentication required"
	ErrForbiddenMsg        = "Not allowed"
	ErrInternalServer      = "Internal server error"
	ErrValidationFailed    = "Validation failed"
	ErrRideNotFound        = "Ride not found"
	ErrScheduleNotFound    = "Scheduled ride not found"
	ErrRoomNotFound        = "Chat room not found"
	ErrPhoneNotVerified    = "Phone not verified"
	ErrApprovalRequired    = "Admin approval required"
	ErrRideFullMsg         = "Ride is full"
	ErrRideUnavailableMsg  = "Ride unavailable"
	ErrAlreadyRatedMsg     = "You already rated this user for this ride"
	ErrInvalidTransitionMsg = "Operation not valid in the ride's current state"
)
