package validators

import (
	"fmt"
	"strings"
	"time"

	"gotogether/internal/models"
	"gotogether/internal/utils"
)

// CreateRideRequest is the raw create-ride payload. Origin/destination stay
// untyped until ParseGeoPoint has normalized them.
type CreateRideRequest struct {
	Origin           map[string]interface{}   `json:"origin" validate:"required"`
	Destination      map[string]interface{}   `json:"destination" validate:"required"`
	Stops            []map[string]interface{} `json:"stops"`
	Seats            int                      `json:"seats"`
	GenderPreference string                   `json:"genderPreference"`
	Radius           float64                  `json:"radius"`
}

// CreateRideInput is the canonical, validated form handed to the service.
type CreateRideInput struct {
	Origin           models.GeoPoint
	Destination      models.GeoPoint
	Stops            []models.GeoPoint
	Seats            int
	GenderPreference models.GenderPreference
	RadiusMeters     int
}

// ValidateCreateRide normalizes a raw request into CreateRideInput.
func ValidateCreateRide(req *CreateRideRequest) (*CreateRideInput, error) {
	origin, err := ParseGeoPoint(req.Origin)
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	destination, err := ParseGeoPoint(req.Destination)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}

	stops := make([]models.GeoPoint, 0, len(req.Stops))
	for i, raw := range req.Stops {
		stop, err := ParseGeoPoint(raw)
		if err != nil {
			return nil, fmt.Errorf("stops[%d]: %w", i, err)
		}
		stops = append(stops, stop)
	}

	return &CreateRideInput{
		Origin:           origin,
		Destination:      destination,
		Stops:            stops,
		Seats:            NormalizeSeats(req.Seats),
		GenderPreference: NormalizeGenderPreference(req.GenderPreference),
		RadiusMeters:     NormalizeRadiusMeters(req.Radius),
	}, nil
}

// CreateScheduledRideRequest is the raw scheduled-ride payload.
type CreateScheduledRideRequest struct {
	Origin           map[string]interface{} `json:"origin" validate:"required"`
	Destination      map[string]interface{} `json:"destination" validate:"required"`
	ScheduledFor     time.Time              `json:"scheduledFor" validate:"required"`
	Seats            int                    `json:"seats"`
	GenderPreference string                 `json:"genderPreference"`
	Radius           float64                `json:"radius"`
}

type CreateScheduledRideInput struct {
	Origin           models.GeoPoint
	Destination      models.GeoPoint
	ScheduledFor     time.Time
	Seats            int
	GenderPreference models.GenderPreference
	RadiusMeters     int
}

func ValidateCreateScheduledRide(req *CreateScheduledRideRequest) (*CreateScheduledRideInput, error) {
	origin, err := ParseGeoPoint(req.Origin)
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	destination, err := ParseGeoPoint(req.Destination)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}
	if !req.ScheduledFor.After(time.Now()) {
		return nil, fmt.Errorf("scheduledFor must be in the future")
	}

	return &CreateScheduledRideInput{
		Origin:           origin,
		Destination:      destination,
		ScheduledFor:     req.ScheduledFor.UTC(),
		Seats:            NormalizeSeats(req.Seats),
		GenderPreference: NormalizeGenderPreference(req.GenderPreference),
		RadiusMeters:     NormalizeRadiusMeters(req.Radius),
	}, nil
}

// NormalizeSeats clamps seats into the allowed range, defaulting when unset.
func NormalizeSeats(seats int) int {
	if seats == 0 {
		return utils.DefaultSeats
	}
	return utils.ClampInt(seats, utils.MinSeats, utils.MaxSeats)
}

// NormalizeGenderPreference maps unknown values to "any".
func NormalizeGenderPreference(pref string) models.GenderPreference {
	switch models.GenderPreference(strings.ToLower(strings.TrimSpace(pref))) {
	case models.GenderPreferenceMale:
		return models.GenderPreferenceMale
	case models.GenderPreferenceFemale:
		return models.GenderPreferenceFemale
	default:
		return models.GenderPreferenceAny
	}
}

// NormalizeRadiusMeters clamps a search radius to meters. Small values are
// treated as kilometers and converted, since older clients send km.
func NormalizeRadiusMeters(radius float64) int {
	if radius <= 0 {
		return utils.DefaultRadiusMeters
	}
	if radius <= 20 {
		radius *= 1000
	}
	return utils.ClampInt(int(radius), utils.MinRadiusMeters, utils.MaxRadiusMeters)
}

// NormalizeCountdownSeconds clamps a pickup countdown override.
func NormalizeCountdownSeconds(seconds int) int {
	if seconds == 0 {
		return int(utils.PickupCountdown.Seconds())
	}
	return utils.ClampInt(seconds, utils.MinCountdownSeconds, utils.MaxCountdownSeconds)
}
