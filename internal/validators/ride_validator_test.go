package validators

import (
	"testing"
	"time"

	"gotogether/internal/models"
	"gotogether/internal/utils"
)

func TestNormalizeRadiusMeters(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{0, utils.DefaultRadiusMeters},
		{-5, utils.DefaultRadiusMeters},
		// Values up to 20 are kilometers from older clients.
		{1, 1000},
		{1.5, 1500},
		{20, utils.MaxRadiusMeters},
		// Values above 20 are already meters.
		{800, 800},
		{100, utils.MinRadiusMeters},
		{5000, utils.MaxRadiusMeters},
	}
	for _, c := range cases {
		if got := NormalizeRadiusMeters(c.in); got != c.want {
			t.Errorf("NormalizeRadiusMeters(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestNormalizeSeats(t *testing.T) {
	if got := NormalizeSeats(0); got != utils.DefaultSeats {
		t.Fatalf("default seats = %d", got)
	}
	if got := NormalizeSeats(10); got != utils.MaxSeats {
		t.Fatalf("clamped seats = %d", got)
	}
	if got := NormalizeSeats(-1); got != utils.MinSeats {
		t.Fatalf("negative seats = %d", got)
	}
}

func TestNormalizeGenderPreference(t *testing.T) {
	cases := []struct {
		in   string
		want models.GenderPreference
	}{
		{"female", models.GenderPreferenceFemale},
		{" Male ", models.GenderPreferenceMale},
		{"any", models.GenderPreferenceAny},
		{"", models.GenderPreferenceAny},
		{"whatever", models.GenderPreferenceAny},
	}
	for _, c := range cases {
		if got := NormalizeGenderPreference(c.in); got != c.want {
			t.Errorf("NormalizeGenderPreference(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeCountdownSeconds(t *testing.T) {
	if got := NormalizeCountdownSeconds(0); got != int(utils.PickupCountdown.Seconds()) {
		t.Fatalf("default countdown = %d", got)
	}
	if got := NormalizeCountdownSeconds(5); got != utils.MinCountdownSeconds {
		t.Fatalf("floor = %d", got)
	}
	if got := NormalizeCountdownSeconds(7200); got != utils.MaxCountdownSeconds {
		t.Fatalf("ceiling = %d", got)
	}
	if got := NormalizeCountdownSeconds(300); got != 300 {
		t.Fatalf("in-range = %d", got)
	}
}

func TestValidateCreateRide(t *testing.T) {
	input, err := ValidateCreateRide(&CreateRideRequest{
		Origin:      map[string]interface{}{"address": "Dhanmondi, Dhaka", "lat": 23.7465, "lng": 90.3760},
		Destination: map[string]interface{}{"address": "Gulshan, Dhaka", "lat": 23.7925, "lng": 90.4078},
		Stops: []map[string]interface{}{
			{"address": "Panthapath, Dhaka", "lat": 23.7520, "lng": 90.3850},
		},
		Seats:            3,
		GenderPreference: "female",
		Radius:           1.5,
	})
	if err != nil {
		t.Fatalf("ValidateCreateRide failed: %v", err)
	}
	if input.Seats != 3 {
		t.Fatalf("seats = %d", input.Seats)
	}
	if input.GenderPreference != models.GenderPreferenceFemale {
		t.Fatalf("gender preference = %q", input.GenderPreference)
	}
	if input.RadiusMeters != 1500 {
		t.Fatalf("radius = %d", input.RadiusMeters)
	}
	if len(input.Stops) != 1 || input.Stops[0].Address != "Panthapath, Dhaka" {
		t.Fatalf("stops = %+v", input.Stops)
	}
}

func TestValidateCreateRideBadStop(t *testing.T) {
	_, err := ValidateCreateRide(&CreateRideRequest{
		Origin:      map[string]interface{}{"address": "A", "lat": 23.7, "lng": 90.3},
		Destination: map[string]interface{}{"address": "B", "lat": 23.8, "lng": 90.4},
		Stops: []map[string]interface{}{
			{"address": "C"},
		},
	})
	if err == nil {
		t.Fatal("expected an error for a stop without coordinates")
	}
}

func TestValidateCreateScheduledRideRequiresFutureTime(t *testing.T) {
	_, err := ValidateCreateScheduledRide(&CreateScheduledRideRequest{
		Origin:       map[string]interface{}{"address": "A", "lat": 23.7, "lng": 90.3},
		Destination:  map[string]interface{}{"address": "B", "lat": 23.8, "lng": 90.4},
		ScheduledFor: time.Now().Add(-time.Hour),
	})
	if err == nil {
		t.Fatal("expected an error for a past departure time")
	}
}
