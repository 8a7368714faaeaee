package services

import (
	"context"
	"strings"
	"testing"

	"gotogether/internal/models"
)

type matchFixture struct {
	locRepo  *memLocationRepo
	userRepo *memUserRepo
	rideRepo *memRideRepo
	notifier *fakeNotifier
	sms      *fakeSMS
	service  MatchingService
}

func newMatchFixture() *matchFixture {
	f := &matchFixture{
		locRepo:  newMemLocationRepo(),
		userRepo: newMemUserRepo(),
		rideRepo: newMemRideRepo(),
		notifier: &fakeNotifier{},
		sms:      newFakeSMS(),
	}
	f.service = NewMatchingService(f.locRepo, f.userRepo, f.rideRepo, f.notifier, f.sms, testLogger())
	return f
}

func (f *matchFixture) userAt(name string, gender models.Gender, lat, lng float64) *models.User {
	user := f.userRepo.put(&models.User{
		Name:            name,
		Phone:           "+8801900000000",
		Gender:          gender,
		IsPhoneVerified: true,
		IsAdminApproved: true,
	})
	_ = f.locRepo.Upsert(context.Background(), &models.UserLocation{
		UserID: user.ID, Lat: lat, Lng: lng,
	})
	return user
}

// Origin for all proximity tests. 0.001 degrees of latitude is roughly 111m.
const (
	originLat = 23.7465
	originLng = 90.3760
)

func (f *matchFixture) rideAt(rider *models.User, radiusMeters int, pref models.GenderPreference) *models.Ride {
	return f.rideRepo.put(&models.Ride{
		Rider:            rider.ID,
		Origin:           models.GeoPoint{Address: "Dhanmondi, Dhaka", Lat: originLat, Lng: originLng},
		Destination:      models.GeoPoint{Address: "Gulshan, Dhaka", Lat: 23.7925, Lng: 90.4078},
		Seats:            2,
		GenderPreference: pref,
		RadiusMeters:     radiusMeters,
		Status:           models.RideStatusOpen,
	})
}

func TestNotifyNearbyRespectsRadius(t *testing.T) {
	f := newMatchFixture()
	rider := f.userAt("Farzana", models.GenderFemale, originLat, originLng)
	near := f.userAt("Rumana", models.GenderFemale, originLat+0.005, originLng)   // ~550m
	_ = f.userAt("Taslima", models.GenderFemale, originLat+0.02, originLng)      // ~2.2km
	ride := f.rideAt(rider, 1000, models.GenderPreferenceAny)

	notified, err := f.service.NotifyNearby(context.Background(), ride, rider.Name)
	if err != nil {
		t.Fatalf("NotifyNearby failed: %v", err)
	}
	if notified != 1 {
		t.Fatalf("expected 1 notified, got %d", notified)
	}
	if len(f.notifier.sentTo(near.ID)) != 1 {
		t.Fatal("expected the near user to be notified")
	}
}

func TestNotifyNearbyExcludesJustBeyondRadius(t *testing.T) {
	f := newMatchFixture()
	rider := f.userAt("Farzana", models.GenderFemale, originLat, originLng)
	inside := f.userAt("Rumana", models.GenderFemale, originLat+0.0089, originLng)  // ~990m
	outside := f.userAt("Taslima", models.GenderFemale, originLat+0.009, originLng) // ~1001m
	ride := f.rideAt(rider, 1000, models.GenderPreferenceAny)

	notified, err := f.service.NotifyNearby(context.Background(), ride, rider.Name)
	if err != nil {
		t.Fatalf("NotifyNearby failed: %v", err)
	}
	if notified != 1 {
		t.Fatalf("expected 1 notified, got %d", notified)
	}
	if len(f.notifier.sentTo(inside.ID)) != 1 {
		t.Fatal("expected the in-radius user to be notified")
	}
	// A fractional meter past the radius is still past the radius.
	if len(f.notifier.sentTo(outside.ID)) != 0 {
		t.Fatal("a candidate just beyond the radius must not be notified")
	}
}

func TestNotifyNearbySkipsRider(t *testing.T) {
	f := newMatchFixture()
	rider := f.userAt("Farzana", models.GenderFemale, originLat, originLng)
	ride := f.rideAt(rider, 1000, models.GenderPreferenceAny)

	notified, err := f.service.NotifyNearby(context.Background(), ride, rider.Name)
	if err != nil {
		t.Fatalf("NotifyNearby failed: %v", err)
	}
	if notified != 0 {
		t.Fatalf("the rider must never be matched with their own ride, got %d notified", notified)
	}
}

func TestNotifyNearbyFiltersIneligible(t *testing.T) {
	f := newMatchFixture()
	rider := f.userAt("Farzana", models.GenderFemale, originLat, originLng)

	dnd := f.userAt("Rumana", models.GenderFemale, originLat+0.002, originLng)
	_ = f.userRepo.Update(context.Background(), dnd.ID, map[string]interface{}{"dnd": true})

	unverified := f.userRepo.put(&models.User{
		Name: "Taslima", Gender: models.GenderFemale,
		IsPhoneVerified: false, IsAdminApproved: true,
	})
	_ = f.locRepo.Upsert(context.Background(), &models.UserLocation{
		UserID: unverified.ID, Lat: originLat + 0.002, Lng: originLng,
	})

	eligible := f.userAt("Nusrat", models.GenderFemale, originLat+0.003, originLng)
	ride := f.rideAt(rider, 1000, models.GenderPreferenceAny)

	notified, err := f.service.NotifyNearby(context.Background(), ride, rider.Name)
	if err != nil {
		t.Fatalf("NotifyNearby failed: %v", err)
	}
	if notified != 1 {
		t.Fatalf("expected only the eligible user, got %d notified", notified)
	}
	if len(f.notifier.sentTo(eligible.ID)) != 1 {
		t.Fatal("expected the eligible user to be notified")
	}
	if len(f.notifier.sentTo(dnd.ID)) != 0 || len(f.notifier.sentTo(unverified.ID)) != 0 {
		t.Fatal("filtered users must not be notified")
	}
}

func TestNotifyNearbyGenderPreferenceIsAdvisory(t *testing.T) {
	f := newMatchFixture()
	rider := f.userAt("Farzana", models.GenderFemale, originLat, originLng)
	woman := f.userAt("Rumana", models.GenderFemale, originLat+0.002, originLng)
	man := f.userAt("Rahim", models.GenderMale, originLat+0.002, originLng)
	ride := f.rideAt(rider, 1000, models.GenderPreferenceFemale)

	notified, err := f.service.NotifyNearby(context.Background(), ride, rider.Name)
	if err != nil {
		t.Fatalf("NotifyNearby failed: %v", err)
	}
	// The preference rides along in the message; it never trims the fan-out.
	if notified != 2 {
		t.Fatalf("expected both nearby users notified, got %d", notified)
	}
	for _, u := range []*models.User{woman, man} {
		sent := f.notifier.sentTo(u.ID)
		if len(sent) != 1 {
			t.Fatalf("expected %s to be notified", u.Name)
		}
		if !strings.Contains(sent[0].Body, "women co-riders preferred") {
			t.Fatalf("expected the preference hint in the message, got %q", sent[0].Body)
		}
	}
}

func TestNotifyNearbyClosestFirst(t *testing.T) {
	f := newMatchFixture()
	rider := f.userAt("Farzana", models.GenderFemale, originLat, originLng)
	farther := f.userAt("Rumana", models.GenderFemale, originLat+0.006, originLng)
	nearest := f.userAt("Taslima", models.GenderFemale, originLat+0.002, originLng)
	ride := f.rideAt(rider, 1000, models.GenderPreferenceAny)

	if _, err := f.service.NotifyNearby(context.Background(), ride, rider.Name); err != nil {
		t.Fatalf("NotifyNearby failed: %v", err)
	}

	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	if len(f.notifier.sent) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(f.notifier.sent))
	}
	if f.notifier.sent[0].UserID != nearest.ID || f.notifier.sent[1].UserID != farther.ID {
		t.Fatal("expected notifications ordered closest first")
	}
}

func TestNearbyRidesAnnotatesAndSorts(t *testing.T) {
	f := newMatchFixture()
	riderA := f.userAt("Farzana", models.GenderFemale, originLat, originLng)
	riderB := f.userAt("Rumana", models.GenderFemale, originLat, originLng)
	searcher := f.userAt("Taslima", models.GenderFemale, originLat, originLng)

	farther := f.rideRepo.put(&models.Ride{
		Rider:        riderA.ID,
		Origin:       models.GeoPoint{Lat: originLat + 0.006, Lng: originLng},
		Destination:  models.GeoPoint{Lat: 23.79, Lng: 90.41},
		Seats:        2,
		RadiusMeters: 1000,
		Status:       models.RideStatusOpen,
	})
	nearest := f.rideRepo.put(&models.Ride{
		Rider:        riderB.ID,
		Origin:       models.GeoPoint{Lat: originLat + 0.002, Lng: originLng},
		Destination:  models.GeoPoint{Lat: 23.79, Lng: 90.41},
		Seats:        2,
		RadiusMeters: 1000,
		Status:       models.RideStatusPickupWait,
	})
	// Out of range.
	f.rideRepo.put(&models.Ride{
		Rider:        riderA.ID,
		Origin:       models.GeoPoint{Lat: originLat + 0.05, Lng: originLng},
		Destination:  models.GeoPoint{Lat: 23.79, Lng: 90.41},
		Seats:        2,
		RadiusMeters: 1000,
		Status:       models.RideStatusOpen,
	})

	results, err := f.service.NearbyRides(context.Background(), searcher.ID, originLat, originLng, 1000)
	if err != nil {
		t.Fatalf("NearbyRides failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 rides in range, got %d", len(results))
	}
	if results[0].ID != nearest.ID || results[1].ID != farther.ID {
		t.Fatal("expected rides sorted by distance ascending")
	}
	if results[0].DistanceMeters <= 0 || results[0].DistanceMeters >= results[1].DistanceMeters {
		t.Fatalf("bad distance annotations: %d, %d",
			results[0].DistanceMeters, results[1].DistanceMeters)
	}
}

func TestNearbyRidesExcludesOwnAndUnjoinable(t *testing.T) {
	f := newMatchFixture()
	searcher := f.userAt("Farzana", models.GenderFemale, originLat, originLng)
	other := f.userAt("Rumana", models.GenderFemale, originLat, originLng)

	// The searcher's own ride.
	f.rideAt(searcher, 1000, models.GenderPreferenceAny)
	// A cancelled ride nearby.
	f.rideRepo.put(&models.Ride{
		Rider:        other.ID,
		Origin:       models.GeoPoint{Lat: originLat, Lng: originLng},
		Destination:  models.GeoPoint{Lat: 23.79, Lng: 90.41},
		Seats:        2,
		RadiusMeters: 1000,
		Status:       models.RideStatusCancelled,
	})

	results, err := f.service.NearbyRides(context.Background(), searcher.ID, originLat, originLng, 1000)
	if err != nil {
		t.Fatalf("NearbyRides failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no joinable rides, got %d", len(results))
	}
}
