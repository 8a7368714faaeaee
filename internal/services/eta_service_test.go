package services

import (
	"context"
	"errors"
	"testing"

	"gotogether/internal/models"
	"gotogether/pkg/maps"
)

// fakeMapsProvider returns a canned directions response or an error.
type fakeMapsProvider struct {
	response *maps.DirectionsResponse
	err      error
	requests []*maps.DirectionsRequest
}

func (f *fakeMapsProvider) GetDirections(ctx context.Context, request *maps.DirectionsRequest) (*maps.DirectionsResponse, error) {
	f.requests = append(f.requests, request)
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

var (
	etaOrigin      = models.GeoPoint{Address: "Dhanmondi, Dhaka", Lat: 23.7465, Lng: 90.3760}
	etaDestination = models.GeoPoint{Address: "Gulshan, Dhaka", Lat: 23.7925, Lng: 90.4078}
)

func TestEstimateRouteUsesDirections(t *testing.T) {
	provider := &fakeMapsProvider{
		response: &maps.DirectionsResponse{
			Routes: []maps.Route{{
				Distance: maps.Distance{Value: 7200},
				Duration: maps.Duration{Value: 1260},
			}},
		},
	}
	service := NewETAService(provider, 22, testLogger())

	stop := models.GeoPoint{Address: "Panthapath, Dhaka", Lat: 23.7520, Lng: 90.3850}
	estimate := service.EstimateRoute(context.Background(), etaOrigin, []models.GeoPoint{stop}, etaDestination)

	if estimate.Approximate {
		t.Fatal("directions-backed estimates are not approximate")
	}
	if estimate.DistanceMeters != 7200 || estimate.DurationSeconds != 1260 {
		t.Fatalf("unexpected estimate: %+v", estimate)
	}
	if len(provider.requests) != 1 || len(provider.requests[0].Waypoints) != 1 {
		t.Fatal("expected one directions call carrying the stop as a waypoint")
	}
}

func TestEstimateRouteFallsBackOnProviderError(t *testing.T) {
	provider := &fakeMapsProvider{err: errors.New("quota exceeded")}
	service := NewETAService(provider, 22, testLogger())

	estimate := service.EstimateRoute(context.Background(), etaOrigin, nil, etaDestination)
	if !estimate.Approximate {
		t.Fatal("expected an approximate fallback estimate")
	}
	// Straight-line Dhanmondi-Gulshan is roughly 6km.
	if estimate.DistanceMeters < 5500 || estimate.DistanceMeters > 6500 {
		t.Fatalf("fallback distance = %dm, want ~6km", estimate.DistanceMeters)
	}
	if estimate.DurationSeconds <= 0 {
		t.Fatal("fallback duration must be positive")
	}
}

func TestEstimateRouteWithoutProvider(t *testing.T) {
	service := NewETAService(nil, 22, testLogger())

	estimate := service.EstimateRoute(context.Background(), etaOrigin, nil, etaDestination)
	if !estimate.Approximate {
		t.Fatal("expected an approximate estimate without a provider")
	}
}

func TestEstimateToPickupFloorsShortLegs(t *testing.T) {
	service := NewETAService(nil, 22, testLogger())

	near := models.GeoPoint{Lat: etaOrigin.Lat + 0.0001, Lng: etaOrigin.Lng}
	estimate := service.EstimateToPickup(context.Background(), etaOrigin.Lat, etaOrigin.Lng, near)
	if estimate.DurationSeconds != 60 {
		t.Fatalf("expected the one minute floor, got %ds", estimate.DurationSeconds)
	}
}
