package services

import (
	"context"

	"gotogether/internal/models"
	"gotogether/internal/utils"
	"gotogether/pkg/logger"
	"gotogether/pkg/maps"
)

// ETAEstimate describes the expected travel time and distance for a route.
type ETAEstimate struct {
	DistanceMeters  int  `json:"distance_meters"`
	DurationSeconds int  `json:"duration_seconds"`
	Approximate     bool `json:"approximate"`
}

type ETAService interface {
	// EstimateRoute computes ETA for the full route origin -> stops -> destination.
	EstimateRoute(ctx context.Context, origin models.GeoPoint, stops []models.GeoPoint, destination models.GeoPoint) *ETAEstimate
	// EstimateToPickup computes ETA for a single point-to-point leg.
	EstimateToPickup(ctx context.Context, fromLat, fromLng float64, to models.GeoPoint) *ETAEstimate
}

type etaService struct {
	mapsProvider maps.MapsProvider
	fallbackKMH  float64
	logger       *logger.Logger
}

func NewETAService(mapsProvider maps.MapsProvider, fallbackKMH float64, logger *logger.Logger) ETAService {
	if fallbackKMH <= 0 {
		fallbackKMH = utils.FallbackSpeedKMH
	}
	return &etaService{
		mapsProvider: mapsProvider,
		fallbackKMH:  fallbackKMH,
		logger:       logger,
	}
}

func (s *etaService) EstimateRoute(ctx context.Context, origin models.GeoPoint, stops []models.GeoPoint, destination models.GeoPoint) *ETAEstimate {
	if s.mapsProvider != nil {
		waypoints := make([]maps.Location, 0, len(stops))
		for _, stop := range stops {
			waypoints = append(waypoints, maps.Location{Latitude: stop.Lat, Longitude: stop.Lng})
		}
		estimate, err := s.fromDirections(ctx, &maps.DirectionsRequest{
			Origin:      maps.Location{Latitude: origin.Lat, Longitude: origin.Lng},
			Destination: maps.Location{Latitude: destination.Lat, Longitude: destination.Lng},
			Waypoints:   waypoints,
			Mode:        "driving",
		})
		if err == nil {
			return estimate
		}
		s.logger.WithError(err).Warn("Directions lookup failed, using straight-line estimate")
	}
	return s.fallbackRoute(origin, stops, destination)
}

func (s *etaService) EstimateToPickup(ctx context.Context, fromLat, fromLng float64, to models.GeoPoint) *ETAEstimate {
	if s.mapsProvider != nil {
		estimate, err := s.fromDirections(ctx, &maps.DirectionsRequest{
			Origin:      maps.Location{Latitude: fromLat, Longitude: fromLng},
			Destination: maps.Location{Latitude: to.Lat, Longitude: to.Lng},
			Mode:        "driving",
		})
		if err == nil {
			return estimate
		}
		s.logger.WithError(err).Warn("Directions lookup failed, using straight-line estimate")
	}
	distance := utils.DistanceMeters(fromLat, fromLng, to.Lat, to.Lng)
	return s.fallbackEstimate(distance)
}

func (s *etaService) fromDirections(ctx context.Context, request *maps.DirectionsRequest) (*ETAEstimate, error) {
	response, err := s.mapsProvider.GetDirections(ctx, request)
	if err != nil {
		return nil, err
	}
	if len(response.Routes) == 0 {
		return nil, ErrNotFound
	}
	route := response.Routes[0]
	duration := route.Duration.Value
	if duration < utils.MinLegSeconds {
		duration = utils.MinLegSeconds
	}
	return &ETAEstimate{
		DistanceMeters:  utils.RoundMeters(route.Distance.Value),
		DurationSeconds: duration,
	}, nil
}

// fallbackRoute sums straight-line legs through the stops. Each leg gets the
// one minute floor so multi-stop routes do not round down to nothing.
func (s *etaService) fallbackRoute(origin models.GeoPoint, stops []models.GeoPoint, destination models.GeoPoint) *ETAEstimate {
	points := make([]models.GeoPoint, 0, len(stops)+2)
	points = append(points, origin)
	points = append(points, stops...)
	points = append(points, destination)

	var totalMeters float64
	totalSeconds := 0
	for i := 1; i < len(points); i++ {
		leg := utils.DistanceMeters(points[i-1].Lat, points[i-1].Lng, points[i].Lat, points[i].Lng)
		totalMeters += leg
		totalSeconds += utils.EstimateTravelSeconds(leg, s.fallbackKMH)
	}
	if totalSeconds == 0 {
		totalSeconds = utils.DefaultETASeconds
	}
	return &ETAEstimate{
		DistanceMeters:  utils.RoundMeters(totalMeters),
		DurationSeconds: totalSeconds,
		Approximate:     true,
	}
}

func (s *etaService) fallbackEstimate(distanceMeters float64) *ETAEstimate {
	return &ETAEstimate{
		DistanceMeters:  utils.RoundMeters(distanceMeters),
		DurationSeconds: utils.EstimateTravelSeconds(distanceMeters, s.fallbackKMH),
		Approximate:     true,
	}
}
