package services

import (
	"context"
	"fmt"
	"sort"

	"gotogether/internal/models"
	"gotogether/internal/repositories/interfaces"
	"gotogether/internal/utils"
	"gotogether/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MatchingService interface {
	// NotifyNearby fans a new ride out to every eligible user whose last
	// known location sits inside the ride's search radius, closest first.
	// Returns how many users were notified.
	NotifyNearby(ctx context.Context, ride *models.Ride, hostName string) (int, error)

	// NearbyRides lists open rides the user could join whose origin lies
	// within radiusMeters of the given point, annotated with distance and
	// sorted ascending.
	NearbyRides(ctx context.Context, userID primitive.ObjectID, lat, lng float64, radiusMeters int) ([]*models.RideWithDistance, error)
}

type matchingService struct {
	locationRepo interfaces.LocationRepository
	userRepo     interfaces.UserRepository
	rideRepo     interfaces.RideRepository
	notifier     NotificationService
	smsService   SMSService
	logger       *logger.Logger
}

func NewMatchingService(
	locationRepo interfaces.LocationRepository,
	userRepo interfaces.UserRepository,
	rideRepo interfaces.RideRepository,
	notifier NotificationService,
	smsService SMSService,
	logger *logger.Logger,
) MatchingService {
	return &matchingService{
		locationRepo: locationRepo,
		userRepo:     userRepo,
		rideRepo:     rideRepo,
		notifier:     notifier,
		smsService:   smsService,
		logger:       logger,
	}
}

type matchTarget struct {
	userID   primitive.ObjectID
	distance int
}

func (s *matchingService) NotifyNearby(ctx context.Context, ride *models.Ride, hostName string) (int, error) {
	locations, err := s.locationRepo.ListExcluding(ctx, ride.Rider)
	if err != nil {
		return 0, err
	}

	distances := make(map[primitive.ObjectID]int, len(locations))
	candidates := make([]primitive.ObjectID, 0, len(locations))
	for _, loc := range locations {
		d := utils.DistanceMeters(ride.Origin.Lat, ride.Origin.Lng, loc.Lat, loc.Lng)
		if d > float64(ride.RadiusMeters) {
			continue
		}
		distances[loc.UserID] = utils.RoundMeters(d)
		candidates = append(candidates, loc.UserID)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	// The ride's gender preference is advisory here: recipients see it in the
	// message and the accept path enforces it. It never trims the fan-out.
	eligible, err := s.userRepo.FilterEligible(ctx, candidates, models.GenderPreferenceAny)
	if err != nil {
		return 0, err
	}

	phones := make(map[primitive.ObjectID]string, len(eligible))
	targets := make([]matchTarget, 0, len(eligible))
	for _, user := range eligible {
		phones[user.ID] = user.Phone
		targets = append(targets, matchTarget{userID: user.ID, distance: distances[user.ID]})
	}
	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].distance < targets[j].distance
	})

	area := utils.SafeArea(ride.Origin.Address)
	title := "Ride request nearby"
	hint := preferenceHint(ride.GenderPreference)

	notified := 0
	rideID := ride.ID
	for _, target := range targets {
		body := fmt.Sprintf("%s is looking for co-riders from %s (%dm away)%s", hostName, area, target.distance, hint)
		if err := s.notifier.Notify(ctx, target.userID, models.NotificationTypeRideRequest, title, body, &rideID); err != nil {
			s.logger.WithError(err).WithUserID(target.userID).Warn("Failed to notify nearby user")
			continue
		}
		if s.smsService != nil {
			if phone := phones[target.userID]; phone != "" {
				// Best effort, an SMS failure never blocks the fan-out.
				_ = s.smsService.SendSMS(ctx, phone, body)
			}
		}
		notified++
	}

	return notified, nil
}

func preferenceHint(pref models.GenderPreference) string {
	switch pref {
	case models.GenderPreferenceFemale:
		return ", women co-riders preferred"
	case models.GenderPreferenceMale:
		return ", men co-riders preferred"
	default:
		return ""
	}
}

func (s *matchingService) NearbyRides(ctx context.Context, userID primitive.ObjectID, lat, lng float64, radiusMeters int) ([]*models.RideWithDistance, error) {
	if radiusMeters <= 0 {
		radiusMeters = utils.DefaultRadiusMeters
	}
	if radiusMeters < utils.MinRadiusMeters {
		radiusMeters = utils.MinRadiusMeters
	}
	if radiusMeters > utils.MaxRadiusMeters {
		radiusMeters = utils.MaxRadiusMeters
	}

	rides, err := s.rideRepo.ListJoinable(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]*models.RideWithDistance, 0, len(rides))
	for _, ride := range rides {
		d := utils.DistanceMeters(lat, lng, ride.Origin.Lat, ride.Origin.Lng)
		if d > float64(radiusMeters) {
			continue
		}
		results = append(results, &models.RideWithDistance{
			Ride:           ride,
			DistanceMeters: utils.RoundMeters(d),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceMeters < results[j].DistanceMeters
	})

	return results, nil
}
