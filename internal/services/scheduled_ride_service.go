package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gotogether/internal/models"
	"gotogether/internal/repositories/interfaces"
	"gotogether/internal/utils"
	"gotogether/internal/validators"
	"gotogether/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ScheduledRideService interface {
	Create(ctx context.Context, auth *models.AuthContext, input *validators.CreateScheduledRideInput) (*models.ScheduledRide, error)
	GetByID(ctx context.Context, userID, scheduleID primitive.ObjectID) (*models.ScheduledRide, error)
	ListMine(ctx context.Context, userID primitive.ObjectID) ([]*models.ScheduledRide, error)
	Nearby(ctx context.Context, userID primitive.ObjectID, lat, lng float64, radiusMeters int) ([]*models.ScheduledRideWithDistance, error)

	// Accept matches the user with the host's scheduled ride. Accepting the
	// same schedule twice returns the existing match unchanged.
	Accept(ctx context.Context, auth *models.AuthContext, scheduleID primitive.ObjectID) (*models.ScheduledRide, error)

	Cancel(ctx context.Context, userID, scheduleID primitive.ObjectID, reason string) (*models.ScheduledRide, error)
}

type scheduledRideService struct {
	scheduleRepo interfaces.ScheduledRideRepository
	rideRepo     interfaces.RideRepository
	userRepo     interfaces.UserRepository
	chatService  ChatService
	notifier     NotificationService
	logger       *logger.Logger
}

func NewScheduledRideService(
	scheduleRepo interfaces.ScheduledRideRepository,
	rideRepo interfaces.RideRepository,
	userRepo interfaces.UserRepository,
	chatService ChatService,
	notifier NotificationService,
	logger *logger.Logger,
) ScheduledRideService {
	return &scheduledRideService{
		scheduleRepo: scheduleRepo,
		rideRepo:     rideRepo,
		userRepo:     userRepo,
		chatService:  chatService,
		notifier:     notifier,
		logger:       logger,
	}
}

func (s *scheduledRideService) Create(ctx context.Context, auth *models.AuthContext, input *validators.CreateScheduledRideInput) (*models.ScheduledRide, error) {
	if !auth.PhoneVerified || !auth.AdminApproved {
		return nil, ErrForbidden
	}

	ride := &models.ScheduledRide{
		User:             auth.UserID,
		Origin:           input.Origin,
		Destination:      input.Destination,
		Seats:            input.Seats,
		GenderPreference: input.GenderPreference,
		RadiusMeters:     input.RadiusMeters,
		ScheduledFor:     input.ScheduledFor,
		Status:           models.ScheduleStatusScheduled,
	}
	if err := s.scheduleRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	return ride, nil
}

func (s *scheduledRideService) GetByID(ctx context.Context, userID, scheduleID primitive.ObjectID) (*models.ScheduledRide, error) {
	ride, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	// Open schedules are discoverable; matched and cancelled ones are only
	// visible to the parties involved.
	if ride.Status != models.ScheduleStatusScheduled {
		involved := ride.User == userID ||
			(ride.AcceptedBy != nil && *ride.AcceptedBy == userID) ||
			(ride.HostUser != nil && *ride.HostUser == userID)
		if !involved {
			return nil, ErrForbidden
		}
	}

	return ride, nil
}

func (s *scheduledRideService) ListMine(ctx context.Context, userID primitive.ObjectID) ([]*models.ScheduledRide, error) {
	return s.scheduleRepo.ListByUser(ctx, userID)
}

func (s *scheduledRideService) Nearby(ctx context.Context, userID primitive.ObjectID, lat, lng float64, radiusMeters int) ([]*models.ScheduledRideWithDistance, error) {
	radiusMeters = validators.NormalizeRadiusMeters(float64(radiusMeters))

	rides, err := s.scheduleRepo.ListOpenExcluding(ctx, userID, time.Now())
	if err != nil {
		return nil, err
	}

	results := make([]*models.ScheduledRideWithDistance, 0, len(rides))
	for _, ride := range rides {
		d := utils.DistanceMeters(lat, lng, ride.Origin.Lat, ride.Origin.Lng)
		if d > float64(radiusMeters) {
			continue
		}
		results = append(results, &models.ScheduledRideWithDistance{
			ScheduledRide:  ride,
			DistanceMeters: utils.RoundMeters(d),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceMeters < results[j].DistanceMeters
	})

	return results, nil
}

func (s *scheduledRideService) Accept(ctx context.Context, auth *models.AuthContext, scheduleID primitive.ObjectID) (*models.ScheduledRide, error) {
	if !auth.PhoneVerified || !auth.AdminApproved {
		return nil, ErrForbidden
	}

	userID := auth.UserID
	host, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if host.User == userID {
		return nil, ErrForbidden
	}
	if host.Status == models.ScheduleStatusCancelled {
		return nil, ErrRideUnavailable
	}
	if !host.ScheduledFor.After(time.Now()) {
		return nil, ErrRideUnavailable
	}
	if host.Status == models.ScheduleStatusMatched {
		if host.AcceptedBy != nil && *host.AcceptedBy == userID {
			// Repeat accept by the same user. The match and its linked ride
			// already exist, so just make sure the acceptor's copy is there.
			s.ensureAcceptorCopy(ctx, host, userID)
			return host, nil
		}
		return nil, ErrConflict
	}

	// The match CAS is the gate: only the winner materializes the ride, so a
	// lost race leaves nothing behind to clean up.
	now := time.Now()
	rideID := primitive.NewObjectID()
	matched, err := s.scheduleRepo.MarkMatched(ctx, scheduleID, userID, rideID, now)
	if err != nil {
		if err == ErrNotFound {
			// Re-read to split "someone beat us" from repeat accept.
			return s.resolveAcceptRace(ctx, scheduleID, userID)
		}
		return nil, err
	}

	scheduledFor := matched.ScheduledFor
	ride := &models.Ride{
		ID:               rideID,
		Rider:            matched.User,
		Origin:           matched.Origin,
		Destination:      matched.Destination,
		Seats:            matched.Seats,
		GenderPreference: matched.GenderPreference,
		RadiusMeters:     matched.RadiusMeters,
		Passengers:       []primitive.ObjectID{userID},
		Status:           models.RideStatusOpen,
		ScheduledFromID:  &matched.ID,
		ScheduledFor:     &scheduledFor,
	}
	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, fmt.Errorf("failed to materialize scheduled ride: %w", err)
	}

	if err := s.chatService.EnsureMembers(ctx, ride.ID, matched.User, userID); err != nil {
		s.logger.WithError(err).WithRideID(ride.ID).Error("Failed to seed chat room for matched schedule")
	}

	s.ensureAcceptorCopy(ctx, matched, userID)
	s.notifyMatched(ctx, matched, userID)

	return matched, nil
}

// ensureAcceptorCopy mirrors the match into the acceptor's own schedule list.
// Keyed by (user, linked ride) so repeat accepts never duplicate it.
func (s *scheduledRideService) ensureAcceptorCopy(ctx context.Context, host *models.ScheduledRide, userID primitive.ObjectID) {
	if host.LinkedRideID == nil || host.AcceptedAt == nil {
		return
	}
	hostID := host.User
	copy := &models.ScheduledRide{
		ID:               primitive.NewObjectID(),
		User:             userID,
		HostUser:         &hostID,
		Origin:           host.Origin,
		Destination:      host.Destination,
		Seats:            host.Seats,
		GenderPreference: host.GenderPreference,
		RadiusMeters:     host.RadiusMeters,
		ScheduledFor:     host.ScheduledFor,
		Status:           models.ScheduleStatusMatched,
		LinkedRideID:     host.LinkedRideID,
		AcceptedAt:       host.AcceptedAt,
	}
	if _, err := s.scheduleRepo.UpsertAcceptorCopy(ctx, copy); err != nil {
		s.logger.WithError(err).WithUserID(userID).Error("Failed to upsert acceptor copy")
	}
}

func (s *scheduledRideService) notifyMatched(ctx context.Context, matched *models.ScheduledRide, acceptorID primitive.ObjectID) {
	acceptor, err := s.userRepo.GetByID(ctx, acceptorID)
	name := "A co-rider"
	if err == nil {
		name = acceptor.Name
	}
	when := matched.ScheduledFor.Format("Jan 2 15:04")

	hostBody := fmt.Sprintf("%s accepted your scheduled ride for %s", name, when)
	if err := s.notifier.Notify(ctx, matched.User, models.NotificationTypeScheduleAccepted,
		"Scheduled ride accepted", hostBody, nil); err != nil {
		s.logger.WithError(err).WithUserID(matched.User).Warn("Failed to notify schedule host")
	}

	acceptorBody := fmt.Sprintf("You are matched for the ride scheduled at %s", when)
	if err := s.notifier.Notify(ctx, acceptorID, models.NotificationTypeScheduleAccepted,
		"Scheduled ride matched", acceptorBody, nil); err != nil {
		s.logger.WithError(err).WithUserID(acceptorID).Warn("Failed to notify schedule acceptor")
	}
}

func (s *scheduledRideService) resolveAcceptRace(ctx context.Context, scheduleID, userID primitive.ObjectID) (*models.ScheduledRide, error) {
	ride, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if ride.Status == models.ScheduleStatusMatched && ride.AcceptedBy != nil && *ride.AcceptedBy == userID {
		s.ensureAcceptorCopy(ctx, ride, userID)
		return ride, nil
	}
	return nil, ErrConflict
}

func (s *scheduledRideService) Cancel(ctx context.Context, userID, scheduleID primitive.ObjectID, reason string) (*models.ScheduledRide, error) {
	ride, err := s.scheduleRepo.Cancel(ctx, scheduleID, userID, reason)
	if err != nil {
		if err == ErrNotFound {
			return nil, s.classifyCancelMiss(ctx, scheduleID, userID)
		}
		return nil, err
	}

	// If the schedule was matched, tell the other party.
	var other *primitive.ObjectID
	if ride.AcceptedBy != nil {
		other = ride.AcceptedBy
	} else if ride.HostUser != nil {
		other = ride.HostUser
	}
	if other != nil {
		if err := s.notifier.Notify(ctx, *other, models.NotificationTypeRideUpdate,
			"Scheduled ride cancelled", "Your matched scheduled ride was cancelled.", nil); err != nil {
			s.logger.WithError(err).WithUserID(*other).Warn("Failed to notify schedule counterpart")
		}
	}

	return ride, nil
}

func (s *scheduledRideService) classifyCancelMiss(ctx context.Context, scheduleID, userID primitive.ObjectID) error {
	ride, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		return err
	}
	if ride.User != userID {
		return ErrForbidden
	}
	return ErrInvalidTransition
}
