package services

import (
	"context"
	"fmt"
	"time"

	"gotogether/internal/models"
	"gotogether/internal/repositories/interfaces"
	"gotogether/internal/utils"
	"gotogether/internal/validators"
	"gotogether/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideService interface {
	Create(ctx context.Context, auth *models.AuthContext, input *validators.CreateRideInput) (*models.Ride, error)
	GetByID(ctx context.Context, userID, rideID primitive.ObjectID) (*models.Ride, error)
	GetActive(ctx context.Context, userID primitive.ObjectID) (*models.Ride, error)
	Nearby(ctx context.Context, userID primitive.ObjectID, lat, lng float64, radiusMeters int) ([]*models.RideWithDistance, error)

	// Accept admits the user as a passenger. Repeating an accept the user
	// already holds succeeds without side effects. The first successful join
	// arms the pickup countdown.
	Accept(ctx context.Context, auth *models.AuthContext, rideID primitive.ObjectID) (*models.Ride, error)

	// Leave removes the user's seat if held and is a no-op otherwise, safe
	// in every ride state. No reliability penalty either way.
	Leave(ctx context.Context, userID, rideID primitive.ObjectID) (*models.Ride, error)

	// Cancel is dual-mode: the rider cancels the whole ride, a passenger
	// cancels their seat. Either way the actor's cancellation counter and
	// reliability score take the hit.
	Cancel(ctx context.Context, userID, rideID primitive.ObjectID) (*models.Ride, error)

	// Complete finishes the ride and credits every participant's completed
	// ride count. Only a cancelled ride refuses completion.
	Complete(ctx context.Context, userID, rideID primitive.ObjectID) (*models.Ride, error)

	StartPickupCountdown(ctx context.Context, userID, rideID primitive.ObjectID, seconds int) (*models.Ride, error)
	UpdateStops(ctx context.Context, userID, rideID primitive.ObjectID, stops []models.GeoPoint) (*models.Ride, error)

	// Panic broadcasts an alert to every other participant.
	Panic(ctx context.Context, userID, rideID primitive.ObjectID, lat, lng float64) error
}

type rideService struct {
	rideRepo    interfaces.RideRepository
	userRepo    interfaces.UserRepository
	chatService ChatService
	matching    MatchingService
	notifier    NotificationService
	smsService  SMSService
	logger      *logger.Logger
}

func NewRideService(
	rideRepo interfaces.RideRepository,
	userRepo interfaces.UserRepository,
	chatService ChatService,
	matching MatchingService,
	notifier NotificationService,
	smsService SMSService,
	logger *logger.Logger,
) RideService {
	return &rideService{
		rideRepo:    rideRepo,
		userRepo:    userRepo,
		chatService: chatService,
		matching:    matching,
		notifier:    notifier,
		smsService:  smsService,
		logger:      logger,
	}
}

func (s *rideService) Create(ctx context.Context, auth *models.AuthContext, input *validators.CreateRideInput) (*models.Ride, error) {
	if !auth.PhoneVerified || !auth.AdminApproved {
		return nil, ErrForbidden
	}

	// One active ride per user at a time.
	if _, err := s.rideRepo.GetActiveForUser(ctx, auth.UserID); err == nil {
		return nil, ErrConflict
	} else if err != ErrNotFound {
		return nil, err
	}

	ride := &models.Ride{
		Rider:            auth.UserID,
		Origin:           input.Origin,
		Destination:      input.Destination,
		Stops:            input.Stops,
		Seats:            input.Seats,
		GenderPreference: input.GenderPreference,
		RadiusMeters:     input.RadiusMeters,
		Passengers:       []primitive.ObjectID{},
		Status:           models.RideStatusOpen,
	}
	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	if err := s.chatService.EnsureMembers(ctx, ride.ID, auth.UserID); err != nil {
		s.logger.WithError(err).WithRideID(ride.ID).Error("Failed to create chat room")
	}

	host, err := s.userRepo.GetByID(ctx, auth.UserID)
	hostName := "Someone"
	if err == nil {
		hostName = host.Name
	}
	if notified, err := s.matching.NotifyNearby(ctx, ride, hostName); err != nil {
		s.logger.WithError(err).WithRideID(ride.ID).Warn("Nearby fan-out failed")
	} else {
		s.logger.LogRideEvent(ride.ID, "created", map[string]interface{}{"notified": notified})
	}

	return ride, nil
}

func (s *rideService) GetByID(ctx context.Context, userID, rideID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	// Ride details are participants only. Discovery goes through Nearby.
	if !ride.IsParticipant(userID) {
		return nil, ErrForbidden
	}

	return ride, nil
}

func (s *rideService) GetActive(ctx context.Context, userID primitive.ObjectID) (*models.Ride, error) {
	return s.rideRepo.GetActiveForUser(ctx, userID)
}

func (s *rideService) Nearby(ctx context.Context, userID primitive.ObjectID, lat, lng float64, radiusMeters int) ([]*models.RideWithDistance, error) {
	return s.matching.NearbyRides(ctx, userID, lat, lng, radiusMeters)
}

func (s *rideService) Accept(ctx context.Context, auth *models.AuthContext, rideID primitive.ObjectID) (*models.Ride, error) {
	if !auth.PhoneVerified || !auth.AdminApproved {
		return nil, ErrForbidden
	}

	userID := auth.UserID
	current, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if current.IsRider(userID) {
		return nil, ErrForbidden
	}
	if current.HasPassenger(userID) {
		// Repeat accept, nothing to do.
		return current, nil
	}

	ride, err := s.rideRepo.AddPassenger(ctx, rideID, userID)
	if err != nil {
		if err != ErrNotFound {
			return nil, err
		}
		if missErr := s.classifyAcceptMiss(ctx, rideID, userID); missErr != nil {
			return nil, missErr
		}
		// Lost a race against our own double-tap; the seat is held.
		return s.rideRepo.GetByID(ctx, rideID)
	}

	if err := s.chatService.EnsureMembers(ctx, rideID, ride.Rider, userID); err != nil {
		s.logger.WithError(err).WithRideID(rideID).Error("Failed to sync chat membership")
	}

	// First join arms the pickup countdown; later joins see the deadline
	// already set and skip.
	armed, err := s.rideRepo.SetPickupWaitIfUnset(ctx, rideID, time.Now().Add(utils.PickupCountdown))
	if err != nil {
		s.logger.WithError(err).WithRideID(rideID).Error("Failed to arm pickup countdown")
	} else if armed != nil {
		ride = armed
		deadline := armed.PickupDeadline
		meta := map[string]interface{}{}
		if deadline != nil {
			meta["deadline"] = deadline.Unix()
		}
		if err := s.chatService.SystemMessage(ctx, rideID, models.EventPickupCountdownStarted,
			"Pickup countdown started. Be at the pickup point in 10 minutes.", meta); err != nil {
			s.logger.WithError(err).WithRideID(rideID).Error("Failed to emit countdown message")
		}
	}

	joiner, err := s.userRepo.GetByID(ctx, userID)
	joinerName := "A co-rider"
	if err == nil {
		joinerName = joiner.Name
	}
	if err := s.notifier.Notify(ctx, ride.Rider, models.NotificationTypeRideUpdate,
		"Ride accepted", fmt.Sprintf("%s joined your ride", joinerName), &rideID); err != nil {
		s.logger.WithError(err).WithRideID(rideID).Warn("Failed to notify rider about join")
	}

	return ride, nil
}

// classifyAcceptMiss turns a failed conditional join into the precise refusal.
func (s *rideService) classifyAcceptMiss(ctx context.Context, rideID, userID primitive.ObjectID) error {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return err
	}
	if ride.HasPassenger(userID) {
		return nil
	}
	if ride.Status != models.RideStatusOpen && ride.Status != models.RideStatusPickupWait {
		return ErrRideUnavailable
	}
	if len(ride.Passengers) >= ride.Seats {
		return ErrRideFull
	}
	return ErrRideUnavailable
}

func (s *rideService) Leave(ctx context.Context, userID, rideID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.rideRepo.RemovePassenger(ctx, rideID, userID)
	if err != nil {
		if err == ErrNotFound {
			// No seat held; leaving is a no-op.
			return s.rideRepo.GetByID(ctx, rideID)
		}
		return nil, err
	}

	s.afterDeparture(ctx, ride, userID)
	return ride, nil
}

func (s *rideService) afterDeparture(ctx context.Context, ride *models.Ride, userID primitive.ObjectID) {
	if err := s.chatService.RemoveMember(ctx, ride.ID, userID); err != nil {
		s.logger.WithError(err).WithRideID(ride.ID).Error("Failed to remove chat member")
	}

	leaver, err := s.userRepo.GetByID(ctx, userID)
	name := "A co-rider"
	if err == nil {
		name = leaver.Name
	}
	if err := s.chatService.SystemMessage(ctx, ride.ID, models.EventPassengerLeft,
		fmt.Sprintf("%s left the ride", name), map[string]interface{}{"user_id": userID.Hex()}); err != nil {
		s.logger.WithError(err).WithRideID(ride.ID).Error("Failed to emit departure message")
	}
}

func (s *rideService) Cancel(ctx context.Context, userID, rideID primitive.ObjectID) (*models.Ride, error) {
	current, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if current.IsRider(userID) {
		return s.cancelAsRider(ctx, userID, rideID)
	}
	return s.cancelAsPassenger(ctx, userID, rideID, current)
}

func (s *rideService) cancelAsRider(ctx context.Context, riderID, rideID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.rideRepo.CancelByRider(ctx, rideID, riderID)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	s.penalizeCancellation(ctx, riderID)

	if err := s.chatService.SystemMessage(ctx, rideID, models.EventRideCancelled,
		"The ride was cancelled by the host.", nil); err != nil {
		s.logger.WithError(err).WithRideID(rideID).Error("Failed to emit cancel message")
	}

	for _, passengerID := range ride.Passengers {
		if err := s.notifier.Notify(ctx, passengerID, models.NotificationTypeRideUpdate,
			"Ride cancelled", "The host cancelled the ride you joined.", &rideID); err != nil {
			s.logger.WithError(err).WithUserID(passengerID).Warn("Failed to notify passenger of cancel")
		}
	}

	return ride, nil
}

func (s *rideService) cancelAsPassenger(ctx context.Context, userID, rideID primitive.ObjectID, current *models.Ride) (*models.Ride, error) {
	if !current.HasPassenger(userID) {
		return nil, ErrForbidden
	}
	if current.IsTerminal() {
		return nil, ErrInvalidTransition
	}

	ride, err := s.rideRepo.RemovePassenger(ctx, rideID, userID)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	s.penalizeCancellation(ctx, userID)
	s.afterDeparture(ctx, ride, userID)

	return ride, nil
}

func (s *rideService) penalizeCancellation(ctx context.Context, userID primitive.ObjectID) {
	user, err := s.userRepo.IncrementCancellations(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithUserID(userID).Error("Failed to increment cancellations")
		return
	}

	score := ReliabilityScore(user.Cancellations)
	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{
		"reliability_score": score,
		"discount_pct":      DiscountPct(score, user.RatingAvg, user.CompletedRides),
	}); err != nil {
		s.logger.WithError(err).WithUserID(userID).Error("Failed to update reliability score")
	}
}

func (s *rideService) Complete(ctx context.Context, userID, rideID primitive.ObjectID) (*models.Ride, error) {
	current, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !current.IsRider(userID) {
		return nil, ErrForbidden
	}
	if current.Status == models.RideStatusCompleted {
		return current, nil
	}
	if current.Status == models.RideStatusCancelled {
		return nil, ErrInvalidTransition
	}

	ride, err := s.rideRepo.Complete(ctx, rideID, userID)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	for _, participantID := range ride.ParticipantIDs() {
		s.creditCompletion(ctx, participantID)
	}

	if err := s.chatService.SystemMessage(ctx, rideID, models.EventRideCompleted,
		"Ride completed. Thanks for riding together!", nil); err != nil {
		s.logger.WithError(err).WithRideID(rideID).Error("Failed to emit completion message")
	}

	return ride, nil
}

func (s *rideService) creditCompletion(ctx context.Context, userID primitive.ObjectID) {
	user, err := s.userRepo.IncrementCompletedRides(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithUserID(userID).Error("Failed to increment completed rides")
		return
	}

	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{
		"discount_pct": DiscountPct(user.ReliabilityScore, user.RatingAvg, user.CompletedRides),
	}); err != nil {
		s.logger.WithError(err).WithUserID(userID).Error("Failed to update discount tier")
	}
}

func (s *rideService) StartPickupCountdown(ctx context.Context, userID, rideID primitive.ObjectID, seconds int) (*models.Ride, error) {
	seconds = validators.NormalizeCountdownSeconds(seconds)
	deadline := time.Now().Add(time.Duration(seconds) * time.Second)

	ride, err := s.rideRepo.SetPickupCountdown(ctx, rideID, userID, deadline)
	if err != nil {
		if err == ErrNotFound {
			return nil, s.classifyCountdownMiss(ctx, rideID, userID)
		}
		return nil, err
	}

	if err := s.chatService.SystemMessage(ctx, rideID, models.EventPickupCountdownStarted,
		fmt.Sprintf("Pickup countdown started. %d seconds to pickup.", seconds),
		map[string]interface{}{"deadline": deadline.Unix()}); err != nil {
		s.logger.WithError(err).WithRideID(rideID).Error("Failed to emit countdown message")
	}

	return ride, nil
}

func (s *rideService) classifyCountdownMiss(ctx context.Context, rideID, userID primitive.ObjectID) error {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return err
	}
	if !ride.IsRider(userID) {
		return ErrForbidden
	}
	return ErrInvalidTransition
}

func (s *rideService) UpdateStops(ctx context.Context, userID, rideID primitive.ObjectID, stops []models.GeoPoint) (*models.Ride, error) {
	ride, err := s.rideRepo.UpdateStops(ctx, rideID, userID, stops)
	if err != nil {
		if err == ErrNotFound {
			return nil, s.classifyCountdownMiss(ctx, rideID, userID)
		}
		return nil, err
	}
	return ride, nil
}

func (s *rideService) Panic(ctx context.Context, userID, rideID primitive.ObjectID, lat, lng float64) error {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return err
	}
	if !ride.IsParticipant(userID) {
		return ErrForbidden
	}

	sender, err := s.userRepo.GetByID(ctx, userID)
	name := "A co-rider"
	if err == nil {
		name = sender.Name
	}

	mapLink := utils.MapLink(lat, lng)
	if err := s.chatService.SystemMessage(ctx, rideID, models.EventPanicAlert,
		fmt.Sprintf("%s triggered a panic alert", name),
		map[string]interface{}{"lat": lat, "lng": lng, "map_link": mapLink}); err != nil {
		s.logger.WithError(err).WithRideID(rideID).Error("Failed to emit panic message")
	}

	for _, participantID := range ride.ParticipantIDs() {
		if participantID == userID {
			continue
		}
		if err := s.notifier.Notify(ctx, participantID, models.NotificationTypePanicAlert,
			"Panic alert", fmt.Sprintf("%s needs help: %s", name, mapLink), &rideID); err != nil {
			s.logger.WithError(err).WithUserID(participantID).Warn("Failed to deliver panic alert")
		}
		if s.smsService != nil {
			if user, err := s.userRepo.GetByID(ctx, participantID); err == nil && user.Phone != "" {
				_ = s.smsService.SendSMS(ctx, user.Phone, fmt.Sprintf("PANIC: %s needs help. Last location: %s", name, mapLink))
			}
		}
	}

	return nil
}
