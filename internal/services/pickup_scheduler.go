package services

import (
	"context"
	"time"

	"gotogether/internal/config"
	"gotogether/internal/models"
	"gotogether/internal/repositories/interfaces"
	"gotogether/pkg/logger"
)

// PickupScheduler sweeps rides whose pickup countdown ran out. The expiry
// notice is emitted at most once per ride: MarkPickupExpired flips a flag
// atomically, so only one instance wins even with multiple servers running.
type PickupScheduler struct {
	rideRepo    interfaces.RideRepository
	chatService ChatService
	notifier    NotificationService
	interval    time.Duration
	batchSize   int
	logger      *logger.Logger
	stop        chan struct{}
}

func NewPickupScheduler(rideRepo interfaces.RideRepository, chatService ChatService, notifier NotificationService, cfg *config.SchedulerConfig, logger *logger.Logger) *PickupScheduler {
	return &PickupScheduler{
		rideRepo:    rideRepo,
		chatService: chatService,
		notifier:    notifier,
		interval:    cfg.PickupExpiryInterval,
		batchSize:   cfg.PickupExpiryBatch,
		logger:      logger,
		stop:        make(chan struct{}),
	}
}

func (s *PickupScheduler) Start() {
	go s.loop()
}

func (s *PickupScheduler) Stop() {
	close(s.stop)
}

func (s *PickupScheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			if err := s.RunOnce(ctx); err != nil {
				s.logger.WithError(err).Error("Pickup expiry sweep failed")
			}
			cancel()
		case <-s.stop:
			return
		}
	}
}

// RunOnce processes one batch of expired pickups.
func (s *PickupScheduler) RunOnce(ctx context.Context) error {
	rides, err := s.rideRepo.FindExpiredPickups(ctx, time.Now(), s.batchSize)
	if err != nil {
		return err
	}

	for _, ride := range rides {
		won, err := s.rideRepo.MarkPickupExpired(ctx, ride.ID)
		if err != nil {
			s.logger.WithError(err).WithRideID(ride.ID).Error("Failed to mark pickup expired")
			continue
		}
		if !won {
			continue
		}
		s.announceExpiry(ctx, ride)
	}
	return nil
}

func (s *PickupScheduler) announceExpiry(ctx context.Context, ride *models.Ride) {
	if err := s.chatService.SystemMessage(ctx, ride.ID, models.EventPickupExpired,
		"Pickup window has expired.", nil); err != nil {
		s.logger.WithError(err).WithRideID(ride.ID).Error("Failed to emit expiry message")
	}

	for _, participantID := range ride.ParticipantIDs() {
		if err := s.notifier.Notify(ctx, participantID, models.NotificationTypeRideUpdate,
			"Pickup time expired", "The pickup window for your ride has passed.", &ride.ID); err != nil {
			s.logger.WithError(err).WithUserID(participantID).Warn("Failed to notify about pickup expiry")
		}
	}

	s.logger.LogRideEvent(ride.ID, "pickup_expired", map[string]interface{}{
		"passengers": len(ride.Passengers),
	})
}
