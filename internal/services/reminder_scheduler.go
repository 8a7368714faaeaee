package services

import (
	"context"
	"fmt"
	"time"

	"gotogether/internal/config"
	"gotogether/internal/models"
	"gotogether/internal/repositories/interfaces"
	"gotogether/internal/utils"
	"gotogether/pkg/logger"
)

// ReminderScheduler sends the one-hour heads-up for scheduled rides. The
// reminder is stamped before delivery: a crash between stamp and send loses
// that reminder rather than duplicating it.
type ReminderScheduler struct {
	scheduledRepo interfaces.ScheduledRideRepository
	userRepo      interfaces.UserRepository
	notifier      NotificationService
	smsService    SMSService
	interval      time.Duration
	batchSize     int
	logger        *logger.Logger
	stop          chan struct{}
}

func NewReminderScheduler(scheduledRepo interfaces.ScheduledRideRepository, userRepo interfaces.UserRepository, notifier NotificationService, smsService SMSService, cfg *config.SchedulerConfig, logger *logger.Logger) *ReminderScheduler {
	return &ReminderScheduler{
		scheduledRepo: scheduledRepo,
		userRepo:      userRepo,
		notifier:      notifier,
		smsService:    smsService,
		interval:      cfg.ReminderInterval,
		batchSize:     cfg.ReminderBatch,
		logger:        logger,
		stop:          make(chan struct{}),
	}
}

func (s *ReminderScheduler) Start() {
	go s.loop()
}

func (s *ReminderScheduler) Stop() {
	close(s.stop)
}

func (s *ReminderScheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			if err := s.RunOnce(ctx); err != nil {
				s.logger.WithError(err).Error("Reminder sweep failed")
			}
			cancel()
		case <-s.stop:
			return
		}
	}
}

// RunOnce reminds for rides scheduled roughly one hour out.
func (s *ReminderScheduler) RunOnce(ctx context.Context) error {
	now := time.Now()
	from := now.Add(utils.ReminderWindow - utils.ReminderTolerance)
	to := now.Add(utils.ReminderWindow + utils.ReminderTolerance)

	rides, err := s.scheduledRepo.FindDueReminders(ctx, from, to, s.batchSize)
	if err != nil {
		return err
	}

	for _, ride := range rides {
		won, err := s.scheduledRepo.MarkReminderSent(ctx, ride.ID, now)
		if err != nil {
			s.logger.WithError(err).WithRideID(ride.ID).Error("Failed to stamp reminder")
			continue
		}
		if !won {
			continue
		}
		s.remind(ctx, ride)
	}
	return nil
}

func (s *ReminderScheduler) remind(ctx context.Context, ride *models.ScheduledRide) {
	body := fmt.Sprintf("Your ride from %s to %s departs at %s.",
		utils.SafeArea(ride.Origin.Address), utils.SafeArea(ride.Destination.Address), ride.ScheduledFor.Format("15:04"))

	if err := s.notifier.Notify(ctx, ride.User, models.NotificationTypeScheduleReminder,
		"Upcoming ride", body, nil); err != nil {
		s.logger.WithError(err).WithUserID(ride.User).Warn("Failed to deliver ride reminder")
	}

	user, err := s.userRepo.GetByID(ctx, ride.User)
	if err != nil {
		s.logger.WithError(err).WithUserID(ride.User).Warn("Failed to load user for reminder SMS")
		return
	}
	if err := s.smsService.SendSMS(ctx, user.Phone, body); err != nil {
		s.logger.WithError(err).WithUserID(ride.User).Warn("Failed to send reminder SMS")
	}
}
