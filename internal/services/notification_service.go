package services

import (
	"context"

	"gotogether/internal/models"
	"gotogether/internal/repositories/interfaces"
	"gotogether/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService interface {
	// Notify persists an in-app notification and fans out a push plus a
	// realtime event. Delivery failures are logged, never propagated: the
	// triggering operation must not fail because a device was unreachable.
	Notify(ctx context.Context, userID primitive.ObjectID, nType models.NotificationType, title, body string, rideID *primitive.ObjectID) error

	List(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) error
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

type notificationService struct {
	notificationRepo interfaces.NotificationRepository
	userRepo         interfaces.UserRepository
	pushService      PushService
	broadcaster      Broadcaster
	logger           *logger.Logger
}

func NewNotificationService(
	notificationRepo interfaces.NotificationRepository,
	userRepo interfaces.UserRepository,
	pushService PushService,
	broadcaster Broadcaster,
	logger *logger.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		pushService:      pushService,
		broadcaster:      broadcaster,
		logger:           logger,
	}
}

func (s *notificationService) Notify(ctx context.Context, userID primitive.ObjectID, nType models.NotificationType, title, body string, rideID *primitive.ObjectID) error {
	notification := &models.Notification{
		User:   userID,
		Type:   nType,
		Title:  title,
		Body:   body,
		RideID: rideID,
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return err
	}

	data := map[string]interface{}{
		"id":    notification.ID.Hex(),
		"type":  string(nType),
		"title": title,
		"body":  body,
	}
	if rideID != nil {
		data["ride_id"] = rideID.Hex()
	}
	if s.broadcaster != nil {
		s.broadcaster.SendToUser(userID, EventNotification, data)
	}

	if s.pushService != nil {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			s.logger.WithError(err).WithUserID(userID).Warn("Failed to load user for push")
			return nil
		}
		pushData := map[string]string{"type": string(nType)}
		if rideID != nil {
			pushData["ride_id"] = rideID.Hex()
		}
		if err := s.pushService.SendPush(ctx, user.DeviceToken, title, body, pushData); err != nil {
			s.logger.WithError(err).WithUserID(userID).Warn("Failed to push notification")
		}
	}

	return nil
}

func (s *notificationService) List(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.notificationRepo.ListByUser(ctx, userID, limit)
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

func (s *notificationService) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}
