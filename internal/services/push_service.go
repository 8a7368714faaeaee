package services

import (
	"context"

	"gotogether/pkg/logger"
	"gotogether/pkg/push"
)

type PushService interface {
	SendPush(ctx context.Context, token, title, body string, data map[string]string) error
}

type pushService struct {
	provider push.PushProvider
	logger   *logger.Logger
}

func NewPushService(provider push.PushProvider, logger *logger.Logger) PushService {
	return &pushService{
		provider: provider,
		logger:   logger,
	}
}

func (s *pushService) SendPush(ctx context.Context, token, title, body string, data map[string]string) error {
	if token == "" || s.provider == nil {
		return nil
	}

	_, err := s.provider.SendNotification(ctx, &push.NotificationRequest{
		Token: token,
		Title: title,
		Body:  body,
		Data:  data,
	})
	if err != nil {
		s.logger.WithError(err).Warn("Failed to send push notification")
		return err
	}

	return nil
}
