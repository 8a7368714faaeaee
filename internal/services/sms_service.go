package services

import (
	"context"

	"gotogether/pkg/logger"
	"gotogether/pkg/sms"
)

type SMSService interface {
	SendSMS(ctx context.Context, phone, message string) error
	SendOTP(ctx context.Context, phone, code string) error
}

type smsService struct {
	provider sms.SMSProvider
	from     string
	logger   *logger.Logger
}

func NewSMSService(provider sms.SMSProvider, from string, logger *logger.Logger) SMSService {
	return &smsService{
		provider: provider,
		from:     from,
		logger:   logger,
	}
}

func (s *smsService) SendSMS(ctx context.Context, phone, message string) error {
	_, err := s.provider.SendSMS(ctx, &sms.SMSRequest{
		To:      phone,
		From:    s.from,
		Message: message,
		Type:    "transactional",
	})
	if err != nil {
		s.logger.WithError(err).WithField("phone", phone).Warn("Failed to send SMS")
		return err
	}

	return nil
}

func (s *smsService) SendOTP(ctx context.Context, phone, code string) error {
	_, err := s.provider.SendSMS(ctx, &sms.SMSRequest{
		To:      phone,
		From:    s.from,
		Message: "Your verification code is " + code,
		Type:    "otp",
	})
	if err != nil {
		s.logger.WithError(err).WithField("phone", phone).Warn("Failed to send OTP")
		return err
	}

	return nil
}
