package services

import (
	"context"
	"fmt"

	"gotogether/internal/models"
	"gotogether/internal/repositories/interfaces"
	"gotogether/internal/utils"
	"gotogether/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, name, phone, password string, gender models.Gender) (*models.User, error)
	Login(ctx context.Context, phone, password string) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*utils.TokenPair, error)
	SendPhoneOTP(ctx context.Context, phone string) error
	VerifyPhoneOTP(ctx context.Context, phone, code string) (*AuthResponse, error)
}

type AuthResponse struct {
	User   *models.User     `json:"user"`
	Tokens *utils.TokenPair `json:"tokens"`
}

type authService struct {
	userRepo   interfaces.UserRepository
	cache      CacheService
	smsService SMSService
	jwtSecret  string
	logger     *logger.Logger
}

func NewAuthService(
	userRepo interfaces.UserRepository,
	cache CacheService,
	smsService SMSService,
	jwtSecret string,
	logger *logger.Logger,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		cache:      cache,
		smsService: smsService,
		jwtSecret:  jwtSecret,
		logger:     logger,
	}
}

func (s *authService) Register(ctx context.Context, name, phone, password string, gender models.Gender) (*models.User, error) {
	phone = utils.NormalizePhone(phone)
	if !utils.IsValidPhone(phone) {
		return nil, ErrValidation
	}

	if _, err := s.userRepo.GetByPhone(ctx, phone); err == nil {
		return nil, ErrConflict
	} else if err != ErrNotFound {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if gender == "" {
		gender = models.GenderOther
	}

	user := &models.User{
		Name:             name,
		Phone:            phone,
		Password:         string(hash),
		Gender:           gender,
		Role:             models.UserRoleUser,
		ReliabilityScore: 100,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.sendOTP(ctx, phone); err != nil {
		s.logger.WithError(err).WithField("phone", utils.MaskPhone(phone)).Warn("Failed to send registration OTP")
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, phone, password string) (*AuthResponse, error) {
	phone = utils.NormalizePhone(phone)

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}

	tokens, err := utils.GenerateTokenPair(user.ID, string(user.Role), s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &AuthResponse{User: user, Tokens: tokens}, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*utils.TokenPair, error) {
	claims, err := utils.ValidateToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, ErrUnauthorized
	}

	userID, err := claims.UserObjectID()
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUnauthorized
	}

	tokens, err := utils.GenerateTokenPair(user.ID, string(user.Role), s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return tokens, nil
}

func (s *authService) SendPhoneOTP(ctx context.Context, phone string) error {
	phone = utils.NormalizePhone(phone)
	if !utils.IsValidPhone(phone) {
		return ErrValidation
	}

	if _, err := s.userRepo.GetByPhone(ctx, phone); err != nil {
		return err
	}

	return s.sendOTP(ctx, phone)
}

func (s *authService) VerifyPhoneOTP(ctx context.Context, phone, code string) (*AuthResponse, error) {
	phone = utils.NormalizePhone(phone)

	var stored string
	if err := s.cache.Get(ctx, otpKey(phone), &stored); err != nil {
		if IsCacheMiss(err) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if stored != code {
		return nil, ErrUnauthorized
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user.ID, map[string]interface{}{
		"is_phone_verified": true,
	}); err != nil {
		return nil, err
	}
	user.IsPhoneVerified = true

	if err := s.cache.Delete(ctx, otpKey(phone)); err != nil {
		s.logger.WithError(err).Warn("Failed to clear OTP key")
	}

	tokens, err := utils.GenerateTokenPair(user.ID, string(user.Role), s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &AuthResponse{User: user, Tokens: tokens}, nil
}

func (s *authService) sendOTP(ctx context.Context, phone string) error {
	code := utils.GenerateOTP()
	if err := s.cache.Set(ctx, otpKey(phone), code, utils.OTPExpiry); err != nil {
		return err
	}

	return s.smsService.SendOTP(ctx, phone, code)
}

func otpKey(phone string) string {
	return "otp:" + phone
}
