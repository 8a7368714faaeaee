package services

import (
	"context"

	"gotogether/internal/models"
	"gotogether/internal/repositories/interfaces"
	"gotogether/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserService interface {
	GetByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UpdateSettings(ctx context.Context, userID primitive.ObjectID, input *UpdateSettingsInput) (*models.User, error)
	UpdateLocation(ctx context.Context, userID primitive.ObjectID, lat, lng float64) error

	ListPendingApproval(ctx context.Context, auth *models.AuthContext) ([]*models.User, error)
	ApproveUser(ctx context.Context, auth *models.AuthContext, userID primitive.ObjectID) error
}

type UpdateSettingsInput struct {
	Name        *string `json:"name"`
	Photo       *string `json:"photo"`
	DND         *bool   `json:"dnd"`
	DeviceToken *string `json:"device_token"`
}

type userService struct {
	userRepo     interfaces.UserRepository
	locationRepo interfaces.LocationRepository
	logger       *logger.Logger
}

func NewUserService(userRepo interfaces.UserRepository, locationRepo interfaces.LocationRepository, logger *logger.Logger) UserService {
	return &userService{
		userRepo:     userRepo,
		locationRepo: locationRepo,
		logger:       logger,
	}
}

func (s *userService) GetByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *userService) UpdateSettings(ctx context.Context, userID primitive.ObjectID, input *UpdateSettingsInput) (*models.User, error) {
	updates := make(map[string]interface{})
	if input.Name != nil && *input.Name != "" {
		updates["name"] = *input.Name
	}
	if input.Photo != nil {
		updates["photo"] = *input.Photo
	}
	if input.DND != nil {
		updates["dnd"] = *input.DND
	}
	if input.DeviceToken != nil {
		updates["device_token"] = *input.DeviceToken
	}

	if len(updates) == 0 {
		return s.userRepo.GetByID(ctx, userID)
	}

	if err := s.userRepo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}

	return s.userRepo.GetByID(ctx, userID)
}

func (s *userService) UpdateLocation(ctx context.Context, userID primitive.ObjectID, lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return ErrValidation
	}

	return s.locationRepo.Upsert(ctx, &models.UserLocation{
		UserID: userID,
		Lat:    lat,
		Lng:    lng,
	})
}

func (s *userService) ListPendingApproval(ctx context.Context, auth *models.AuthContext) ([]*models.User, error) {
	if !auth.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.userRepo.ListPendingApproval(ctx)
}

func (s *userService) ApproveUser(ctx context.Context, auth *models.AuthContext, userID primitive.ObjectID) error {
	if !auth.IsAdmin() {
		return ErrForbidden
	}

	return s.userRepo.Update(ctx, userID, map[string]interface{}{
		"is_admin_approved": true,
	})
}
