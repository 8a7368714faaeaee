package interfaces

import (
	"context"

	"gotogether/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// FilterEligible narrows a candidate set down to users who may be
	// notified about a ride: phone verified, admin approved, DND off, and
	// matching the gender preference when one is set.
	FilterEligible(ctx context.Context, ids []primitive.ObjectID, genderPref models.GenderPreference) ([]*models.User, error)

	ListPendingApproval(ctx context.Context) ([]*models.User, error)

	// IncrementCancellations bumps the cancellation counter and returns the
	// updated user so the caller can recompute derived scores.
	IncrementCancellations(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	IncrementCompletedRides(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}
