package interfaces

import (
	"context"

	"gotogether/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LocationRepository interface {
	Upsert(ctx context.Context, location *models.UserLocation) error
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.UserLocation, error)
	// ListExcluding returns every stored location except the given user's.
	ListExcluding(ctx context.Context, userID primitive.ObjectID) ([]*models.UserLocation, error)
}
