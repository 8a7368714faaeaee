package interfaces

import (
	"context"

	"gotogether/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RatingRepository interface {
	// Create inserts a rating. The unique (ride, from, to) index rejects a
	// second rating for the same pair.
	Create(ctx context.Context, rating *models.Rating) error
	ListForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.Rating, error)
}
