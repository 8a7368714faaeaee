package interfaces

import (
	"context"

	"gotogether/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatRepository interface {
	// EnsureMembers upserts the ride's room and adds the given members.
	EnsureMembers(ctx context.Context, rideID primitive.ObjectID, memberIDs ...primitive.ObjectID) error
	RemoveMember(ctx context.Context, rideID, userID primitive.ObjectID) error
	GetByRideID(ctx context.Context, rideID primitive.ObjectID) (*models.ChatRoom, error)
	IsMember(ctx context.Context, rideID, userID primitive.ObjectID) (bool, error)
	SetPinnedLocation(ctx context.Context, rideID primitive.ObjectID, pin *models.PinnedLocation) error

	CreateMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, rideID primitive.ObjectID, limit int64) ([]*models.Message, error)
}
