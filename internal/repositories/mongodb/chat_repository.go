package mongodb

import (
	"context"
	"fmt"
	"time"

	"gotogether/internal/models"
	"gotogether/internal/repositories/interfaces"
	"gotogether/internal/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type chatRepository struct {
	rooms    *mongo.Collection
	messages *mongo.Collection
}

func NewChatRepository(db *mongo.Database) interfaces.ChatRepository {
	return &chatRepository{
		rooms:    db.Collection("chat_rooms"),
		messages: db.Collection("messages"),
	}
}

func (r *chatRepository) EnsureMembers(ctx context.Context, rideID primitive.ObjectID, memberIDs ...primitive.ObjectID) error {
	now := time.Now()
	update := bson.M{
		"$addToSet": bson.M{"members": bson.M{"$each": memberIDs}},
		"$set":      bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"ride_id":    rideID,
			"created_at": now,
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := r.rooms.UpdateOne(ctx, bson.M{"ride_id": rideID}, update, opts)
	if err != nil {
		return fmt.Errorf("failed to ensure chat members: %w", err)
	}

	return nil
}

func (r *chatRepository) RemoveMember(ctx context.Context, rideID, userID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"members": userID},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	_, err := r.rooms.UpdateOne(ctx, bson.M{"ride_id": rideID}, update)
	if err != nil {
		return fmt.Errorf("failed to remove chat member: %w", err)
	}

	return nil
}

func (r *chatRepository) GetByRideID(ctx context.Context, rideID primitive.ObjectID) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.rooms.FindOne(ctx, bson.M{"ride_id": rideID}).Decode(&room)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get chat room: %w", err)
	}

	return &room, nil
}

func (r *chatRepository) IsMember(ctx context.Context, rideID, userID primitive.ObjectID) (bool, error) {
	count, err := r.rooms.CountDocuments(ctx, bson.M{
		"ride_id": rideID,
		"members": userID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check chat membership: %w", err)
	}

	return count > 0, nil
}

func (r *chatRepository) SetPinnedLocation(ctx context.Context, rideID primitive.ObjectID, pin *models.PinnedLocation) error {
	update := bson.M{
		"$set": bson.M{
			"pinned_location": pin,
			"updated_at":      time.Now(),
		},
	}

	result, err := r.rooms.UpdateOne(ctx, bson.M{"ride_id": rideID}, update)
	if err != nil {
		return fmt.Errorf("failed to set pinned location: %w", err)
	}
	if result.MatchedCount == 0 {
		return services.ErrNotFound
	}

	return nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	_, err := r.messages.InsertOne(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

func (r *chatRepository) ListMessages(ctx context.Context, rideID primitive.ObjectID, limit int64) ([]*models.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.messages.Find(ctx, bson.M{"ride_id": rideID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []*models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	return messages, nil
}
