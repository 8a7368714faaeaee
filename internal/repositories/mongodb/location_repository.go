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

type locationRepository struct {
	collection *mongo.Collection
}

func NewLocationRepository(db *mongo.Database) interfaces.LocationRepository {
	return &locationRepository{
		collection: db.Collection("locations"),
	}
}

func (r *locationRepository) Upsert(ctx context.Context, location *models.UserLocation) error {
	location.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"lat":        location.Lat,
			"lng":        location.Lng,
			"updated_at": location.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"user_id": location.UserID,
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"user_id": location.UserID}, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert location: %w", err)
	}

	return nil
}

func (r *locationRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.UserLocation, error) {
	var location models.UserLocation
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&location)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	return &location, nil
}

func (r *locationRepository) ListExcluding(ctx context.Context, userID primitive.ObjectID) ([]*models.UserLocation, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": bson.M{"$ne": userID}})
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer cursor.Close(ctx)

	var locations []*models.UserLocation
	if err := cursor.All(ctx, &locations); err != nil {
		return nil, fmt.Errorf("failed to decode locations: %w", err)
	}

	return locations, nil
}
