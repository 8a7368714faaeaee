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

type scheduledRideRepository struct {
	collection *mongo.Collection
}

func NewScheduledRideRepository(db *mongo.Database) interfaces.ScheduledRideRepository {
	return &scheduledRideRepository{
		collection: db.Collection("scheduled_rides"),
	}
}

func (r *scheduledRideRepository) Create(ctx context.Context, ride *models.ScheduledRide) error {
	ride.ID = primitive.NewObjectID()
	ride.CreatedAt = time.Now()
	ride.UpdatedAt = ride.CreatedAt

	_, err := r.collection.InsertOne(ctx, ride)
	if err != nil {
		return fmt.Errorf("failed to create scheduled ride: %w", err)
	}

	return nil
}

func (r *scheduledRideRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ScheduledRide, error) {
	var ride models.ScheduledRide
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get scheduled ride: %w", err)
	}

	return &ride, nil
}

func (r *scheduledRideRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.ScheduledRide, error) {
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_for", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled rides: %w", err)
	}
	defer cursor.Close(ctx)

	var rides []*models.ScheduledRide
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, fmt.Errorf("failed to decode scheduled rides: %w", err)
	}

	return rides, nil
}

func (r *scheduledRideRepository) ListOpenExcluding(ctx context.Context, userID primitive.ObjectID, after time.Time) ([]*models.ScheduledRide, error) {
	filter := bson.M{
		"user":          bson.M{"$ne": userID},
		"status":        models.ScheduleStatusScheduled,
		"scheduled_for": bson.M{"$gt": after},
	}

	opts := options.Find().SetSort(bson.D{{Key: "scheduled_for", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list open scheduled rides: %w", err)
	}
	defer cursor.Close(ctx)

	var rides []*models.ScheduledRide
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, fmt.Errorf("failed to decode scheduled rides: %w", err)
	}

	return rides, nil
}

func (r *scheduledRideRepository) MarkMatched(ctx context.Context, id, acceptedBy, linkedRideID primitive.ObjectID, at time.Time) (*models.ScheduledRide, error) {
	filter := bson.M{
		"_id":    id,
		"status": models.ScheduleStatusScheduled,
		"user":   bson.M{"$ne": acceptedBy},
	}
	update := bson.M{
		"$set": bson.M{
			"status":         models.ScheduleStatusMatched,
			"accepted_by":    acceptedBy,
			"accepted_at":    at,
			"linked_ride_id": linkedRideID,
			"updated_at":     at,
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ride models.ScheduledRide
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("failed to mark scheduled ride matched: %w", err)
	}

	return &ride, nil
}

func (r *scheduledRideRepository) UpsertAcceptorCopy(ctx context.Context, copy *models.ScheduledRide) (bool, error) {
	now := time.Now()
	copy.CreatedAt = now
	copy.UpdatedAt = now

	filter := bson.M{
		"user":           copy.User,
		"linked_ride_id": copy.LinkedRideID,
	}
	update := bson.M{
		"$setOnInsert": copy,
	}

	opts := options.Update().SetUpsert(true)
	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return false, fmt.Errorf("failed to upsert acceptor copy: %w", err)
	}

	return result.UpsertedCount == 1, nil
}

func (r *scheduledRideRepository) Cancel(ctx context.Context, id, userID primitive.ObjectID, reason string) (*models.ScheduledRide, error) {
	filter := bson.M{
		"_id":    id,
		"user":   userID,
		"status": bson.M{"$ne": models.ScheduleStatusCancelled},
	}
	update := bson.M{
		"$set": bson.M{
			"status":        models.ScheduleStatusCancelled,
			"cancel_reason": reason,
			"updated_at":    time.Now(),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ride models.ScheduledRide
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("failed to cancel scheduled ride: %w", err)
	}

	return &ride, nil
}

func (r *scheduledRideRepository) FindDueReminders(ctx context.Context, from, to time.Time, limit int) ([]*models.ScheduledRide, error) {
	filter := bson.M{
		"status":           models.ScheduleStatusScheduled,
		"scheduled_for":    bson.M{"$gte": from, "$lte": to},
		"reminder_sent_at": nil,
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "scheduled_for", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find due reminders: %w", err)
	}
	defer cursor.Close(ctx)

	var rides []*models.ScheduledRide
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, fmt.Errorf("failed to decode due reminders: %w", err)
	}

	return rides, nil
}

func (r *scheduledRideRepository) MarkReminderSent(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	filter := bson.M{
		"_id":              id,
		"reminder_sent_at": nil,
	}
	update := bson.M{
		"$set": bson.M{
			"reminder_sent_at": at,
			"updated_at":       at,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder sent: %w", err)
	}

	return result.ModifiedCount == 1, nil
}
