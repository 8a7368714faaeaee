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

var activeStatuses = []models.RideStatus{
	models.RideStatusOpen,
	models.RideStatusPickupWait,
	models.RideStatusStarted,
}

// A ride stays joinable while waiting at the pickup point.
var joinableStatuses = []models.RideStatus{
	models.RideStatusOpen,
	models.RideStatusPickupWait,
}

type rideRepository struct {
	collection *mongo.Collection
}

func NewRideRepository(db *mongo.Database) interfaces.RideRepository {
	return &rideRepository{
		collection: db.Collection("rides"),
	}
}

func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	if ride.ID.IsZero() {
		ride.ID = primitive.NewObjectID()
	}
	ride.CreatedAt = time.Now()
	ride.UpdatedAt = ride.CreatedAt

	_, err := r.collection.InsertOne(ctx, ride)
	if err != nil {
		return fmt.Errorf("failed to create ride: %w", err)
	}

	return nil
}

func (r *rideRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	var ride models.Ride
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}

	return &ride, nil
}

func (r *rideRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update ride: %w", err)
	}
	if result.MatchedCount == 0 {
		return services.ErrNotFound
	}

	return nil
}

func (r *rideRepository) GetActiveForUser(ctx context.Context, userID primitive.ObjectID) (*models.Ride, error) {
	filter := bson.M{
		"status": bson.M{"$in": activeStatuses},
		"$or": []bson.M{
			{"rider": userID},
			{"passengers": userID},
		},
	}

	var ride models.Ride
	err := r.collection.FindOne(ctx, filter).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active ride: %w", err)
	}

	return &ride, nil
}

func (r *rideRepository) ListJoinable(ctx context.Context, userID primitive.ObjectID) ([]*models.Ride, error) {
	filter := bson.M{
		"status":     bson.M{"$in": joinableStatuses},
		"rider":      bson.M{"$ne": userID},
		"passengers": bson.M{"$ne": userID},
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list joinable rides: %w", err)
	}
	defer cursor.Close(ctx)

	var rides []*models.Ride
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, fmt.Errorf("failed to decode rides: %w", err)
	}

	return rides, nil
}

func (r *rideRepository) AddPassenger(ctx context.Context, rideID, userID primitive.ObjectID) (*models.Ride, error) {
	// Single conditional update: joinable ride, user not aboard, seat free.
	// Losing any of the three conditions means no write at all.
	filter := bson.M{
		"_id":        rideID,
		"status":     bson.M{"$in": joinableStatuses},
		"passengers": bson.M{"$ne": userID},
		"$expr":      bson.M{"$lt": []interface{}{bson.M{"$size": "$passengers"}, "$seats"}},
	}
	update := bson.M{
		"$addToSet": bson.M{"passengers": userID},
		"$set":      bson.M{"updated_at": time.Now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ride models.Ride
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("failed to add passenger: %w", err)
	}

	return &ride, nil
}

func (r *rideRepository) SetPickupWaitIfUnset(ctx context.Context, rideID primitive.ObjectID, deadline time.Time) (*models.Ride, error) {
	filter := bson.M{
		"_id":             rideID,
		"status":          bson.M{"$in": joinableStatuses},
		"pickup_deadline": nil,
	}
	update := bson.M{
		"$set": bson.M{
			"status":                  models.RideStatusPickupWait,
			"pickup_deadline":         deadline,
			"pickup_expired_notified": false,
			"updated_at":              time.Now(),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ride models.Ride
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Another join already armed the countdown, or the ride left
			// the joinable states in the meantime.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to set pickup wait: %w", err)
	}

	return &ride, nil
}

func (r *rideRepository) SetPickupCountdown(ctx context.Context, rideID, riderID primitive.ObjectID, deadline time.Time) (*models.Ride, error) {
	filter := bson.M{
		"_id":    rideID,
		"rider":  riderID,
		"status": bson.M{"$in": []models.RideStatus{models.RideStatusOpen, models.RideStatusPickupWait}},
	}
	update := bson.M{
		"$set": bson.M{
			"status":                  models.RideStatusPickupWait,
			"pickup_deadline":         deadline,
			"pickup_expired_notified": false,
			"updated_at":              time.Now(),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ride models.Ride
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("failed to set pickup countdown: %w", err)
	}

	return &ride, nil
}

// RemovePassenger pulls the user from the passenger list no matter the ride
// status. Leaving is always safe.
func (r *rideRepository) RemovePassenger(ctx context.Context, rideID, userID primitive.ObjectID) (*models.Ride, error) {
	filter := bson.M{
		"_id":        rideID,
		"passengers": userID,
	}
	update := bson.M{
		"$pull": bson.M{"passengers": userID},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ride models.Ride
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("failed to remove passenger: %w", err)
	}

	return &ride, nil
}

func (r *rideRepository) CancelByRider(ctx context.Context, rideID, riderID primitive.ObjectID) (*models.Ride, error) {
	now := time.Now()
	filter := bson.M{
		"_id":    rideID,
		"rider":  riderID,
		"status": bson.M{"$nin": []models.RideStatus{models.RideStatusCancelled, models.RideStatusCompleted}},
	}
	update := bson.M{
		"$set": bson.M{
			"status":       models.RideStatusCancelled,
			"cancelled_at": now,
			"updated_at":   now,
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ride models.Ride
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("failed to cancel ride: %w", err)
	}

	return &ride, nil
}

func (r *rideRepository) Complete(ctx context.Context, rideID, riderID primitive.ObjectID) (*models.Ride, error) {
	now := time.Now()
	filter := bson.M{
		"_id":    rideID,
		"rider":  riderID,
		"status": bson.M{"$nin": []models.RideStatus{models.RideStatusCancelled, models.RideStatusCompleted}},
	}
	update := bson.M{
		"$set": bson.M{
			"status":       models.RideStatusCompleted,
			"completed_at": now,
			"updated_at":   now,
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ride models.Ride
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("failed to complete ride: %w", err)
	}

	return &ride, nil
}

func (r *rideRepository) UpdateStops(ctx context.Context, rideID, riderID primitive.ObjectID, stops []models.GeoPoint) (*models.Ride, error) {
	filter := bson.M{
		"_id":    rideID,
		"rider":  riderID,
		"status": models.RideStatusOpen,
	}
	update := bson.M{
		"$set": bson.M{
			"stops":      stops,
			"updated_at": time.Now(),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ride models.Ride
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update stops: %w", err)
	}

	return &ride, nil
}

func (r *rideRepository) FindExpiredPickups(ctx context.Context, now time.Time, limit int) ([]*models.Ride, error) {
	filter := bson.M{
		"status":                  models.RideStatusPickupWait,
		"pickup_deadline":         bson.M{"$lte": now},
		"pickup_expired_notified": false,
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "pickup_deadline", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired pickups: %w", err)
	}
	defer cursor.Close(ctx)

	var rides []*models.Ride
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, fmt.Errorf("failed to decode expired pickups: %w", err)
	}

	return rides, nil
}

func (r *rideRepository) MarkPickupExpired(ctx context.Context, rideID primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"_id":                     rideID,
		"status":                  models.RideStatusPickupWait,
		"pickup_expired_notified": false,
	}
	update := bson.M{
		"$set": bson.M{
			"pickup_expired_notified": true,
			"updated_at":              time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark pickup expired: %w", err)
	}

	return result.ModifiedCount == 1, nil
}
