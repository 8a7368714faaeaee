package interfaces

import (
	"context"
	"time"

	"gotogether/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideRepository interface {
	Create(ctx context.Context, ride *models.Ride) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// GetActiveForUser returns the ride the user currently participates in
	// (as rider or passenger) with a non-terminal status, if any.
	GetActiveForUser(ctx context.Context, userID primitive.ObjectID) (*models.Ride, error)

	// ListJoinable returns open or pickup_wait rides the user is not already
	// part of.
	ListJoinable(ctx context.Context, userID primitive.ObjectID) ([]*models.Ride, error)

	// AddPassenger atomically admits the user when the ride is still
	// joinable, the user is not already aboard, and a seat remains. Returns the updated
	// ride, or ErrNoDocuments-mapped failure when the filter missed.
	AddPassenger(ctx context.Context, rideID, userID primitive.ObjectID) (*models.Ride, error)

	// SetPickupWaitIfUnset flips the ride into pickup_wait with the given
	// deadline only when no deadline was set before. Misses are not errors:
	// a nil ride means another join already armed the countdown.
	SetPickupWaitIfUnset(ctx context.Context, rideID primitive.ObjectID, deadline time.Time) (*models.Ride, error)

	// SetPickupCountdown arms or re-arms the countdown on the rider's
	// explicit request.
	SetPickupCountdown(ctx context.Context, rideID, riderID primitive.ObjectID, deadline time.Time) (*models.Ride, error)

	RemovePassenger(ctx context.Context, rideID, userID primitive.ObjectID) (*models.Ride, error)

	// CancelByRider moves the ride to cancelled unless it is already
	// terminal.
	CancelByRider(ctx context.Context, rideID, riderID primitive.ObjectID) (*models.Ride, error)

	// Complete moves the ride to completed unless it was cancelled.
	Complete(ctx context.Context, rideID, riderID primitive.ObjectID) (*models.Ride, error)

	UpdateStops(ctx context.Context, rideID, riderID primitive.ObjectID, stops []models.GeoPoint) (*models.Ride, error)

	// FindExpiredPickups returns pickup_wait rides whose deadline passed and
	// whose expiry has not been broadcast yet.
	FindExpiredPickups(ctx context.Context, now time.Time, limit int) ([]*models.Ride, error)

	// MarkPickupExpired sets the notified flag, returning true only for the
	// caller that won the flip.
	MarkPickupExpired(ctx context.Context, rideID primitive.ObjectID) (bool, error)
}
