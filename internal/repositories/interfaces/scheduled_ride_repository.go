package interfaces

import (
	"context"
	"time"

	"gotogether/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ScheduledRideRepository interface {
	Create(ctx context.Context, ride *models.ScheduledRide) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.ScheduledRide, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.ScheduledRide, error)

	// ListOpenExcluding returns future scheduled rides still open for
	// matching, excluding the user's own.
	ListOpenExcluding(ctx context.Context, userID primitive.ObjectID, after time.Time) ([]*models.ScheduledRide, error)

	// MarkMatched flips a scheduled ride to matched for the given acceptor and
	// records the materialized ride it links to. The filter only hits while
	// the ride is still in scheduled status, so a repeat accept by the same
	// user is detected by the caller instead.
	MarkMatched(ctx context.Context, id, acceptedBy, linkedRideID primitive.ObjectID, at time.Time) (*models.ScheduledRide, error)

	// UpsertAcceptorCopy inserts the acceptor's linked copy at most once per
	// (user, linked ride) pair. Returns true when this call inserted it.
	UpsertAcceptorCopy(ctx context.Context, copy *models.ScheduledRide) (bool, error)

	Cancel(ctx context.Context, id, userID primitive.ObjectID, reason string) (*models.ScheduledRide, error)

	// FindDueReminders returns still-open scheduled rides inside the window
	// that have no reminder stamp yet.
	FindDueReminders(ctx context.Context, from, to time.Time, limit int) ([]*models.ScheduledRide, error)

	// MarkReminderSent stamps the reminder, returning true only for the
	// caller that won the flip.
	MarkReminderSent(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
}
