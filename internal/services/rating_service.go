package services

import (
	"context"
	"math"

	"gotogether/internal/models"
	"gotogether/internal/repositories/interfaces"
	"gotogether/internal/utils"
	"gotogether/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RatingService interface {
	// RateUser records a rating from one ride participant to another and
	// folds the composite into the target's rolling average.
	RateUser(ctx context.Context, input *RateUserInput) (*models.Rating, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.Rating, error)
}

type RateUserInput struct {
	RideID      primitive.ObjectID
	FromUser    primitive.ObjectID
	ToUser      primitive.ObjectID
	Behavior    int
	Punctuality int
	Safety      int
	Comment     string
}

type ratingService struct {
	ratingRepo interfaces.RatingRepository
	rideRepo   interfaces.RideRepository
	userRepo   interfaces.UserRepository
	logger     *logger.Logger
}

func NewRatingService(
	ratingRepo interfaces.RatingRepository,
	rideRepo interfaces.RideRepository,
	userRepo interfaces.UserRepository,
	logger *logger.Logger,
) RatingService {
	return &ratingService{
		ratingRepo: ratingRepo,
		rideRepo:   rideRepo,
		userRepo:   userRepo,
		logger:     logger,
	}
}

func (s *ratingService) RateUser(ctx context.Context, input *RateUserInput) (*models.Rating, error) {
	if input.FromUser == input.ToUser {
		return nil, ErrValidation
	}
	for _, v := range []int{input.Behavior, input.Punctuality, input.Safety} {
		if v < utils.MinRatingValue || v > utils.MaxRatingValue {
			return nil, ErrValidation
		}
	}

	ride, err := s.rideRepo.GetByID(ctx, input.RideID)
	if err != nil {
		return nil, err
	}
	// Ratings open up only once the ride is done.
	if ride.Status != models.RideStatusCompleted {
		return nil, ErrValidation
	}
	if !ride.IsParticipant(input.FromUser) || !ride.IsParticipant(input.ToUser) {
		return nil, ErrForbidden
	}

	rating := &models.Rating{
		RideID:      input.RideID,
		FromUser:    input.FromUser,
		ToUser:      input.ToUser,
		Behavior:    input.Behavior,
		Punctuality: input.Punctuality,
		Safety:      input.Safety,
		Comment:     utils.Truncate(input.Comment, utils.MaxCommentLen),
	}
	if err := s.ratingRepo.Create(ctx, rating); err != nil {
		return nil, err
	}

	if err := s.applyToAverage(ctx, input.ToUser, rating.Composite()); err != nil {
		s.logger.WithError(err).WithUserID(input.ToUser).Error("Failed to fold rating into average")
	}

	return rating, nil
}

func (s *ratingService) ListForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.Rating, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.ratingRepo.ListForUser(ctx, userID, limit)
}

func (s *ratingService) applyToAverage(ctx context.Context, userID primitive.ObjectID, composite float64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	newCount := user.RatingCount + 1
	newAvg := RollAverage(user.RatingAvg, user.RatingCount, composite)

	return s.userRepo.Update(ctx, userID, map[string]interface{}{
		"rating_avg":   newAvg,
		"rating_count": newCount,
		"discount_pct": DiscountPct(user.ReliabilityScore, newAvg, user.CompletedRides),
	})
}

// RollAverage folds one more sample into a rolling mean, rounded to two
// decimal places.
func RollAverage(avg float64, count int, sample float64) float64 {
	next := (avg*float64(count) + sample) / float64(count+1)
	return math.Round(next*100) / 100
}

// ReliabilityScore maps cancellation count to a 0-100 score. Each
// cancellation costs ten points.
func ReliabilityScore(cancellations int) int {
	score := 100 - cancellations*10
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// DiscountPct derives the standing-based discount tier. Both tiers share the
// score and rating gate; only the ride track record separates them.
func DiscountPct(score int, ratingAvg float64, completedRides int) int {
	if score < 80 || ratingAvg < 3.8 {
		return 0
	}
	if completedRides >= 20 {
		return 10
	}
	if completedRides >= 10 {
		return 5
	}
	return 0
}
