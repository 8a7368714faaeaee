package handlers

import (
	"strconv"

	"gotogether/internal/services"
	"gotogether/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RatingHandler struct {
	ratingService services.RatingService
}

func NewRatingHandler(ratingService services.RatingService) *RatingHandler {
	return &RatingHandler{
		ratingService: ratingService,
	}
}

type rateUserRequest struct {
	RideID      string `json:"ride_id"`
	ToUser      string `json:"to_user"`
	Behavior    int    `json:"behavior"`
	Punctuality int    `json:"punctuality"`
	Safety      int    `json:"safety"`
	Comment     string `json:"comment"`
}

// RateUser records a post-ride rating of another participant.
func (h *RatingHandler) RateUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request rateUserRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	rideID, err := primitive.ObjectIDFromHex(request.RideID)
	if err != nil {
		utils.BadRequestResponse(c, "Valid ride_id required")
		return
	}
	toUser, err := primitive.ObjectIDFromHex(request.ToUser)
	if err != nil {
		utils.BadRequestResponse(c, "Valid to_user required")
		return
	}

	rating, err := h.ratingService.RateUser(c.Request.Context(), &services.RateUserInput{
		RideID:      rideID,
		FromUser:    userID,
		ToUser:      toUser,
		Behavior:    request.Behavior,
		Punctuality: request.Punctuality,
		Safety:      request.Safety,
		Comment:     request.Comment,
	})
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Rating recorded", rating)
}

// ListForUser returns ratings received by a user.
func (h *RatingHandler) ListForUser(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	targetID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)

	ratings, err := h.ratingService.ListForUser(c.Request.Context(), targetID, limit)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ratings retrieved", ratings)
}
