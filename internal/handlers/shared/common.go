package handlers

import (
	"errors"
	"net/http"

	"gotogether/internal/middleware"
	"gotogether/internal/models"
	"gotogether/internal/services"
	"gotogether/internal/utils"
	"gotogether/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// currentUserID reads the authenticated user ID set by the auth middleware.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}
	userID, ok := value.(primitive.ObjectID)
	if !ok {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}
	return userID, true
}

func currentAuth(c *gin.Context) (*models.AuthContext, bool) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return nil, false
	}
	return auth, true
}

func parseObjectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

// serviceError maps service sentinels onto HTTP responses. Anything
// unrecognized becomes a 500 without leaking internals.
func serviceError(c *gin.Context, err error) {
	var validationErrs validators.ValidationErrors
	if errors.As(err, &validationErrs) {
		utils.ValidationErrorResponse(c, validationErrs)
		return
	}

	switch {
	case errors.Is(err, services.ErrValidation):
		utils.BadRequestResponse(c, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		utils.UnauthorizedResponse(c)
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c)
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, "Resource")
	case errors.Is(err, services.ErrRideFull):
		utils.ErrorResponse(c, http.StatusConflict, "RIDE_FULL", "Ride has no free seats")
	case errors.Is(err, services.ErrRideUnavailable):
		utils.ErrorResponse(c, http.StatusConflict, "RIDE_UNAVAILABLE", "Ride is no longer open")
	case errors.Is(err, services.ErrInvalidTransition):
		utils.ErrorResponse(c, http.StatusConflict, "INVALID_TRANSITION", "Operation not allowed in the ride's current state")
	case errors.Is(err, services.ErrConflict):
		utils.ConflictResponse(c, err.Error())
	default:
		utils.InternalServerErrorResponse(c)
	}
}
