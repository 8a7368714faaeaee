package routes

import (
	shared "gotogether/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

func SetupRatingRoutes(r *gin.RouterGroup, ratingHandler *shared.RatingHandler, authRequired gin.HandlerFunc) {
	ratings := r.Group("/ratings")
	ratings.Use(authRequired)
	{
		ratings.POST("", ratingHandler.RateUser)
		ratings.GET("/user/:id", ratingHandler.ListForUser)
	}
}
