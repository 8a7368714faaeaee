package routes

import (
	shared "gotogether/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

func SetupScheduledRideRoutes(r *gin.RouterGroup, scheduledHandler *shared.ScheduledRideHandler, authRequired gin.HandlerFunc) {
	schedules := r.Group("/scheduled-rides")
	schedules.Use(authRequired)
	{
		schedules.POST("", scheduledHandler.Create)
		schedules.GET("/mine", scheduledHandler.ListMine)
		schedules.GET("/nearby", scheduledHandler.Nearby)
		schedules.GET("/:id", scheduledHandler.GetByID)
		schedules.POST("/:id/accept", scheduledHandler.Accept)
		schedules.POST("/:id/cancel", scheduledHandler.Cancel)
	}
}
