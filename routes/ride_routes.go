package routes

import (
	shared "gotogether/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

func SetupRideRoutes(r *gin.RouterGroup, rideHandler *shared.RideHandler, chatHandler *shared.ChatHandler, authRequired gin.HandlerFunc) {
	rides := r.Group("/rides")
	rides.Use(authRequired)
	{
		rides.POST("", rideHandler.Create)
		rides.GET("/active", rideHandler.GetActive)
		rides.GET("/nearby", rideHandler.Nearby)
		rides.GET("/:id", rideHandler.GetByID)
		rides.POST("/:id/accept", rideHandler.Accept)
		rides.POST("/:id/leave", rideHandler.Leave)
		rides.POST("/:id/cancel", rideHandler.Cancel)
		rides.POST("/:id/complete", rideHandler.Complete)
		rides.POST("/:id/countdown", rideHandler.StartPickupCountdown)
		rides.PUT("/:id/stops", rideHandler.UpdateStops)
		rides.POST("/:id/panic", rideHandler.Panic)
		rides.GET("/:id/eta", rideHandler.ETA)
		rides.GET("/:id/fare", rideHandler.Fare)

		rides.GET("/:id/chat", chatHandler.GetRoom)
		rides.GET("/:id/chat/messages", chatHandler.GetMessages)
		rides.POST("/:id/chat/messages", chatHandler.SendMessage)
		rides.POST("/:id/chat/pin", chatHandler.PinLocation)
	}
}
