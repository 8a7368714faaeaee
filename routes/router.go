package routes

import (
	"net/http"

	shared "gotogether/internal/handlers/shared"
	"gotogether/internal/middleware"
	"gotogether/pkg/logger"
	"gotogether/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth          *shared.AuthHandler
	User          *shared.UserHandler
	Ride          *shared.RideHandler
	ScheduledRide *shared.ScheduledRideHandler
	Chat          *shared.ChatHandler
	Rating        *shared.RatingHandler
	Notification  *shared.NotificationHandler
	WebSocket     *websocket.Handler
}

// Setup mounts all routes on the engine. authRequired is shared by every
// protected group so the user record is loaded exactly once per request.
func Setup(engine *gin.Engine, handlers *Handlers, authRequired gin.HandlerFunc, corsOrigins []string, log *logger.Logger) {
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.CORSMiddleware(corsOrigins))
	engine.Use(middleware.RequestLogger(log))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.GET("/ws", authRequired, handlers.WebSocket.HandleWebSocket)

	api := engine.Group("/api/v1")
	{
		SetupAuthRoutes(api, handlers.Auth)
		SetupUserRoutes(api, handlers.User, authRequired)
		SetupRideRoutes(api, handlers.Ride, handlers.Chat, authRequired)
		SetupScheduledRideRoutes(api, handlers.ScheduledRide, authRequired)
		SetupRatingRoutes(api, handlers.Rating, authRequired)
		SetupNotificationRoutes(api, handlers.Notification, authRequired)
	}
}
