package routes

import (
	shared "gotogether/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

func SetupNotificationRoutes(r *gin.RouterGroup, notificationHandler *shared.NotificationHandler, authRequired gin.HandlerFunc) {
	notifications := r.Group("/notifications")
	notifications.Use(authRequired)
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread", notificationHandler.CountUnread)
		notifications.PUT("/:id/read", notificationHandler.MarkRead)
		notifications.PUT("/read-all", notificationHandler.MarkAllRead)
	}
}
