package routes

import (
	shared "gotogether/internal/handlers/shared"
	"gotogether/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupUserRoutes(r *gin.RouterGroup, userHandler *shared.UserHandler, authRequired gin.HandlerFunc) {
	users := r.Group("/users")
	users.Use(authRequired)
	{
		users.GET("/me", userHandler.Me)
		users.PUT("/me/settings", userHandler.UpdateSettings)
		users.PUT("/me/location", userHandler.UpdateLocation)
	}

	admin := r.Group("/admin/users")
	admin.Use(authRequired, middleware.AdminRequired())
	{
		admin.GET("/pending", userHandler.ListPendingApproval)
		admin.POST("/:id/approve", userHandler.ApproveUser)
	}
}
