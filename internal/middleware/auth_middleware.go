package middleware

import (
	"net/http"
	"strings"

	"gotogether/internal/models"
	"gotogether/internal/repositories/interfaces"
	"gotogether/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the bearer token and loads the current user record,
// so verification and approval checks always see fresh state, not what was
// true when the token was minted.
func AuthRequired(jwtSecret string, userRepo interfaces.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header required")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token required")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			c.Abort()
			return
		}

		userID, err := claims.UserObjectID()
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid user ID in token")
			c.Abort()
			return
		}

		user, err := userRepo.GetByID(c.Request.Context(), userID)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not found")
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("auth", &models.AuthContext{
			UserID:        user.ID,
			Role:          user.Role,
			Gender:        user.Gender,
			PhoneVerified: user.IsPhoneVerified,
			AdminApproved: user.IsAdminApproved,
		})

		c.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth, ok := GetAuthContext(c)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			c.Abort()
			return
		}
		if !auth.IsAdmin() {
			utils.ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetAuthContext returns the identity set by AuthRequired.
func GetAuthContext(c *gin.Context) (*models.AuthContext, bool) {
	value, exists := c.Get("auth")
	if !exists {
		return nil, false
	}
	auth, ok := value.(*models.AuthContext)
	return auth, ok
}
