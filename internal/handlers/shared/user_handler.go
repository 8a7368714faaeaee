package handlers

import (
	"gotogether/internal/services"
	"gotogether/internal/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Me returns the authenticated user's profile.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved", user)
}

// UpdateSettings patches profile fields. Absent fields stay untouched.
func (h *UserHandler) UpdateSettings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input services.UpdateSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	user, err := h.userService.UpdateSettings(c.Request.Context(), userID, &input)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Settings updated", user)
}

type updateLocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UpdateLocation stores the user's last known position for proximity matching.
func (h *UserHandler) UpdateLocation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request updateLocationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.userService.UpdateLocation(c.Request.Context(), userID, request.Lat, request.Lng); err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Location updated", nil)
}

// ListPendingApproval lists accounts awaiting admin approval.
func (h *UserHandler) ListPendingApproval(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		return
	}

	users, err := h.userService.ListPendingApproval(c.Request.Context(), auth)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Pending users retrieved", users)
}

// ApproveUser marks an account admin-approved.
func (h *UserHandler) ApproveUser(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		return
	}
	targetID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.ApproveUser(c.Request.Context(), auth, targetID); err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "User approved", nil)
}
