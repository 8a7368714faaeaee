package handlers

import (
	"gotogether/internal/models"
	"gotogether/internal/services"
	"gotogether/internal/utils"
	"gotogether/internal/validators"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register creates a new account and triggers phone verification.
func (h *AuthHandler) Register(c *gin.Context) {
	var request validators.RegisterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if err := validators.ValidateRegister(&request); err != nil {
		serviceError(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), request.Name, request.Phone, request.Password, models.Gender(request.Gender))
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Registered successfully, verify your phone", user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var request validators.LoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateStruct(&request); errs != nil {
		utils.ValidationErrorResponse(c, errs)
		return
	}

	response, err := h.authService.Login(c.Request.Context(), request.Phone, request.Password)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Logged in successfully", response)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var request validators.RefreshTokenRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	tokens, err := h.authService.RefreshToken(c.Request.Context(), request.RefreshToken)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Token refreshed", tokens)
}

func (h *AuthHandler) SendOTP(c *gin.Context) {
	var request validators.SendOTPRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.authService.SendPhoneOTP(c.Request.Context(), request.Phone); err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Verification code sent", nil)
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var request validators.VerifyOTPRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateStruct(&request); errs != nil {
		utils.ValidationErrorResponse(c, errs)
		return
	}

	response, err := h.authService.VerifyPhoneOTP(c.Request.Context(), request.Phone, request.Code)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Phone verified", response)
}
