package validators

import (
	"fmt"

	"gotogether/internal/utils"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=60"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Gender   string `json:"gender"`
}

type LoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SendOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ValidateRegister checks the payload and normalizes the phone number.
func ValidateRegister(req *RegisterRequest) error {
	if errs := ValidateStruct(req); errs != nil {
		return errs
	}
	normalized := utils.NormalizePhone(req.Phone)
	if !utils.IsValidPhone(normalized) {
		return fmt.Errorf("invalid phone number")
	}
	req.Phone = normalized
	return nil
}

func ValidatePhone(phone string) (string, error) {
	normalized := utils.NormalizePhone(phone)
	if !utils.IsValidPhone(normalized) {
		return "", fmt.Errorf("invalid phone number")
	}
	return normalized, nil
}
