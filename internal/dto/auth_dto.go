package dto

import (
	"github.com/google/uuid"
)

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Code  string `json:"code" validate:"required,numeric,min=4,max=10"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"max=255"`
	Phone string `json:"phone" validate:"max=50"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	RedirectTo   string       `json:"redirect_to"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID       uuid.UUID  `json:"id"`
	Email    string     `json:"email"`
	Name     string     `json:"name"`
	Phone    string     `json:"phone"`
	Role     string     `json:"role"`
	VendorID *uuid.UUID `json:"vendor_id,omitempty"`
}

type MeResponse struct {
	User       UserResponse `json:"user"`
	RedirectTo string       `json:"redirect_to"`
}
