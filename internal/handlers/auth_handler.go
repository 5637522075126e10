package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req dto.SendOTPRequest
	if ok, err := ParseBody(c, &req); !ok {
		return err
	}

	if err := h.authService.SendOTP(c.UserContext(), req.Email); err != nil {
		if errors.Is(err, services.ErrOTPCooldown) {
			return Fail(c, fiber.StatusTooManyRequests, err.Error())
		}
		slog.Error("send otp failed", "error", err)
		return Fail(c, fiber.StatusInternalServerError, "Failed to send verification code")
	}

	return c.JSON(fiber.Map{"message": "If the address is valid, a verification code has been sent"})
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if ok, err := ParseBody(c, &req); !ok {
		return err
	}

	resp, err := h.authService.VerifyOTP(c.UserContext(), req.Email, req.Code)
	if err != nil {
		if errors.Is(err, services.ErrInvalidOTP) ||
			errors.Is(err, services.ErrOTPExpired) ||
			errors.Is(err, services.ErrOTPAttemptsExceed) {
			return Fail(c, fiber.StatusUnauthorized, err.Error())
		}
		slog.Error("verify otp failed", "error", err)
		return Fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if ok, err := ParseBody(c, &req); !ok {
		return err
	}

	resp, err := h.authService.Refresh(c.UserContext(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return Fail(c, fiber.StatusUnauthorized, err.Error())
		}
		return Fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if ok, err := ParseBody(c, &req); !ok {
		return err
	}

	if err := h.authService.Logout(c.UserContext(), &req); err != nil {
		return Fail(c, fiber.StatusInternalServerError, "Failed to logout")
	}

	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	resp, err := h.authService.Me(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return Fail(c, fiber.StatusNotFound, "User not found")
		}
		return Fail(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(resp)
}

func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.UpdateProfileRequest
	if ok, err := ParseBody(c, &req); !ok {
		return err
	}

	resp, err := h.authService.UpdateProfile(c.UserContext(), userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return Fail(c, fiber.StatusNotFound, "User not found")
		}
		return Fail(c, fiber.StatusInternalServerError, "Failed to update profile")
	}
	return c.JSON(resp)
}

func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	if err := h.authService.DeleteAccount(c.UserContext(), userID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return Fail(c, fiber.StatusNotFound, "User not found")
		}
		if errors.Is(err, services.ErrOwnsActiveStore) {
			return Fail(c, fiber.StatusConflict, err.Error())
		}
		return Fail(c, fiber.StatusInternalServerError, "Failed to delete account")
	}

	return c.JSON(fiber.Map{"message": "Account deleted successfully"})
}
