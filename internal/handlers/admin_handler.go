package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.adminService.Stats(c.UserContext())
	if err != nil {
		return Fail(c, fiber.StatusInternalServerError, "Failed to compute stats")
	}
	return c.JSON(stats)
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, limit := Page(c)
	users, total, err := h.adminService.ListUsers(c.UserContext(), c.Query("role"), page, limit)
	if err != nil {
		return Fail(c, fiber.StatusInternalServerError, "Failed to fetch users")
	}
	return c.JSON(fiber.Map{
		"users":      users,
		"pagination": dto.NewPagination(page, limit, total),
	})
}

func (h *AdminHandler) SetUserRole(c *fiber.Ctx) error {
	actorID, err := tenant.GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	targetID, ok := ParamID(c, "id")
	if !ok {
		return Fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	var req dto.UserRoleRequest
	if ok, err := ParseBody(c, &req); !ok {
		return err
	}

	user, err := h.adminService.SetUserRole(c.UserContext(), actorID, tenant.GetRole(c), targetID, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRole), errors.Is(err, services.ErrOwnRole):
			return Fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrRoleForbidden):
			return Fail(c, fiber.StatusForbidden, err.Error())
		case errors.Is(err, services.ErrUserNotFound):
			return Fail(c, fiber.StatusNotFound, err.Error())
		}
		return Fail(c, fiber.StatusInternalServerError, "Failed to update role")
	}
	return c.JSON(user)
}
