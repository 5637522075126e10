package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type VendorHandler struct {
	vendorService *services.VendorService
}

func NewVendorHandler(vendorService *services.VendorService) *VendorHandler {
	return &VendorHandler{vendorService: vendorService}
}

func vendorError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrInvalidSubdomain),
		errors.Is(err, services.ErrReservedSubdomain):
		return Fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrSubdomainTaken),
		errors.Is(err, services.ErrAlreadyVendor),
		errors.Is(err, services.ErrInvalidStatusTransition):
		return Fail(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrVendorNotFound):
		return Fail(c, fiber.StatusNotFound, err.Error())
	}
	slog.Error(fallback, "error", err)
	return Fail(c, fiber.StatusInternalServerError, fallback)
}

func (h *VendorHandler) Apply(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.ApplyVendorRequest
	if ok, err := ParseBody(c, &req); !ok {
		return err
	}

	vendor, err := h.vendorService.Apply(c.UserContext(), userID, &req)
	if err != nil {
		return vendorError(c, err, "Failed to create store")
	}
	return c.Status(fiber.StatusCreated).JSON(vendor)
}

func (h *VendorHandler) GetMine(c *fiber.Ctx) error {
	vendor, err := h.vendorService.Get(c.UserContext(), tenant.GetVendorID(c))
	if err != nil {
		return vendorError(c, err, "Failed to fetch store")
	}
	return c.JSON(vendor)
}

func (h *VendorHandler) UpdateMine(c *fiber.Ctx) error {
	var req dto.UpdateVendorRequest
	if ok, err := ParseBody(c, &req); !ok {
		return err
	}

	vendor, err := h.vendorService.UpdateProfile(c.UserContext(), tenant.GetVendor(c), &req)
	if err != nil {
		return vendorError(c, err, "Failed to update store")
	}
	return c.JSON(vendor)
}

func (h *VendorHandler) List(c *fiber.Ctx) error {
	page, limit := Page(c)
	vendors, total, err := h.vendorService.List(c.UserContext(), c.Query("status"), page, limit)
	if err != nil {
		return Fail(c, fiber.StatusInternalServerError, "Failed to fetch vendors")
	}
	return c.JSON(fiber.Map{
		"vendors":    vendors,
		"pagination": dto.NewPagination(page, limit, total),
	})
}

func (h *VendorHandler) Onboard(c *fiber.Ctx) error {
	var req dto.OnboardVendorRequest
	if ok, err := ParseBody(c, &req); !ok {
		return err
	}

	vendor, err := h.vendorService.Onboard(c.UserContext(), &req)
	if err != nil {
		return vendorError(c, err, "Failed to onboard store")
	}
	return c.Status(fiber.StatusCreated).JSON(vendor)
}

func (h *VendorHandler) SetStatus(c *fiber.Ctx) error {
	id, ok := ParamID(c, "id")
	if !ok {
		return Fail(c, fiber.StatusBadRequest, "Invalid vendor ID")
	}

	var req dto.VendorStatusRequest
	if ok, err := ParseBody(c, &req); !ok {
		return err
	}

	vendor, err := h.vendorService.SetStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return vendorError(c, err, "Failed to update store status")
	}
	return c.JSON(vendor)
}
