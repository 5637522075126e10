package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type StoreSettingsHandler struct {
	settings *services.SettingsService
}

func NewStoreSettingsHandler(settings *services.SettingsService) *StoreSettingsHandler {
	return &StoreSettingsHandler{settings: settings}
}

// GetAll returns the decoded settings of the resolved storefront or the seller's store.
func (h *StoreSettingsHandler) GetAll(c *fiber.Ctx) error {
	result, err := h.settings.All(c.UserContext(), tenant.GetVendorID(c))
	if err != nil {
		return Fail(c, fiber.StatusInternalServerError, "Failed to fetch settings")
	}
	return c.JSON(result)
}

func (h *StoreSettingsHandler) Get(c *fiber.Ctx) error {
	st, err := h.settings.Get(c.UserContext(), tenant.GetVendorID(c), c.Params("key"))
	if err != nil {
		if errors.Is(err, services.ErrSettingNotFound) {
			return Fail(c, fiber.StatusNotFound, "Setting not found")
		}
		return Fail(c, fiber.StatusInternalServerError, "Failed to fetch setting")
	}
	return c.JSON(st)
}

func (h *StoreSettingsHandler) Set(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return Fail(c, fiber.StatusBadRequest, "Key parameter is required")
	}

	var req dto.SettingRequest
	if ok, err := ParseBody(c, &req); !ok {
		return err
	}

	st, err := h.settings.Set(c.UserContext(), tenant.GetVendorID(c), key, req.Value, req.Type)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSettingType) {
			return Fail(c, fiber.StatusBadRequest, err.Error())
		}
		return Fail(c, fiber.StatusInternalServerError, "Failed to save setting")
	}
	return c.JSON(st)
}

func (h *StoreSettingsHandler) Delete(c *fiber.Ctx) error {
	if err := h.settings.Delete(c.UserContext(), tenant.GetVendorID(c), c.Params("key")); err != nil {
		if errors.Is(err, services.ErrSettingNotFound) {
			return Fail(c, fiber.StatusNotFound, "Setting not found")
		}
		return Fail(c, fiber.StatusInternalServerError, "Failed to delete setting")
	}
	return c.JSON(fiber.Map{"message": "Setting deleted"})
}
