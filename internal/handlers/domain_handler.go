package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type DomainHandler struct {
	domainService *services.DomainService
}

func NewDomainHandler(domainService *services.DomainService) *DomainHandler {
	return &DomainHandler{domainService: domainService}
}

// domainView adds the DNS record the seller has to publish.
func domainView(d *models.CustomDomain) fiber.Map {
	return fiber.Map{
		"domain": d,
		"txt_record": fiber.Map{
			"name":  services.VerificationPrefix + d.Domain,
			"value": d.VerificationToken,
		},
	}
}

func (h *DomainHandler) List(c *fiber.Ctx) error {
	domains, err := h.domainService.List(c.UserContext(), tenant.GetVendorID(c))
	if err != nil {
		return Fail(c, fiber.StatusInternalServerError, "Failed to fetch domains")
	}
	return c.JSON(fiber.Map{"domains": domains})
}

func (h *DomainHandler) Add(c *fiber.Ctx) error {
	var req dto.AddDomainRequest
	if ok, err := ParseBody(c, &req); !ok {
		return err
	}

	d, err := h.domainService.Add(c.UserContext(), tenant.GetVendorID(c), req.Domain)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDomain), errors.Is(err, services.ErrPlatformDomain):
			return Fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrDomainTaken):
			return Fail(c, fiber.StatusConflict, err.Error())
		}
		return Fail(c, fiber.StatusInternalServerError, "Failed to add domain")
	}
	return c.Status(fiber.StatusCreated).JSON(domainView(d))
}

func (h *DomainHandler) Verify(c *fiber.Ctx) error {
	id, ok := ParamID(c, "id")
	if !ok {
		return Fail(c, fiber.StatusBadRequest, "Invalid domain ID")
	}

	d, err := h.domainService.Verify(c.UserContext(), tenant.GetVendorID(c), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDomainNotFound):
			return Fail(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrDomainVerification):
			return Fail(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		return Fail(c, fiber.StatusInternalServerError, "Failed to verify domain")
	}
	return c.JSON(d)
}

func (h *DomainHandler) Delete(c *fiber.Ctx) error {
	id, ok := ParamID(c, "id")
	if !ok {
		return Fail(c, fiber.StatusBadRequest, "Invalid domain ID")
	}

	if err := h.domainService.Delete(c.UserContext(), tenant.GetVendorID(c), id); err != nil {
		if errors.Is(err, services.ErrDomainNotFound) {
			return Fail(c, fiber.StatusNotFound, err.Error())
		}
		return Fail(c, fiber.StatusInternalServerError, "Failed to delete domain")
	}
	return c.JSON(fiber.Map{"message": "Domain deleted"})
}
