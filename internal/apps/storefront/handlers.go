package storefront

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Profile(c *fiber.Ctx) error {
	return c.JSON(NewProfile(tenant.GetVendor(c)))
}

func (h *Handler) Categories(c *fiber.Ctx) error {
	tree, err := h.service.Categories(c.UserContext(), tenant.GetVendorID(c))
	if err != nil {
		return handlers.Fail(c, fiber.StatusInternalServerError, "Failed to fetch categories")
	}
	return c.JSON(fiber.Map{"categories": tree})
}

func (h *Handler) Products(c *fiber.Ctx) error {
	page, limit := handlers.Page(c)
	products, total, err := h.service.Products(c.UserContext(), tenant.GetVendorID(c), ProductQuery{
		Category: c.Query("category"),
		Query:    c.Query("q"),
		Sort:     c.Query("sort", defaultSort),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return handlers.Fail(c, fiber.StatusInternalServerError, "Failed to fetch products")
	}
	return c.JSON(fiber.Map{
		"products":   products,
		"pagination": dto.NewPagination(page, limit, total),
	})
}

func (h *Handler) Product(c *fiber.Ctx) error {
	product, err := h.service.Product(c.UserContext(), tenant.GetVendorID(c), c.Params("slug"))
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return handlers.Fail(c, fiber.StatusNotFound, err.Error())
		}
		return handlers.Fail(c, fiber.StatusInternalServerError, "Failed to fetch product")
	}
	return c.JSON(product)
}
