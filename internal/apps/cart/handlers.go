package cart

import (
	"errors"
	"log/slog"

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

func cartError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, ErrItemNotFound):
		return handlers.Fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrProductUnavailable),
		errors.Is(err, ErrVariantRequired),
		errors.Is(err, ErrVariantNotFound),
		errors.Is(err, ErrInvalidQuantity):
		return handlers.Fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInsufficientStock):
		return handlers.Fail(c, fiber.StatusConflict, err.Error())
	}
	slog.Error(fallback, "error", err)
	return handlers.Fail(c, fiber.StatusInternalServerError, fallback)
}

func (h *Handler) Get(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return handlers.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	view, err := h.service.Get(c.UserContext(), userID)
	if err != nil {
		return cartError(c, err, "Failed to fetch cart")
	}
	return c.JSON(view)
}

func (h *Handler) Add(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return handlers.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	var req AddItemRequest
	if ok, err := handlers.ParseBody(c, &req); !ok {
		return err
	}
	item, err := h.service.Add(c.UserContext(), userID, &req)
	if err != nil {
		return cartError(c, err, "Failed to add to cart")
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *Handler) Update(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return handlers.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return handlers.Fail(c, fiber.StatusBadRequest, "Invalid cart item ID")
	}
	var req UpdateItemRequest
	if ok, err := handlers.ParseBody(c, &req); !ok {
		return err
	}

	item, err := h.service.UpdateQuantity(c.UserContext(), userID, id, req.Quantity)
	if err != nil {
		return cartError(c, err, "Failed to update cart")
	}
	if item == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(item)
}

func (h *Handler) Remove(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return handlers.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return handlers.Fail(c, fiber.StatusBadRequest, "Invalid cart item ID")
	}
	if err := h.service.Remove(c.UserContext(), userID, id); err != nil {
		return cartError(c, err, "Failed to remove cart item")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) Clear(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return handlers.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	if err := h.service.Clear(c.UserContext(), userID); err != nil {
		return cartError(c, err, "Failed to clear cart")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
