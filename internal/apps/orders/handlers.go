package orders

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps/cart"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed shipped delivered cancelled"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func orderError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		return handlers.Fail(c, fiber.StatusNotFound, "Order not found")
	case errors.Is(err, ErrCartEmpty),
		errors.Is(err, cart.ErrProductUnavailable),
		errors.Is(err, cart.ErrVariantRequired),
		errors.Is(err, cart.ErrVariantNotFound):
		return handlers.Fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, cart.ErrInsufficientStock),
		errors.Is(err, ErrNotCancellable),
		errors.Is(err, services.ErrInvalidStatusTransition):
		return handlers.Fail(c, fiber.StatusConflict, err.Error())
	}
	slog.Error(fallback, "error", err)
	return handlers.Fail(c, fiber.StatusInternalServerError, fallback)
}

func listResponse(c *fiber.Ctx, svcErr error, result interface{}, page, limit int, total int64) error {
	if svcErr != nil {
		return handlers.Fail(c, fiber.StatusInternalServerError, "Failed to fetch orders")
	}
	return c.JSON(fiber.Map{
		"orders":     result,
		"pagination": dto.NewPagination(page, limit, total),
	})
}

func (h *Handler) Checkout(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return handlers.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	var req CheckoutRequest
	if ok, err := handlers.ParseBody(c, &req); !ok {
		return err
	}

	orders, err := h.service.Checkout(c.UserContext(), userID, &req)
	if err != nil {
		return orderError(c, err, "Checkout failed")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"orders": orders})
}

// --- buyer ---

func (h *Handler) ListMine(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return handlers.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	page, limit := handlers.Page(c)
	orders, total, err := h.service.ListForCustomer(c.UserContext(), userID, Filter{
		Status: c.Query("status"), Page: page, Limit: limit,
	})
	return listResponse(c, err, orders, page, limit, total)
}

func (h *Handler) GetMine(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return handlers.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return handlers.Fail(c, fiber.StatusBadRequest, "Invalid order ID")
	}
	order, err := h.service.GetForCustomer(c.UserContext(), userID, id)
	if err != nil {
		return orderError(c, err, "Failed to fetch order")
	}
	return c.JSON(order)
}

func (h *Handler) CancelMine(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return handlers.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return handlers.Fail(c, fiber.StatusBadRequest, "Invalid order ID")
	}
	order, err := h.service.Cancel(c.UserContext(), userID, id)
	if err != nil {
		return orderError(c, err, "Failed to cancel order")
	}
	return c.JSON(order)
}

// --- vendor ---

func (h *Handler) VendorList(c *fiber.Ctx) error {
	page, limit := handlers.Page(c)
	orders, total, err := h.service.ListForVendor(c.UserContext(), tenant.GetVendorID(c), Filter{
		Status: c.Query("status"), Page: page, Limit: limit,
	})
	return listResponse(c, err, orders, page, limit, total)
}

func (h *Handler) VendorGet(c *fiber.Ctx) error {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return handlers.Fail(c, fiber.StatusBadRequest, "Invalid order ID")
	}
	order, err := h.service.GetForVendor(c.UserContext(), tenant.GetVendorID(c), id)
	if err != nil {
		return orderError(c, err, "Failed to fetch order")
	}
	return c.JSON(order)
}

func (h *Handler) VendorUpdateStatus(c *fiber.Ctx) error {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return handlers.Fail(c, fiber.StatusBadRequest, "Invalid order ID")
	}
	var req StatusRequest
	if ok, err := handlers.ParseBody(c, &req); !ok {
		return err
	}
	order, err := h.service.UpdateStatus(c.UserContext(), tenant.GetVendorID(c), id, req.Status)
	if err != nil {
		return orderError(c, err, "Failed to update order")
	}
	return c.JSON(order)
}

// --- admin ---

func (h *Handler) AdminList(c *fiber.Ctx) error {
	page, limit := handlers.Page(c)
	f := Filter{Status: c.Query("status"), Page: page, Limit: limit}
	if raw := c.Query("vendor_id"); raw != "" {
		vendorID, err := uuid.Parse(raw)
		if err != nil {
			return handlers.Fail(c, fiber.StatusBadRequest, "Invalid vendor ID")
		}
		f.VendorID = &vendorID
	}
	orders, total, err := h.service.ListAll(c.UserContext(), f)
	return listResponse(c, err, orders, page, limit, total)
}
