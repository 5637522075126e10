package handlers

import (
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	paymentService *services.PaymentService
	secret         string
}

func NewWebhookHandler(paymentService *services.PaymentService, secret string) *WebhookHandler {
	return &WebhookHandler{paymentService: paymentService, secret: secret}
}

// HandlePayment applies a payment provider notification. The Authorization header must
// equal the shared secret.
func (h *WebhookHandler) HandlePayment(c *fiber.Ctx) error {
	if h.secret == "" {
		return Fail(c, fiber.StatusNotFound, "Webhooks not configured")
	}

	authHeader := c.Get("Authorization")
	if subtle.ConstantTimeCompare([]byte(authHeader), []byte(h.secret)) != 1 {
		return Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var webhook dto.PaymentWebhook
	if err := c.BodyParser(&webhook); err != nil {
		return Fail(c, fiber.StatusBadRequest, "Invalid webhook payload")
	}

	if err := h.paymentService.HandleWebhookEvent(c.UserContext(), &webhook); err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return Fail(c, fiber.StatusNotFound, err.Error())
		}
		slog.Error("webhook processing failed", "event_type", webhook.Type, "error", err)
		return Fail(c, fiber.StatusInternalServerError, "Failed to process webhook event")
	}

	return c.JSON(fiber.Map{"received": true})
}
