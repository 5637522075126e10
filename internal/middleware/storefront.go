package middleware

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

// StoreHost returns the host a storefront request targets: the X-Store-Domain header,
// then the ?domain= query parameter, then the Host header.
func StoreHost(c *fiber.Ctx) string {
	if h := c.Get("X-Store-Domain"); h != "" {
		return h
	}
	if h := c.Query("domain"); h != "" {
		return h
	}
	return c.Hostname()
}

// Storefront resolves the vendor serving the request host.
func Storefront(resolver *tenant.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		host := StoreHost(c)
		vendor, err := resolver.Resolve(c.UserContext(), host)
		if err != nil {
			if errors.Is(err, tenant.ErrStoreNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
					Error: true, Message: "store not found",
				})
			}
			slog.Error("store resolution failed", "host", host, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to resolve store",
			})
		}

		tenant.SetVendor(c, vendor)
		return c.Next()
	}
}
