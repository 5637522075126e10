package middleware

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RoleRequired admits users whose current role is one of roles.
// The role is read from the database rather than the token so that role changes
// apply immediately. Emails listed in ADMIN_EMAILS always count as super_admin.
func RoleRequired(db *gorm.DB, cfg *config.Config, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := tenant.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
					Error: true, Message: "Unauthorized",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to load user",
			})
		}

		role := user.Role
		if cfg.IsAdminEmail(user.Email) {
			role = models.RoleSuperAdmin
		}
		tenant.SetRole(c, role)

		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Insufficient permissions",
		})
	}
}

// AdminRequired admits platform operators.
func AdminRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return RoleRequired(db, cfg, models.RoleAdmin, models.RoleSuperAdmin)
}

// VendorRequired loads the store owned by the authenticated seller into the request.
// Stores that are not active may only be read.
func VendorRequired(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := tenant.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		var vendor models.Vendor
		if err := db.Where("owner_id = ?", userID).First(&vendor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
					Error: true, Message: "Vendor profile required",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to load vendor",
			})
		}

		if !vendor.IsActive() && c.Method() != fiber.MethodGet {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Store is " + vendor.Status,
			})
		}

		tenant.SetVendor(c, &vendor)
		return c.Next()
	}
}
