package tenant

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	localUser   = "user"
	localVendor = "vendor"
	localRole   = "role"
)

func claims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals(localUser).(*jwt.Token)
	if !ok || token == nil {
		return nil, errors.New("invalid token in context")
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return mc, nil
}

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	mc, err := claims(c)
	if err != nil {
		return uuid.Nil, err
	}
	sub, ok := mc["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}
	return uuid.Parse(sub)
}

// GetEmail returns the email claim, or "" when absent.
func GetEmail(c *fiber.Ctx) string {
	mc, err := claims(c)
	if err != nil {
		return ""
	}
	email, _ := mc["email"].(string)
	return email
}

// GetRole returns the role confirmed by RoleRequired, falling back to the token claim.
func GetRole(c *fiber.Ctx) string {
	if role, ok := c.Locals(localRole).(string); ok && role != "" {
		return role
	}
	mc, err := claims(c)
	if err != nil {
		return ""
	}
	role, _ := mc["role"].(string)
	return role
}

func SetRole(c *fiber.Ctx, role string) {
	c.Locals(localRole, role)
}

// GetVendor returns the vendor resolved for this request (storefront host or seller's own store).
func GetVendor(c *fiber.Ctx) *models.Vendor {
	if v, ok := c.Locals(localVendor).(*models.Vendor); ok {
		return v
	}
	return nil
}

func GetVendorID(c *fiber.Ctx) uuid.UUID {
	if v := GetVendor(c); v != nil {
		return v.ID
	}
	return uuid.Nil
}

func SetVendor(c *fiber.Ctx, v *models.Vendor) {
	c.Locals(localVendor, v)
}
