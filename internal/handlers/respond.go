package handlers

import (
	"strconv"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Fail writes the standard error body with status.
func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

// ParseBody decodes the request body into req and validates it.
// On failure the 400 response has already been written and ok is false.
func ParseBody(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := dto.Validate(req); err != nil {
		return false, Fail(c, fiber.StatusBadRequest, err.Error())
	}
	return true, nil
}

// ParamID parses the :name route parameter as a UUID.
func ParamID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

// Page reads ?page= and ?limit= with the usual bounds.
func Page(c *fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	return dto.NormalizePage(page, limit)
}
