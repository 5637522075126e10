package middleware

import (
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS lets storefront and back-office frontends on other origins call the API.
// X-Store-Domain must be allowed so a storefront can name its store explicitly.
func CORS(cfg *config.Config) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Authorization, Accept, X-Store-Domain, X-Request-ID",
		AllowMethods:  "GET, POST, PUT, DELETE, PATCH, OPTIONS",
		ExposeHeaders: "X-Request-ID, Content-Disposition",
		MaxAge:        600,
	})
}
