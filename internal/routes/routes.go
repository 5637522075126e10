package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Handlers groups the platform handlers that are not plugins.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Health   *handlers.HealthHandler
	Webhook  *handlers.WebhookHandler
	Legal    *handlers.LegalHandler
	Settings *handlers.StoreSettingsHandler
	Vendor   *handlers.VendorHandler
	Domain   *handlers.DomainHandler
	Admin    *handlers.AdminHandler
}

func perMinute(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}

func Setup(app *fiber.App, deps *apps.Deps, resolver *tenant.Resolver, h Handlers, plugins []apps.Plugin) {
	db, cfg := deps.DB, deps.Config
	requireAuth := deps.RequireAuth

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(perMinute(60))

	// Health (no store required)
	api.Get("/health", h.Health.Check)

	// Auth: public endpoints get a stricter 10 req/min limit
	auth := api.Group("/auth")
	auth.Use(perMinute(10))
	auth.Post("/send-otp", h.Auth.SendOTP)
	auth.Post("/verify-otp", h.Auth.VerifyOTP)
	auth.Post("/refresh", h.Auth.Refresh)

	// Protected auth routes - middleware on individual routes keeps the group public
	api.Post("/auth/logout", requireAuth, h.Auth.Logout)
	api.Get("/auth/me", requireAuth, h.Auth.Me)
	api.Put("/auth/me", requireAuth, h.Auth.UpdateMe)
	api.Delete("/auth/account", requireAuth, h.Auth.DeleteAccount)

	// Store application. Registered before the /vendor group: Use matches by prefix,
	// so /api/vendors would otherwise pass through the vendor middleware.
	api.Post("/vendors", requireAuth, h.Vendor.Apply)

	// Webhooks (shared secret, no JWT)
	api.Post("/webhooks/payments", h.Webhook.HandlePayment)

	// Storefront, resolved from X-Store-Domain / ?domain= / Host
	storefront := api.Group("/storefront", middleware.Storefront(resolver))
	storefront.Get("/settings", h.Settings.GetAll)
	storefront.Get("/legal/privacy", h.Legal.PrivacyPolicy)
	storefront.Get("/legal/terms", h.Legal.TermsOfService)

	// Seller back office
	vendor := api.Group("/vendor",
		requireAuth,
		middleware.RoleRequired(db, cfg, models.RoleSeller, models.RoleAdmin, models.RoleSuperAdmin),
		middleware.VendorRequired(db),
	)
	vendor.Get("/", h.Vendor.GetMine)
	vendor.Put("/", h.Vendor.UpdateMine)
	vendor.Get("/domains", h.Domain.List)
	vendor.Post("/domains", h.Domain.Add)
	vendor.Post("/domains/:id/verify", h.Domain.Verify)
	vendor.Delete("/domains/:id", h.Domain.Delete)
	vendor.Get("/settings", h.Settings.GetAll)
	vendor.Get("/settings/:key", h.Settings.Get)
	vendor.Put("/settings/:key", h.Settings.Set)
	vendor.Delete("/settings/:key", h.Settings.Delete)

	// Platform operators
	admin := api.Group("/admin", requireAuth, middleware.AdminRequired(db, cfg))
	admin.Get("/stats", h.Admin.Stats)
	admin.Get("/users", h.Admin.ListUsers)
	admin.Put("/users/:id/role", h.Admin.SetUserRole)
	admin.Get("/vendors", h.Vendor.List)
	admin.Post("/vendors", h.Vendor.Onboard)
	admin.Put("/vendors/:id/status", h.Vendor.SetStatus)

	routers := apps.Routers{
		API:        api,
		Storefront: storefront,
		Vendor:     vendor,
		Admin:      admin,
	}
	for _, p := range plugins {
		p.RegisterRoutes(routers, deps)
	}
}
