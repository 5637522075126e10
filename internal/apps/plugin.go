package apps

import (
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Routers are the route groups a plugin can mount on.
type Routers struct {
	// API is /api without authentication. Protected routes add Deps.RequireAuth
	// on their own sub-group so public routes stay public.
	API fiber.Router
	// Storefront is /api/storefront with the store resolved from the request host.
	Storefront fiber.Router
	// Vendor is /api/vendor with the seller's own store loaded.
	Vendor fiber.Router
	// Admin is /api/admin, platform operators only.
	Admin fiber.Router
}

// Deps are the shared infrastructure clients handed to every plugin.
type Deps struct {
	DB          *gorm.DB
	Config      *config.Config
	Cache       cache.Cache
	Storage     storage.ObjectStorage
	Publisher   events.Publisher
	Mailer      mailer.Mailer
	RequireAuth fiber.Handler
}

// Plugin defines the interface every marketplace feature module implements.
type Plugin interface {
	// ID returns the unique plugin identifier used in logs.
	ID() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts the plugin's routes.
	RegisterRoutes(r Routers, deps *Deps)
}

// Seeder is implemented by plugins that need reference data after migration.
type Seeder interface {
	Plugin

	Seed(db *gorm.DB) error
}
