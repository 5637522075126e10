package storefront

import (
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps/catalog"
)

type StorefrontPlugin struct{}

func New() *StorefrontPlugin {
	return &StorefrontPlugin{}
}

func (p *StorefrontPlugin) ID() string { return "storefront" }

// Models is empty; the storefront reads catalog tables.
func (p *StorefrontPlugin) Models() []interface{} {
	return nil
}

func (p *StorefrontPlugin) RegisterRoutes(r apps.Routers, deps *apps.Deps) {
	handler := NewHandler(NewService(deps.DB, catalog.NewCategoryService(deps.DB)))

	r.Storefront.Get("/", handler.Profile)
	r.Storefront.Get("/categories", handler.Categories)
	r.Storefront.Get("/products", handler.Products)
	r.Storefront.Get("/products/:slug", handler.Product)
}
