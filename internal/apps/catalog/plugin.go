package catalog

import (
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"gorm.io/gorm"
)

type CatalogPlugin struct{}

func New() *CatalogPlugin {
	return &CatalogPlugin{}
}

func (p *CatalogPlugin) ID() string { return "catalog" }

func (p *CatalogPlugin) Models() []interface{} {
	return []interface{}{
		&models.Category{},
		&models.Product{},
		&models.ProductVariant{},
	}
}

func (p *CatalogPlugin) RegisterRoutes(r apps.Routers, deps *apps.Deps) {
	categories := NewCategoryService(deps.DB)
	products := NewProductService(deps.DB, categories, deps.Storage)
	handler := NewHandler(categories, products)

	// Vendor categories (global + own)
	r.Vendor.Get("/categories", handler.ListCategories)
	r.Vendor.Post("/categories", handler.CreateCategory)
	r.Vendor.Put("/categories/:id", handler.UpdateCategory)
	r.Vendor.Delete("/categories/:id", handler.DeleteCategory)

	// Products; export must be registered before /:id
	r.Vendor.Get("/products", handler.ListProducts)
	r.Vendor.Post("/products", handler.CreateProduct)
	r.Vendor.Get("/products/export", handler.Export)
	r.Vendor.Get("/products/:id", handler.GetProduct)
	r.Vendor.Put("/products/:id", handler.UpdateProduct)
	r.Vendor.Delete("/products/:id", handler.DeleteProduct)
	r.Vendor.Post("/products/:id/images", handler.UploadImage)

	// Variants
	r.Vendor.Post("/products/:id/variants/generate", handler.GenerateVariants)
	r.Vendor.Put("/products/:id/variants/:variant_id", handler.UpdateVariant)
	r.Vendor.Delete("/products/:id/variants/:variant_id", handler.DeleteVariant)

	// Global categories
	r.Admin.Get("/categories", handler.ListGlobalCategories)
	r.Admin.Post("/categories", handler.CreateGlobalCategory)
	r.Admin.Put("/categories/:id", handler.UpdateGlobalCategory)
	r.Admin.Delete("/categories/:id", handler.DeleteGlobalCategory)
}

// Seed creates the global category tree on first boot.
func (p *CatalogPlugin) Seed(db *gorm.DB) error {
	return NewCategoryService(db).SeedDefaults(db)
}
