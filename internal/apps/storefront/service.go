// Package storefront serves the buyer-facing, read-only view of one vendor's store.
package storefront

import (
	"context"
	"errors"
	"strings"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps/catalog"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found")

// Sort orders accepted by the product listing.
var sortOrders = map[string]string{
	"newest":     "created_at DESC",
	"price_asc":  "price ASC, created_at DESC",
	"price_desc": "price DESC, created_at DESC",
	"name":       "name ASC",
}

const defaultSort = "newest"

type ProductQuery struct {
	Category string
	Query    string
	Sort     string
	Page     int
	Limit    int
}

// Profile is the public part of a vendor.
type Profile struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Subdomain    string    `json:"subdomain"`
	Description  string    `json:"description"`
	LogoURL      string    `json:"logo_url"`
	ContactEmail string    `json:"contact_email"`
}

func NewProfile(v *models.Vendor) Profile {
	return Profile{
		ID:           v.ID,
		Name:         v.Name,
		Subdomain:    v.Subdomain,
		Description:  v.Description,
		LogoURL:      v.LogoURL,
		ContactEmail: v.ContactEmail,
	}
}

type Service struct {
	db         *gorm.DB
	categories *catalog.CategoryService
}

func NewService(db *gorm.DB, categories *catalog.CategoryService) *Service {
	return &Service{db: db, categories: categories}
}

func (s *Service) Categories(ctx context.Context, vendorID uuid.UUID) ([]models.Category, error) {
	return s.categories.Tree(ctx, &vendorID)
}

// Products lists the store's active products. A category filter (slug or ID) on a root
// category also matches products of its children.
func (s *Service) Products(ctx context.Context, vendorID uuid.UUID, q ProductQuery) ([]models.Product, int64, error) {
	db := s.db.WithContext(ctx)
	query := db.Model(&models.Product{}).
		Scopes(tenant.ForVendor(vendorID)).
		Where("status = ?", models.ProductStatusActive)

	if q.Category != "" {
		ids, err := s.categoryIDs(db, vendorID, q.Category)
		if err != nil {
			return nil, 0, err
		}
		if len(ids) == 0 {
			return []models.Product{}, 0, nil
		}
		query = query.Where("category_id IN ?", ids)
	}
	if text := strings.TrimSpace(q.Query); text != "" {
		like := "%" + strings.ToLower(text) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := sortOrders[q.Sort]
	if !ok {
		order = sortOrders[defaultSort]
	}

	var products []models.Product
	err := query.Order(order).Offset((q.Page - 1) * q.Limit).Limit(q.Limit).Find(&products).Error
	return products, total, err
}

// Product loads an active product by slug together with its variants.
func (s *Service) Product(ctx context.Context, vendorID uuid.UUID, slug string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForVendor(vendorID)).
		Where("slug = ? AND status = ?", strings.ToLower(slug), models.ProductStatusActive).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("sku") }).
		Preload("Category").
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	return &product, err
}

func (s *Service) categoryIDs(db *gorm.DB, vendorID uuid.UUID, ref string) ([]uuid.UUID, error) {
	var matched []models.Category
	query := db.Scopes(tenant.VisibleToVendor(vendorID))
	if id, err := uuid.Parse(ref); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("slug = ?", strings.ToLower(ref))
	}
	if err := query.Find(&matched).Error; err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(matched))
	var roots []uuid.UUID
	for _, c := range matched {
		ids = append(ids, c.ID)
		if c.ParentID == nil {
			roots = append(roots, c.ID)
		}
	}
	if len(roots) > 0 {
		var children []uuid.UUID
		if err := db.Model(&models.Category{}).
			Scopes(tenant.VisibleToVendor(vendorID)).
			Where("parent_id IN ?", roots).
			Pluck("id", &children).Error; err != nil {
			return nil, err
		}
		ids = append(ids, children...)
	}
	return ids, nil
}
