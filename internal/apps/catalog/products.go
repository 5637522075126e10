package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrProductSlugTaken = errors.New("product slug already exists")
	ErrInvalidStatus    = errors.New("status must be draft, active or archived")
	ErrVariantNotFound  = errors.New("variant not found")
	ErrSKUTaken         = errors.New("sku already exists")
	ErrInvalidImage     = errors.New("image must be a JPEG, PNG, WebP or GIF file")
	ErrTooManyImages    = errors.New("a product can have at most 10 images")
)

const maxImages = 10

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type CreateProductRequest struct {
	Name           string           `json:"name" validate:"required,max=255"`
	Slug           string           `json:"slug" validate:"max=280"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	Stock          int              `json:"stock" validate:"gte=0"`
	Status         string           `json:"status" validate:"omitempty,oneof=draft active archived"`
	CategoryID     *uuid.UUID       `json:"category_id"`
}

type UpdateProductRequest struct {
	Name           *string          `json:"name" validate:"omitempty,max=255"`
	Slug           *string          `json:"slug" validate:"omitempty,max=280"`
	Description    *string          `json:"description"`
	Price          *decimal.Decimal `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	Stock          *int             `json:"stock" validate:"omitempty,gte=0"`
	Status         *string          `json:"status" validate:"omitempty,oneof=draft active archived"`
	CategoryID     *uuid.UUID       `json:"category_id"`
	ClearCategory  bool             `json:"clear_category"`
}

type UpdateVariantRequest struct {
	SKU   *string          `json:"sku" validate:"omitempty,max=100"`
	Color *string          `json:"color" validate:"omitempty,max=50"`
	Size  *string          `json:"size" validate:"omitempty,max=50"`
	Price *decimal.Decimal `json:"price"`
	Stock *int             `json:"stock" validate:"omitempty,gte=0"`
}

type ProductFilter struct {
	Status string
	Query  string
	Page   int
	Limit  int
}

type ProductService struct {
	db         *gorm.DB
	categories *CategoryService
	storage    storage.ObjectStorage
}

func NewProductService(db *gorm.DB, categories *CategoryService, store storage.ObjectStorage) *ProductService {
	return &ProductService{db: db, categories: categories, storage: store}
}

func (s *ProductService) List(ctx context.Context, vendorID uuid.UUID, f ProductFilter) ([]models.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{}).Scopes(tenant.ForVendor(vendorID))
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ?", like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := query.Preload("Variants").Order("created_at DESC").
		Offset((f.Page - 1) * f.Limit).Limit(f.Limit).Find(&products).Error
	return products, total, err
}

func (s *ProductService) Get(ctx context.Context, vendorID, id uuid.UUID) (*models.Product, error) {
	return s.find(s.db.WithContext(ctx), vendorID, id)
}

func (s *ProductService) find(db *gorm.DB, vendorID, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := db.Scopes(tenant.ForVendor(vendorID)).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("sku") }).
		Preload("Category").
		First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	return &product, err
}

func (s *ProductService) Create(ctx context.Context, vendorID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	db := s.db.WithContext(ctx)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if req.Price.IsNegative() || (req.CompareAtPrice != nil && req.CompareAtPrice.IsNegative()) {
		return nil, ErrNegativePrice
	}
	if req.Stock < 0 {
		return nil, ErrNegativeStock
	}
	status := req.Status
	if status == "" {
		status = models.ProductStatusDraft
	}
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}
	if req.CategoryID != nil {
		if _, err := s.categories.Visible(ctx, vendorID, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	slug, err := s.resolveSlug(db, vendorID, req.Slug, name, uuid.Nil)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		VendorID:       vendorID,
		CategoryID:     req.CategoryID,
		Name:           name,
		Slug:           slug,
		Description:    req.Description,
		Price:          req.Price.Round(2),
		CompareAtPrice: req.CompareAtPrice,
		Stock:          req.Stock,
		Status:         status,
		Images:         []string{},
	}
	if err := db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, vendorID, id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	db := s.db.WithContext(ctx)
	product, err := s.find(db, vendorID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		updates["name"] = name
	}
	if req.Slug != nil {
		slug, err := s.resolveSlug(db, vendorID, *req.Slug, product.Name, product.ID)
		if err != nil {
			return nil, err
		}
		updates["slug"] = slug
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, ErrNegativePrice
		}
		updates["price"] = req.Price.Round(2)
	}
	if req.CompareAtPrice != nil {
		if req.CompareAtPrice.IsNegative() {
			return nil, ErrNegativePrice
		}
		updates["compare_at_price"] = req.CompareAtPrice.Round(2)
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, ErrNegativeStock
		}
		updates["stock"] = *req.Stock
	}
	if req.Status != nil {
		if !validStatus(*req.Status) {
			return nil, ErrInvalidStatus
		}
		updates["status"] = *req.Status
	}
	if req.ClearCategory {
		updates["category_id"] = nil
	} else if req.CategoryID != nil {
		if _, err := s.categories.Visible(ctx, vendorID, *req.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *req.CategoryID
	}

	if len(updates) > 0 {
		if err := db.Model(product).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}
	return s.find(db, vendorID, id)
}

func (s *ProductService) Delete(ctx context.Context, vendorID, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Scopes(tenant.ForVendor(vendorID)).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// AddImage uploads an image to object storage and appends its URL to the product.
func (s *ProductService) AddImage(ctx context.Context, vendorID, id uuid.UUID, contentType string, body io.Reader, size int64) (*models.Product, error) {
	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))]
	if !ok {
		return nil, ErrInvalidImage
	}

	db := s.db.WithContext(ctx)
	product, err := s.find(db, vendorID, id)
	if err != nil {
		return nil, err
	}
	if len(product.Images) >= maxImages {
		return nil, ErrTooManyImages
	}

	key := path.Join("products", vendorID.String(), product.ID.String(), uuid.NewString()+ext)
	url, err := s.storage.Upload(ctx, key, contentType, body, size)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	images := append(product.Images, url)
	if err := db.Model(product).Update("images", images).Error; err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			slog.Warn("failed to remove orphaned image", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("failed to save image: %w", err)
	}
	product.Images = images
	return product, nil
}

// ApplyMatrix generates the product's variants. With preview the variants are only returned;
// otherwise they replace the existing variants.
func (s *ProductService) ApplyMatrix(ctx context.Context, vendorID, id uuid.UUID, input MatrixInput, preview bool) ([]VariantSpec, error) {
	db := s.db.WithContext(ctx)
	product, err := s.find(db, vendorID, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.SKUPrefix) == "" {
		input.SKUPrefix = DefaultSKUPrefix(product.ID)
	}

	specs, err := GenerateVariantMatrix(input)
	if err != nil {
		return nil, err
	}
	if preview {
		return specs, nil
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		for _, spec := range specs {
			taken, err := skuTaken(tx, spec.SKU, uuid.Nil)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: %s", ErrSKUTaken, spec.SKU)
			}
			v := models.ProductVariant{
				ProductID: product.ID,
				SKU:       spec.SKU,
				Color:     spec.Color,
				Size:      spec.Size,
				Price:     spec.Price.Round(2),
				Stock:     spec.Stock,
			}
			if err := tx.Create(&v).Error; err != nil {
				return fmt.Errorf("failed to create variant: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return specs, nil
}

func (s *ProductService) UpdateVariant(ctx context.Context, vendorID, productID, variantID uuid.UUID, req *UpdateVariantRequest) (*models.ProductVariant, error) {
	db := s.db.WithContext(ctx)
	variant, err := s.findVariant(db, vendorID, productID, variantID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.SKU != nil {
		sku := strings.ToUpper(strings.TrimSpace(*req.SKU))
		if sku == "" {
			return nil, ErrInvalidName
		}
		taken, err := skuTaken(db, sku, variant.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrSKUTaken
		}
		updates["sku"] = sku
	}
	if req.Color != nil {
		updates["color"] = strings.TrimSpace(*req.Color)
	}
	if req.Size != nil {
		updates["size"] = strings.TrimSpace(*req.Size)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, ErrNegativePrice
		}
		updates["price"] = req.Price.Round(2)
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, ErrNegativeStock
		}
		updates["stock"] = *req.Stock
	}

	if len(updates) > 0 {
		if err := db.Model(variant).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update variant: %w", err)
		}
	}
	return s.findVariant(db, vendorID, productID, variantID)
}

func (s *ProductService) DeleteVariant(ctx context.Context, vendorID, productID, variantID uuid.UUID) error {
	db := s.db.WithContext(ctx)
	variant, err := s.findVariant(db, vendorID, productID, variantID)
	if err != nil {
		return err
	}
	return db.Delete(variant).Error
}

func (s *ProductService) findVariant(db *gorm.DB, vendorID, productID, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := db.Joins("JOIN products ON products.id = product_variants.product_id").
		Where("products.vendor_id = ? AND products.deleted_at IS NULL", vendorID).
		Where("product_variants.product_id = ?", productID).
		First(&variant, "product_variants.id = ?", variantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVariantNotFound
	}
	return &variant, err
}

// resolveSlug returns the slug to store. An explicit slug must be free; a slug derived
// from name gets a numeric suffix until it is.
func (s *ProductService) resolveSlug(db *gorm.DB, vendorID uuid.UUID, requested, name string, except uuid.UUID) (string, error) {
	taken := func(slug string) (bool, error) {
		var count int64
		if err := db.Unscoped().Model(&models.Product{}).
			Where("vendor_id = ? AND slug = ? AND id <> ?", vendorID, slug, except).
			Count(&count).Error; err != nil {
			return false, fmt.Errorf("failed to check slug: %w", err)
		}
		return count > 0, nil
	}

	if slug := Slugify(requested); slug != "" {
		used, err := taken(slug)
		if err != nil {
			return "", err
		}
		if used {
			return "", ErrProductSlugTaken
		}
		return slug, nil
	}

	base := Slugify(name)
	if base == "" {
		base = "product"
	}
	slug := base
	for i := 2; ; i++ {
		used, err := taken(slug)
		if err != nil {
			return "", err
		}
		if !used {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// skuTaken reports whether another variant already uses sku.
func skuTaken(db *gorm.DB, sku string, except uuid.UUID) (bool, error) {
	var count int64
	if err := db.Model(&models.ProductVariant{}).
		Where("sku = ? AND id <> ?", sku, except).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check sku: %w", err)
	}
	return count > 0, nil
}

// DefaultSKUPrefix derives a SKU prefix from the product ID.
func DefaultSKUPrefix(id uuid.UUID) string {
	return "P" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

func validStatus(status string) bool {
	switch status {
	case models.ProductStatusDraft, models.ProductStatusActive, models.ProductStatusArchived:
		return true
	}
	return false
}
