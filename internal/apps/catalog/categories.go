package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategorySlugTaken   = errors.New("category slug already exists")
	ErrCategoryDepth       = errors.New("categories can only be nested one level deep")
	ErrCategoryHasChildren = errors.New("category has subcategories")
	ErrInvalidName         = errors.New("name is required")
)

type CategoryRequest struct {
	Name        string     `json:"name" validate:"required,max=100"`
	Slug        string     `json:"slug" validate:"max=120"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
	SortOrder   int        `json:"sort_order"`
}

// CategoryService manages categories. A nil vendor ID addresses the global, admin-managed scope.
type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// ownScope matches categories the caller may modify.
func ownScope(vendorID *uuid.UUID) func(db *gorm.DB) *gorm.DB {
	if vendorID == nil {
		return func(db *gorm.DB) *gorm.DB { return db.Where("vendor_id IS NULL") }
	}
	return tenant.ForVendor(*vendorID)
}

// visibleScope matches categories the caller may read or attach to.
func visibleScope(vendorID *uuid.UUID) func(db *gorm.DB) *gorm.DB {
	if vendorID == nil {
		return ownScope(nil)
	}
	return tenant.VisibleToVendor(*vendorID)
}

// Tree returns root categories with their children, global ones first.
func (s *CategoryService) Tree(ctx context.Context, vendorID *uuid.UUID) ([]models.Category, error) {
	var all []models.Category
	if err := s.db.WithContext(ctx).Scopes(visibleScope(vendorID)).
		Order("sort_order, name").Find(&all).Error; err != nil {
		return nil, err
	}

	children := make(map[uuid.UUID][]models.Category)
	var roots []models.Category
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c)
			continue
		}
		roots = append(roots, c)
	}

	global := make([]models.Category, 0, len(roots))
	own := make([]models.Category, 0, len(roots))
	for _, r := range roots {
		r.Children = children[r.ID]
		if r.IsGlobal() {
			global = append(global, r)
		} else {
			own = append(own, r)
		}
	}
	return append(global, own...), nil
}

func (s *CategoryService) Create(ctx context.Context, vendorID *uuid.UUID, req *CategoryRequest) (*models.Category, error) {
	db := s.db.WithContext(ctx)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	cat := &models.Category{
		VendorID:    vendorID,
		Name:        name,
		Slug:        Slugify(req.Slug),
		Description: req.Description,
		SortOrder:   req.SortOrder,
	}
	if cat.Slug == "" {
		cat.Slug = Slugify(name)
	}
	if err := s.checkSlug(db, vendorID, cat.Slug, uuid.Nil); err != nil {
		return nil, err
	}
	if req.ParentID != nil {
		if err := s.checkParent(db, vendorID, *req.ParentID); err != nil {
			return nil, err
		}
		cat.ParentID = req.ParentID
	}

	if err := db.Create(cat).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCategorySlugTaken
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return cat, nil
}

func (s *CategoryService) Update(ctx context.Context, vendorID *uuid.UUID, id uuid.UUID, req *CategoryRequest) (*models.Category, error) {
	db := s.db.WithContext(ctx)
	cat, err := s.find(db, vendorID, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	slug := Slugify(req.Slug)
	if slug == "" {
		slug = cat.Slug
	}
	if slug != cat.Slug {
		if err := s.checkSlug(db, vendorID, slug, cat.ID); err != nil {
			return nil, err
		}
	}

	if req.ParentID != nil {
		if *req.ParentID == cat.ID {
			return nil, ErrCategoryDepth
		}
		kids, err := countChildren(db, cat.ID)
		if err != nil {
			return nil, err
		}
		if kids > 0 {
			return nil, ErrCategoryDepth
		}
		if err := s.checkParent(db, vendorID, *req.ParentID); err != nil {
			return nil, err
		}
	}

	if err := db.Model(cat).Updates(map[string]interface{}{
		"name":        name,
		"slug":        slug,
		"description": req.Description,
		"parent_id":   req.ParentID,
		"sort_order":  req.SortOrder,
	}).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCategorySlugTaken
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return s.find(db, vendorID, id)
}

// Delete removes a leaf category. Products in it become uncategorised.
func (s *CategoryService) Delete(ctx context.Context, vendorID *uuid.UUID, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cat, err := s.find(tx, vendorID, id)
		if err != nil {
			return err
		}

		kids, err := countChildren(tx, cat.ID)
		if err != nil {
			return err
		}
		if kids > 0 {
			return ErrCategoryHasChildren
		}

		if err := tx.Model(&models.Product{}).Where("category_id = ?", cat.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(cat).Error
	})
}

// Visible loads a category the vendor may attach products to.
func (s *CategoryService) Visible(ctx context.Context, vendorID uuid.UUID, id uuid.UUID) (*models.Category, error) {
	var cat models.Category
	err := s.db.WithContext(ctx).Scopes(tenant.VisibleToVendor(vendorID)).First(&cat, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	return &cat, err
}

func (s *CategoryService) find(db *gorm.DB, vendorID *uuid.UUID, id uuid.UUID) (*models.Category, error) {
	var cat models.Category
	err := db.Scopes(ownScope(vendorID)).First(&cat, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	return &cat, err
}

func (s *CategoryService) checkSlug(db *gorm.DB, vendorID *uuid.UUID, slug string, except uuid.UUID) error {
	if slug == "" {
		return ErrInvalidName
	}
	var count int64
	if err := db.Model(&models.Category{}).Scopes(ownScope(vendorID)).
		Where("slug = ? AND id <> ?", slug, except).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check slug: %w", err)
	}
	if count > 0 {
		return ErrCategorySlugTaken
	}
	return nil
}

func countChildren(db *gorm.DB, id uuid.UUID) (int64, error) {
	var kids int64
	if err := db.Model(&models.Category{}).Where("parent_id = ?", id).Count(&kids).Error; err != nil {
		return 0, fmt.Errorf("failed to count subcategories: %w", err)
	}
	return kids, nil
}

// checkParent requires a visible root category as parent.
func (s *CategoryService) checkParent(db *gorm.DB, vendorID *uuid.UUID, parentID uuid.UUID) error {
	var parent models.Category
	if err := db.Scopes(visibleScope(vendorID)).First(&parent, "id = ?", parentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	if parent.ParentID != nil {
		return ErrCategoryDepth
	}
	return nil
}

var defaultCategories = []struct {
	name     string
	children []string
}{
	{"Clothing", []string{"Tops", "Bottoms", "Outerwear"}},
	{"Shoes", nil},
	{"Accessories", []string{"Bags", "Jewelry"}},
	{"Electronics", []string{"Phones", "Audio"}},
	{"Home & Living", []string{"Kitchen", "Decor"}},
	{"Beauty", nil},
	{"Sports", nil},
}

// SeedDefaults creates the global category tree once.
func (s *CategoryService) SeedDefaults(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Category{}).Where("vendor_id IS NULL").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for i, d := range defaultCategories {
			root := models.Category{Name: d.name, Slug: Slugify(d.name), SortOrder: i}
			if err := tx.Create(&root).Error; err != nil {
				return err
			}
			for j, child := range d.children {
				c := models.Category{Name: child, Slug: Slugify(child), ParentID: &root.ID, SortOrder: j}
				if err := tx.Create(&c).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Slugify lowercases s and joins its alphanumeric runs with "-".
func Slugify(s string) string {
	return strings.ToLower(BuildSKU(s))
}
