package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ProductStatusDraft    = "draft"
	ProductStatusActive   = "active"
	ProductStatusArchived = "archived"
)

// Category is global when VendorID is nil, otherwise private to one vendor.
// ParentID links a child to a root category; the tree is at most two levels deep.
// Slugs are unique per vendor; NULL vendor ids never collide in a unique index, so global
// slugs get their own partial index.
type Category struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	VendorID    *uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_categories_vendor_slug,priority:1" json:"vendor_id,omitempty"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Name        string     `gorm:"size:100;not null" json:"name"`
	Slug        string     `gorm:"size:120;not null;uniqueIndex:idx_categories_vendor_slug,priority:2;uniqueIndex:idx_categories_global_slug,where:vendor_id IS NULL" json:"slug"`
	Description string     `gorm:"type:text" json:"description"`
	SortOrder   int        `gorm:"default:0" json:"sort_order"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Category) IsGlobal() bool {
	return c.VendorID == nil
}

type Product struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	VendorID       uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_products_vendor_slug,priority:1" json:"vendor_id"`
	CategoryID     *uuid.UUID                  `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Name           string                      `gorm:"size:255;not null" json:"name"`
	Slug           string                      `gorm:"size:280;not null;uniqueIndex:idx_products_vendor_slug,priority:2" json:"slug"`
	Description    string                      `gorm:"type:text" json:"description"`
	Price          decimal.Decimal             `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	CompareAtPrice *decimal.Decimal            `gorm:"type:decimal(12,2)" json:"compare_at_price,omitempty"`
	Stock          int                         `gorm:"not null;default:0" json:"stock"`
	Status         string                      `gorm:"size:20;not null;default:'draft';index" json:"status"`
	Images         datatypes.JSONSlice[string] `json:"images"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
	DeletedAt      gorm.DeletedAt              `gorm:"index" json:"-"`

	Vendor   *Vendor          `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	Category *Category        `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = ProductStatusDraft
	}
	return nil
}

func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// ProductVariant is one color/size combination of a product with its own SKU, price and stock.
type ProductVariant struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	SKU       string          `gorm:"column:sku;size:100;not null;uniqueIndex" json:"sku"`
	Color     string          `gorm:"size:50" json:"color"`
	Size      string          `gorm:"size:50" json:"size"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Stock     int             `gorm:"not null;default:0" json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
