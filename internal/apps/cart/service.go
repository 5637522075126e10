// Package cart keeps each buyer's cart. One cart may hold products from several stores.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrItemNotFound = errors.New("cart item not found")

type AddItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity" validate:"required,min=1,max=999"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=999"`
}

// Line is a cart row priced at the current product or variant price.
// Unavailable lines stay in the cart but are left out of the totals.
type Line struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	VendorID    uuid.UUID       `json:"vendor_id"`
	VendorName  string          `json:"vendor_name"`
	ProductName string          `json:"product_name"`
	Slug        string          `json:"slug"`
	Image       string          `json:"image,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	Color       string          `json:"color,omitempty"`
	Size        string          `json:"size,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Available   bool            `json:"available"`
}

type VendorTotals struct {
	VendorID   uuid.UUID       `json:"vendor_id"`
	VendorName string          `json:"vendor_name"`
	Summary    pricing.Summary `json:"summary"`
}

type View struct {
	Items   []Line          `json:"items"`
	Vendors []VendorTotals  `json:"vendors"`
	Summary pricing.Summary `json:"summary"`
}

type Service struct {
	db    *gorm.DB
	rules pricing.Rules
}

func NewService(db *gorm.DB, rules pricing.Rules) *Service {
	return &Service{db: db, rules: rules}
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	var items []models.CartItem
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Product").
		Preload("Product.Vendor").
		Preload("Variant").
		Order("created_at").
		Find(&items).Error; err != nil {
		return nil, err
	}

	view := &View{Items: make([]Line, 0, len(items)), Vendors: []VendorTotals{}}
	var priced []pricing.Line
	vendorNames := make(map[uuid.UUID]string)
	for _, item := range items {
		line := toLine(&item)
		view.Items = append(view.Items, line)
		if !line.Available {
			continue
		}
		vendorNames[line.VendorID] = line.VendorName
		priced = append(priced, pricing.Line{
			VendorID:  line.VendorID,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}

	groups := pricing.SplitByVendor(priced, s.rules)
	for _, g := range groups {
		view.Vendors = append(view.Vendors, VendorTotals{
			VendorID:   g.VendorID,
			VendorName: vendorNames[g.VendorID],
			Summary:    g.Summary,
		})
	}
	view.Summary = pricing.Combine(groups)
	return view, nil
}

func toLine(item *models.CartItem) Line {
	line := Line{
		ID:        item.ID,
		ProductID: item.ProductID,
		VariantID: item.VariantID,
		Quantity:  item.Quantity,
		UnitPrice: decimal.Zero,
		LineTotal: decimal.Zero,
	}
	p := item.Product
	if p == nil {
		return line
	}

	line.VendorID = p.VendorID
	line.ProductName = p.Name
	line.Slug = p.Slug
	line.UnitPrice = p.Price
	if len(p.Images) > 0 {
		line.Image = p.Images[0]
	}
	if p.Vendor != nil {
		line.VendorName = p.Vendor.Name
	}

	stock := p.Stock
	variantOK := item.VariantID == nil
	if v := item.Variant; v != nil {
		line.SKU = v.SKU
		line.Color = v.Color
		line.Size = v.Size
		line.UnitPrice = v.Price
		stock = v.Stock
		variantOK = true
	}

	line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	line.Available = variantOK && p.IsActive() &&
		p.Vendor != nil && p.Vendor.IsActive() &&
		item.Quantity <= stock
	return line
}

// Add puts a product in the cart, merging with an existing line for the same product and variant.
func (s *Service) Add(ctx context.Context, userID uuid.UUID, req *AddItemRequest) (*models.CartItem, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var result models.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		offer, err := LoadOffer(tx, req.ProductID, req.VariantID)
		if err != nil {
			return err
		}

		var existing models.CartItem
		query := tx.Where("user_id = ? AND product_id = ?", userID, req.ProductID)
		if req.VariantID == nil {
			query = query.Where("variant_id IS NULL")
		} else {
			query = query.Where("variant_id = ?", *req.VariantID)
		}
		err = query.First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found := err == nil

		qty := req.Quantity
		if found {
			qty += existing.Quantity
		}
		if qty > offer.Stock {
			return ErrInsufficientStock
		}

		if found {
			if err := tx.Model(&existing).Update("quantity", qty).Error; err != nil {
				return err
			}
			existing.Quantity = qty
			result = existing
			return nil
		}

		result = models.CartItem{
			UserID:    userID,
			ProductID: req.ProductID,
			VariantID: req.VariantID,
			Quantity:  qty,
		}
		if err := tx.Create(&result).Error; err != nil {
			return fmt.Errorf("failed to add cart item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateQuantity sets a line's quantity; zero removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*models.CartItem, error) {
	if qty < 0 {
		return nil, ErrInvalidQuantity
	}
	if qty == 0 {
		return nil, s.Remove(ctx, userID, itemID)
	}

	db := s.db.WithContext(ctx)
	var item models.CartItem
	if err := db.Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	offer, err := LoadOffer(db, item.ProductID, item.VariantID)
	if err != nil {
		return nil, err
	}
	if qty > offer.Stock {
		return nil, ErrInsufficientStock
	}

	if err := db.Model(&item).Update("quantity", qty).Error; err != nil {
		return nil, err
	}
	item.Quantity = qty
	return &item, nil
}

func (s *Service) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
