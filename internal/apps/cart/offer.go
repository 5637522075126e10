package cart

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProductUnavailable = errors.New("product is not available")
	ErrVariantRequired    = errors.New("variant_id is required for this product")
	ErrVariantNotFound    = errors.New("variant not found for this product")
	ErrInsufficientStock  = errors.New("requested quantity exceeds available stock")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
)

// Offer is a purchasable product or variant as it is right now.
type Offer struct {
	Product   *models.Product
	Variant   *models.ProductVariant
	UnitPrice decimal.Decimal
	Stock     int
}

func (o *Offer) VendorID() uuid.UUID {
	return o.Product.VendorID
}

// SKU returns the variant SKU, empty for products sold without variants.
func (o *Offer) SKU() string {
	if o.Variant == nil {
		return ""
	}
	return o.Variant.SKU
}

// LoadOffer checks that the product (and variant, if given) can be bought: the product
// is active, its vendor is active, and a variant is named exactly when the product has any.
func LoadOffer(db *gorm.DB, productID uuid.UUID, variantID *uuid.UUID) (*Offer, error) {
	var product models.Product
	if err := db.Preload("Vendor").First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductUnavailable
		}
		return nil, err
	}
	if !product.IsActive() || product.Vendor == nil || !product.Vendor.IsActive() {
		return nil, ErrProductUnavailable
	}

	var variantCount int64
	if err := db.Model(&models.ProductVariant{}).Where("product_id = ?", product.ID).
		Count(&variantCount).Error; err != nil {
		return nil, err
	}

	offer := &Offer{Product: &product, UnitPrice: product.Price, Stock: product.Stock}
	if variantID == nil {
		if variantCount > 0 {
			return nil, ErrVariantRequired
		}
		return offer, nil
	}

	var variant models.ProductVariant
	if err := db.Where("id = ? AND product_id = ?", *variantID, product.ID).First(&variant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVariantNotFound
		}
		return nil, err
	}
	offer.Variant = &variant
	offer.UnitPrice = variant.Price
	offer.Stock = variant.Stock
	return offer, nil
}
