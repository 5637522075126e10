// Package inventory moves product and variant stock inside database transactions.
package inventory

import (
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrOutOfStock = errors.New("insufficient stock")

// Reserve decrements stock by qty. Variant stock is used when variantID is set,
// product stock otherwise. The update only applies while enough stock remains.
func Reserve(tx *gorm.DB, productID uuid.UUID, variantID *uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("reserve: quantity must be positive")
	}
	res := target(tx, productID, variantID).
		Where("stock >= ?", qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("reserve stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOutOfStock
	}
	return nil
}

// Release returns the quantities of items to stock.
func Release(tx *gorm.DB, items []models.OrderItem) error {
	for _, item := range items {
		res := target(tx, item.ProductID, item.VariantID).
			Update("stock", gorm.Expr("stock + ?", item.Quantity))
		if res.Error != nil {
			return fmt.Errorf("release stock: %w", res.Error)
		}
	}
	return nil
}

func target(tx *gorm.DB, productID uuid.UUID, variantID *uuid.UUID) *gorm.DB {
	if variantID != nil {
		return tx.Model(&models.ProductVariant{}).Where("id = ? AND product_id = ?", *variantID, productID)
	}
	return tx.Model(&models.Product{}).Where("id = ?", productID)
}
