package tenant

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForVendor returns a GORM scope that filters by vendor_id.
func ForVendor(vendorID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("vendor_id = ?", vendorID)
	}
}

// VisibleToVendor matches global rows (vendor_id IS NULL) and rows owned by vendorID.
func VisibleToVendor(vendorID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("vendor_id IS NULL OR vendor_id = ?", vendorID)
	}
}
