package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomDomain binds a vendor-owned hostname to its storefront once DNS ownership is verified.
type CustomDomain struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	VendorID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Domain            string     `gorm:"size:255;not null;uniqueIndex" json:"domain"`
	VerificationToken string     `gorm:"size:64;not null" json:"verification_token"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (d *CustomDomain) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (d *CustomDomain) Verified() bool {
	return d.VerifiedAt != nil
}
