package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	VendorStatusPending   = "pending"
	VendorStatusActive    = "active"
	VendorStatusSuspended = "suspended"
	VendorStatusRejected  = "rejected"
)

// Vendor is a tenant store owned by a single seller.
type Vendor struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"owner_id"`
	Name         string         `gorm:"size:255;not null" json:"name"`
	Subdomain    string         `gorm:"size:63;not null;uniqueIndex" json:"subdomain"`
	Description  string         `gorm:"type:text" json:"description"`
	LogoURL      string         `gorm:"size:500" json:"logo_url"`
	ContactEmail string         `gorm:"size:255" json:"contact_email"`
	Status       string         `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ApprovedAt   *time.Time     `json:"approved_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Domains []CustomDomain `gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE" json:"domains,omitempty"`
}

func (v *Vendor) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Status == "" {
		v.Status = VendorStatusPending
	}
	return nil
}

func (v *Vendor) IsActive() bool {
	return v.Status == VendorStatusActive
}
