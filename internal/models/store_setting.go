package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StoreSetting stores per-vendor storefront configuration values.
type StoreSetting struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VendorID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_store_settings_vendor_key,priority:1" json:"vendor_id"`
	Key       string    `gorm:"size:100;not null;uniqueIndex:idx_store_settings_vendor_key,priority:2" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	Type      string    `gorm:"size:20;default:'string'" json:"type"` // string, bool, int, json
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *StoreSetting) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (StoreSetting) TableName() string {
	return "store_settings"
}
