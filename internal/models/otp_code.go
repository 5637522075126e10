package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OtpCode is a short-lived email verification code. Only the bcrypt hash is stored.
type OtpCode struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email      string     `gorm:"size:255;not null;index" json:"email"`
	CodeHash   string     `gorm:"size:100;not null" json:"-"`
	Attempts   int        `gorm:"not null;default:0" json:"attempts"`
	ExpiresAt  time.Time  `gorm:"not null;index" json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (o *OtpCode) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
