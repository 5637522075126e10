package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"

	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

type ShippingAddress struct {
	FullName   string `gorm:"size:255" json:"full_name"`
	Phone      string `gorm:"size:50" json:"phone"`
	Line1      string `gorm:"size:255" json:"line1"`
	Line2      string `gorm:"size:255" json:"line2"`
	City       string `gorm:"size:100" json:"city"`
	State      string `gorm:"size:100" json:"state"`
	PostalCode string `gorm:"size:20" json:"postal_code"`
	Country    string `gorm:"size:2" json:"country"`
}

// Order belongs to exactly one vendor; a checkout spanning several vendors yields several orders.
type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Number          string          `gorm:"size:32;not null;uniqueIndex" json:"number"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	VendorID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Status          string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	PaymentStatus   string          `gorm:"size:20;not null;default:'pending'" json:"payment_status"`
	PaymentMethod   string          `gorm:"size:30" json:"payment_method"`
	PaymentRef      string          `gorm:"size:100;index" json:"payment_ref,omitempty"`
	Currency        string          `gorm:"size:3;not null" json:"currency"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Tax             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax"`
	ShippingFee     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shipping_fee"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Items    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Vendor   *Vendor     `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	Customer *User       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem snapshots the product as it was sold.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	VariantID   *uuid.UUID      `gorm:"type:uuid" json:"variant_id,omitempty"`
	ProductName string          `gorm:"size:255;not null" json:"product_name"`
	SKU         string          `gorm:"column:sku;size:100" json:"sku"`
	Color       string          `gorm:"size:50" json:"color"`
	Size        string          `gorm:"size:50" json:"size"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
