package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotCancellable = errors.New("only pending orders can be cancelled")

type Filter struct {
	Status   string
	VendorID *uuid.UUID
	Page     int
	Limit    int
}

func (s *Service) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB, f Filter) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).Scopes(scope)
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.VendorID != nil {
		query = query.Where("vendor_id = ?", *f.VendorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.Preload("Items").Order("created_at DESC").
		Offset((f.Page - 1) * f.Limit).Limit(f.Limit).Find(&orders).Error
	return orders, total, err
}

func customerScope(userID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Where("customer_id = ?", userID) }
}

func everything(db *gorm.DB) *gorm.DB { return db }

func (s *Service) ListForCustomer(ctx context.Context, userID uuid.UUID, f Filter) ([]models.Order, int64, error) {
	return s.list(ctx, customerScope(userID), f)
}

func (s *Service) ListForVendor(ctx context.Context, vendorID uuid.UUID, f Filter) ([]models.Order, int64, error) {
	f.VendorID = nil
	return s.list(ctx, tenant.ForVendor(vendorID), f)
}

func (s *Service) ListAll(ctx context.Context, f Filter) ([]models.Order, int64, error) {
	return s.list(ctx, everything, f)
}

func (s *Service) find(db *gorm.DB, scope func(*gorm.DB) *gorm.DB, id uuid.UUID, preloads ...string) (*models.Order, error) {
	query := db.Scopes(scope).Preload("Items")
	for _, p := range preloads {
		query = query.Preload(p)
	}
	var order models.Order
	if err := query.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *Service) GetForCustomer(ctx context.Context, userID, id uuid.UUID) (*models.Order, error) {
	return s.find(s.db.WithContext(ctx), customerScope(userID), id, "Vendor")
}

func (s *Service) GetForVendor(ctx context.Context, vendorID, id uuid.UUID) (*models.Order, error) {
	return s.find(s.db.WithContext(ctx), tenant.ForVendor(vendorID), id, "Customer")
}

// Cancel lets the buyer withdraw an order the vendor has not confirmed yet.
func (s *Service) Cancel(ctx context.Context, userID, id uuid.UUID) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.find(tx, customerScope(userID), id)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending {
			return ErrNotCancellable
		}
		return services.TransitionOrder(tx, order, models.OrderStatusCancelled)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.OrderStatusChanged, order)
	return order, nil
}

// UpdateStatus moves a vendor's order along pending → confirmed → shipped → delivered,
// or cancels it before shipping. The buyer is emailed about the change.
func (s *Service) UpdateStatus(ctx context.Context, vendorID, id uuid.UUID, status string) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.find(tx, tenant.ForVendor(vendorID), id, "Customer")
		if err != nil {
			return err
		}
		return services.TransitionOrder(tx, order, status)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.OrderStatusChanged, order)
	s.notifyStatus(ctx, order)
	return order, nil
}

func (s *Service) notifyStatus(ctx context.Context, order *models.Order) {
	if order.Customer == nil || order.Customer.Email == "" {
		return
	}
	msg := mailer.Message{
		To:      order.Customer.Email,
		Subject: fmt.Sprintf("Order %s is %s", order.Number, order.Status),
		Body:    fmt.Sprintf("Your order %s is now %s.", order.Number, order.Status),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		slog.Error("failed to send order status email", "order", order.Number, "error", err)
	}
}
