package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"gorm.io/gorm"
)

var ErrOrderNotFound = errors.New("order not found")

const (
	PaymentSucceeded = "payment.succeeded"
	PaymentFailed    = "payment.failed"
	PaymentRefunded  = "payment.refunded"
)

// PaymentService applies payment provider notifications to orders.
type PaymentService struct {
	db        *gorm.DB
	publisher events.Publisher
}

func NewPaymentService(db *gorm.DB, publisher events.Publisher) *PaymentService {
	return &PaymentService{db: db, publisher: publisher}
}

// HandleWebhookEvent updates the order named by the event. Unknown event types are ignored.
func (s *PaymentService) HandleWebhookEvent(ctx context.Context, webhook *dto.PaymentWebhook) error {
	var paymentStatus string
	switch webhook.Type {
	case PaymentSucceeded:
		paymentStatus = models.PaymentStatusPaid
	case PaymentFailed:
		paymentStatus = models.PaymentStatusFailed
	case PaymentRefunded:
		paymentStatus = models.PaymentStatusRefunded
	default:
		slog.Info("ignoring payment event", "event_type", webhook.Type)
		return nil
	}

	var order models.Order
	cancelled := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").Where("number = ?", webhook.Data.OrderNumber).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		updates := map[string]interface{}{"payment_status": paymentStatus}
		if webhook.Data.PaymentRef != "" {
			updates["payment_ref"] = webhook.Data.PaymentRef
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		order.PaymentStatus = paymentStatus

		if paymentStatus == models.PaymentStatusRefunded && refundCancellable(&order) {
			if err := setOrderStatus(tx, &order, models.OrderStatusCancelled); err != nil {
				return err
			}
			cancelled = true
		}
		return nil
	})
	if err != nil {
		return err
	}

	if cancelled {
		if err := s.publisher.Publish(ctx, events.OrderStatusChanged, events.NewOrderEvent(&order)); err != nil {
			slog.Error("failed to publish order event", "order_id", order.ID.String(), "error", err)
		}
	}
	slog.Info("payment event applied", "order", order.Number, "event_type", webhook.Type, "payment_status", paymentStatus)
	return nil
}
