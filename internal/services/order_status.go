package services

import (
	"fmt"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/inventory"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"gorm.io/gorm"
)

var orderTransitions = map[string][]string{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:   {models.OrderStatusDelivered},
}

// CanTransitionOrder reports whether an order may move from one status to another.
func CanTransitionOrder(from, to string) bool {
	return allowed(orderTransitions, from, to)
}

// TransitionOrder moves order to status inside tx. Cancelling returns the items to stock.
// order.Items must be loaded when cancelling.
func TransitionOrder(tx *gorm.DB, order *models.Order, status string) error {
	if !CanTransitionOrder(order.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, order.Status, status)
	}
	return setOrderStatus(tx, order, status)
}

// refundCancellable reports whether a refund should also cancel the order.
func refundCancellable(order *models.Order) bool {
	return order.Status != models.OrderStatusDelivered && order.Status != models.OrderStatusCancelled
}

func setOrderStatus(tx *gorm.DB, order *models.Order, status string) error {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: order changed concurrently", ErrInvalidStatusTransition)
	}

	if status == models.OrderStatusCancelled {
		if err := inventory.Release(tx, order.Items); err != nil {
			return err
		}
	}
	order.Status = status
	return nil
}
