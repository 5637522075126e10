// Package orders turns carts into per-vendor orders and tracks them through fulfilment.
package orders

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps/cart"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/inventory"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/pricing"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrCartEmpty = errors.New("cart is empty")

const numberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type Address struct {
	FullName   string `json:"full_name" validate:"required,max=255"`
	Phone      string `json:"phone" validate:"max=50"`
	Line1      string `json:"line1" validate:"required,max=255"`
	Line2      string `json:"line2" validate:"max=255"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,len=2"`
}

func (a Address) model() models.ShippingAddress {
	return models.ShippingAddress{
		FullName:   strings.TrimSpace(a.FullName),
		Phone:      strings.TrimSpace(a.Phone),
		Line1:      strings.TrimSpace(a.Line1),
		Line2:      strings.TrimSpace(a.Line2),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.ToUpper(a.Country),
	}
}

type CheckoutRequest struct {
	ShippingAddress Address `json:"shipping_address" validate:"required"`
	PaymentMethod   string  `json:"payment_method" validate:"required,oneof=card cash_on_delivery bank_transfer"`
	Notes           string  `json:"notes" validate:"max=1000"`
}

type Service struct {
	db        *gorm.DB
	rules     pricing.Rules
	currency  string
	publisher events.Publisher
	mailer    mailer.Mailer
	now       func() time.Time
}

func NewService(db *gorm.DB, rules pricing.Rules, currency string, publisher events.Publisher, m mailer.Mailer) *Service {
	return &Service{
		db:        db,
		rules:     rules,
		currency:  currency,
		publisher: publisher,
		mailer:    m,
		now:       time.Now,
	}
}

// Checkout converts the buyer's cart into one pending order per vendor. Stock is reserved
// and the cart cleared in the same transaction; events and the confirmation email follow commit.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, req *CheckoutRequest) ([]models.Order, error) {
	var created []models.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := tx.Where("user_id = ?", userID).Order("created_at").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrCartEmpty
		}

		offers := make([]*cart.Offer, len(items))
		lines := make([]pricing.Line, len(items))
		for i, item := range items {
			offer, err := cart.LoadOffer(tx, item.ProductID, item.VariantID)
			if err != nil {
				return err
			}
			if item.Quantity > offer.Stock {
				return fmt.Errorf("%w: %s", cart.ErrInsufficientStock, offer.Product.Name)
			}
			offers[i] = offer
			lines[i] = pricing.Line{VendorID: offer.VendorID(), UnitPrice: offer.UnitPrice, Quantity: item.Quantity}
		}

		for _, group := range pricing.SplitByVendor(lines, s.rules) {
			number, err := s.uniqueNumber(tx)
			if err != nil {
				return err
			}

			order := models.Order{
				Number:          number,
				CustomerID:      userID,
				VendorID:        group.VendorID,
				Status:          models.OrderStatusPending,
				PaymentStatus:   models.PaymentStatusPending,
				PaymentMethod:   req.PaymentMethod,
				Currency:        s.currency,
				Subtotal:        group.Summary.Subtotal,
				Tax:             group.Summary.Tax,
				ShippingFee:     group.Summary.Shipping,
				Total:           group.Summary.Total,
				ShippingAddress: req.ShippingAddress.model(),
				Notes:           strings.TrimSpace(req.Notes),
			}
			for _, idx := range group.Indexes {
				item, offer := items[idx], offers[idx]
				if err := inventory.Reserve(tx, item.ProductID, item.VariantID, item.Quantity); err != nil {
					if errors.Is(err, inventory.ErrOutOfStock) {
						return fmt.Errorf("%w: %s", cart.ErrInsufficientStock, offer.Product.Name)
					}
					return err
				}
				order.Items = append(order.Items, snapshot(&item, offer, lines[idx]))
			}

			if err := tx.Create(&order).Error; err != nil {
				return fmt.Errorf("failed to create order: %w", err)
			}
			created = append(created, order)
		}

		return tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}

	for i := range created {
		s.publish(ctx, events.OrderCreated, &created[i])
	}
	s.sendConfirmation(ctx, userID, created)
	return created, nil
}

func snapshot(item *models.CartItem, offer *cart.Offer, line pricing.Line) models.OrderItem {
	oi := models.OrderItem{
		ProductID:   item.ProductID,
		VariantID:   item.VariantID,
		ProductName: offer.Product.Name,
		SKU:         offer.SKU(),
		UnitPrice:   line.UnitPrice,
		Quantity:    line.Quantity,
		LineTotal:   line.Total().Round(2),
	}
	if offer.Variant != nil {
		oi.Color = offer.Variant.Color
		oi.Size = offer.Variant.Size
	}
	return oi
}

// uniqueNumber returns an unused ORD-YYYYMMDD-XXXXXX number.
func (s *Service) uniqueNumber(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		number, err := OrderNumber(s.now())
		if err != nil {
			return "", err
		}
		var count int64
		if err := tx.Model(&models.Order{}).Where("number = ?", number).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return number, nil
		}
	}
	return "", errors.New("could not allocate an order number")
}

// OrderNumber formats ORD-<date>-<6 random characters>.
func OrderNumber(t time.Time) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = numberAlphabet[int(b)%len(numberAlphabet)]
	}
	return "ORD-" + t.UTC().Format("20060102") + "-" + string(buf), nil
}

func (s *Service) publish(ctx context.Context, key string, order *models.Order) {
	if err := s.publisher.Publish(ctx, key, events.NewOrderEvent(order)); err != nil {
		slog.Error("failed to publish order event", "event", key, "order", order.Number, "error", err)
	}
}

func (s *Service) sendConfirmation(ctx context.Context, userID uuid.UUID, orders []models.Order) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "email", "name").First(&user, "id = ?", userID).Error; err != nil {
		slog.Error("order confirmation skipped", "user_id", userID.String(), "error", err)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order.\n\n")
	for _, o := range orders {
		fmt.Fprintf(&b, "Order %s\n", o.Number)
		for _, item := range o.Items {
			fmt.Fprintf(&b, "  %d x %s", item.Quantity, item.ProductName)
			if item.SKU != "" {
				fmt.Fprintf(&b, " (%s)", item.SKU)
			}
			fmt.Fprintf(&b, "  %s %s\n", item.LineTotal.StringFixed(2), o.Currency)
		}
		fmt.Fprintf(&b, "  Subtotal %s, tax %s, shipping %s\n", o.Subtotal.StringFixed(2), o.Tax.StringFixed(2), o.ShippingFee.StringFixed(2))
		fmt.Fprintf(&b, "  Total %s %s\n\n", o.Total.StringFixed(2), o.Currency)
	}

	subject := "Your order " + orders[0].Number
	if len(orders) > 1 {
		subject = fmt.Sprintf("Your %d orders", len(orders))
	}
	if err := s.mailer.Send(ctx, mailer.Message{To: user.Email, Subject: subject, Body: b.String()}); err != nil {
		slog.Error("failed to send order confirmation", "user_id", userID.String(), "error", err)
	}
}
