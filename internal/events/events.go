// Package events publishes domain events (orders, vendors) to downstream consumers.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/google/uuid"
)

const (
	OrderCreated        = "order.created"
	OrderStatusChanged  = "order.status_changed"
	VendorStatusChanged = "vendor.status_changed"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

type OrderEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	Number        string    `json:"number"`
	VendorID      uuid.UUID `json:"vendor_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	Total         string    `json:"total"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type VendorEvent struct {
	VendorID   uuid.UUID `json:"vendor_id"`
	Subdomain  string    `json:"subdomain"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewOrderEvent(o *models.Order) OrderEvent {
	return OrderEvent{
		OrderID:       o.ID,
		Number:        o.Number,
		VendorID:      o.VendorID,
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Total:         o.Total.StringFixed(2),
		OccurredAt:    time.Now().UTC(),
	}
}

func NewVendorEvent(v *models.Vendor) VendorEvent {
	return VendorEvent{
		VendorID:   v.ID,
		Subdomain:  v.Subdomain,
		Status:     v.Status,
		OccurredAt: time.Now().UTC(),
	}
}

// NoopPublisher drops events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }
func (NoopPublisher) Close() error                               { return nil }

type Published struct {
	RoutingKey string
	Payload    any
}

// MemoryPublisher records events for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Published
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Published{RoutingKey: routingKey, Payload: payload})
	return nil
}

func (p *MemoryPublisher) Close() error { return nil }

func (p *MemoryPublisher) Events() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Published, len(p.events))
	copy(out, p.events)
	return out
}

// Keys returns the routing keys in publish order.
func (p *MemoryPublisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, len(p.events))
	for i, e := range p.events {
		keys[i] = e.RoutingKey
	}
	return keys
}
