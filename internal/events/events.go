package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/models"
)

// EventType identifies an order lifecycle event.
type EventType string

const (
	// EventTypeOrderCreated fires after an order creation transaction
	// commits, never before.
	EventTypeOrderCreated EventType = "order.created"
	// EventTypeOrderStatusChanged fires on any persisted status transition.
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	// EventTypeOrderShipped is the shipment notification enqueue: emitted
	// exactly once per transition into the shipped status.
	EventTypeOrderShipped EventType = "order.shipped"
)

// OrderEventItem is a line item snapshot carried in events, sufficient for
// downstream report generation without a callback query.
type OrderEventItem struct {
	ProductID       int64           `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

// OrderEvent is the message published for order lifecycle transitions.
type OrderEvent struct {
	ID             string           `json:"id"`
	Type           EventType        `json:"type"`
	OrderID        int64            `json:"order_id"`
	UserID         int64            `json:"user_id"`
	Status         string           `json:"status"`
	PreviousStatus string           `json:"previous_status,omitempty"`
	Total          decimal.Decimal  `json:"total"`
	Items          []OrderEventItem `json:"items,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
	CorrelationID  string           `json:"correlation_id,omitempty"`
}

// Publisher emits order lifecycle events. Implementations are
// fire-and-forget from the caller's perspective: a publish failure is logged
// by the caller and never rolls back the write that produced it.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error
	PublishOrderShipped(ctx context.Context, order *models.Order) error
	Close() error
}

func eventItems(order *models.Order) []OrderEventItem {
	items := make([]OrderEventItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, OrderEventItem{
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
		})
	}
	return items
}
