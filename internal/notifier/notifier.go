// Package notifier consumes order lifecycle events and performs the
// fire-and-forget side work: order report dispatch on creation and the
// external shipment webhook on shipping. Failures here are retried a bounded
// number of times and then logged; they never affect the order itself.
package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/models"
)

// OrderStore is the slice of order persistence the notifier needs.
type OrderStore interface {
	ClaimNotification(ctx context.Context, orderID int64, status models.OrderStatus) (bool, error)
}

// ShipmentSender delivers the external shipment notification.
type ShipmentSender interface {
	NotifyOrderShipped(ctx context.Context, payload *clients.ShipmentPayload) error
}

// RetryConfig bounds delivery retries with exponential backoff.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns the default retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Notifier handles consumed order events.
type Notifier struct {
	orders   OrderStore
	shipment ShipmentSender
	retry    RetryConfig
	metrics  *metrics.Metrics
	logger   *log.Entry
}

// New creates a notifier with the given retry policy.
func New(orders OrderStore, shipment ShipmentSender, retry RetryConfig, m *metrics.Metrics) *Notifier {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &Notifier{
		orders:   orders,
		shipment: shipment,
		retry:    retry,
		metrics:  m,
		logger:   log.WithField("component", "notifier"),
	}
}

// HandleEvent dispatches a consumed order event. Delivery is at-least-once,
// so every branch must tolerate duplicates.
func (n *Notifier) HandleEvent(ctx context.Context, event *events.OrderEvent) error {
	switch event.Type {
	case events.EventTypeOrderCreated:
		return n.handleOrderCreated(ctx, event)
	case events.EventTypeOrderShipped:
		return n.handleOrderShipped(ctx, event)
	case events.EventTypeOrderStatusChanged:
		// Informational; no side work beyond what the shipped event carries.
		return nil
	default:
		n.logger.WithField("type", event.Type).Debug("Ignoring unknown event type")
		return nil
	}
}

func (n *Notifier) handleOrderCreated(ctx context.Context, event *events.OrderEvent) error {
	claimed, err := n.orders.ClaimNotification(ctx, event.OrderID, models.OrderStatusPending)
	if err != nil {
		return err
	}
	if !claimed {
		n.logger.WithField("order_id", event.OrderID).Debug("Creation already notified, skipping")
		return nil
	}

	report := BuildOrderReport(event)

	// Email delivery is simulated; the report stands in for the generated
	// attachment.
	n.logger.WithFields(log.Fields{
		"order_id":    event.OrderID,
		"user_id":     event.UserID,
		"report_size": len(report),
	}).Info("Order confirmation dispatched")

	return nil
}

func (n *Notifier) handleOrderShipped(ctx context.Context, event *events.OrderEvent) error {
	claimed, err := n.orders.ClaimNotification(ctx, event.OrderID, models.OrderStatusShipped)
	if err != nil {
		return err
	}
	if !claimed {
		n.logger.WithField("order_id", event.OrderID).Debug("Shipment already notified, skipping duplicate")
		return nil
	}

	payload := &clients.ShipmentPayload{
		OrderID:     event.OrderID,
		UserID:      event.UserID,
		Status:      event.Status,
		TotalAmount: event.Total,
	}

	return n.deliverWithRetry(ctx, event.OrderID, payload)
}

func (n *Notifier) deliverWithRetry(ctx context.Context, orderID int64, payload *clients.ShipmentPayload) error {
	delay := n.retry.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= n.retry.MaxAttempts; attempt++ {
		n.metrics.WebhookAttempts.Inc()

		lastErr = n.shipment.NotifyOrderShipped(ctx, payload)
		if lastErr == nil {
			return nil
		}

		n.logger.WithFields(log.Fields{
			"order_id": orderID,
			"attempt":  attempt,
			"error":    lastErr.Error(),
		}).Warn("Shipment webhook attempt failed")

		if attempt == n.retry.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * n.retry.BackoffFactor)
		if n.retry.MaxDelay > 0 && delay > n.retry.MaxDelay {
			delay = n.retry.MaxDelay
		}
	}

	n.metrics.WebhookFailures.Inc()
	n.logger.WithFields(log.Fields{
		"order_id": orderID,
		"attempts": n.retry.MaxAttempts,
		"error":    lastErr.Error(),
	}).Error("Shipment webhook exhausted retries")

	return lastErr
}

// BuildOrderReport renders a plain-text order summary from the event
// payload, one line per item.
func BuildOrderReport(event *events.OrderEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order Report #%d\n", event.OrderID)
	fmt.Fprintf(&b, "Customer: %d\n", event.UserID)
	fmt.Fprintf(&b, "Status: %s\n", event.Status)
	fmt.Fprintf(&b, "Total: $%s\n", event.Total.StringFixed(2))
	b.WriteString("Items:\n")
	for _, item := range event.Items {
		fmt.Fprintf(&b, "- %s: %d x $%s\n",
			item.ProductName, item.Quantity, item.PriceAtPurchase.StringFixed(2))
	}
	return b.String()
}
