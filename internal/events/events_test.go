package events

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/models"
)

func TestWithCorrelationID(t *testing.T) {
	ctx := context.Background()
	if got := correlationID(ctx); got != "" {
		t.Errorf("Expected empty correlation id on bare context, got %q", got)
	}

	ctx = WithCorrelationID(ctx, "req-123")
	if got := correlationID(ctx); got != "req-123" {
		t.Errorf("Expected correlation id req-123, got %q", got)
	}
}

func TestEventItemsSnapshotsOrder(t *testing.T) {
	order := &models.Order{
		Items: []models.OrderItem{
			{ProductID: 1, ProductName: "Widget", Quantity: 2, PriceAtPurchase: decimal.RequireFromString("5.00")},
			{ProductID: 2, ProductName: "Gadget", Quantity: 1, PriceAtPurchase: decimal.RequireFromString("9.99")},
		},
	}

	items := eventItems(order)
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].ProductName != "Widget" || items[0].Quantity != 2 {
		t.Errorf("Unexpected first item: %+v", items[0])
	}
	if !items[1].PriceAtPurchase.Equal(decimal.RequireFromString("9.99")) {
		t.Errorf("Expected snapshotted price 9.99, got %s", items[1].PriceAtPurchase)
	}
}

func TestMockPublisherRecordsByType(t *testing.T) {
	ctx := context.Background()
	mock := NewMockPublisher()

	order := &models.Order{
		ID:     1,
		UserID: 42,
		Status: models.OrderStatusShipped,
		Total:  decimal.RequireFromString("10.00"),
	}

	if err := mock.PublishOrderCreated(ctx, order); err != nil {
		t.Fatalf("PublishOrderCreated failed: %v", err)
	}
	if err := mock.PublishOrderStatusChanged(ctx, order, models.OrderStatusProcessing); err != nil {
		t.Fatalf("PublishOrderStatusChanged failed: %v", err)
	}
	if err := mock.PublishOrderShipped(ctx, order); err != nil {
		t.Fatalf("PublishOrderShipped failed: %v", err)
	}

	if got := len(mock.ByType(EventTypeOrderShipped)); got != 1 {
		t.Errorf("Expected 1 shipped event, got %d", got)
	}

	changed := mock.ByType(EventTypeOrderStatusChanged)
	if len(changed) != 1 {
		t.Fatalf("Expected 1 status change event, got %d", len(changed))
	}
	if changed[0].PreviousStatus != "processing" {
		t.Errorf("Expected previous status processing, got %q", changed[0].PreviousStatus)
	}
}
