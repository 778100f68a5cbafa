package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/models"
)

func TestValidateCreateOrderRequest(t *testing.T) {
	tests := []struct {
		name    string
		items   []models.CreateOrderItem
		wantErr string
	}{
		{
			name:    "empty items",
			items:   nil,
			wantErr: "empty_order",
		},
		{
			name:    "valid single item",
			items:   []models.CreateOrderItem{{ProductID: 1, Quantity: 2}},
			wantErr: "",
		},
		{
			name:    "zero quantity",
			items:   []models.CreateOrderItem{{ProductID: 1, Quantity: 0}},
			wantErr: "validation_error",
		},
		{
			name:    "negative quantity",
			items:   []models.CreateOrderItem{{ProductID: 1, Quantity: -3}},
			wantErr: "validation_error",
		},
		{
			name:    "missing product id",
			items:   []models.CreateOrderItem{{Quantity: 1}},
			wantErr: "validation_error",
		},
		{
			name: "duplicate product",
			items: []models.CreateOrderItem{
				{ProductID: 1, Quantity: 1},
				{ProductID: 2, Quantity: 1},
				{ProductID: 1, Quantity: 3},
			},
			wantErr: "duplicate_product",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCreateOrderRequest(&models.CreateOrderRequest{Items: tt.items})
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if got := apperrors.Code(err); got != tt.wantErr {
				t.Errorf("Expected error code %q, got %q (%v)", tt.wantErr, got, err)
			}
		})
	}
}

func TestValidateUpdateProductRequest(t *testing.T) {
	zero := decimal.Zero
	negStock := -1
	empty := ""

	if err := ValidateUpdateProductRequest(&models.UpdateProductRequest{}); err != nil {
		t.Errorf("Expected empty update to pass, got %v", err)
	}
	if err := ValidateUpdateProductRequest(&models.UpdateProductRequest{Price: &zero}); err == nil {
		t.Error("Expected zero price to be rejected")
	}
	if err := ValidateUpdateProductRequest(&models.UpdateProductRequest{Stock: &negStock}); err == nil {
		t.Error("Expected negative stock to be rejected")
	}
	if err := ValidateUpdateProductRequest(&models.UpdateProductRequest{Name: &empty}); err == nil {
		t.Error("Expected empty name to be rejected")
	}
}

func TestLiveOrderAmount(t *testing.T) {
	products := map[int64]*models.Product{
		1: {ID: 1, Price: decimal.RequireFromString("5.00")},
		2: {ID: 2, Price: decimal.RequireFromString("0.25")},
	}
	items := []models.CreateOrderItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 4},
	}

	got := liveOrderAmount(items, products)
	want := decimal.RequireFromString("11.00")
	if !got.Equal(want) {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestEmptyOrderErrorIsSentinel(t *testing.T) {
	err := ValidateCreateOrderRequest(&models.CreateOrderRequest{})
	if !errors.Is(err, apperrors.ErrEmptyOrder) {
		t.Errorf("Expected ErrEmptyOrder, got %v", err)
	}
}
