package service

import (
	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/models"
)

// ValidateCreateOrderRequest runs the fail-fast checks that need no catalog
// access: non-empty item set, positive quantities, no duplicate products.
func ValidateCreateOrderRequest(req *models.CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return apperrors.ErrEmptyOrder
	}

	seen := make(map[int64]bool, len(req.Items))
	for _, item := range req.Items {
		if item.ProductID <= 0 {
			return apperrors.NewValidationError("product_id", "product ID is required")
		}
		if item.Quantity < 1 {
			return apperrors.NewValidationError("quantity", "quantity must be at least 1")
		}
		if seen[item.ProductID] {
			return &apperrors.DuplicateProductError{ProductID: item.ProductID}
		}
		seen[item.ProductID] = true
	}

	return nil
}

// ValidateCreateProductRequest validates catalog creation input. Price must
// be strictly positive and stock non-negative.
func ValidateCreateProductRequest(req *models.CreateProductRequest) error {
	if req.Name == "" {
		return apperrors.NewValidationError("name", "name is required")
	}
	if req.SKU == "" {
		return apperrors.NewValidationError("sku", "sku is required")
	}
	if !req.Price.IsPositive() {
		return apperrors.NewValidationError("price", "price must be greater than zero")
	}
	if req.Stock < 0 {
		return apperrors.NewValidationError("stock", "stock cannot be negative")
	}
	return nil
}

// ValidateUpdateProductRequest validates catalog update input for the fields
// that are present.
func ValidateUpdateProductRequest(req *models.UpdateProductRequest) error {
	if req.Price != nil && !req.Price.IsPositive() {
		return apperrors.NewValidationError("price", "price must be greater than zero")
	}
	if req.Stock != nil && *req.Stock < 0 {
		return apperrors.NewValidationError("stock", "stock cannot be negative")
	}
	if req.Name != nil && *req.Name == "" {
		return apperrors.NewValidationError("name", "name cannot be empty")
	}
	return nil
}

// liveOrderAmount sums current catalog price x requested quantity. Used for
// the pre-lock minimum-amount check only; persisted prices are re-read under
// the row lock.
func liveOrderAmount(items []models.CreateOrderItem, products map[int64]*models.Product) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if p, ok := products[item.ProductID]; ok {
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	return total
}
