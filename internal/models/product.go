package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Stock is the only field mutated outside the
// catalog write path: order creation decrements it under a row lock.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// InStock reports whether the product has any available inventory.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// ProductListFilter holds catalog list query parameters.
type ProductListFilter struct {
	Category string
	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal
	OrderBy  string // "price", "-price", "name", "-name" or empty
}

// CacheDiscriminator serializes the filter into a stable string, used as the
// request-specific part of the versioned list cache key.
func (f *ProductListFilter) CacheDiscriminator() string {
	s := "category=" + f.Category
	if f.PriceMin != nil {
		s += "&price_min=" + f.PriceMin.String()
	}
	if f.PriceMax != nil {
		s += "&price_max=" + f.PriceMax.String()
	}
	if f.OrderBy != "" {
		s += "&ordering=" + f.OrderBy
	}
	return s
}

// CreateProductRequest is the payload for catalog creation.
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	SKU         string          `json:"sku" binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

// UpdateProductRequest is the payload for catalog updates. Pointer fields
// distinguish "not provided" from zero values.
type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	IsActive    *bool            `json:"is_active"`
}
