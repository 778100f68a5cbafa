package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestProductInStock(t *testing.T) {
	p := Product{Stock: 1}
	if !p.InStock() {
		t.Error("Expected product with stock 1 to be in stock")
	}

	p.Stock = 0
	if p.InStock() {
		t.Error("Expected product with stock 0 to be out of stock")
	}
}

func TestCacheDiscriminator(t *testing.T) {
	min := decimal.RequireFromString("10")
	max := decimal.RequireFromString("99.5")

	tests := []struct {
		name   string
		filter ProductListFilter
		want   string
	}{
		{
			name:   "empty filter",
			filter: ProductListFilter{},
			want:   "category=",
		},
		{
			name:   "category only",
			filter: ProductListFilter{Category: "books"},
			want:   "category=books",
		},
		{
			name:   "full filter",
			filter: ProductListFilter{Category: "books", PriceMin: &min, PriceMax: &max, OrderBy: "-price"},
			want:   "category=books&price_min=10&price_max=99.5&ordering=-price",
		},
		{
			name:   "ordering without bounds",
			filter: ProductListFilter{OrderBy: "name"},
			want:   "category=&ordering=name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.CacheDiscriminator(); got != tt.want {
				t.Errorf("CacheDiscriminator() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheDiscriminatorDistinguishesFilters(t *testing.T) {
	min := decimal.RequireFromString("5")

	a := ProductListFilter{Category: "books"}
	b := ProductListFilter{Category: "books", PriceMin: &min}

	if a.CacheDiscriminator() == b.CacheDiscriminator() {
		t.Error("Expected different filters to produce different discriminators")
	}
}
