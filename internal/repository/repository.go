package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/models"
)

// ProductRepository is the catalog read/write store.
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	// GetByIDs returns the products found, keyed by id. Missing ids are
	// simply absent from the map; the caller decides whether that is an
	// error.
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Product, error)
	List(ctx context.Context, filter *models.ProductListFilter) ([]*models.Product, error)
	Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	Update(ctx context.Context, id int64, req *models.UpdateProductRequest) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
}

// OrderRepository persists orders and their line items.
type OrderRepository interface {
	// CreateOrder runs the atomic stock-reservation transaction: it inserts
	// a pending order, locks each product row in ascending product-id order,
	// re-checks stock under the lock, decrements it, snapshots the locked
	// price into a line item, and persists the computed total. Any failure
	// discards every effect of the attempt.
	CreateOrder(ctx context.Context, userID int64, items []models.CreateOrderItem) (*models.Order, error)

	GetByID(ctx context.Context, id int64) (*models.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error)

	// RecalculateTotal recomputes the denormalized total from the current
	// item set and persists it only if it changed. Idempotent.
	RecalculateTotal(ctx context.Context, orderID int64) (decimal.Decimal, error)

	// ClaimNotification records that a notification for the given status has
	// been dispatched. It returns false when that status was already
	// notified, letting duplicate event deliveries be skipped.
	ClaimNotification(ctx context.Context, orderID int64, status models.OrderStatus) (bool, error)
}
