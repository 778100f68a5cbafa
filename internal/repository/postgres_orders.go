package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/models"
)

// PostgresOrderRepository implements OrderRepository using PostgreSQL.
// Row-level locks on products serialize concurrent stock decrements.
type PostgresOrderRepository struct {
	db     *sql.DB
	logger *log.Entry
}

// NewPostgresOrderRepository creates a new PostgreSQL order repository.
func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		db:     db,
		logger: log.WithField("component", "order-repository"),
	}
}

// CreateOrder implements the atomic order creation transaction.
func (r *PostgresOrderRepository) CreateOrder(ctx context.Context, userID int64, items []models.CreateOrderItem) (*models.Order, error) {
	// Stable lock acquisition order: ascending product id. Two concurrent
	// orders touching the same pair of products in opposite request order
	// would otherwise deadlock.
	sorted := make([]models.CreateOrderItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", apperrors.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	now := time.Now()
	order := &models.Order{
		UserID:    userID,
		Status:    models.OrderStatusPending,
		Total:     decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, status, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		order.UserID, order.Status, order.Total, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: insert order: %v", apperrors.ErrStoreUnavailable, err)
	}

	total := decimal.Zero
	for _, it := range sorted {
		var (
			name  string
			price decimal.Decimal
			stock int
		)
		err = tx.QueryRowContext(ctx, `
			SELECT name, price, stock
			FROM products
			WHERE id = $1
			FOR UPDATE`,
			it.ProductID,
		).Scan(&name, &price, &stock)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperrors.ProductNotFoundError{ProductID: it.ProductID}
		}
		if err != nil {
			return nil, fmt.Errorf("%w: lock product %d: %v", apperrors.ErrStoreUnavailable, it.ProductID, err)
		}

		// Re-check under the lock; the pre-lock validation read may be stale.
		if stock < it.Quantity {
			r.logger.WithFields(log.Fields{
				"order_id":   order.ID,
				"product_id": it.ProductID,
				"available":  stock,
				"requested":  it.Quantity,
			}).Warn("Insufficient stock, rolling back order")
			return nil, &apperrors.InsufficientStockError{
				ProductID:   it.ProductID,
				ProductName: name,
				Available:   stock,
				Requested:   it.Quantity,
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $2, updated_at = $3
			WHERE id = $1`,
			it.ProductID, it.Quantity, now,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: decrement stock for product %d: %v", apperrors.ErrStoreUnavailable, it.ProductID, err)
		}

		item := models.OrderItem{
			OrderID:         order.ID,
			ProductID:       it.ProductID,
			ProductName:     name,
			Quantity:        it.Quantity,
			PriceAtPurchase: price,
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			item.OrderID, item.ProductID, item.Quantity, item.PriceAtPurchase,
		).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: insert order item: %v", apperrors.ErrStoreUnavailable, err)
		}

		order.Items = append(order.Items, item)
		total = total.Add(item.LineTotal())
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET total = $2, updated_at = $3 WHERE id = $1`,
		order.ID, total, now,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: set order total: %v", apperrors.ErrStoreUnavailable, err)
	}
	order.Total = total

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", apperrors.ErrStoreUnavailable, err)
	}

	r.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"user_id":  userID,
		"items":    len(order.Items),
		"total":    order.Total.StringFixed(2),
	}).Info("Order created")

	return order, nil
}

// GetByID retrieves an order with its line items.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	var lastNotified sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, total, last_notified_status, created_at, updated_at
		FROM orders
		WHERE id = $1`,
		id,
	).Scan(&order.ID, &order.UserID, &order.Status, &order.Total,
		&lastNotified, &order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastNotified.Valid {
		order.LastNotifiedStatus = models.OrderStatus(lastNotified.String)
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

// ListByUser returns the user's orders, newest first, items included.
func (r *PostgresOrderRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, status, total, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		var order models.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.Status, &order.Total,
			&order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		items, err := r.loadItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}

	return orders, nil
}

// UpdateStatus persists a status transition and returns the updated order.
// Transition validity is the service's concern.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now(),
	)
	if err != nil {
		return nil, err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return nil, apperrors.ErrNotFound
	}

	r.logger.WithFields(log.Fields{"order_id": id, "status": status}).Info("Order status updated")

	return r.GetByID(ctx, id)
}

// RecalculateTotal recomputes the total from the current item set, writing
// only when the stored value differs.
func (r *PostgresOrderRepository) RecalculateTotal(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	var computed decimal.Decimal
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity * price_at_purchase), 0)
		FROM order_items
		WHERE order_id = $1`,
		orderID,
	).Scan(&computed)
	if err != nil {
		return decimal.Zero, err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET total = $2, updated_at = $3
		WHERE id = $1 AND total <> $2`,
		orderID, computed, time.Now(),
	)
	if err != nil {
		return decimal.Zero, err
	}
	if affected, _ := result.RowsAffected(); affected > 0 {
		r.logger.WithFields(log.Fields{
			"order_id": orderID,
			"total":    computed.StringFixed(2),
		}).Debug("Order total recalculated")
	}

	return computed, nil
}

// ClaimNotification marks status as notified for the order, once.
func (r *PostgresOrderRepository) ClaimNotification(ctx context.Context, orderID int64, status models.OrderStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET last_notified_status = $2
		WHERE id = $1 AND (last_notified_status IS NULL OR last_notified_status <> $2)`,
		orderID, status,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *PostgresOrderRepository) loadItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price_at_purchase
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.OrderItem, 0)
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID,
			&item.ProductName, &item.Quantity, &item.PriceAtPurchase); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
