package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/models"
)

const testSchema = `
CREATE TABLE IF NOT EXISTS products (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	sku TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	price NUMERIC(12,2) NOT NULL,
	stock INT NOT NULL CHECK (stock >= 0),
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS orders (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL,
	status TEXT NOT NULL,
	total NUMERIC(12,2) NOT NULL,
	last_notified_status TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS order_items (
	id BIGSERIAL PRIMARY KEY,
	order_id BIGINT NOT NULL REFERENCES orders(id),
	product_id BIGINT NOT NULL REFERENCES products(id),
	quantity INT NOT NULL,
	price_at_purchase NUMERIC(12,2) NOT NULL
);
`

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("Integration test - set TEST_DATABASE_URL to run")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("Database not reachable: %v", err)
	}

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	if _, err := db.Exec(`TRUNCATE order_items, orders, products RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("Failed to reset tables: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func seedPostgresProduct(t *testing.T, db *sql.DB, name string, price string, stock int) int64 {
	t.Helper()
	products := NewPostgresProductRepository(db)
	p, err := products.Create(context.Background(), &models.CreateProductRequest{
		Name:  name,
		SKU:   name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	})
	if err != nil {
		t.Fatalf("Failed to seed product: %v", err)
	}
	return p.ID
}

func TestPostgresCreateOrderRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	orders := NewPostgresOrderRepository(db)
	products := NewPostgresProductRepository(db)

	productID := seedPostgresProduct(t, db, "Widget", "5.00", 10)

	order, err := orders.CreateOrder(ctx, 42, []models.CreateOrderItem{
		{ProductID: productID, Quantity: 3},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	if !order.Total.Equal(decimal.RequireFromString("15.00")) {
		t.Errorf("Expected total 15.00, got %s", order.Total)
	}

	p, err := products.GetByID(ctx, productID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if p.Stock != 7 {
		t.Errorf("Expected stock 7, got %d", p.Stock)
	}

	fetched, err := orders.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(fetched.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(fetched.Items))
	}
	if !fetched.Items[0].PriceAtPurchase.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("Expected snapshotted price 5.00, got %s", fetched.Items[0].PriceAtPurchase)
	}
}

func TestPostgresCreateOrderRollsBackOnShortfall(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	orders := NewPostgresOrderRepository(db)
	products := NewPostgresProductRepository(db)

	okID := seedPostgresProduct(t, db, "Plenty", "2.00", 10)
	shortID := seedPostgresProduct(t, db, "Scarce", "2.00", 1)

	_, err := orders.CreateOrder(ctx, 42, []models.CreateOrderItem{
		{ProductID: okID, Quantity: 2},
		{ProductID: shortID, Quantity: 5},
	})

	var stockErr *apperrors.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}

	p, err := products.GetByID(ctx, okID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if p.Stock != 10 {
		t.Errorf("Expected rollback to restore stock 10, got %d", p.Stock)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no persisted orders, got %d", count)
	}
}

func TestPostgresCreateOrderNoOversellUnderConcurrency(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	orders := NewPostgresOrderRepository(db)
	products := NewPostgresProductRepository(db)

	productID := seedPostgresProduct(t, db, "Hot", "9.99", 5)

	const attempts = 15
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orders.CreateOrder(ctx, 7, []models.CreateOrderItem{
				{ProductID: productID, Quantity: 1},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
			continue
		}
		var stockErr *apperrors.InsufficientStockError
		if !errors.As(err, &stockErr) {
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if successes != 5 {
		t.Errorf("Expected exactly 5 successful orders, got %d", successes)
	}

	p, err := products.GetByID(ctx, productID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if p.Stock != 0 {
		t.Errorf("Expected stock 0 after sellout, got %d", p.Stock)
	}
}

func TestPostgresClaimNotificationIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	orders := NewPostgresOrderRepository(db)

	productID := seedPostgresProduct(t, db, "Widget", "5.00", 10)
	order, err := orders.CreateOrder(ctx, 42, []models.CreateOrderItem{
		{ProductID: productID, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	claimed, err := orders.ClaimNotification(ctx, order.ID, models.OrderStatusShipped)
	if err != nil {
		t.Fatalf("ClaimNotification failed: %v", err)
	}
	if !claimed {
		t.Error("Expected first claim to succeed")
	}

	claimed, err = orders.ClaimNotification(ctx, order.ID, models.OrderStatusShipped)
	if err != nil {
		t.Fatalf("ClaimNotification failed: %v", err)
	}
	if claimed {
		t.Error("Expected duplicate claim to be rejected")
	}
}
