package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/models"
)

// PostgresProductRepository implements ProductRepository using PostgreSQL.
type PostgresProductRepository struct {
	db     *sql.DB
	logger *log.Entry
}

// NewPostgresProductRepository creates a new PostgreSQL product repository.
func NewPostgresProductRepository(db *sql.DB) *PostgresProductRepository {
	return &PostgresProductRepository{
		db:     db,
		logger: log.WithField("component", "product-repository"),
	}
}

const productColumns = `id, name, sku, description, category, price, stock, is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Description, &p.Category,
		&p.Price, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID retrieves a single product.
func (r *PostgresProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	return p, err
}

// GetByIDs retrieves the products that exist among ids.
func (r *PostgresProductRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[int64]*models.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		found[p.ID] = p
	}
	return found, rows.Err()
}

// List retrieves products matching the filter, newest first unless an
// explicit ordering is requested.
func (r *PostgresProductRepository) List(ctx context.Context, filter *models.ProductListFilter) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := make([]interface{}, 0, 3)

	if filter.Category != "" {
		args = append(args, filter.Category)
		query += ` AND category = $` + strconv.Itoa(len(args))
	}
	if filter.PriceMin != nil {
		args = append(args, *filter.PriceMin)
		query += ` AND price >= $` + strconv.Itoa(len(args))
	}
	if filter.PriceMax != nil {
		args = append(args, *filter.PriceMax)
		query += ` AND price <= $` + strconv.Itoa(len(args))
	}

	switch filter.OrderBy {
	case "price":
		query += ` ORDER BY price ASC`
	case "-price":
		query += ` ORDER BY price DESC`
	case "name":
		query += ` ORDER BY name ASC`
	case "-name":
		query += ` ORDER BY name DESC`
	default:
		query += ` ORDER BY created_at DESC`
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Create inserts a new catalog product.
func (r *PostgresProductRepository) Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	now := time.Now()
	p := &models.Product{
		Name:        req.Name,
		SKU:         req.SKU,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (name, sku, description, category, price, stock, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		p.Name, p.SKU, p.Description, p.Category, p.Price, p.Stock, p.IsActive, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		r.logger.WithFields(log.Fields{"sku": req.SKU, "error": err.Error()}).Error("Failed to create product")
		return nil, err
	}

	r.logger.WithFields(log.Fields{"product_id": p.ID, "sku": p.SKU}).Info("Product created")
	return p, nil
}

// Update applies the provided fields to an existing product.
func (r *PostgresProductRepository) Update(ctx context.Context, id int64, req *models.UpdateProductRequest) (*models.Product, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Description != nil {
		current.Description = *req.Description
	}
	if req.Category != nil {
		current.Category = *req.Category
	}
	if req.Price != nil {
		current.Price = *req.Price
	}
	if req.Stock != nil {
		current.Stock = *req.Stock
	}
	if req.IsActive != nil {
		current.IsActive = *req.IsActive
	}
	current.UpdatedAt = time.Now()

	_, err = r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, category = $4, price = $5,
		    stock = $6, is_active = $7, updated_at = $8
		WHERE id = $1`,
		id, current.Name, current.Description, current.Category,
		current.Price, current.Stock, current.IsActive, current.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return current, nil
}

// Delete removes a product from the catalog.
func (r *PostgresProductRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return apperrors.ErrNotFound
	}

	r.logger.WithField("product_id", id).Info("Product deleted")
	return nil
}
