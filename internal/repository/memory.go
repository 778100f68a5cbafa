package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/models"
)

// MemoryProductRepository is an in-process ProductRepository used in tests
// and local development.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[int64]*models.Product
	nextID   int64
}

// NewMemoryProductRepository creates an empty in-memory catalog.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[int64]*models.Product),
		nextID:   1,
	}
}

// Seed inserts a product directly, assigning an id if missing.
func (r *MemoryProductRepository) Seed(p *models.Product) *models.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.nextID
	}
	if p.ID >= r.nextID {
		r.nextID = p.ID + 1
	}
	cp := *p
	r.products[cp.ID] = &cp
	return p
}

func (r *MemoryProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryProductRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found := make(map[int64]*models.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			cp := *p
			found[id] = &cp
		}
	}
	return found, nil
}

func (r *MemoryProductRepository) List(ctx context.Context, filter *models.ProductListFilter) ([]*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Product, 0)
	for _, p := range r.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.PriceMin != nil && p.Price.LessThan(*filter.PriceMin) {
			continue
		}
		if filter.PriceMax != nil && p.Price.GreaterThan(*filter.PriceMax) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}

	switch filter.OrderBy {
	case "price":
		sort.Slice(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case "-price":
		sort.Slice(out, func(i, j int) bool { return out[j].Price.LessThan(out[i].Price) })
	case "name":
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	case "-name":
		sort.Slice(out, func(i, j int) bool { return out[j].Name < out[i].Name })
	default:
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}

	return out, nil
}

func (r *MemoryProductRepository) Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	p := &models.Product{
		ID:          r.nextID,
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
	r.nextID++
	r.products[p.ID] = p

	cp := *p
	return &cp, nil
}

func (r *MemoryProductRepository) Update(ctx context.Context, id int64, req *models.UpdateProductRequest) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	p.UpdatedAt = time.Now()

	cp := *p
	return &cp, nil
}

func (r *MemoryProductRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

// MemoryOrderRepository is an in-process OrderRepository. Order creation
// takes the product repository's write lock for the whole attempt, which
// serializes stock decrements the way row locks do in Postgres.
type MemoryOrderRepository struct {
	mu       sync.Mutex
	products *MemoryProductRepository
	orders   map[int64]*models.Order
	nextID   int64
	nextItem int64
}

// NewMemoryOrderRepository creates an empty in-memory order store over the
// given catalog.
func NewMemoryOrderRepository(products *MemoryProductRepository) *MemoryOrderRepository {
	return &MemoryOrderRepository{
		products: products,
		orders:   make(map[int64]*models.Order),
		nextID:   1,
		nextItem: 1,
	}
}

func (r *MemoryOrderRepository) CreateOrder(ctx context.Context, userID int64, items []models.CreateOrderItem) (*models.Order, error) {
	sorted := make([]models.CreateOrderItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	r.mu.Lock()
	defer r.mu.Unlock()
	r.products.mu.Lock()
	defer r.products.mu.Unlock()

	// First pass checks everything under the lock; nothing is mutated until
	// the whole attempt is known to succeed.
	for _, it := range sorted {
		p, ok := r.products.products[it.ProductID]
		if !ok {
			return nil, &apperrors.ProductNotFoundError{ProductID: it.ProductID}
		}
		if p.Stock < it.Quantity {
			return nil, &apperrors.InsufficientStockError{
				ProductID:   it.ProductID,
				ProductName: p.Name,
				Available:   p.Stock,
				Requested:   it.Quantity,
			}
		}
	}

	now := time.Now()
	order := &models.Order{
		ID:        r.nextID,
		UserID:    userID,
		Status:    models.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.nextID++

	total := decimal.Zero
	for _, it := range sorted {
		p := r.products.products[it.ProductID]
		p.Stock -= it.Quantity
		p.UpdatedAt = now

		item := models.OrderItem{
			ID:              r.nextItem,
			OrderID:         order.ID,
			ProductID:       p.ID,
			ProductName:     p.Name,
			Quantity:        it.Quantity,
			PriceAtPurchase: p.Price,
		}
		r.nextItem++
		order.Items = append(order.Items, item)
		total = total.Add(item.LineTotal())
	}
	order.Total = total
	r.orders[order.ID] = order

	cp := copyOrder(order)
	return cp, nil
}

func (r *MemoryOrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return copyOrder(order), nil
}

func (r *MemoryOrderRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.Order, 0)
	for _, order := range r.orders {
		if order.UserID == userID {
			out = append(out, copyOrder(order))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryOrderRepository) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	return copyOrder(order), nil
}

func (r *MemoryOrderRepository) RecalculateTotal(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return decimal.Zero, apperrors.ErrNotFound
	}
	computed := order.ItemsTotal()
	if !computed.Equal(order.Total) {
		order.Total = computed
		order.UpdatedAt = time.Now()
	}
	return computed, nil
}

func (r *MemoryOrderRepository) ClaimNotification(ctx context.Context, orderID int64, status models.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	if order.LastNotifiedStatus == status {
		return false, nil
	}
	order.LastNotifiedStatus = status
	return true, nil
}

func copyOrder(order *models.Order) *models.Order {
	cp := *order
	cp.Items = append([]models.OrderItem(nil), order.Items...)
	return &cp
}
