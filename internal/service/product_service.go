package service

import (
	"context"
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/cache"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/repository"
)

// ProductService owns the catalog surface and its versioned list cache.
type ProductService struct {
	products repository.ProductRepository
	store    cache.Store
	versions *cache.VersionRegistry
	metrics  *metrics.Metrics
	config   *config.Config
	logger   *log.Entry
}

// NewProductService creates a new product service.
func NewProductService(
	products repository.ProductRepository,
	store cache.Store,
	versions *cache.VersionRegistry,
	m *metrics.Metrics,
	cfg *config.Config,
) *ProductService {
	return &ProductService{
		products: products,
		store:    store,
		versions: versions,
		metrics:  m,
		config:   cfg,
		logger:   log.WithField("component", "product-service"),
	}
}

// ListProducts serves the filtered catalog list through the versioned cache.
// The cache key embeds both the current list version and the serialized
// filter, so every filter combination is cached independently and a single
// version bump invalidates them all.
func (s *ProductService) ListProducts(ctx context.Context, filter *models.ProductListFilter) ([]*models.Product, error) {
	version, err := s.versions.GetVersion(ctx, cache.DomainProductList)
	if err != nil {
		s.logger.WithField("error", err.Error()).Warn("Version lookup failed, bypassing cache")
		return s.products.List(ctx, filter)
	}

	key := cache.ProductListKey(version, filter.CacheDiscriminator())
	if data, err := s.store.Get(ctx, key); err == nil && data != nil {
		var products []*models.Product
		if err := json.Unmarshal(data, &products); err == nil {
			s.metrics.CacheHits.WithLabelValues(string(cache.DomainProductList)).Inc()
			return products, nil
		}
	}
	s.metrics.CacheMisses.WithLabelValues(string(cache.DomainProductList)).Inc()

	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(products); err == nil {
		if err := s.store.Set(ctx, key, data, s.config.Cache.ProductListTTL); err != nil {
			s.logger.WithField("error", err.Error()).Warn("Failed to cache product list")
		}
	}

	return products, nil
}

// GetProduct retrieves a single product, uncached.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return s.products.GetByID(ctx, id)
}

// CreateProduct adds a catalog entry and invalidates the list cache.
func (s *ProductService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	if err := ValidateCreateProductRequest(req); err != nil {
		return nil, err
	}

	product, err := s.products.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	s.bump(ctx)
	return product, nil
}

// UpdateProduct updates a catalog entry and invalidates the list cache.
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, req *models.UpdateProductRequest) (*models.Product, error) {
	if err := ValidateUpdateProductRequest(req); err != nil {
		return nil, err
	}

	product, err := s.products.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.bump(ctx)
	return product, nil
}

// DeleteProduct removes a catalog entry and invalidates the list cache.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	s.bump(ctx)
	return nil
}

func (s *ProductService) bump(ctx context.Context) {
	if err := s.versions.Bump(ctx, cache.DomainProductList); err != nil {
		s.logger.WithField("error", err.Error()).Error("Failed to bump product list version")
	}
}
