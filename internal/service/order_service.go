package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/cache"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/repository"
)

// OrderService owns the order creation path and order reads/transitions.
type OrderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	store     cache.Store
	versions  *cache.VersionRegistry
	publisher events.Publisher
	metrics   *metrics.Metrics
	config    *config.Config
	logger    *log.Entry
}

// NewOrderService creates a new order service.
func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	store cache.Store,
	versions *cache.VersionRegistry,
	publisher events.Publisher,
	m *metrics.Metrics,
	cfg *config.Config,
) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		store:     store,
		versions:  versions,
		publisher: publisher,
		metrics:   m,
		config:    cfg,
		logger:    log.WithField("component", "order-service"),
	}
}

// CreateOrder validates the request, runs the atomic stock-reservation
// transaction, and fires post-commit side effects in a fixed order: bump
// cache versions, then publish the created event. Side-effect failures are
// logged, never surfaced — the committed order stands.
func (s *OrderService) CreateOrder(ctx context.Context, userID int64, req *models.CreateOrderRequest) (*models.Order, error) {
	start := time.Now()

	order, err := s.createOrder(ctx, userID, req)
	if err != nil {
		s.metrics.OrderCreationFailed.WithLabelValues(apperrors.Code(err)).Inc()
		var stockErr *apperrors.InsufficientStockError
		if errors.As(err, &stockErr) {
			s.metrics.StockConflicts.Inc()
		}
		return nil, err
	}

	s.metrics.OrdersCreated.Inc()
	s.metrics.OrderCreateDuration.Observe(time.Since(start).Seconds())
	return order, nil
}

func (s *OrderService) createOrder(ctx context.Context, userID int64, req *models.CreateOrderRequest) (*models.Order, error) {
	if err := ValidateCreateOrderRequest(req); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		if _, ok := products[item.ProductID]; !ok {
			return nil, &apperrors.ProductNotFoundError{ProductID: item.ProductID}
		}
	}

	// Minimum-amount check uses the live catalog price read here, before any
	// lock. The price persisted on line items is re-read under the lock.
	amount := liveOrderAmount(req.Items, products)
	if amount.LessThan(s.config.Orders.MinOrderAmount) {
		return nil, &apperrors.BelowMinimumAmountError{
			Minimum:  s.config.Orders.MinOrderAmount,
			Computed: amount,
		}
	}

	order, err := s.orders.CreateOrder(ctx, userID, req.Items)
	if err != nil {
		return nil, err
	}

	// Post-commit, in order: invalidate caches for both affected domains
	// (stock changed on products, a new order exists), then announce.
	s.bump(ctx, cache.DomainProductList)
	s.bump(ctx, cache.DomainOrderDetail)

	if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
		s.logger.WithFields(log.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		}).Error("Failed to publish order created event")
	} else {
		s.metrics.EventsPublished.WithLabelValues(string(events.EventTypeOrderCreated)).Inc()
	}

	return order, nil
}

// GetOrderForUser returns an order visible to the given user, through the
// versioned detail cache.
func (s *OrderService) GetOrderForUser(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	version, err := s.versions.GetVersion(ctx, cache.DomainOrderDetail)
	if err != nil {
		s.logger.WithField("error", err.Error()).Warn("Version lookup failed, bypassing cache")
		return s.getOrderUncached(ctx, orderID, userID)
	}

	key := cache.OrderDetailKey(version, orderID)
	if data, err := s.store.Get(ctx, key); err == nil && data != nil {
		var order models.Order
		if err := json.Unmarshal(data, &order); err == nil {
			s.metrics.CacheHits.WithLabelValues(string(cache.DomainOrderDetail)).Inc()
			if order.UserID != userID {
				return nil, apperrors.ErrNotFound
			}
			return &order, nil
		}
	}
	s.metrics.CacheMisses.WithLabelValues(string(cache.DomainOrderDetail)).Inc()

	order, err := s.getOrderUncached(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(order); err == nil {
		if err := s.store.Set(ctx, key, data, s.config.Cache.OrderDetailTTL); err != nil {
			s.logger.WithField("error", err.Error()).Warn("Failed to cache order detail")
		}
	}

	return order, nil
}

func (s *OrderService) getOrderUncached(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// Ownership scoping: a foreign order is indistinguishable from a missing
	// one.
	if order.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	return order, nil
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// UpdateOrderStatus applies a validated status transition and fires the
// invalidation/notification chain: persist, delete the stale versioned key,
// bump the detail version, publish the status change, and on the shipped
// transition enqueue the shipment notification. Notification failures never
// roll back the update.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, newStatus models.OrderStatus) (*models.Order, error) {
	if !newStatus.IsValid() {
		return nil, apperrors.NewValidationError("status", "invalid order status")
	}

	current, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !models.ValidStatusTransition(current.Status, newStatus) {
		return nil, &apperrors.InvalidTransitionError{
			From: string(current.Status),
			To:   string(newStatus),
		}
	}

	// Capture the version before the write so the exact stale key can be
	// deleted afterwards. The bump below is what guarantees correctness;
	// the delete only shortens the stale window for this one entity.
	staleVersion, versionKnown := int64(0), false
	if v, err := s.versions.GetVersion(ctx, cache.DomainOrderDetail); err == nil {
		staleVersion, versionKnown = v, true
	}

	order, err := s.orders.UpdateStatus(ctx, orderID, newStatus)
	if err != nil {
		return nil, err
	}

	if versionKnown {
		if err := s.store.Delete(ctx, cache.OrderDetailKey(staleVersion, orderID)); err != nil {
			s.logger.WithField("error", err.Error()).Warn("Failed to delete stale detail key")
		}
	}
	s.bump(ctx, cache.DomainOrderDetail)

	if err := s.publisher.PublishOrderStatusChanged(ctx, order, current.Status); err != nil {
		s.logger.WithFields(log.Fields{
			"order_id": orderID,
			"error":    err.Error(),
		}).Error("Failed to publish status change event")
	} else {
		s.metrics.EventsPublished.WithLabelValues(string(events.EventTypeOrderStatusChanged)).Inc()
	}

	if newStatus == models.OrderStatusShipped {
		if err := s.publisher.PublishOrderShipped(ctx, order); err != nil {
			s.logger.WithFields(log.Fields{
				"order_id": orderID,
				"error":    err.Error(),
			}).Error("Failed to enqueue shipment notification")
		} else {
			s.metrics.EventsPublished.WithLabelValues(string(events.EventTypeOrderShipped)).Inc()
		}
	}

	s.logger.WithFields(log.Fields{
		"order_id": orderID,
		"from":     current.Status,
		"to":       newStatus,
	}).Info("Order status updated")

	return order, nil
}

// RecalculateTotal resyncs the denormalized order total with the current
// item set and invalidates the detail cache if anything changed.
func (s *OrderService) RecalculateTotal(ctx context.Context, orderID int64) error {
	before, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	total, err := s.orders.RecalculateTotal(ctx, orderID)
	if err != nil {
		return err
	}

	if !total.Equal(before.Total) {
		s.bump(ctx, cache.DomainOrderDetail)
	}
	return nil
}

func (s *OrderService) bump(ctx context.Context, domain cache.Domain) {
	if err := s.versions.Bump(ctx, domain); err != nil {
		s.logger.WithFields(log.Fields{
			"domain": domain,
			"error":  err.Error(),
		}).Error("Failed to bump cache version")
	}
}
