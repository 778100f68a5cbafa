package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/cache"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/service"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{Port: 0},
		Cache: config.CacheConfig{
			ProductListTTL: 300 * time.Second,
			OrderDetailTTL: 60 * time.Second,
		},
		Orders: config.OrdersConfig{MinOrderAmount: decimal.NewFromInt(1)},
	}

	products := repository.NewMemoryProductRepository()
	orders := repository.NewMemoryOrderRepository(products)
	store := cache.NewMemoryStore()
	versions := cache.NewVersionRegistry(store)
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())

	orderService := service.NewOrderService(orders, products, store, versions, events.NewMockPublisher(), m, cfg)
	productService := service.NewProductService(products, store, versions, m, cfg)

	return New(handlers.New(orderService, productService), cfg)
}

func TestIdentityMiddlewareRejectsMissingHeader(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["code"] != "unauthorized" {
		t.Errorf("Expected code unauthorized, got %v", resp["code"])
	}
}

func TestIdentityMiddlewareRejectsBadHeader(t *testing.T) {
	s := testServer(t)

	for _, raw := range []string{"abc", "0", "-5"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set("X-User-ID", raw)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected status 401 for X-User-ID=%q, got %d", raw, w.Code)
		}
	}
}

func TestIdentityMiddlewareAcceptsValidHeader(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("X-User-ID", "42")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHealthSkipsIdentity(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected health to bypass identity, got %d", w.Code)
	}
}

func TestRequestIDEchoedBack(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("Expected X-Request-ID req-123 echoed back, got %q", got)
	}
}

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got == "" {
		t.Error("Expected a generated X-Request-ID header")
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 from /metrics, got %d", w.Code)
	}
}
