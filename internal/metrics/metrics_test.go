package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistererRegistersAll(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegisterer(registry)

	m.OrdersCreated.Inc()
	m.OrderCreationFailed.WithLabelValues("insufficient_stock").Inc()
	m.StockConflicts.Inc()
	m.OrderCreateDuration.Observe(0.05)
	m.CacheHits.WithLabelValues("products_list").Inc()
	m.CacheMisses.WithLabelValues("order_detail").Inc()
	m.EventsPublished.WithLabelValues("order.created").Inc()
	m.WebhookAttempts.Inc()
	m.WebhookFailures.Inc()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) != 9 {
		t.Errorf("Expected 9 metric families, got %d", len(families))
	}

	if got := testutil.ToFloat64(m.OrdersCreated); got != 1 {
		t.Errorf("Expected orders created 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.OrderCreationFailed.WithLabelValues("insufficient_stock")); got != 1 {
		t.Errorf("Expected 1 failed creation, got %v", got)
	}
}

func TestSeparateRegistriesAreIndependent(t *testing.T) {
	a := NewWithRegisterer(prometheus.NewRegistry())
	b := NewWithRegisterer(prometheus.NewRegistry())

	a.OrdersCreated.Inc()

	if got := testutil.ToFloat64(b.OrdersCreated); got != 0 {
		t.Errorf("Expected independent registries, got %v", got)
	}
}
