package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	OrdersCreated       prometheus.Counter
	OrderCreationFailed *prometheus.CounterVec
	StockConflicts      prometheus.Counter
	OrderCreateDuration prometheus.Histogram

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	EventsPublished *prometheus.CounterVec
	WebhookAttempts prometheus.Counter
	WebhookFailures prometheus.Counter
}

// New registers the service metrics with the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the service metrics with a custom registerer,
// used by tests to avoid duplicate registration.
func NewWithRegisterer(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commerce_orders_created_total",
			Help: "Total number of orders created successfully",
		}),
		OrderCreationFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commerce_order_creation_failed_total",
			Help: "Total number of failed order creation attempts by error code",
		}, []string{"code"}),
		StockConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commerce_stock_conflicts_total",
			Help: "Total number of order attempts aborted for insufficient stock",
		}),
		OrderCreateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "commerce_order_create_duration_seconds",
			Help:    "Order creation latency including the reservation transaction",
			Buckets: prometheus.DefBuckets,
		}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commerce_cache_hits_total",
			Help: "Cache hits by domain",
		}, []string{"domain"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commerce_cache_misses_total",
			Help: "Cache misses by domain",
		}, []string{"domain"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commerce_events_published_total",
			Help: "Order events published by type",
		}, []string{"type"}),
		WebhookAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commerce_webhook_attempts_total",
			Help: "Shipment webhook delivery attempts including retries",
		}),
		WebhookFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commerce_webhook_failures_total",
			Help: "Shipment webhook deliveries that exhausted all retries",
		}),
	}

	registerer.MustRegister(
		m.OrdersCreated,
		m.OrderCreationFailed,
		m.StockConflicts,
		m.OrderCreateDuration,
		m.CacheHits,
		m.CacheMisses,
		m.EventsPublished,
		m.WebhookAttempts,
		m.WebhookFailures,
	)

	return m
}
