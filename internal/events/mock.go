package events

import (
	"context"
	"sync"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/models"
)

// MockPublisher records published events for assertions in tests.
type MockPublisher struct {
	mu     sync.Mutex
	Events []*OrderEvent
	Err    error
}

// NewMockPublisher creates an empty mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Events: make([]*OrderEvent, 0)}
}

func (m *MockPublisher) record(eventType EventType, order *models.Order, previous models.OrderStatus) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, &OrderEvent{
		Type:           eventType,
		OrderID:        order.ID,
		UserID:         order.UserID,
		Status:         string(order.Status),
		PreviousStatus: string(previous),
		Total:          order.Total,
		Items:          eventItems(order),
	})
	return nil
}

func (m *MockPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return m.record(EventTypeOrderCreated, order, "")
}

func (m *MockPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error {
	return m.record(EventTypeOrderStatusChanged, order, previous)
}

func (m *MockPublisher) PublishOrderShipped(ctx context.Context, order *models.Order) error {
	return m.record(EventTypeOrderShipped, order, "")
}

func (m *MockPublisher) Close() error { return nil }

// ByType returns the recorded events of the given type.
func (m *MockPublisher) ByType(eventType EventType) []*OrderEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*OrderEvent, 0)
	for _, e := range m.Events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
