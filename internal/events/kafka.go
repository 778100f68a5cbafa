package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/models"
)

type correlationIDKey struct{}

// WithCorrelationID attaches a request correlation id to the context;
// publishers copy it into outgoing events.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

func correlationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// KafkaPublisher publishes order events to Kafka.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *log.Entry
}

// NewKafkaPublisher creates a new Kafka-based event publisher.
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.OrdersTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaPublisher{
		writer: writer,
		logger: log.WithField("component", "event-publisher"),
	}
}

// PublishOrderCreated publishes an order created event.
func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, p.newEvent(ctx, EventTypeOrderCreated, order, ""))
}

// PublishOrderStatusChanged publishes an order status change event.
func (p *KafkaPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error {
	return p.publish(ctx, p.newEvent(ctx, EventTypeOrderStatusChanged, order, previous))
}

// PublishOrderShipped publishes the shipment notification event.
func (p *KafkaPublisher) PublishOrderShipped(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, p.newEvent(ctx, EventTypeOrderShipped, order, ""))
}

func (p *KafkaPublisher) newEvent(ctx context.Context, eventType EventType, order *models.Order, previous models.OrderStatus) *OrderEvent {
	return &OrderEvent{
		ID:             uuid.NewString(),
		Type:           eventType,
		OrderID:        order.ID,
		UserID:         order.UserID,
		Status:         string(order.Status),
		PreviousStatus: string(previous),
		Total:          order.Total,
		Items:          eventItems(order),
		Timestamp:      time.Now(),
		CorrelationID:  correlationID(ctx),
	}
}

func (p *KafkaPublisher) publish(ctx context.Context, event *OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithFields(log.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"order_id":   event.OrderID,
			"error":      err.Error(),
		}).Error("Failed to publish event")
		return err
	}

	p.logger.WithFields(log.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"order_id":   event.OrderID,
	}).Info("Event published")

	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Handler processes consumed order events.
type Handler interface {
	HandleEvent(ctx context.Context, event *OrderEvent) error
}

// KafkaConsumer consumes order events and dispatches them to a handler.
type KafkaConsumer struct {
	reader  *kafka.Reader
	handler Handler
	logger  *log.Entry
	stopCh  chan struct{}
}

// NewKafkaConsumer creates a new Kafka-based event consumer.
func NewKafkaConsumer(cfg config.KafkaConfig, handler Handler) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.OrdersTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return &KafkaConsumer{
		reader:  reader,
		handler: handler,
		logger:  log.WithField("component", "event-consumer"),
		stopCh:  make(chan struct{}),
	}
}

// Start consumes messages until the context is cancelled or Stop is called.
// Handler errors are logged; delivery is at-least-once and handlers are
// expected to be idempotent.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting event consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("Event consumer stopped")
			return nil
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.WithField("error", err.Error()).Error("Failed to read message")
				continue
			}

			var event OrderEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				c.logger.WithField("error", err.Error()).Error("Failed to unmarshal event")
				continue
			}

			if err := c.handler.HandleEvent(ctx, &event); err != nil {
				c.logger.WithFields(log.Fields{
					"event_id":   event.ID,
					"event_type": event.Type,
					"order_id":   event.OrderID,
					"error":      err.Error(),
				}).Error("Event handler failed")
			}
		}
	}
}

// Stop stops the consumer.
func (c *KafkaConsumer) Stop() {
	close(c.stopCh)
	c.reader.Close()
}
