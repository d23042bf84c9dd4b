package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/polkiloo/warehouse/internal/config"
	"github.com/polkiloo/warehouse/internal/domain/model"
)

// Event types carried in the envelope and the event-type header.
const (
	EventPackingSlip          = "packing_slip.requested"
	EventFulfillmentSync      = "fulfillment_sync.requested"
	EventShipmentNotification = "shipment_notification.requested"
)

const eventTypeHeader = "event-type"

// Queue hands jobs off to downstream workers.
type Queue interface {
	EnqueuePackingSlip(ctx context.Context, job model.PackingSlipJob) error
	EnqueueFulfillmentSync(ctx context.Context, job model.FulfillmentSyncJob) error
	EnqueueShipmentNotification(ctx context.Context, job model.ShipmentNotificationJob) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Envelope wraps every job written to Kafka.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// KafkaQueue implements Queue on a single kafka writer.
type KafkaQueue struct {
	writer messageWriter
	topics config.Topics
	logger *slog.Logger
	now    func() time.Time
}

// NewKafkaQueue creates a writer for the given brokers. Topics are set per message.
func NewKafkaQueue(brokers []string, topics config.Topics, logger *slog.Logger) (*KafkaQueue, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	return newKafkaQueue(writer, topics, logger), nil
}

func newKafkaQueue(writer messageWriter, topics config.Topics, logger *slog.Logger) *KafkaQueue {
	return &KafkaQueue{writer: writer, topics: topics, logger: logger, now: time.Now}
}

// EnqueuePackingSlip requests packing slip rendering for created packages.
func (q *KafkaQueue) EnqueuePackingSlip(ctx context.Context, job model.PackingSlipJob) error {
	return q.publish(ctx, q.topics.PackingSlips, EventPackingSlip, job.OrderID, job)
}

// EnqueueFulfillmentSync pushes tracking data for the e-commerce platform.
func (q *KafkaQueue) EnqueueFulfillmentSync(ctx context.Context, job model.FulfillmentSyncJob) error {
	return q.publish(ctx, q.topics.Fulfillment, EventFulfillmentSync, job.OrderID, job)
}

// EnqueueShipmentNotification asks the notifier to contact the customer.
func (q *KafkaQueue) EnqueueShipmentNotification(ctx context.Context, job model.ShipmentNotificationJob) error {
	return q.publish(ctx, q.topics.Notifications, EventShipmentNotification, job.OrderID, job)
}

// Close flushes and closes the writer.
func (q *KafkaQueue) Close() error {
	return q.writer.Close()
}

func (q *KafkaQueue) publish(ctx context.Context, topic, eventType string, orderID int64, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}
	value, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: q.now().UTC(),
		Payload:    body,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	msg := kafka.Message{
		Topic:   topic,
		Key:     []byte(strconv.FormatInt(orderID, 10)),
		Value:   value,
		Headers: []kafka.Header{{Key: eventTypeHeader, Value: []byte(eventType)}},
	}
	if err := q.writer.WriteMessages(ctx, msg); err != nil {
		q.logger.Error("failed to publish job",
			slog.String("topic", topic),
			slog.String("type", eventType),
			slog.Int64("order_id", orderID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	q.logger.Debug("job published",
		slog.String("topic", topic),
		slog.String("type", eventType),
		slog.Int64("order_id", orderID),
	)
	return nil
}
