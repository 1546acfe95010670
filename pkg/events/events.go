// Package events publishes shipment lifecycle notifications to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	skafka "github.com/segmentio/kafka-go"
)

// Event types
const (
	ShipmentCreated = "shipment.created"
	ShipmentUpdated = "shipment.updated"
	ShipmentDeleted = "shipment.deleted"
)

// ShipmentEvent message body. TotalPrice is a decimal string.
type ShipmentEvent struct {
	Type       string    `json:"type"`
	ShipmentID string    `json:"shipment_id"`
	Status     string    `json:"status,omitempty"`
	TotalPrice string    `json:"total_price,omitempty"`
	CustomerID string    `json:"c_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher is what services depend on
type Publisher interface {
	Publish(ctx context.Context, event ShipmentEvent) error
	Close() error
}

// Writer subset of *kafka.Writer, so tests can record messages
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// KafkaPublisher keys messages by shipment id so one shipment's events stay
// ordered within a partition.
type KafkaPublisher struct {
	writer Writer
}

// NewKafkaPublisher connects to brokers lazily on first write
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &skafka.Writer{
		Addr:                   skafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &skafka.Hash{},
		RequiredAcks:           skafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

// NewKafkaPublisherWithWriter injects a writer
func NewKafkaPublisherWithWriter(w Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// Publish marshals the event and writes one message
func (p *KafkaPublisher) Publish(ctx context.Context, event ShipmentEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.Type, err)
	}
	msg := skafka.Message{
		Key:     []byte(event.ShipmentID),
		Value:   b,
		Headers: []skafka.Header{{Key: "event_type", Value: []byte(event.Type)}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s: %w", event.Type, err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events; used when no brokers are configured
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ShipmentEvent) error { return nil }
func (NopPublisher) Close() error                                 { return nil }
