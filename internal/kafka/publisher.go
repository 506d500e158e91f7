// Package kafka publishes outbox events to a Kafka topic for downstream consumers.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/cafe/internal/outbox"
	"github.com/dejobratic/cafe/internal/telemetry"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher is the outbox handler for the broker sink.
type Publisher struct {
	writer  messageWriter
	topic   string
	metrics *Metrics
}

func NewPublisher(brokers []string, topic string, metrics *Metrics) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(w, topic, metrics)
}

func newPublisher(w messageWriter, topic string, metrics *Metrics) *Publisher {
	return &Publisher{writer: w, topic: topic, metrics: metrics}
}

// Handle writes the event keyed by its aggregate id so events for one order stay ordered.
func (p *Publisher) Handle(ctx context.Context, event outbox.Event) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "Kafka.Publish",
		attribute.String("messaging.destination", p.topic),
		attribute.String("event.type", event.Type),
		attribute.String("event.aggregate_id", event.AggregateID),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID.String())},
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	start := time.Now()
	err = p.writer.WriteMessages(ctx, msg)
	p.metrics.RecordPublish(ctx, p.topic, event.Type, len(msg.Value), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Type, p.topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher logs events instead of sending them. Used when no brokers are configured.
type NoopPublisher struct {
	logger *slog.Logger
}

func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

func (n *NoopPublisher) Handle(ctx context.Context, event outbox.Event) error {
	n.logger.DebugContext(ctx, "event::"+event.Type,
		slog.String("event_id", event.ID.String()),
		slog.String("aggregate_id", event.AggregateID),
	)
	return nil
}

func (n *NoopPublisher) Close() error {
	return nil
}
