package kafka

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records broker publishes per topic and event type.
type Metrics struct {
	published    metric.Int64Counter
	writeLatency metric.Float64Histogram
	payloadBytes metric.Int64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	published, err := meter.Int64Counter(
		"cafe_events_published_total",
		metric.WithDescription("Events written to the broker, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cafe_events_published_total counter: %w", err)
	}

	writeLatency, err := meter.Float64Histogram(
		"cafe_events_publish_seconds",
		metric.WithDescription("Time spent writing one event to the broker"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cafe_events_publish_seconds histogram: %w", err)
	}

	payloadBytes, err := meter.Int64Histogram(
		"cafe_events_payload_bytes",
		metric.WithDescription("Size of published event payloads"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(64, 256, 1024, 4096, 16384),
	)
	if err != nil {
		return nil, fmt.Errorf("create cafe_events_payload_bytes histogram: %w", err)
	}

	return &Metrics{published: published, writeLatency: writeLatency, payloadBytes: payloadBytes}, nil
}

// RecordPublish is safe on a nil receiver.
func (m *Metrics) RecordPublish(ctx context.Context, topic, eventType string, size int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	attrs := metric.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("event_type", eventType),
		attribute.String("outcome", outcome),
	)
	m.published.Add(ctx, 1, attrs)
	m.writeLatency.Record(ctx, elapsed.Seconds(), attrs)
	if err == nil {
		m.payloadBytes.Record(ctx, int64(size), metric.WithAttributes(attribute.String("event_type", eventType)))
	}
}
