package outbox

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	dispatched metric.Int64Counter
	latency    metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.dispatched, err = meter.Int64Counter(
		"outbox_events_dispatched_total",
		metric.WithDescription("Outbox events handed to a sink"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create outbox_events_dispatched counter: %w", err)
	}

	m.latency, err = meter.Float64Histogram(
		"outbox_dispatch_duration_seconds",
		metric.WithDescription("Time spent in a sink handler"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create outbox_dispatch_duration histogram: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordDispatch(ctx context.Context, sink, eventType string, durationSeconds float64, success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("sink", sink),
		attribute.String("event_type", eventType),
		attribute.String("result", result),
	)
	m.dispatched.Add(ctx, 1, attrs)
	m.latency.Record(ctx, durationSeconds, attrs)
}
