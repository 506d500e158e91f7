package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	ordersPlacedTotal      metric.Int64Counter
	orderPlacementDuration metric.Float64Histogram
	statusChangesTotal     metric.Int64Counter
	pointsAwardedTotal     metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.ordersPlacedTotal, err = meter.Int64Counter(
		"orders_placed_total",
		metric.WithDescription("Total number of order placements"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_placed_total counter: %w", err)
	}

	m.orderPlacementDuration, err = meter.Float64Histogram(
		"order_placement_duration_seconds",
		metric.WithDescription("Duration of order placement operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_placement_duration histogram: %w", err)
	}

	m.statusChangesTotal, err = meter.Int64Counter(
		"order_status_changes_total",
		metric.WithDescription("Total number of order status transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_status_changes_total counter: %w", err)
	}

	m.pointsAwardedTotal, err = meter.Int64Counter(
		"reward_points_awarded_total",
		metric.WithDescription("Reward points credited for delivered orders"),
		metric.WithUnit("{point}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create reward_points_awarded_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordOrderPlaced(ctx context.Context, paymentMethod string, guest, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ordersPlacedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
		attribute.String("payment_method", paymentMethod),
		attribute.Bool("guest", guest),
	))
}

func (m *Metrics) RecordOrderPlacementDuration(ctx context.Context, durationSeconds float64) {
	m.orderPlacementDuration.Record(ctx, durationSeconds)
}

func (m *Metrics) RecordStatusChange(ctx context.Context, status string, pointsAwarded int) {
	m.statusChangesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	if pointsAwarded > 0 {
		m.pointsAwardedTotal.Add(ctx, int64(pointsAwarded))
	}
}
