package metrics

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return metrics, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	byName := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			byName[m.Name] = m
		}
	}
	return byName
}

func TestRecordOrderPlaced(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordOrderPlaced(ctx, "cod", false, true)
	metrics.RecordOrderPlaced(ctx, "cod", false, false)
	metrics.RecordOrderPlaced(ctx, "gateway", true, true)
	metrics.RecordOrderPlacementDuration(ctx, 0.2)
	metrics.RecordOrderPlacementDuration(ctx, 0.4)

	got := collect(t, reader)

	placed, ok := got["orders_placed_total"]
	if !ok {
		t.Fatal("orders_placed_total metric not found")
	}
	sum, ok := placed.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("Expected Sum[int64] data type")
	}
	if len(sum.DataPoints) != 3 {
		t.Errorf("Expected 3 data points, got %d", len(sum.DataPoints))
	}

	duration, ok := got["order_placement_duration_seconds"]
	if !ok {
		t.Fatal("order_placement_duration_seconds metric not found")
	}
	histogram, ok := duration.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("Expected Histogram[float64] data type")
	}
	if histogram.DataPoints[0].Count != 2 {
		t.Errorf("Expected count=2, got %d", histogram.DataPoints[0].Count)
	}
}

func TestRecordStatusChange(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordStatusChange(ctx, "shipped", 0)
	metrics.RecordStatusChange(ctx, "delivered", 20)

	got := collect(t, reader)

	points, ok := got["reward_points_awarded_total"]
	if !ok {
		t.Fatal("reward_points_awarded_total metric not found")
	}
	sum := points.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 20 {
		t.Errorf("Expected 20 points awarded, got %+v", sum.DataPoints)
	}

	changes := got["order_status_changes_total"].Data.(metricdata.Sum[int64])
	if len(changes.DataPoints) != 2 {
		t.Errorf("Expected 2 data points, got %d", len(changes.DataPoints))
	}
}
