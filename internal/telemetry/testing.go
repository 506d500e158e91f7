package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// MetricRecorder keeps instruments in memory so tests can read them back by name.
type MetricRecorder struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

func NewMetricRecorder() *MetricRecorder {
	reader := sdkmetric.NewManualReader()
	return &MetricRecorder{
		reader:   reader,
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
}

func (r *MetricRecorder) Meter(name string) metric.Meter {
	return r.provider.Meter(name)
}

// Collect returns every recorded metric keyed by instrument name.
func (r *MetricRecorder) Collect(ctx context.Context) (map[string]metricdata.Aggregation, error) {
	var rm metricdata.ResourceMetrics
	if err := r.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}
	out := make(map[string]metricdata.Aggregation)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out, nil
}

// Total sums every data point of an int64 counter. Missing instruments count as zero.
func (r *MetricRecorder) Total(ctx context.Context, name string) (int64, error) {
	metrics, err := r.Collect(ctx)
	if err != nil {
		return 0, err
	}
	sum, ok := metrics[name].(metricdata.Sum[int64])
	if !ok {
		return 0, nil
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total, nil
}

// Observations counts the values recorded on a histogram of either number kind.
func (r *MetricRecorder) Observations(ctx context.Context, name string) (uint64, error) {
	metrics, err := r.Collect(ctx)
	if err != nil {
		return 0, err
	}
	var count uint64
	switch h := metrics[name].(type) {
	case metricdata.Histogram[float64]:
		for _, dp := range h.DataPoints {
			count += dp.Count
		}
	case metricdata.Histogram[int64]:
		for _, dp := range h.DataPoints {
			count += dp.Count
		}
	}
	return count, nil
}
