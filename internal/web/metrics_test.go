package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordHTTPRequest(t *testing.T) {
	t.Run("records request count and duration with method, route, and status labels", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

		metrics, err := NewMetrics(mp.Meter("test"))
		if err != nil {
			t.Fatalf("NewMetrics() failed: %v", err)
		}

		ctx := context.Background()
		metrics.RecordRequest(ctx, "GET", "/api/products", 200, 0.5)
		metrics.RecordRequest(ctx, "POST", "/api/orders", 201, 0.7)

		var rm metricdata.ResourceMetrics
		if err := reader.Collect(ctx, &rm); err != nil {
			t.Fatalf("Failed to collect metrics: %v", err)
		}

		counts := map[string]int{}
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				switch data := m.Data.(type) {
				case metricdata.Sum[int64]:
					counts[m.Name] = len(data.DataPoints)
				case metricdata.Histogram[float64]:
					counts[m.Name] = len(data.DataPoints)
				}
			}
		}

		if counts["http_requests_total"] != 2 {
			t.Errorf("expected 2 http_requests_total data points, got %d", counts["http_requests_total"])
		}
		if counts["http_request_duration_seconds"] != 2 {
			t.Errorf("expected 2 http_request_duration_seconds data points, got %d", counts["http_request_duration_seconds"])
		}
	})
}

func TestWithMetricsUsesRoutePattern(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}

	router := chi.NewRouter()
	router.Use(WithMetrics(metrics))
	router.Get("/api/products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products/abc", nil))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http_requests_total" {
				continue
			}
			sum := m.Data.(metricdata.Sum[int64])
			for _, dp := range sum.DataPoints {
				if route, ok := dp.Attributes.Value(attribute.Key("route")); ok && route.AsString() == "/api/products/{id}" {
					found = true
				}
			}
		}
	}

	if !found {
		t.Error("expected request to be labelled with the route pattern")
	}
}
