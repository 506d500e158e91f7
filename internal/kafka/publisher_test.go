package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/cafe/internal/outbox"
	"github.com/dejobratic/cafe/internal/telemetry"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func newMetrics(t *testing.T) (*Metrics, *telemetry.MetricRecorder) {
	t.Helper()
	recorder := telemetry.NewMetricRecorder()
	metrics, err := NewMetrics(recorder.Meter("test"))
	require.NoError(t, err)
	return metrics, recorder
}

func TestPublisherHandle(t *testing.T) {
	ctx := context.Background()
	event, err := outbox.NewEvent(outbox.SinkBroker, "order_placed", "order-42", map[string]string{"order_id": "order-42"})
	require.NoError(t, err)

	t.Run("writes keyed message with headers", func(t *testing.T) {
		writer := &fakeWriter{}
		metrics, recorder := newMetrics(t)
		publisher := newPublisher(writer, "cafe.events", metrics)

		require.NoError(t, publisher.Handle(ctx, event))
		require.Len(t, writer.messages, 1)

		msg := writer.messages[0]
		assert.Equal(t, "order-42", string(msg.Key))
		assert.JSONEq(t, `{"order_id":"order-42"}`, string(msg.Value))
		require.Len(t, msg.Headers, 2)
		assert.Equal(t, "event_type", msg.Headers[1].Key)
		assert.Equal(t, "order_placed", string(msg.Headers[1].Value))

		published, err := recorder.Total(ctx, "cafe_events_published_total")
		require.NoError(t, err)
		assert.Equal(t, int64(1), published)
		sizes, err := recorder.Observations(ctx, "cafe_events_payload_bytes")
		require.NoError(t, err)
		assert.Equal(t, uint64(1), sizes)
	})

	t.Run("wraps writer errors", func(t *testing.T) {
		writer := &fakeWriter{err: errors.New("leader not available")}
		metrics, recorder := newMetrics(t)
		publisher := newPublisher(writer, "cafe.events", metrics)

		err := publisher.Handle(ctx, event)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "leader not available")

		latencies, err := recorder.Observations(ctx, "cafe_events_publish_seconds")
		require.NoError(t, err)
		assert.Equal(t, uint64(1), latencies)
		sizes, err := recorder.Observations(ctx, "cafe_events_payload_bytes")
		require.NoError(t, err)
		assert.Zero(t, sizes)
	})

	t.Run("closes writer", func(t *testing.T) {
		writer := &fakeWriter{}
		require.NoError(t, newPublisher(writer, "cafe.events", nil).Close())
		assert.True(t, writer.closed)
	})
}

func TestNoopPublisher(t *testing.T) {
	event, err := outbox.NewEvent(outbox.SinkBroker, "order_status", "order-1", map[string]string{})
	require.NoError(t, err)

	publisher := NewNoopPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NoError(t, publisher.Handle(context.Background(), event))
	assert.NoError(t, publisher.Close())
}
