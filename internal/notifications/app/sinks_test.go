package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/cafe/internal/notifications/adapters/memory"
	"github.com/dejobratic/cafe/internal/notifications/app"
	"github.com/dejobratic/cafe/internal/notifications/domain"
	"github.com/dejobratic/cafe/internal/notifications/ports"
	"github.com/dejobratic/cafe/internal/outbox"
)

func TestNotificationSink(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	sink := app.NewNotificationSink(repo)
	service := app.NewService(repo)

	event, err := app.NotificationEvent("order-1", app.NotificationPayload{
		UserID:  "user-1",
		Type:    domain.TypeOrderPlaced,
		Message: "Your order has been placed",
	})
	require.NoError(t, err)
	assert.Equal(t, outbox.SinkNotification, event.Sink)

	require.NoError(t, sink.Handle(ctx, event))
	require.NoError(t, sink.Handle(ctx, event), "redelivery is harmless")

	mine, err := service.ListMine(ctx, "user-1", ports.ListFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, event.ID.String(), mine[0].ID)
	assert.Equal(t, domain.TypeOrderPlaced, mine[0].Type)

	t.Run("mark read is scoped to the owner", func(t *testing.T) {
		assert.ErrorIs(t, service.MarkRead(ctx, "user-2", mine[0].ID), ports.ErrNotFound)
		require.NoError(t, service.MarkRead(ctx, "user-1", mine[0].ID))

		unread, err := service.ListMine(ctx, "user-1", ports.ListFilter{UnreadOnly: true})
		require.NoError(t, err)
		assert.Empty(t, unread)
	})

	t.Run("mark all read counts changes", func(t *testing.T) {
		for range 2 {
			e, err := app.NotificationEvent("order-2", app.NotificationPayload{UserID: "user-1", Type: domain.TypeOrderStatus, Message: "Shipped"})
			require.NoError(t, err)
			require.NoError(t, sink.Handle(ctx, e))
		}

		changed, err := service.MarkAllRead(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 2, changed)
	})
}

func TestAuditSink(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	sink := app.NewAuditSink(repo)

	event, err := app.AuditEvent(app.AuditPayload{
		ActorID:  "admin-1",
		Action:   "order.status_changed",
		Entity:   "order",
		EntityID: "order-1",
		Details:  map[string]any{"status": "shipped"},
	})
	require.NoError(t, err)
	require.NoError(t, sink.Handle(ctx, event))

	logs, err := app.NewService(repo).ListAuditLogs(ctx, ports.AuditFilter{Entity: "order"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "admin-1", logs[0].ActorID)
	assert.Equal(t, "shipped", logs[0].Details["status"])

	t.Run("rejects malformed payloads", func(t *testing.T) {
		bad := event
		bad.Payload = []byte(`{"action":`)
		assert.Error(t, sink.Handle(ctx, bad))
	})
}
