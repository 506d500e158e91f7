//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/cafe/internal/database/dbtest"
	"github.com/dejobratic/cafe/internal/notifications/adapters/postgres"
	"github.com/dejobratic/cafe/internal/notifications/domain"
	"github.com/dejobratic/cafe/internal/notifications/ports"
)

func TestRepository(t *testing.T) {
	pool := dbtest.NewPool(t)
	repo := postgres.NewRepository(pool)
	ctx := context.Background()

	userID := uuid.NewString()
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, 'Ada', 'ada@example.com', 'x', now(), now())`, userID)
	require.NoError(t, err)

	n := domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      domain.TypePointsAwarded,
		Message:   "You earned 20 points",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.AddNotification(ctx, n))
	require.NoError(t, repo.AddNotification(ctx, n))

	t.Run("notifications", func(t *testing.T) {
		list, err := repo.ListNotifications(ctx, userID, ports.ListFilter{UnreadOnly: true})
		require.NoError(t, err)
		require.Len(t, list, 1)

		assert.ErrorIs(t, repo.MarkRead(ctx, uuid.NewString(), n.ID), ports.ErrNotFound)
		require.NoError(t, repo.MarkRead(ctx, userID, n.ID))

		changed, err := repo.MarkAllRead(ctx, userID)
		require.NoError(t, err)
		assert.Zero(t, changed)
	})

	t.Run("audit logs", func(t *testing.T) {
		entry := domain.AuditLog{
			ID:        uuid.NewString(),
			ActorID:   userID,
			Action:    "order.placed",
			Entity:    "order",
			EntityID:  "order-1",
			Details:   map[string]any{"total": "12.50"},
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, repo.AddAuditLog(ctx, entry))

		logs, err := repo.ListAuditLogs(ctx, ports.AuditFilter{EntityID: "order-1"})
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, "12.50", logs[0].Details["total"])
	})
}
