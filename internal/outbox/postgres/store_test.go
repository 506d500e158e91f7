//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/cafe/internal/database/dbtest"
	"github.com/dejobratic/cafe/internal/outbox"
	"github.com/dejobratic/cafe/internal/outbox/postgres"
)

func TestStore(t *testing.T) {
	pool := dbtest.NewPool(t)
	store := postgres.NewStore(pool)
	ctx := context.Background()

	events, err := outbox.Fanout("order_placed", "o-1", map[string]string{"order_id": "o-1"},
		outbox.SinkNotification, outbox.SinkMail)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, events...))

	claimed, err := store.ClaimPending(ctx, 10, 3, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 2)

	again, err := store.ClaimPending(ctx, 10, 3, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, again, "leased events must not be claimed twice")

	require.NoError(t, store.MarkProcessed(ctx, claimed[0].ID))
	require.NoError(t, store.MarkFailed(ctx, claimed[1].ID, "smtp unavailable"))

	retry, err := store.ClaimPending(ctx, 10, 3, time.Minute)
	require.NoError(t, err)
	require.Len(t, retry, 1)
	assert.Equal(t, claimed[1].ID, retry[0].ID)
	assert.Equal(t, 1, retry[0].Attempts)
	assert.Equal(t, "smtp unavailable", retry[0].LastError)

	var payload map[string]string
	require.NoError(t, retry[0].Decode(&payload))
	assert.Equal(t, "o-1", payload["order_id"])
}
