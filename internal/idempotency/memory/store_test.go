package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/cafe/internal/idempotency"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewStore(time.Hour)
	store.now = func() time.Time { return now }

	missing, err := store.Get(ctx, "u:k")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Save(ctx, "u:k", idempotency.Response{StatusCode: 201, Body: []byte(`{"a":1}`), ResourceID: "o-1"}))
	require.NoError(t, store.Save(ctx, "u:k", idempotency.Response{StatusCode: 201, ResourceID: "o-2"}))

	got, err := store.Get(ctx, "u:k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "o-1", got.ResourceID, "first response wins")

	now = now.Add(2 * time.Hour)
	expired, err := store.Get(ctx, "u:k")
	require.NoError(t, err)
	assert.Nil(t, expired)
}

func TestStoreReservation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewStore(time.Hour)
	store.now = func() time.Time { return now }

	t.Run("only one request holds a key", func(t *testing.T) {
		first, err := store.Reserve(ctx, "u:a")
		require.NoError(t, err)
		second, err := store.Reserve(ctx, "u:a")
		require.NoError(t, err)

		assert.True(t, first)
		assert.False(t, second)

		pending, err := store.Get(ctx, "u:a")
		require.NoError(t, err)
		require.NotNil(t, pending)
		assert.True(t, pending.Pending())
	})

	t.Run("save answers the reservation", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "u:a", idempotency.Response{StatusCode: 201, ResourceID: "o-1"}))

		got, err := store.Get(ctx, "u:a")
		require.NoError(t, err)
		assert.Equal(t, "o-1", got.ResourceID)

		reserved, err := store.Reserve(ctx, "u:a")
		require.NoError(t, err)
		assert.False(t, reserved)
	})

	t.Run("release frees an unanswered key", func(t *testing.T) {
		reserved, err := store.Reserve(ctx, "u:b")
		require.NoError(t, err)
		require.True(t, reserved)

		require.NoError(t, store.Release(ctx, "u:b"))
		reserved, err = store.Reserve(ctx, "u:b")
		require.NoError(t, err)
		assert.True(t, reserved)
	})

	t.Run("release keeps answered keys", func(t *testing.T) {
		require.NoError(t, store.Release(ctx, "u:a"))
		got, err := store.Get(ctx, "u:a")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 201, got.StatusCode)
	})

	t.Run("abandoned reservation times out", func(t *testing.T) {
		reserved, err := store.Reserve(ctx, "u:c")
		require.NoError(t, err)
		require.True(t, reserved)

		now = now.Add(idempotency.ReservationTimeout)
		reserved, err = store.Reserve(ctx, "u:c")
		require.NoError(t, err)
		assert.True(t, reserved)
	})
}
