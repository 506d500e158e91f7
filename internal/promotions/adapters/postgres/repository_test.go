//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/cafe/internal/database/dbtest"
	"github.com/dejobratic/cafe/internal/promotions/adapters/postgres"
	"github.com/dejobratic/cafe/internal/promotions/domain"
	"github.com/dejobratic/cafe/internal/promotions/ports"
)

func TestRepository(t *testing.T) {
	pool := dbtest.NewPool(t)
	repo := postgres.NewRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	offer := domain.Offer{
		ID:            uuid.NewString(),
		Code:          "WELCOME10",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		MinOrderValue: decimal.NewFromInt(100),
		ValidUntil:    now.Add(24 * time.Hour),
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, repo.Create(ctx, offer))

	expired := offer
	expired.ID, expired.Code, expired.ValidUntil = uuid.NewString(), "OLD", now.Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, expired))

	t.Run("duplicate code", func(t *testing.T) {
		dup := offer
		dup.ID = uuid.NewString()
		assert.ErrorIs(t, repo.Create(ctx, dup), ports.ErrDuplicateCode)
	})

	t.Run("get by code", func(t *testing.T) {
		got, err := repo.GetByCode(ctx, "WELCOME10")
		require.NoError(t, err)
		assert.True(t, got.DiscountValue.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, domain.DiscountPercentage, got.DiscountType)
	})

	t.Run("active listing hides expired offers", func(t *testing.T) {
		active, err := repo.List(ctx, true)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "WELCOME10", active[0].Code)

		all, err := repo.List(ctx, false)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, expired.ID))
		assert.ErrorIs(t, repo.Delete(ctx, expired.ID), ports.ErrNotFound)
	})
}
