package app_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/cafe/internal/apperr"
	"github.com/dejobratic/cafe/internal/catalog/adapters/memory"
	"github.com/dejobratic/cafe/internal/catalog/app"
	"github.com/dejobratic/cafe/internal/catalog/ports"
)

type names map[string]string

func (n names) DisplayName(_ context.Context, id string) (string, error) { return n[id], nil }

func newService() *app.Service {
	return app.NewService(memory.NewRepository(), names{"u1": "Grace"})
}

func croissant() app.ProductInput {
	return app.ProductInput{
		Name:     " Croissant ",
		Price:    decimal.RequireFromString("2.20"),
		Category: "Bakery",
		Stock:    12,
	}
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	product, err := svc.CreateProduct(ctx, croissant())
	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, "Croissant", product.Name)
	assert.Equal(t, "bakery", string(product.Category))

	input := croissant()
	input.Category = "pizza"
	_, err = svc.CreateProduct(ctx, input)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestArchiveProduct(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	product, err := svc.CreateProduct(ctx, croissant())
	require.NoError(t, err)

	archived, err := svc.ArchiveProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	again, err := svc.ArchiveProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, again.Archived)

	_, err = svc.GetProduct(ctx, product.ID, false)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	exists, err := svc.ProductExists(ctx, product.ID)
	require.NoError(t, err)
	assert.False(t, exists, "archived products are not purchasable")

	_, err = svc.AddReview(ctx, product.ID, "u1", app.ReviewInput{Rating: 5})
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestProductsByID(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	first, err := svc.CreateProduct(ctx, croissant())
	require.NoError(t, err)

	byID, err := svc.ProductsByID(ctx, []string{first.ID, "missing", first.ID})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.True(t, byID[first.ID].Price.Equal(decimal.RequireFromString("2.2")))

	exists, err := svc.ProductExists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAddReviewUpdatesRating(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	product, err := svc.CreateProduct(ctx, croissant())
	require.NoError(t, err)

	review, err := svc.AddReview(ctx, product.ID, "u1", app.ReviewInput{Rating: 3, Comment: " flaky "})
	require.NoError(t, err)
	assert.Equal(t, "Grace", review.UserName)
	assert.Equal(t, "flaky", review.Comment)

	_, err = svc.AddReview(ctx, product.ID, "u1", app.ReviewInput{Rating: 5})
	assert.ErrorIs(t, err, ports.ErrDuplicateReview)

	updated, err := svc.GetProduct(ctx, product.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 3.0, updated.RatingAverage)
	assert.Equal(t, 1, updated.RatingCount)
}
