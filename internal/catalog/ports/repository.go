package ports

import (
	"context"

	"github.com/dejobratic/cafe/internal/apperr"
	"github.com/dejobratic/cafe/internal/catalog/domain"
)

// ProductRepository persists products and their reviews.
type ProductRepository interface {
	Create(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetMany returns the products that exist among ids, in no particular order.
	GetMany(ctx context.Context, ids []string) ([]domain.Product, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Product, error)
	// AddReview stores the review and folds its rating into the product aggregate atomically.
	AddReview(ctx context.Context, review domain.Review) error
	ListReviews(ctx context.Context, productID string) ([]domain.Review, error)
}

// ListFilter narrows product listings. Pagination is 1-based.
type ListFilter struct {
	Category        *domain.Category
	Search          string
	BestSellerOnly  bool
	IncludeArchived bool
	Page            int
	PageSize        int
}

// UserDirectory resolves the display name shown next to a review.
type UserDirectory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

var (
	ErrNotFound        = apperr.NotFound("product not found")
	ErrDuplicateReview = apperr.Conflict("you have already reviewed this product")
)
