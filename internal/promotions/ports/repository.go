package ports

import (
	"context"

	"github.com/dejobratic/cafe/internal/apperr"
	"github.com/dejobratic/cafe/internal/promotions/domain"
)

type OfferRepository interface {
	// Create fails with ErrDuplicateCode when the code already exists.
	Create(ctx context.Context, offer domain.Offer) error
	Update(ctx context.Context, offer domain.Offer) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Offer, error)
	GetByCode(ctx context.Context, code string) (*domain.Offer, error)
	// List returns offers newest first. activeOnly hides inactive and expired offers.
	List(ctx context.Context, activeOnly bool) ([]domain.Offer, error)
}

var (
	ErrNotFound          = apperr.NotFound("offer not found")
	ErrDuplicateCode     = apperr.Conflict("offer code already exists")
	ErrInvalidCoupon     = apperr.Invalid("coupon code is invalid")
	ErrCouponExpired     = apperr.Invalid("coupon has expired")
	ErrBelowMinimum      = apperr.Invalid("order subtotal is below the coupon minimum")
	ErrCouponAlreadyUsed = apperr.Invalid("coupon has already been used")
)
