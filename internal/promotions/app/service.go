package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dejobratic/cafe/internal/apperr"
	"github.com/dejobratic/cafe/internal/promotions/domain"
	"github.com/dejobratic/cafe/internal/promotions/ports"
)

type Service struct {
	repo ports.OfferRepository
	now  func() time.Time
}

func NewService(repo ports.OfferRepository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

type OfferInput struct {
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	MinOrderValue decimal.Decimal `json:"min_order_value"`
	ValidUntil    time.Time       `json:"valid_until"`
	Active        *bool           `json:"active"`
}

func (in OfferInput) apply(o *domain.Offer) error {
	o.Code = domain.NormalizeCode(in.Code)
	o.Description = strings.TrimSpace(in.Description)
	o.DiscountType = domain.DiscountType(strings.ToLower(strings.TrimSpace(in.DiscountType)))
	o.DiscountValue = in.DiscountValue
	o.MinOrderValue = in.MinOrderValue
	o.ValidUntil = in.ValidUntil.UTC()
	if in.Active != nil {
		o.Active = *in.Active
	}

	if err := o.Validate(); err != nil {
		return apperr.Invalid(err.Error())
	}
	return nil
}

func (s *Service) Create(ctx context.Context, input OfferInput) (*domain.Offer, error) {
	now := s.now()
	offer := domain.Offer{
		ID:        uuid.NewString(),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := input.apply(&offer); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

func (s *Service) Update(ctx context.Context, id string, input OfferInput) (*domain.Offer, error) {
	offer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.apply(offer); err != nil {
		return nil, err
	}
	offer.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, *offer); err != nil {
		return nil, err
	}
	return offer, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Toggle flips the offer's active flag.
func (s *Service) Toggle(ctx context.Context, id string) (*domain.Offer, error) {
	offer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	offer.Active = !offer.Active
	offer.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, *offer); err != nil {
		return nil, err
	}
	return offer, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Offer, error) {
	return s.repo.List(ctx, false)
}

func (s *Service) ListActive(ctx context.Context) ([]domain.Offer, error) {
	return s.repo.List(ctx, true)
}

// Quote is the outcome of a successful coupon validation.
type Quote struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// Validate checks code against subtotal and the caller's used coupons and
// returns the discount it grants. usedCoupons is nil for guests.
func (s *Service) Validate(ctx context.Context, code string, subtotal decimal.Decimal, usedCoupons []string) (*Quote, error) {
	normalized := domain.NormalizeCode(code)
	if normalized == "" {
		return nil, ports.ErrInvalidCoupon
	}

	offer, err := s.repo.GetByCode(ctx, normalized)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ports.ErrInvalidCoupon
	}
	if err != nil {
		return nil, err
	}

	switch {
	case !offer.Active:
		return nil, ports.ErrInvalidCoupon
	case offer.Expired(s.now()):
		return nil, ports.ErrCouponExpired
	case subtotal.LessThan(offer.MinOrderValue):
		return nil, ports.ErrBelowMinimum
	}
	for _, used := range usedCoupons {
		if domain.NormalizeCode(used) == offer.Code {
			return nil, ports.ErrCouponAlreadyUsed
		}
	}

	return &Quote{Code: offer.Code, Discount: offer.DiscountFor(subtotal)}, nil
}
