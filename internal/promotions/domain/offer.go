package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

var hundred = decimal.NewFromInt(100)

// Offer is a promo code redeemable at checkout.
type Offer struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	MinOrderValue decimal.Decimal `json:"min_order_value"`
	ValidUntil    time.Time       `json:"valid_until"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NormalizeCode trims and upper-cases a promo code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (o Offer) Validate() error {
	if o.Code == "" {
		return errors.New("code is required")
	}
	switch o.DiscountType {
	case DiscountPercentage:
		if o.DiscountValue.GreaterThan(hundred) {
			return errors.New("percentage discount cannot exceed 100")
		}
	case DiscountFixed:
	default:
		return fmt.Errorf("unknown discount type %q", o.DiscountType)
	}
	if !o.DiscountValue.IsPositive() {
		return errors.New("discount value must be positive")
	}
	if o.MinOrderValue.IsNegative() {
		return errors.New("minimum order value cannot be negative")
	}
	if o.ValidUntil.IsZero() {
		return errors.New("valid_until is required")
	}
	return nil
}

// Expired reports whether now is past the offer's validity.
func (o Offer) Expired(now time.Time) bool {
	return now.After(o.ValidUntil)
}

// DiscountFor returns the discount applied to subtotal, rounded to 2 places.
// A fixed discount never exceeds the subtotal.
func (o Offer) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch o.DiscountType {
	case DiscountPercentage:
		discount = subtotal.Mul(o.DiscountValue).Div(hundred)
	case DiscountFixed:
		discount = decimal.Min(o.DiscountValue, subtotal)
	}
	return discount.Round(2)
}
