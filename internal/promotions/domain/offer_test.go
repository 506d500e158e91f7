package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/cafe/internal/promotions/domain"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestDiscountFor(t *testing.T) {
	tests := []struct {
		name     string
		offer    domain.Offer
		subtotal string
		want     string
	}{
		{
			name:     "percentage",
			offer:    domain.Offer{DiscountType: domain.DiscountPercentage, DiscountValue: d("10")},
			subtotal: "250.00",
			want:     "25",
		},
		{
			name:     "percentage rounds to cents",
			offer:    domain.Offer{DiscountType: domain.DiscountPercentage, DiscountValue: d("15")},
			subtotal: "9.99",
			want:     "1.5",
		},
		{
			name:     "fixed",
			offer:    domain.Offer{DiscountType: domain.DiscountFixed, DiscountValue: d("50")},
			subtotal: "120",
			want:     "50",
		},
		{
			name:     "fixed capped at subtotal",
			offer:    domain.Offer{DiscountType: domain.DiscountFixed, DiscountValue: d("50")},
			subtotal: "30.25",
			want:     "30.25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.offer.DiscountFor(d(tt.subtotal))
			if !got.Equal(d(tt.want)) {
				t.Errorf("DiscountFor(%s) = %s, want %s", tt.subtotal, got, tt.want)
			}
		})
	}
}

func TestOfferValidate(t *testing.T) {
	valid := domain.Offer{
		Code:          "WELCOME",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: d("10"),
		ValidUntil:    time.Now().Add(time.Hour),
	}

	tests := []struct {
		name    string
		mutate  func(*domain.Offer)
		wantErr bool
	}{
		{name: "valid", mutate: func(*domain.Offer) {}},
		{name: "percentage over 100", mutate: func(o *domain.Offer) { o.DiscountValue = d("100.01") }, wantErr: true},
		{name: "zero value", mutate: func(o *domain.Offer) { o.DiscountValue = decimal.Zero }, wantErr: true},
		{name: "unknown type", mutate: func(o *domain.Offer) { o.DiscountType = "bogo" }, wantErr: true},
		{name: "missing code", mutate: func(o *domain.Offer) { o.Code = "" }, wantErr: true},
		{name: "negative minimum", mutate: func(o *domain.Offer) { o.MinOrderValue = d("-1") }, wantErr: true},
		{name: "no expiry", mutate: func(o *domain.Offer) { o.ValidUntil = time.Time{} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offer := valid
			tt.mutate(&offer)
			if err := offer.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
