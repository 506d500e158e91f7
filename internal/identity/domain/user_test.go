package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dejobratic/cafe/internal/identity/domain"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "  Ada@Example.COM ", want: "ada@example.com"},
		{input: "", wantErr: true},
		{input: "not-an-email", wantErr: true},
		{input: "Ada <ada@example.com>", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := domain.NormalizeEmail(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSaveAddress(t *testing.T) {
	var user domain.User

	user.SaveAddress(domain.Address{ID: "home", Line1: "1 Main St"})
	assert.True(t, user.Addresses[0].IsDefault, "first address becomes default")

	user.SaveAddress(domain.Address{ID: "work", Line1: "2 Side St"})
	def, _ := user.DefaultAddress()
	assert.Equal(t, "home", def.ID)

	user.SaveAddress(domain.Address{ID: "work", Line1: "2 Side St", IsDefault: true})
	def, _ = user.DefaultAddress()
	assert.Equal(t, "work", def.ID)
	assert.False(t, user.Addresses[0].IsDefault, "only one default at a time")

	assert.True(t, user.RemoveAddress("work"))
	def, ok := user.DefaultAddress()
	assert.True(t, ok)
	assert.Equal(t, "home", def.ID, "remaining address is promoted")
	assert.False(t, user.RemoveAddress("work"))
}

func TestPaymentMethodValidate(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	valid := domain.PaymentMethod{Brand: "visa", Last4: "4242", ExpMonth: 12, ExpYear: 2027}

	tests := []struct {
		name    string
		mutate  func(*domain.PaymentMethod)
		wantErr bool
	}{
		{name: "valid", mutate: func(*domain.PaymentMethod) {}},
		{name: "expires this month", mutate: func(p *domain.PaymentMethod) { p.ExpYear, p.ExpMonth = 2026, 6 }},
		{name: "full card number", mutate: func(p *domain.PaymentMethod) { p.Last4 = "4242424242424242" }, wantErr: true},
		{name: "letters", mutate: func(p *domain.PaymentMethod) { p.Last4 = "42a2" }, wantErr: true},
		{name: "bad month", mutate: func(p *domain.PaymentMethod) { p.ExpMonth = 13 }, wantErr: true},
		{name: "expired", mutate: func(p *domain.PaymentMethod) { p.ExpYear, p.ExpMonth = 2026, 5 }, wantErr: true},
		{name: "missing brand", mutate: func(p *domain.PaymentMethod) { p.Brand = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm := valid
			tt.mutate(&pm)
			err := pm.Validate(now)
			assert.Equal(t, tt.wantErr, err != nil, "Validate() error = %v", err)
		})
	}
}

func TestHasUsedCoupon(t *testing.T) {
	user := domain.User{UsedCoupons: []string{"WELCOME10"}}
	assert.True(t, user.HasUsedCoupon("welcome10"))
	assert.False(t, user.HasUsedCoupon("SUMMER"))
}
