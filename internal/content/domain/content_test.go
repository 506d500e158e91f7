package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dejobratic/cafe/internal/content/domain"
)

func TestTaxApply(t *testing.T) {
	tests := []struct {
		name      string
		settings  domain.TaxSettings
		base      string
		wantTax   string
		wantTotal string
	}{
		{name: "no tax", settings: domain.TaxSettings{}, base: "100", wantTax: "0", wantTotal: "100"},
		{name: "exclusive", settings: domain.TaxSettings{RatePercent: decimal.NewFromInt(5)}, base: "200", wantTax: "10", wantTotal: "210"},
		{name: "exclusive rounds", settings: domain.TaxSettings{RatePercent: decimal.RequireFromString("18")}, base: "9.99", wantTax: "1.8", wantTotal: "11.79"},
		{name: "inclusive", settings: domain.TaxSettings{RatePercent: decimal.NewFromInt(25), Inclusive: true}, base: "125", wantTax: "25", wantTotal: "125"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tax, total := tt.settings.Apply(decimal.RequireFromString(tt.base))
			assert.True(t, tax.Equal(decimal.RequireFromString(tt.wantTax)), "tax = %s", tax)
			assert.True(t, total.Equal(decimal.RequireFromString(tt.wantTotal)), "total = %s", total)
		})
	}
}

func TestPaymentSettings(t *testing.T) {
	settings := domain.PaymentSettings{
		CODEnabled:       true,
		GatewayEnabled:   true,
		GatewayKeyID:     "rzp_test_key",
		GatewayKeySecret: "supersecret",
		Currency:         "INR",
	}
	assert.NoError(t, settings.Validate())
	assert.Equal(t, "*******cret", settings.Masked().GatewayKeySecret)
	assert.Equal(t, "rzp_test_key", settings.Public().GatewayKeyID)

	noMethods := settings
	noMethods.CODEnabled, noMethods.GatewayEnabled = false, false
	assert.Error(t, noMethods.Validate())

	missingSecret := settings
	missingSecret.GatewayKeySecret = ""
	assert.Error(t, missingSecret.Validate())

	badCurrency := settings
	badCurrency.Currency = "inr"
	assert.Error(t, badCurrency.Validate())
}

func TestValidSlug(t *testing.T) {
	assert.True(t, domain.ValidSlug("about"))
	assert.True(t, domain.ValidSlug("shipping-policy"))
	assert.False(t, domain.ValidSlug("Shipping Policy"))
	assert.False(t, domain.ValidSlug("-about"))
	assert.False(t, domain.ValidSlug(""))
}
