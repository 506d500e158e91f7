package app_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/cafe/internal/content/adapters/memory"
	"github.com/dejobratic/cafe/internal/content/app"
	"github.com/dejobratic/cafe/internal/content/domain"
	"github.com/dejobratic/cafe/internal/content/ports"
)

func TestFAQs(t *testing.T) {
	ctx := context.Background()
	service := app.NewService(memory.NewStore())

	second, err := service.CreateFAQ(ctx, app.FAQInput{Question: "Do you deliver?", Answer: "Within 5km", Position: 2})
	require.NoError(t, err)
	_, err = service.CreateFAQ(ctx, app.FAQInput{Question: "Opening hours?", Answer: "7am to 9pm", Position: 1})
	require.NoError(t, err)

	_, err = service.CreateFAQ(ctx, app.FAQInput{Question: " ", Answer: "x"})
	assert.Error(t, err)

	faqs, err := service.ListFAQs(ctx)
	require.NoError(t, err)
	require.Len(t, faqs, 2)
	assert.Equal(t, "Opening hours?", faqs[0].Question)

	updated, err := service.UpdateFAQ(ctx, second.ID, app.FAQInput{Question: "Do you deliver?", Answer: "Within 8km", Position: 0})
	require.NoError(t, err)
	assert.Equal(t, "Within 8km", updated.Answer)

	require.NoError(t, service.DeleteFAQ(ctx, second.ID))
	_, err = service.UpdateFAQ(ctx, second.ID, app.FAQInput{Question: "q", Answer: "a"})
	assert.ErrorIs(t, err, ports.ErrFAQNotFound)
}

func TestPages(t *testing.T) {
	ctx := context.Background()
	service := app.NewService(memory.NewStore())

	_, err := service.PutPage(ctx, "Bad Slug", app.PageInput{Title: "x"})
	assert.Error(t, err)

	_, err = service.PutPage(ctx, "privacy", app.PageInput{Title: "Privacy", Body: "We keep little."})
	require.NoError(t, err)

	page, err := service.Page(ctx, "privacy")
	require.NoError(t, err)
	assert.Equal(t, "We keep little.", page.Body)

	pages, err := service.ListPages(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Empty(t, pages[0].Body, "listing omits bodies")

	_, err = service.Page(ctx, "terms")
	assert.ErrorIs(t, err, ports.ErrPageNotFound)
}

func TestPaymentSettings(t *testing.T) {
	ctx := context.Background()
	service := app.NewService(memory.NewStore())

	defaults, err := service.PaymentSettings(ctx)
	require.NoError(t, err)
	assert.True(t, defaults.CODEnabled)
	assert.False(t, defaults.GatewayEnabled)

	_, err = service.PutPaymentSettings(ctx, domain.PaymentSettings{
		CODEnabled: true, GatewayEnabled: true, GatewayKeyID: "key", GatewayKeySecret: "secret-1234", Currency: "INR",
	})
	require.NoError(t, err)

	t.Run("empty secret keeps the stored one", func(t *testing.T) {
		_, err := service.PutPaymentSettings(ctx, domain.PaymentSettings{
			CODEnabled: false, GatewayEnabled: true, GatewayKeyID: "key", Currency: "INR",
		})
		require.NoError(t, err)

		settings, err := service.PaymentSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, "secret-1234", settings.GatewayKeySecret)
		assert.False(t, settings.CODEnabled)
	})

	t.Run("admin view masks the secret", func(t *testing.T) {
		view, err := service.Setting(ctx, domain.SettingPayment)
		require.NoError(t, err)
		raw, err := json.Marshal(view)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "secret-1234")
		assert.Contains(t, string(raw), "1234")
	})

	t.Run("rejects invalid settings", func(t *testing.T) {
		_, err := service.PutSetting(ctx, domain.SettingPayment, json.RawMessage(`{"cod_enabled":false,"gateway_enabled":false,"currency":"INR"}`))
		assert.Error(t, err)

		_, err = service.PutSetting(ctx, "shipping", json.RawMessage(`{}`))
		assert.ErrorIs(t, err, ports.ErrUnknownSetting)
	})
}

func TestTaxSettings(t *testing.T) {
	ctx := context.Background()
	service := app.NewService(memory.NewStore())

	settings, err := service.TaxSettings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.RatePercent.IsZero())

	_, err = service.PutSetting(ctx, domain.SettingTax, json.RawMessage(`{"rate_percent":"5"}`))
	require.NoError(t, err)

	settings, err = service.TaxSettings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.RatePercent.Equal(decimal.NewFromInt(5)))

	_, err = service.PutTaxSettings(ctx, domain.TaxSettings{RatePercent: decimal.NewFromInt(101)})
	assert.Error(t, err)
}
