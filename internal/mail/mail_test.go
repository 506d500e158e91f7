package mail

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	sent []Message
	err  error
}

func (c *captureSender) Send(_ context.Context, msg Message) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func TestTemplatesRender(t *testing.T) {
	templates, err := LoadTemplates()
	require.NoError(t, err)

	tests := []struct {
		name     string
		template string
		data     map[string]any
		contains string
	}{
		{
			name:     "order confirmation lists items",
			template: TemplateOrderConfirmation,
			data: map[string]any{
				"name":           "Ada",
				"order_id":       "o-1",
				"items":          []any{map[string]any{"name": "Flat White", "quantity": 2, "price": "4.50"}},
				"total":          "9.00",
				"payment_method": "cod",
			},
			contains: "Flat White",
		},
		{
			name:     "points awarded",
			template: TemplatePointsAwarded,
			data:     map[string]any{"order_id": "o-2", "points": 30},
			contains: "30",
		},
		{
			name:     "verification code",
			template: TemplateVerifyEmail,
			data:     map[string]any{"name": "Ada", "code": "123456", "expires_in": "15m0s"},
			contains: "123456",
		},
		{
			name:     "escapes html",
			template: TemplateOrderStatus,
			data:     map[string]any{"order_id": "<script>", "status": "Shipped"},
			contains: "&lt;script&gt;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body, err := templates.Render(tt.template, tt.data)
			require.NoError(t, err)
			assert.Equal(t, subjects[tt.template], subject)
			assert.Contains(t, body, tt.contains)
		})
	}

	t.Run("unknown template", func(t *testing.T) {
		_, _, err := templates.Render("newsletter", nil)
		assert.Error(t, err)
	})
}

func TestHandler(t *testing.T) {
	templates, err := LoadTemplates()
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("renders and sends", func(t *testing.T) {
		sender := &captureSender{}
		event, err := NewEvent("password_reset", "user-1", Request{
			To:       "ada@example.com",
			Template: TemplatePasswordReset,
			Data:     map[string]any{"code": "654321", "expires_in": "15m0s"},
		})
		require.NoError(t, err)

		require.NoError(t, NewHandler(sender, templates).Handle(ctx, event))
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "ada@example.com", sender.sent[0].To)
		assert.Equal(t, "Reset your password", sender.sent[0].Subject)
		assert.Contains(t, sender.sent[0].HTML, "654321")
	})

	t.Run("rejects missing recipient", func(t *testing.T) {
		event, err := NewEvent("order_placed", "o-1", Request{Template: TemplateOrderStatus})
		require.NoError(t, err)

		err = NewHandler(&captureSender{}, templates).Handle(ctx, event)
		assert.ErrorIs(t, err, ErrNoRecipient)
	})

	t.Run("propagates send failures", func(t *testing.T) {
		sender := &captureSender{err: errors.New("connection reset")}
		event, err := NewEvent("order_status", "o-1", Request{
			To:       "ada@example.com",
			Template: TemplateOrderStatus,
			Data:     map[string]any{"order_id": "o-1", "status": "Shipped"},
		})
		require.NoError(t, err)

		assert.Error(t, NewHandler(sender, templates).Handle(ctx, event))
	})
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	sender := NewLogSender(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, sender.Send(context.Background(), Message{To: "ada@example.com", Subject: "Hello"}))
	assert.Contains(t, buf.String(), "ada@example.com")
}

func TestNewSMTPSender(t *testing.T) {
	sender, err := NewSMTPSender(SMTPConfig{Host: "localhost", Port: 2525, From: "Cafe <orders@cafe.local>"})
	require.NoError(t, err)
	assert.NotNil(t, sender)
}
