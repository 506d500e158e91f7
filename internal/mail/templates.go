package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

const (
	TemplateOrderConfirmation = "order_confirmation"
	TemplateOrderStatus       = "order_status"
	TemplatePointsAwarded     = "points_awarded"
	TemplateVerifyEmail       = "verify_email"
	TemplatePasswordReset     = "password_reset"
)

var subjects = map[string]string{
	TemplateOrderConfirmation: "Your order is confirmed",
	TemplateOrderStatus:       "Your order status has changed",
	TemplatePointsAwarded:     "You earned reward points",
	TemplateVerifyEmail:       "Verify your email address",
	TemplatePasswordReset:     "Reset your password",
}

//go:embed templates/*.html
var templateFS embed.FS

type Templates struct {
	set *template.Template
}

func LoadTemplates() (*Templates, error) {
	set, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Templates{set: set}, nil
}

// Render returns the subject and HTML body for a named template.
func (t *Templates) Render(name string, data map[string]any) (string, string, error) {
	subject, ok := subjects[name]
	if !ok {
		return "", "", fmt.Errorf("unknown mail template %q", name)
	}

	var buf bytes.Buffer
	if err := t.set.ExecuteTemplate(&buf, name+".html", data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", name, err)
	}
	return subject, buf.String(), nil
}
