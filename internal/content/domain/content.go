package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type FAQ struct {
	ID        string    `json:"id" bson:"_id"`
	Question  string    `json:"question" bson:"question"`
	Answer    string    `json:"answer" bson:"answer"`
	Position  int       `json:"position" bson:"position"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (f FAQ) Validate() error {
	if strings.TrimSpace(f.Question) == "" {
		return errors.New("question is required")
	}
	if strings.TrimSpace(f.Answer) == "" {
		return errors.New("answer is required")
	}
	return nil
}

type ContactInfo struct {
	Email     string    `json:"email" bson:"email"`
	Phone     string    `json:"phone" bson:"phone"`
	Address   string    `json:"address" bson:"address"`
	Hours     string    `json:"hours" bson:"hours"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Page is a static CMS page addressed by slug, e.g. "about" or "privacy".
type Page struct {
	Slug      string    `json:"slug" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Body      string    `json:"body" bson:"body"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func ValidSlug(slug string) bool {
	return len(slug) <= 64 && slugPattern.MatchString(slug)
}

// Setting keys.
const (
	SettingPayment = "payment"
	SettingTax     = "tax"
	SettingContact = "contact"
)

type PaymentSettings struct {
	CODEnabled       bool   `json:"cod_enabled" bson:"cod_enabled"`
	GatewayEnabled   bool   `json:"gateway_enabled" bson:"gateway_enabled"`
	GatewayKeyID     string `json:"gateway_key_id" bson:"gateway_key_id"`
	GatewayKeySecret string `json:"gateway_key_secret,omitempty" bson:"gateway_key_secret"`
	Currency         string `json:"currency" bson:"currency"`
}

// DefaultPaymentSettings applies until an admin saves payment settings.
func DefaultPaymentSettings() PaymentSettings {
	return PaymentSettings{CODEnabled: true, Currency: "INR"}
}

func (p PaymentSettings) Validate() error {
	if !p.CODEnabled && !p.GatewayEnabled {
		return errors.New("at least one payment method must be enabled")
	}
	if p.GatewayEnabled && (p.GatewayKeyID == "" || p.GatewayKeySecret == "") {
		return errors.New("gateway credentials are required when the gateway is enabled")
	}
	if len(p.Currency) != 3 || strings.ToUpper(p.Currency) != p.Currency {
		return errors.New("currency must be a 3-letter upper-case ISO code")
	}
	return nil
}

// PublicPaymentSettings is what the storefront may see.
type PublicPaymentSettings struct {
	CODEnabled     bool   `json:"cod_enabled"`
	GatewayEnabled bool   `json:"gateway_enabled"`
	GatewayKeyID   string `json:"gateway_key_id"`
	Currency       string `json:"currency"`
}

func (p PaymentSettings) Public() PublicPaymentSettings {
	return PublicPaymentSettings{
		CODEnabled:     p.CODEnabled,
		GatewayEnabled: p.GatewayEnabled,
		GatewayKeyID:   p.GatewayKeyID,
		Currency:       p.Currency,
	}
}

// Masked hides all but the last four characters of the gateway secret.
func (p PaymentSettings) Masked() PaymentSettings {
	if n := len(p.GatewayKeySecret); n > 4 {
		p.GatewayKeySecret = strings.Repeat("*", n-4) + p.GatewayKeySecret[n-4:]
	} else if n > 0 {
		p.GatewayKeySecret = strings.Repeat("*", n)
	}
	return p
}

var hundred = decimal.NewFromInt(100)

type TaxSettings struct {
	RatePercent decimal.Decimal `json:"rate_percent" bson:"rate_percent"`
	Inclusive   bool            `json:"inclusive" bson:"inclusive"`
}

func (t TaxSettings) Validate() error {
	if t.RatePercent.IsNegative() || t.RatePercent.GreaterThan(hundred) {
		return errors.New("rate_percent must be between 0 and 100")
	}
	return nil
}

// Apply returns the tax due on base and the amount the customer pays.
// Inclusive rates are already contained in base.
func (t TaxSettings) Apply(base decimal.Decimal) (tax, total decimal.Decimal) {
	if t.RatePercent.IsZero() {
		return decimal.Zero, base
	}
	if t.Inclusive {
		net := base.Mul(hundred).Div(hundred.Add(t.RatePercent))
		return base.Sub(net).Round(2), base
	}
	tax = base.Mul(t.RatePercent).Div(hundred).Round(2)
	return tax, base.Add(tax)
}
