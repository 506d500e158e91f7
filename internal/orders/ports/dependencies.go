package ports

import (
	"context"

	"github.com/shopspring/decimal"

	catalogdomain "github.com/dejobratic/cafe/internal/catalog/domain"
	contentdomain "github.com/dejobratic/cafe/internal/content/domain"
	identitydomain "github.com/dejobratic/cafe/internal/identity/domain"
	"github.com/dejobratic/cafe/internal/payment"
	promotionsapp "github.com/dejobratic/cafe/internal/promotions/app"
)

// Catalog prices line items at placement.
type Catalog interface {
	ProductsByID(ctx context.Context, ids []string) (map[string]catalogdomain.Product, error)
}

type Customers interface {
	GetProfile(ctx context.Context, userID string) (*identitydomain.User, error)
}

type Coupons interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal, usedCoupons []string) (*promotionsapp.Quote, error)
}

type Settings interface {
	PaymentSettings(ctx context.Context) (contentdomain.PaymentSettings, error)
	TaxSettings(ctx context.Context) (contentdomain.TaxSettings, error)
}

type Gateway interface {
	CreateOrder(ctx context.Context, creds payment.Credentials, req payment.CreateOrderRequest) (*payment.GatewayOrder, error)
}
