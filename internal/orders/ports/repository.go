package ports

import (
	"context"
	"time"

	"github.com/dejobratic/cafe/internal/apperr"
	"github.com/dejobratic/cafe/internal/orders/domain"
	"github.com/dejobratic/cafe/internal/outbox"
)

// Claims are the one-time customer resources an order consumes. They are
// applied in the same unit of work as the order insert.
type Claims struct {
	UserID     string
	CouponCode string
	Points     int
	// Payment consumes the gateway intent a paid order was checked out with.
	Payment *PaymentClaim
}

// PaymentClaim binds an order to an unused intent of exactly Amount minor units.
type PaymentClaim struct {
	GatewayOrderID string
	Amount         int64
}

// Empty reports whether there is nothing to take from the customer's ledger.
func (c Claims) Empty() bool {
	return c.UserID == "" || (c.CouponCode == "" && c.Points == 0)
}

// OrderRepository exposes persistence operations required by the application layer.
type OrderRepository interface {
	// Place stores order, applies claims and appends events atomically. A
	// coupon the user already used or a balance below Points fails the whole
	// placement and nothing is written.
	Place(ctx context.Context, order domain.Order, claims Claims, events []outbox.Event) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	// UpdateStatus persists order if its Version still matches, credits award
	// points to the owner and appends events atomically.
	UpdateStatus(ctx context.Context, order domain.Order, award int, events []outbox.Event) error
	// ListBetween returns orders created in [from, to).
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error)
	// SavePaymentIntent records a gateway order opened for a checkout.
	SavePaymentIntent(ctx context.Context, intent domain.PaymentIntent) error
	// GetPaymentIntent returns ErrPaymentIntentNotFound for unknown ids.
	GetPaymentIntent(ctx context.Context, gatewayOrderID string) (*domain.PaymentIntent, error)
}

// ListFilter narrows list queries by owner, status and pagination.
type ListFilter struct {
	UserID   string
	Status   *domain.Status
	Page     int
	PageSize int
}

var (
	ErrNotFound              = apperr.NotFound("order not found")
	ErrConcurrentUpdate      = apperr.Conflict("order was changed by another request, reload and retry")
	ErrProductUnavailable    = apperr.Invalid("one or more products are unavailable")
	ErrPaymentMethodDisabled = apperr.Invalid("payment method is not available")
	ErrPaymentNotVerified    = apperr.Invalid("payment could not be verified")
	ErrGatewayDisabled       = apperr.Invalid("online payment is not available")
	ErrPaymentIntentNotFound = apperr.NotFound("payment intent not found")
	ErrPaymentAlreadyUsed    = apperr.Conflict("payment has already been used for another order")
	ErrPaymentAmountMismatch = apperr.Invalid("payment amount does not match the order total")
)
