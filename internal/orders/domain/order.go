package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status captures the lifecycle of an order. Admins may move an order from
// any status to any other.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	switch status {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("unknown order status %q", value)
	}
}

type PaymentMethod string

const (
	PaymentCOD     PaymentMethod = "cod"
	PaymentGateway PaymentMethod = "gateway"
)

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	method := PaymentMethod(strings.ToLower(strings.TrimSpace(value)))
	switch method {
	case PaymentCOD, PaymentGateway:
		return method, nil
	default:
		return "", fmt.Errorf("unknown payment method %q", value)
	}
}

// LineItem is a product snapshot taken at placement. Later catalog edits do
// not change it.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"image_url"`
}

func (l LineItem) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type ShippingAddress struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

func (a ShippingAddress) Validate() error {
	switch {
	case strings.TrimSpace(a.Line1) == "":
		return errors.New("shipping_address.line1 is required")
	case strings.TrimSpace(a.City) == "":
		return errors.New("shipping_address.city is required")
	case strings.TrimSpace(a.PostalCode) == "":
		return errors.New("shipping_address.postal_code is required")
	case strings.TrimSpace(a.Country) == "":
		return errors.New("shipping_address.country is required")
	}
	return nil
}

// PaymentResult holds the verified gateway identifiers of a paid order.
type PaymentResult struct {
	GatewayOrderID   string     `json:"gateway_order_id"`
	GatewayPaymentID string     `json:"gateway_payment_id"`
	Signature        string     `json:"signature"`
	Status           string     `json:"status"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
}

// PaymentIntent is a gateway order opened for one priced checkout. Amount is
// in minor currency units. The first order placed against it sets OrderID and
// no other order may use it afterwards.
type PaymentIntent struct {
	GatewayOrderID string
	UserID         string
	Amount         int64
	Currency       string
	OrderID        string
	CreatedAt      time.Time
}

func (p PaymentIntent) Used() bool {
	return p.OrderID != ""
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id,omitempty"`
	CustomerEmail   string          `json:"customer_email"`
	Items           []LineItem      `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentResult   *PaymentResult  `json:"payment_result,omitempty"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	PointsRedeemed  int             `json:"points_redeemed"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	IsPaid          bool            `json:"is_paid"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	IsDelivered     bool            `json:"is_delivered"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	Status          Status          `json:"status"`
	PointsAwarded   bool            `json:"points_awarded"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	// Version guards status updates against concurrent writers.
	Version         int             `json:"-"`
}

func (o Order) IsGuest() bool {
	return o.UserID == ""
}

func (o Order) Validate() error {
	if len(o.Items) == 0 {
		return errors.New("at least one item is required")
	}
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("quantity for %s must be positive", item.ProductID)
		}
	}
	if o.IsGuest() && strings.TrimSpace(o.CustomerEmail) == "" {
		return errors.New("customer_email is required for guest checkout")
	}
	if err := o.ShippingAddress.Validate(); err != nil {
		return err
	}
	if o.Total.IsNegative() {
		return errors.New("total must not be negative")
	}
	return nil
}

// Subtotal sums price times quantity over items.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Total())
	}
	return sum
}

// RedeemablePoints is how many points a customer with balance may spend on
// an order. One point is worth one currency unit and only whole units of the
// discounted subtotal can be covered.
func RedeemablePoints(balance int, subtotal, discount decimal.Decimal) int {
	if balance <= 0 {
		return 0
	}
	coverable := subtotal.Sub(discount).Floor()
	if !coverable.IsPositive() {
		return 0
	}
	if coverable.LessThan(decimal.NewFromInt(int64(balance))) {
		return int(coverable.IntPart())
	}
	return balance
}

// PointsFor returns floor(total/100) × perHundred.
func PointsFor(total decimal.Decimal, perHundred int) int {
	if !total.IsPositive() || perHundred <= 0 {
		return 0
	}
	hundreds := total.Div(decimal.NewFromInt(100)).Floor().IntPart()
	return int(hundreds) * perHundred
}

// SetStatus moves the order to status. Reaching Delivered the first time
// stamps the delivery, settles cash-on-delivery payment and returns the
// points to award to a registered customer. Later calls return zero.
func (o *Order) SetStatus(status Status, now time.Time, perHundred int) int {
	o.Status = status
	o.UpdatedAt = now
	if status != StatusDelivered {
		return 0
	}

	if !o.IsDelivered {
		o.IsDelivered = true
		o.DeliveredAt = &now
	}
	if !o.IsPaid && o.PaymentMethod == PaymentCOD {
		o.IsPaid = true
		o.PaidAt = &now
	}
	if o.PointsAwarded || o.IsGuest() {
		return 0
	}

	points := PointsFor(o.Total, perHundred)
	o.PointsAwarded = true
	return points
}
