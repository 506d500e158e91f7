package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dejobratic/cafe/internal/apperr"
	contentdomain "github.com/dejobratic/cafe/internal/content/domain"
	identitydomain "github.com/dejobratic/cafe/internal/identity/domain"
	"github.com/dejobratic/cafe/internal/orders/domain"
	"github.com/dejobratic/cafe/internal/orders/ports"
	"github.com/dejobratic/cafe/internal/payment"
)

type ItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PaymentProof is what the storefront receives from the gateway checkout.
type PaymentProof struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

type PlaceOrderCommand struct {
	// UserID is empty for guest checkout.
	UserID          string
	Email           string
	Items           []ItemRequest
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
	Payment         *PaymentProof
	CouponCode      string
	RedeemPoints    bool
}

func (c PlaceOrderCommand) Validate() error {
	if len(c.Items) == 0 {
		return errors.New("at least one item is required")
	}
	for _, item := range c.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return errors.New("product_id is required")
		}
		if item.Quantity <= 0 {
			return errors.New("quantity must be positive")
		}
	}
	if c.UserID == "" && strings.TrimSpace(c.Email) == "" {
		return errors.New("email is required for guest checkout")
	}
	return c.ShippingAddress.Validate()
}

// quantities merges repeated products, keeping first-seen order.
func (c PlaceOrderCommand) quantities() ([]string, map[string]int) {
	ids := make([]string, 0, len(c.Items))
	qty := make(map[string]int, len(c.Items))
	for _, item := range c.Items {
		if _, seen := qty[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		qty[item.ProductID] += item.Quantity
	}
	return ids, qty
}

type CommandHandler interface {
	Handle(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error)
}

type PlaceOrderCommandHandler struct {
	repo      ports.OrderRepository
	catalog   ports.Catalog
	customers ports.Customers
	coupons   ports.Coupons
	settings  ports.Settings
	now       func() time.Time
}

func NewPlaceOrderCommandHandler(
	repo ports.OrderRepository,
	catalog ports.Catalog,
	customers ports.Customers,
	coupons ports.Coupons,
	settings ports.Settings,
) *PlaceOrderCommandHandler {
	return &PlaceOrderCommandHandler{
		repo:      repo,
		catalog:   catalog,
		customers: customers,
		coupons:   coupons,
		settings:  settings,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (h *PlaceOrderCommandHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error) {
	checkout, err := h.price(ctx, cmd)
	if err != nil {
		return nil, err
	}
	order := checkout.order

	claims := ports.Claims{UserID: order.UserID, Points: order.PointsRedeemed}
	if checkout.customer != nil {
		claims.CouponCode = order.CouponCode
	}

	if order.PaymentMethod == domain.PaymentGateway {
		claim, err := h.verifyPayment(ctx, &order, cmd.Payment, checkout.secret)
		if err != nil {
			return nil, err
		}
		claims.Payment = claim
	}

	if err := order.Validate(); err != nil {
		return nil, apperr.Invalid(err.Error())
	}

	events, err := placementEvents(order)
	if err != nil {
		return nil, err
	}

	if err := h.repo.Place(ctx, order, claims, events); err != nil {
		return nil, err
	}

	return &order, nil
}

// Quote prices cmd exactly as Handle would, without checking payment or
// persisting anything.
func (h *PlaceOrderCommandHandler) Quote(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error) {
	checkout, err := h.price(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if err := checkout.order.Validate(); err != nil {
		return nil, apperr.Invalid(err.Error())
	}
	return &checkout.order, nil
}

type pricedCheckout struct {
	order    domain.Order
	customer *identitydomain.User
	// secret is the gateway key secret in effect when the order was priced.
	secret string
}

func (h *PlaceOrderCommandHandler) price(ctx context.Context, cmd PlaceOrderCommand) (*pricedCheckout, error) {
	if err := cmd.Validate(); err != nil {
		return nil, apperr.Invalid(err.Error())
	}

	method, err := domain.ParsePaymentMethod(cmd.PaymentMethod)
	if err != nil {
		return nil, apperr.Invalid(err.Error())
	}
	paymentSettings, err := h.settings.PaymentSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load payment settings: %w", err)
	}
	if !methodEnabled(method, paymentSettings) {
		return nil, ports.ErrPaymentMethodDisabled
	}

	customer, email, err := h.resolveCustomer(ctx, cmd)
	if err != nil {
		return nil, err
	}

	items, err := h.priceItems(ctx, cmd)
	if err != nil {
		return nil, err
	}

	now := h.now()
	order := domain.Order{
		ID:              uuid.NewString(),
		CustomerEmail:   email,
		Items:           items,
		ShippingAddress: cmd.ShippingAddress,
		PaymentMethod:   method,
		Subtotal:        domain.Subtotal(items),
		Discount:        decimal.Zero,
		Status:          domain.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         1,
	}
	if customer != nil {
		order.UserID = customer.ID
	}

	if code := strings.TrimSpace(cmd.CouponCode); code != "" {
		var used []string
		if customer != nil {
			used = customer.UsedCoupons
		}
		quote, err := h.coupons.Validate(ctx, code, order.Subtotal, used)
		if err != nil {
			return nil, err
		}
		order.CouponCode = quote.Code
		order.Discount = quote.Discount
	}

	if cmd.RedeemPoints && customer != nil {
		order.PointsRedeemed = domain.RedeemablePoints(customer.RewardPoints, order.Subtotal, order.Discount)
	}

	if err := h.applyTax(ctx, &order); err != nil {
		return nil, err
	}

	return &pricedCheckout{order: order, customer: customer, secret: paymentSettings.GatewayKeySecret}, nil
}

func (h *PlaceOrderCommandHandler) resolveCustomer(ctx context.Context, cmd PlaceOrderCommand) (*identitydomain.User, string, error) {
	if cmd.UserID == "" {
		email, err := identitydomain.NormalizeEmail(cmd.Email)
		if err != nil {
			return nil, "", apperr.Invalid(err.Error())
		}
		return nil, email, nil
	}

	customer, err := h.customers.GetProfile(ctx, cmd.UserID)
	if err != nil {
		return nil, "", err
	}
	return customer, customer.Email, nil
}

// priceItems snapshots catalog data. Client prices are never trusted.
func (h *PlaceOrderCommandHandler) priceItems(ctx context.Context, cmd PlaceOrderCommand) ([]domain.LineItem, error) {
	ids, qty := cmd.quantities()

	products, err := h.catalog.ProductsByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	items := make([]domain.LineItem, 0, len(ids))
	for _, id := range ids {
		product, ok := products[id]
		if !ok || !product.Purchasable() {
			return nil, ports.ErrProductUnavailable
		}
		items = append(items, domain.LineItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  qty[id],
			ImageURL:  product.ImageURL,
		})
	}
	return items, nil
}

func (h *PlaceOrderCommandHandler) applyTax(ctx context.Context, order *domain.Order) error {
	taxSettings, err := h.settings.TaxSettings(ctx)
	if err != nil {
		return fmt.Errorf("load tax settings: %w", err)
	}

	base := order.Subtotal.
		Sub(order.Discount).
		Sub(decimal.NewFromInt(int64(order.PointsRedeemed)))
	if base.IsNegative() {
		base = decimal.Zero
	}
	order.Tax, order.Total = taxSettings.Apply(base)
	return nil
}

// verifyPayment accepts a proof only for an unused intent that was opened by
// the same customer for exactly the order total.
func (h *PlaceOrderCommandHandler) verifyPayment(ctx context.Context, order *domain.Order, proof *PaymentProof, secret string) (*ports.PaymentClaim, error) {
	if secret == "" || proof == nil || proof.GatewayOrderID == "" || proof.GatewayPaymentID == "" {
		return nil, ports.ErrPaymentNotVerified
	}
	if err := payment.VerifySignature(proof.GatewayOrderID, proof.GatewayPaymentID, proof.Signature, secret); err != nil {
		return nil, ports.ErrPaymentNotVerified
	}

	intent, err := h.repo.GetPaymentIntent(ctx, proof.GatewayOrderID)
	if err != nil {
		if errors.Is(err, ports.ErrPaymentIntentNotFound) {
			return nil, ports.ErrPaymentNotVerified
		}
		return nil, fmt.Errorf("load payment intent: %w", err)
	}
	if intent.UserID != order.UserID {
		return nil, ports.ErrPaymentNotVerified
	}
	if intent.Used() {
		return nil, ports.ErrPaymentAlreadyUsed
	}
	total, err := payment.MinorUnits(order.Total)
	if err != nil {
		return nil, apperr.Invalid(err.Error())
	}
	if total != intent.Amount {
		return nil, ports.ErrPaymentAmountMismatch
	}

	paidAt := order.CreatedAt
	order.IsPaid = true
	order.PaidAt = &paidAt
	order.PaymentResult = &domain.PaymentResult{
		GatewayOrderID:   proof.GatewayOrderID,
		GatewayPaymentID: proof.GatewayPaymentID,
		Signature:        proof.Signature,
		Status:           "captured",
		PaidAt:           &paidAt,
	}
	return &ports.PaymentClaim{GatewayOrderID: intent.GatewayOrderID, Amount: intent.Amount}, nil
}

func methodEnabled(method domain.PaymentMethod, settings contentdomain.PaymentSettings) bool {
	switch method {
	case domain.PaymentCOD:
		return settings.CODEnabled
	case domain.PaymentGateway:
		return settings.GatewayEnabled
	default:
		return false
	}
}
