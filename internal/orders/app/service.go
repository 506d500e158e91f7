package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dejobratic/cafe/internal/apperr"
	"github.com/dejobratic/cafe/internal/idempotency"
	"github.com/dejobratic/cafe/internal/orders/app/commands"
	"github.com/dejobratic/cafe/internal/orders/app/queries"
	"github.com/dejobratic/cafe/internal/orders/domain"
	"github.com/dejobratic/cafe/internal/orders/metrics"
	"github.com/dejobratic/cafe/internal/orders/ports"
	"github.com/dejobratic/cafe/internal/payment"
)

var (
	ErrGatewayNotConfigured = apperr.Unavailable("online payment is not configured")
	ErrGatewayFailed        = apperr.Unavailable("payment gateway is unavailable, try again later")
)

type Dependencies struct {
	Repository       ports.OrderRepository
	Catalog          ports.Catalog
	Customers        ports.Customers
	Coupons          ports.Coupons
	Settings         ports.Settings
	Gateway          ports.Gateway
	Idempotency      idempotency.Store
	PointsPerHundred int
	Logger           *slog.Logger
	Metrics          *metrics.Metrics
}

// Service bundles use cases for handling orders via the API.
type Service struct {
	repo         ports.OrderRepository
	settings     ports.Settings
	gateway      ports.Gateway
	idemStore    idempotency.Store
	quote        *commands.PlaceOrderCommandHandler
	placeOrder   commands.CommandHandler
	updateStatus commands.StatusHandler
	getOrder     *queries.GetOrderQueryHandler
	listOrders   *queries.ListOrdersQueryHandler
}

// NewService wires required dependencies.
func NewService(deps Dependencies) *Service {
	place := commands.NewPlaceOrderCommandHandler(deps.Repository, deps.Catalog, deps.Customers, deps.Coupons, deps.Settings)
	status := commands.NewUpdateStatusCommandHandler(deps.Repository, deps.PointsPerHundred)

	return &Service{
		repo:         deps.Repository,
		settings:     deps.Settings,
		gateway:      deps.Gateway,
		idemStore:    deps.Idempotency,
		quote:        place,
		placeOrder:   commands.NewObservableCommandHandler(place, deps.Logger, deps.Metrics),
		updateStatus: commands.NewObservableStatusHandler(status, deps.Logger, deps.Metrics),
		getOrder:     queries.NewGetOrderQueryHandler(deps.Repository),
		listOrders:   queries.NewListOrdersQueryHandler(deps.Repository),
	}
}

// PlaceOrderInput captures the checkout payload.
type PlaceOrderInput struct {
	Email           string                 `json:"email"`
	Items           []commands.ItemRequest `json:"items"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
	Payment         *commands.PaymentProof `json:"payment"`
	CouponCode      string                 `json:"coupon_code"`
	RedeemPoints    bool                   `json:"redeem_points"`
}

// PlaceOrder prices, validates and persists an order for actor. Guests pass
// an empty actor and must supply an email.
func (s *Service) PlaceOrder(ctx context.Context, actor queries.Actor, input PlaceOrderInput) (*domain.Order, error) {
	return s.placeOrder.Handle(ctx, input.command(actor))
}

func (input PlaceOrderInput) command(actor queries.Actor) commands.PlaceOrderCommand {
	return commands.PlaceOrderCommand{
		UserID:          actor.UserID,
		Email:           input.Email,
		Items:           input.Items,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		Payment:         input.Payment,
		CouponCode:      input.CouponCode,
		RedeemPoints:    input.RedeemPoints,
	}
}

func (s *Service) GetOrder(ctx context.Context, actor queries.Actor, id string) (*domain.Order, error) {
	return s.getOrder.Handle(ctx, queries.GetOrderQuery{OrderID: id, Actor: actor})
}

func (s *Service) ListMine(ctx context.Context, actor queries.Actor, page, pageSize int) ([]domain.Order, error) {
	return s.listOrders.Handle(ctx, queries.ListOrdersQuery{Actor: actor, Page: page, PageSize: pageSize})
}

func (s *Service) ListAll(ctx context.Context, actor queries.Actor, status *domain.Status, page, pageSize int) ([]domain.Order, error) {
	return s.listOrders.Handle(ctx, queries.ListOrdersQuery{
		Actor:    actor,
		All:      true,
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
}

// UpdateStatus applies an admin status change.
func (s *Service) UpdateStatus(ctx context.Context, actor queries.Actor, id, status string) (*commands.StatusChange, error) {
	if !actor.Admin {
		return nil, apperr.Forbidden("admin access required")
	}
	return s.updateStatus.Handle(ctx, commands.UpdateStatusCommand{OrderID: id, Status: status, ActorID: actor.UserID})
}

// GatewayCheckout is what the storefront needs to open the gateway's
// payment widget.
type GatewayCheckout struct {
	GatewayOrderID string          `json:"gateway_order_id"`
	Amount         int64           `json:"amount"`
	Currency       string          `json:"currency"`
	Total          decimal.Decimal `json:"total"`
	KeyID          string          `json:"key_id"`
}

// CreateGatewayOrder prices the checkout in input for actor and opens a
// gateway order for exactly its total. The amount is never taken from the
// client. Placing the order later requires a proof for this gateway order
// with an unchanged total.
func (s *Service) CreateGatewayOrder(ctx context.Context, actor queries.Actor, input PlaceOrderInput) (*GatewayCheckout, error) {
	settings, err := s.settings.PaymentSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load payment settings: %w", err)
	}
	if !settings.GatewayEnabled {
		return nil, ports.ErrGatewayDisabled
	}

	input.PaymentMethod = string(domain.PaymentGateway)
	input.Payment = nil
	order, err := s.quote.Quote(ctx, input.command(actor))
	if err != nil {
		return nil, err
	}
	if !order.Total.IsPositive() {
		return nil, apperr.Invalid("order total must be positive for online payment")
	}
	amount, err := payment.MinorUnits(order.Total)
	if err != nil {
		return nil, apperr.Invalid(err.Error())
	}

	remote, err := s.gateway.CreateOrder(ctx,
		payment.Credentials{KeyID: settings.GatewayKeyID, KeySecret: settings.GatewayKeySecret},
		payment.CreateOrderRequest{Amount: amount, Currency: settings.Currency, Receipt: "rcpt_" + uuid.NewString()[:8]},
	)
	if err != nil {
		return nil, gatewayError(err)
	}

	intent := domain.PaymentIntent{
		GatewayOrderID: remote.ID,
		UserID:         order.UserID,
		Amount:         amount,
		Currency:       settings.Currency,
		CreatedAt:      order.CreatedAt,
	}
	if err := s.repo.SavePaymentIntent(ctx, intent); err != nil {
		return nil, fmt.Errorf("save payment intent: %w", err)
	}

	return &GatewayCheckout{
		GatewayOrderID: remote.ID,
		Amount:         amount,
		Currency:       settings.Currency,
		Total:          order.Total,
		KeyID:          settings.GatewayKeyID,
	}, nil
}

func gatewayError(err error) error {
	switch {
	case errors.Is(err, payment.ErrMissingCredentials):
		return ErrGatewayNotConfigured
	case errors.Is(err, payment.ErrGatewayUnavailable), errors.Is(err, payment.ErrGatewayRejected):
		return fmt.Errorf("%w: %w", ErrGatewayFailed, err)
	default:
		return err
	}
}

// ReserveIdempotencyKey claims key for one in-flight request. It reports
// false when another request already holds or answered the key.
func (s *Service) ReserveIdempotencyKey(ctx context.Context, key string) (bool, error) {
	return s.idemStore.Reserve(ctx, key)
}

// ReleaseIdempotencyKey frees a reservation whose request failed.
func (s *Service) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return s.idemStore.Release(ctx, key)
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response idempotency.Response) error {
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*idempotency.Response, error) {
	return s.idemStore.Get(ctx, key)
}
