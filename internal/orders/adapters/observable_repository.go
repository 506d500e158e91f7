package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dejobratic/cafe/internal/database"
	"github.com/dejobratic/cafe/internal/orders/domain"
	"github.com/dejobratic/cafe/internal/orders/ports"
	"github.com/dejobratic/cafe/internal/outbox"
	"github.com/dejobratic/cafe/internal/telemetry"
)

const store = "orders"

type ObservableRepository struct {
	repo    ports.OrderRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.OrderRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableRepository) Place(ctx context.Context, order domain.Order, claims ports.Claims, events []outbox.Event) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.Place",
		attribute.String("order.id", order.ID),
		attribute.Bool("claims.coupon", claims.CouponCode != ""),
		attribute.Int("claims.points", claims.Points),
		attribute.Bool("claims.payment", claims.Payment != nil),
		attribute.Int("outbox.events", len(events)),
	)
	defer r.observe(ctx, span, "place_order", time.Now(), &err)

	return r.repo.Place(ctx, order, claims, events)
}

func (r *ObservableRepository) GetByID(ctx context.Context, id string) (_ *domain.Order, err error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.GetByID", attribute.String("order.id", id))
	defer r.observe(ctx, span, "get_order_by_id", time.Now(), &err)

	return r.repo.GetByID(ctx, id)
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) (_ []domain.Order, err error) {
	attrs := []attribute.KeyValue{
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
		attribute.Bool("filter.owner", filter.UserID != ""),
	}
	if filter.Status != nil {
		attrs = append(attrs, attribute.String("filter.status", string(*filter.Status)))
	}
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.List", attrs...)
	defer r.observe(ctx, span, "list_orders", time.Now(), &err)

	orders, err := r.repo.List(ctx, filter)
	telemetry.AddSpanAttributes(span, attribute.Int("result.count", len(orders)))
	return orders, err
}

func (r *ObservableRepository) UpdateStatus(ctx context.Context, order domain.Order, award int, events []outbox.Event) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.UpdateStatus",
		attribute.String("order.id", order.ID),
		attribute.String("order.new_status", string(order.Status)),
		attribute.Int("order.points_awarded", award),
	)
	defer r.observe(ctx, span, "update_order_status", time.Now(), &err)

	return r.repo.UpdateStatus(ctx, order, award, events)
}

func (r *ObservableRepository) ListBetween(ctx context.Context, from, to time.Time) (_ []domain.Order, err error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.ListBetween",
		attribute.String("range.from", from.Format(time.RFC3339)),
		attribute.String("range.to", to.Format(time.RFC3339)),
	)
	defer r.observe(ctx, span, "list_orders_between", time.Now(), &err)

	orders, err := r.repo.ListBetween(ctx, from, to)
	telemetry.AddSpanAttributes(span, attribute.Int("result.count", len(orders)))
	return orders, err
}

func (r *ObservableRepository) SavePaymentIntent(ctx context.Context, intent domain.PaymentIntent) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.SavePaymentIntent",
		attribute.String("payment.gateway_order_id", intent.GatewayOrderID),
		attribute.Int64("payment.amount", intent.Amount),
	)
	defer r.observe(ctx, span, "save_payment_intent", time.Now(), &err)

	return r.repo.SavePaymentIntent(ctx, intent)
}

func (r *ObservableRepository) GetPaymentIntent(ctx context.Context, gatewayOrderID string) (_ *domain.PaymentIntent, err error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.GetPaymentIntent",
		attribute.String("payment.gateway_order_id", gatewayOrderID),
	)
	defer r.observe(ctx, span, "get_payment_intent", time.Now(), &err)

	return r.repo.GetPaymentIntent(ctx, gatewayOrderID)
}

func (r *ObservableRepository) observe(ctx context.Context, span trace.Span, operation string, started time.Time, err *error) {
	r.metrics.RecordQuery(ctx, store, operation, started, *err)
	telemetry.EndSpan(span, *err)
}
