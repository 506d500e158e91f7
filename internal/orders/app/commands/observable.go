package commands

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/cafe/internal/orders/domain"
	"github.com/dejobratic/cafe/internal/orders/metrics"
	"github.com/dejobratic/cafe/internal/telemetry"
)

type ObservableCommandHandler struct {
	handler CommandHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCommandHandler(handler CommandHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCommandHandler {
	return &ObservableCommandHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCommandHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error) {
	guest := cmd.UserID == ""
	ctx, span := telemetry.StartSpan(ctx, "PlaceOrderCommand.Handle",
		attribute.Bool("order.guest", guest),
		attribute.Int("order.item_count", len(cmd.Items)),
		attribute.String("order.payment_method", cmd.PaymentMethod),
	)

	start := time.Now()
	var err error
	defer func() {
		o.metrics.RecordOrderPlacementDuration(ctx, time.Since(start).Seconds())
		o.metrics.RecordOrderPlaced(ctx, cmd.PaymentMethod, guest, err == nil)
		telemetry.EndSpan(span, err)
	}()

	o.logger.InfoContext(ctx, "placing order",
		"user_id", cmd.UserID,
		"items", len(cmd.Items),
		"payment_method", cmd.PaymentMethod,
		"coupon", cmd.CouponCode,
	)

	order, err := o.handler.Handle(ctx, cmd)
	if err != nil {
		o.logger.WarnContext(ctx, "failed to place order",
			"error", err,
			"user_id", cmd.UserID,
		)
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.String("order.total", order.Total.StringFixed(2)),
		attribute.Int("order.points_redeemed", order.PointsRedeemed),
	)

	o.logger.InfoContext(ctx, "order placed",
		"order_id", order.ID,
		"total", order.Total.StringFixed(2),
		"paid", order.IsPaid,
	)

	return order, nil
}

type ObservableStatusHandler struct {
	handler StatusHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableStatusHandler(handler StatusHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableStatusHandler {
	return &ObservableStatusHandler{handler: handler, logger: logger, metrics: metrics}
}

func (o *ObservableStatusHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) (_ *StatusChange, err error) {
	ctx, span := telemetry.StartSpan(ctx, "UpdateStatusCommand.Handle",
		attribute.String("order.id", cmd.OrderID),
		attribute.String("order.new_status", cmd.Status),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	change, err := o.handler.Handle(ctx, cmd)
	if err != nil {
		o.logger.WarnContext(ctx, "failed to update order status",
			"error", err,
			"order_id", cmd.OrderID,
			"status", cmd.Status,
		)
		return nil, err
	}

	o.metrics.RecordStatusChange(ctx, string(change.Order.Status), change.PointsAwarded)
	o.logger.InfoContext(ctx, "order status updated",
		"order_id", change.Order.ID,
		"from", change.Previous,
		"to", change.Order.Status,
		"points_awarded", change.PointsAwarded,
		"actor_id", cmd.ActorID,
	)
	return change, nil
}
