package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/cafe/internal/database"
	identityports "github.com/dejobratic/cafe/internal/identity/ports"
	"github.com/dejobratic/cafe/internal/orders/domain"
	"github.com/dejobratic/cafe/internal/orders/ports"
	"github.com/dejobratic/cafe/internal/outbox"
	outboxpg "github.com/dejobratic/cafe/internal/outbox/postgres"
)

const orderColumns = `
	id, user_id, customer_email, items, shipping_address, payment_method, payment_result,
	coupon_code, subtotal, discount, points_redeemed, tax, total, is_paid, paid_at,
	is_delivered, delivered_at, status, points_awarded, version, created_at, updated_at
`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Place runs claims, insert and outbox append in one transaction. The claim
// statements are conditional writes so concurrent placements cannot reuse a
// coupon or overdraw points.
func (r *Repository) Place(ctx context.Context, order domain.Order, claims ports.Claims, events []outbox.Event) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := claim(ctx, tx, claims, order.CreatedAt); err != nil {
			return err
		}

		query := `
			INSERT INTO orders (` + orderColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			        $12, $13, $14, $15, $16, $17, $18, $19, 1, $20, $21)
		`
		_, err := tx.Exec(ctx, query,
			order.ID, nullable(order.UserID), order.CustomerEmail, order.Items, order.ShippingAddress,
			order.PaymentMethod, order.PaymentResult, order.CouponCode, order.Subtotal, order.Discount,
			order.PointsRedeemed, order.Tax, order.Total, order.IsPaid, order.PaidAt,
			order.IsDelivered, order.DeliveredAt, order.Status, order.PointsAwarded,
			order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return ports.ErrPaymentAlreadyUsed
			}
			return fmt.Errorf("insert order: %w", err)
		}

		if err := consumeIntent(ctx, tx, order.ID, claims.Payment); err != nil {
			return err
		}

		return outboxpg.Insert(ctx, tx, events...)
	})
}

// consumeIntent locks the intent row so two placements cannot both see it
// unused.
func consumeIntent(ctx context.Context, q database.Querier, orderID string, claim *ports.PaymentClaim) error {
	if claim == nil {
		return nil
	}

	var (
		amount int64
		usedBy *string
	)
	err := q.QueryRow(ctx, `
		SELECT amount_minor, order_id::text
		FROM gateway_payments
		WHERE gateway_order_id = $1
		FOR UPDATE
	`, claim.GatewayOrderID).Scan(&amount, &usedBy)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ports.ErrPaymentNotVerified
	case err != nil:
		return fmt.Errorf("lock payment intent: %w", err)
	case usedBy != nil:
		return ports.ErrPaymentAlreadyUsed
	case amount != claim.Amount:
		return ports.ErrPaymentAmountMismatch
	}

	if _, err := q.Exec(ctx,
		`UPDATE gateway_payments SET order_id = $2 WHERE gateway_order_id = $1`,
		claim.GatewayOrderID, orderID,
	); err != nil {
		if database.IsUniqueViolation(err) {
			return ports.ErrPaymentAlreadyUsed
		}
		return fmt.Errorf("consume payment intent: %w", err)
	}
	return nil
}

func (r *Repository) SavePaymentIntent(ctx context.Context, intent domain.PaymentIntent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO gateway_payments (gateway_order_id, user_id, amount_minor, currency, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, intent.GatewayOrderID, nullable(intent.UserID), intent.Amount, intent.Currency, intent.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ports.ErrPaymentAlreadyUsed
		}
		return fmt.Errorf("insert payment intent: %w", err)
	}
	return nil
}

func (r *Repository) GetPaymentIntent(ctx context.Context, gatewayOrderID string) (*domain.PaymentIntent, error) {
	var (
		intent  domain.PaymentIntent
		userID  *string
		orderID *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT gateway_order_id, user_id::text, amount_minor, currency, order_id::text, created_at
		FROM gateway_payments
		WHERE gateway_order_id = $1
	`, gatewayOrderID).Scan(&intent.GatewayOrderID, &userID, &intent.Amount, &intent.Currency, &orderID, &intent.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrPaymentIntentNotFound
		}
		return nil, fmt.Errorf("select payment intent: %w", err)
	}
	if userID != nil {
		intent.UserID = *userID
	}
	if orderID != nil {
		intent.OrderID = *orderID
	}
	return &intent, nil
}

func claim(ctx context.Context, q database.Querier, claims ports.Claims, at time.Time) error {
	if claims.Empty() {
		return nil
	}

	if claims.CouponCode != "" {
		result, err := q.Exec(ctx, `
			INSERT INTO user_coupons (user_id, code, used_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, code) DO NOTHING
		`, claims.UserID, claims.CouponCode, at)
		if err != nil {
			return fmt.Errorf("claim coupon: %w", err)
		}
		if result.RowsAffected() == 0 {
			return identityports.ErrCouponAlreadyUsed
		}
	}

	if claims.Points > 0 {
		result, err := q.Exec(ctx, `
			UPDATE users
			SET reward_points = reward_points - $2
			WHERE id = $1 AND reward_points >= $2
		`, claims.UserID, claims.Points)
		if err != nil {
			return fmt.Errorf("redeem points: %w", err)
		}
		if result.RowsAffected() == 0 {
			return identityports.ErrInsufficientPoints
		}
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ports.ErrNotFound
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}
	return &order, nil
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::uuid IS NULL OR user_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	var statusFilter *string
	if filter.Status != nil {
		s := string(*filter.Status)
		statusFilter = &s
	}

	rows, err := r.pool.Query(ctx, query, nullable(filter.UserID), statusFilter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	return collectOrders(rows)
}

// UpdateStatus writes the new status only if nobody else changed the order
// since it was read.
func (r *Repository) UpdateStatus(ctx context.Context, order domain.Order, award int, events []outbox.Event) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE orders
			SET status = $2, is_paid = $3, paid_at = $4, is_delivered = $5, delivered_at = $6,
			    points_awarded = $7, updated_at = $8, version = version + 1
			WHERE id = $1 AND version = $9
		`,
			order.ID, order.Status, order.IsPaid, order.PaidAt, order.IsDelivered, order.DeliveredAt,
			order.PointsAwarded, order.UpdatedAt, order.Version,
		)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ports.ErrConcurrentUpdate
		}

		if award > 0 && order.UserID != "" {
			if _, err := tx.Exec(ctx,
				`UPDATE users SET reward_points = reward_points + $2 WHERE id = $1`,
				order.UserID, award,
			); err != nil {
				return fmt.Errorf("award points: %w", err)
			}
		}

		return outboxpg.Insert(ctx, tx, events...)
	})
}

func (r *Repository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query orders between: %w", err)
	}
	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan orders: %w", err)
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o      domain.Order
		userID *string
	)
	err := row.Scan(
		&o.ID,
		&userID,
		&o.CustomerEmail,
		&o.Items,
		&o.ShippingAddress,
		&o.PaymentMethod,
		&o.PaymentResult,
		&o.CouponCode,
		&o.Subtotal,
		&o.Discount,
		&o.PointsRedeemed,
		&o.Tax,
		&o.Total,
		&o.IsPaid,
		&o.PaidAt,
		&o.IsDelivered,
		&o.DeliveredAt,
		&o.Status,
		&o.PointsAwarded,
		&o.Version,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if userID != nil {
		o.UserID = *userID
	}
	return o, err
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
