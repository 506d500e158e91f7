package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dejobratic/cafe/internal/orders/domain"
	"github.com/dejobratic/cafe/internal/orders/ports"
	"github.com/dejobratic/cafe/internal/outbox"
)

// Ledger applies customer claims. The identity memory repository satisfies it.
type Ledger interface {
	Claim(ctx context.Context, userID, coupon string, points int) error
	AdjustPoints(ctx context.Context, userID string, delta int) (int, error)
}

type EventAppender interface {
	Append(ctx context.Context, events ...outbox.Event) error
}

// Repository provides an in-memory store useful for local development and tests.
// A single mutex serializes placements so claims and inserts cannot interleave.
type Repository struct {
	mu      sync.RWMutex
	orders  map[string]domain.Order
	intents map[string]domain.PaymentIntent
	ledger  Ledger
	events  EventAppender
}

func NewRepository(ledger Ledger, events EventAppender) *Repository {
	return &Repository{
		orders:  make(map[string]domain.Order),
		intents: make(map[string]domain.PaymentIntent),
		ledger:  ledger,
		events:  events,
	}
}

func (r *Repository) Place(ctx context.Context, order domain.Order, claims ports.Claims, events []outbox.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkPayment(order, claims.Payment); err != nil {
		return err
	}

	if !claims.Empty() {
		if err := r.ledger.Claim(ctx, claims.UserID, claims.CouponCode, claims.Points); err != nil {
			return err
		}
	}

	if claims.Payment != nil {
		intent := r.intents[claims.Payment.GatewayOrderID]
		intent.OrderID = order.ID
		r.intents[intent.GatewayOrderID] = intent
	}

	order.Version = 1
	r.orders[order.ID] = clone(order)
	return r.events.Append(ctx, events...)
}

// checkPayment mirrors the gateway_payments claim and the unique payment id
// index of the SQL store.
func (r *Repository) checkPayment(order domain.Order, claim *ports.PaymentClaim) error {
	if claim != nil {
		intent, ok := r.intents[claim.GatewayOrderID]
		switch {
		case !ok:
			return ports.ErrPaymentNotVerified
		case intent.Used():
			return ports.ErrPaymentAlreadyUsed
		case intent.Amount != claim.Amount:
			return ports.ErrPaymentAmountMismatch
		}
	}
	if order.PaymentResult == nil {
		return nil
	}
	for _, existing := range r.orders {
		if existing.PaymentResult != nil && existing.PaymentResult.GatewayPaymentID == order.PaymentResult.GatewayPaymentID {
			return ports.ErrPaymentAlreadyUsed
		}
	}
	return nil
}

func (r *Repository) SavePaymentIntent(_ context.Context, intent domain.PaymentIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.intents[intent.GatewayOrderID]; exists {
		return ports.ErrPaymentAlreadyUsed
	}
	r.intents[intent.GatewayOrderID] = intent
	return nil
}

func (r *Repository) GetPaymentIntent(_ context.Context, gatewayOrderID string) (*domain.PaymentIntent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	intent, ok := r.intents[gatewayOrderID]
	if !ok {
		return nil, ports.ErrPaymentIntentNotFound
	}
	return &intent, nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	found := clone(order)
	return &found, nil
}

// List returns orders newest first. Pagination is 1-based.
func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Order
	for _, order := range r.orders {
		if filter.UserID != "" && order.UserID != filter.UserID {
			continue
		}
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		result = append(result, clone(order))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	start := (page - 1) * pageSize
	if start >= len(result) {
		return []domain.Order{}, nil
	}
	end := min(start+pageSize, len(result))
	return result[start:end], nil
}

func (r *Repository) UpdateStatus(ctx context.Context, order domain.Order, award int, events []outbox.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[order.ID]
	if !ok {
		return ports.ErrNotFound
	}
	if current.Version != order.Version {
		return ports.ErrConcurrentUpdate
	}

	if award > 0 && order.UserID != "" {
		if _, err := r.ledger.AdjustPoints(ctx, order.UserID, award); err != nil {
			return err
		}
	}

	order.Version++
	r.orders[order.ID] = clone(order)
	return r.events.Append(ctx, events...)
}

func (r *Repository) ListBetween(_ context.Context, from, to time.Time) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Order
	for _, order := range r.orders {
		if order.CreatedAt.Before(from) || !order.CreatedAt.Before(to) {
			continue
		}
		result = append(result, clone(order))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func clone(order domain.Order) domain.Order {
	order.Items = append([]domain.LineItem(nil), order.Items...)
	if order.PaymentResult != nil {
		result := *order.PaymentResult
		order.PaymentResult = &result
	}
	return order
}
