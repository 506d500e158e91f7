package queries

import (
	"context"
	"strings"

	"github.com/dejobratic/cafe/internal/apperr"
	"github.com/dejobratic/cafe/internal/orders/domain"
	"github.com/dejobratic/cafe/internal/orders/ports"
)

// Actor is the caller an order is read for. An empty UserID is an anonymous caller.
type Actor struct {
	UserID string
	Admin  bool
}

// GetOrderQuery represents a request to retrieve an order by its ID.
type GetOrderQuery struct {
	OrderID string
	Actor   Actor
}

// Validate ensures the query has valid parameters.
func (q GetOrderQuery) Validate() error {
	if strings.TrimSpace(q.OrderID) == "" {
		return apperr.Invalid("order_id is required")
	}
	return nil
}

// GetOrderQueryHandler executes GetOrderQuery and returns the order if the
// actor may see it.
type GetOrderQueryHandler struct {
	repo ports.OrderRepository
}

// NewGetOrderQueryHandler constructs a GetOrderQueryHandler.
func NewGetOrderQueryHandler(repo ports.OrderRepository) *GetOrderQueryHandler {
	return &GetOrderQueryHandler{repo: repo}
}

// Handle returns ErrNotFound both for missing orders and for orders owned by
// someone else.
func (h *GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (*domain.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	order, err := h.repo.GetByID(ctx, query.OrderID)
	if err != nil {
		return nil, err
	}

	if !CanView(query.Actor, *order) {
		return nil, ports.ErrNotFound
	}
	return order, nil
}

// CanView reports whether actor may read order. Guest orders are readable by
// anyone holding their id.
func CanView(actor Actor, order domain.Order) bool {
	switch {
	case actor.Admin:
		return true
	case order.IsGuest():
		return true
	default:
		return actor.UserID != "" && actor.UserID == order.UserID
	}
}
