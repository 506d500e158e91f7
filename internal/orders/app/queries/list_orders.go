package queries

import (
	"context"

	"github.com/dejobratic/cafe/internal/apperr"
	"github.com/dejobratic/cafe/internal/orders/domain"
	"github.com/dejobratic/cafe/internal/orders/ports"
)

// ListOrdersQuery lists the actor's own orders, or every order for admins
// asking for All.
type ListOrdersQuery struct {
	Actor    Actor
	All      bool
	Status   *domain.Status
	Page     int
	PageSize int
}

type ListOrdersQueryHandler struct {
	repo ports.OrderRepository
}

func NewListOrdersQueryHandler(repo ports.OrderRepository) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{repo: repo}
}

func (h *ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error) {
	filter := ports.ListFilter{
		Status:   query.Status,
		Page:     query.Page,
		PageSize: min(query.PageSize, 100),
	}

	switch {
	case query.All && query.Actor.Admin:
	case query.All:
		return nil, apperr.Forbidden("admin access required")
	case query.Actor.UserID == "":
		return nil, apperr.Unauthorized("authentication required")
	default:
		filter.UserID = query.Actor.UserID
	}

	return h.repo.List(ctx, filter)
}
