package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/cafe/internal/apperr"
	"github.com/dejobratic/cafe/internal/orders/adapters/memory"
	"github.com/dejobratic/cafe/internal/orders/app/queries"
	"github.com/dejobratic/cafe/internal/orders/domain"
	"github.com/dejobratic/cafe/internal/orders/ports"
	outboxmemory "github.com/dejobratic/cafe/internal/outbox/memory"
)

func seed(t *testing.T, repo *memory.Repository, id, userID string, createdAt time.Time) domain.Order {
	t.Helper()
	order := domain.Order{
		ID:            id,
		UserID:        userID,
		CustomerEmail: "someone@example.com",
		Items:         []domain.LineItem{{ProductID: "p1", Name: "Mocha", Price: decimal.NewFromInt(5), Quantity: 1}},
		Total:         decimal.NewFromInt(5),
		Status:        domain.StatusPending,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	if err := repo.Place(context.Background(), order, ports.Claims{}, nil); err != nil {
		t.Fatalf("failed to seed order: %v", err)
	}
	return order
}

func TestGetOrder(t *testing.T) {
	repo := memory.NewRepository(nil, outboxmemory.NewStore())
	handler := queries.NewGetOrderQueryHandler(repo)
	ctx := context.Background()
	now := time.Now().UTC()

	seed(t, repo, "owned", "user-1", now)
	seed(t, repo, "guest", "", now)

	tests := []struct {
		name    string
		query   queries.GetOrderQuery
		wantErr error
	}{
		{name: "owner reads own order", query: queries.GetOrderQuery{OrderID: "owned", Actor: queries.Actor{UserID: "user-1"}}},
		{name: "admin reads any order", query: queries.GetOrderQuery{OrderID: "owned", Actor: queries.Actor{UserID: "admin", Admin: true}}},
		{name: "other customer gets not found", query: queries.GetOrderQuery{OrderID: "owned", Actor: queries.Actor{UserID: "user-2"}}, wantErr: ports.ErrNotFound},
		{name: "anonymous caller gets not found", query: queries.GetOrderQuery{OrderID: "owned"}, wantErr: ports.ErrNotFound},
		{name: "guest order readable by id", query: queries.GetOrderQuery{OrderID: "guest"}},
		{name: "missing order", query: queries.GetOrderQuery{OrderID: "nope", Actor: queries.Actor{Admin: true}}, wantErr: ports.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := handler.Handle(ctx, tt.query)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if order.ID != tt.query.OrderID {
				t.Errorf("expected order %s, got %s", tt.query.OrderID, order.ID)
			}
		})
	}

	t.Run("rejects empty id", func(t *testing.T) {
		_, err := handler.Handle(ctx, queries.GetOrderQuery{OrderID: "  "})
		if apperr.KindOf(err) != apperr.KindInvalid {
			t.Errorf("expected invalid error, got %v", err)
		}
	})
}

func TestListOrders(t *testing.T) {
	repo := memory.NewRepository(nil, outboxmemory.NewStore())
	handler := queries.NewListOrdersQueryHandler(repo)
	ctx := context.Background()
	now := time.Now().UTC()

	seed(t, repo, "a", "user-1", now.Add(-2*time.Minute))
	seed(t, repo, "b", "user-1", now.Add(-time.Minute))
	seed(t, repo, "c", "user-2", now)

	mine, err := handler.Handle(ctx, queries.ListOrdersQuery{Actor: queries.Actor{UserID: "user-1"}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(mine) != 2 || mine[0].ID != "b" {
		t.Errorf("expected own orders newest first, got %+v", mine)
	}

	all, err := handler.Handle(ctx, queries.ListOrdersQuery{Actor: queries.Actor{Admin: true}, All: true, PageSize: 2})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected one page of 2 orders, got %d", len(all))
	}

	if _, err := handler.Handle(ctx, queries.ListOrdersQuery{Actor: queries.Actor{UserID: "user-1"}, All: true}); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("expected forbidden, got %v", err)
	}
}
