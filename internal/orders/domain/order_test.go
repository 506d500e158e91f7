package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/cafe/internal/orders/domain"
)

func validOrder() domain.Order {
	return domain.Order{
		ID:     "order-1",
		UserID: "user-1",
		Items: []domain.LineItem{
			{ProductID: "p1", Name: "Latte", Price: decimal.RequireFromString("4.50"), Quantity: 2},
		},
		ShippingAddress: domain.ShippingAddress{Line1: "1 Bean St", City: "Pune", PostalCode: "411001", Country: "IN"},
		PaymentMethod:   domain.PaymentCOD,
		Total:           decimal.RequireFromString("9.00"),
		Status:          domain.StatusPending,
	}
}

func TestOrderValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *domain.Order)
		wantErr bool
	}{
		{name: "valid order", mutate: func(*domain.Order) {}},
		{name: "no items", mutate: func(o *domain.Order) { o.Items = nil }, wantErr: true},
		{name: "zero quantity", mutate: func(o *domain.Order) { o.Items[0].Quantity = 0 }, wantErr: true},
		{name: "guest without email", mutate: func(o *domain.Order) { o.UserID = "" }, wantErr: true},
		{
			name:   "guest with email",
			mutate: func(o *domain.Order) { o.UserID = ""; o.CustomerEmail = "guest@example.com" },
		},
		{name: "missing city", mutate: func(o *domain.Order) { o.ShippingAddress.City = " " }, wantErr: true},
		{name: "negative total", mutate: func(o *domain.Order) { o.Total = decimal.NewFromInt(-1) }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := validOrder()
			tt.mutate(&order)

			err := order.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubtotal(t *testing.T) {
	items := []domain.LineItem{
		{Price: decimal.RequireFromString("4.50"), Quantity: 2},
		{Price: decimal.RequireFromString("0.99"), Quantity: 3},
	}

	if got := domain.Subtotal(items); !got.Equal(decimal.RequireFromString("11.97")) {
		t.Errorf("expected 11.97, got %s", got)
	}
}

func TestRedeemablePoints(t *testing.T) {
	tests := []struct {
		name     string
		balance  int
		subtotal string
		discount string
		want     int
	}{
		{name: "balance below subtotal", balance: 30, subtotal: "120.00", discount: "0", want: 30},
		{name: "capped by discounted subtotal", balance: 500, subtotal: "120.75", discount: "20.00", want: 100},
		{name: "no balance", balance: 0, subtotal: "50", discount: "0", want: 0},
		{name: "discount covers everything", balance: 40, subtotal: "10", discount: "10", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.RedeemablePoints(tt.balance, decimal.RequireFromString(tt.subtotal), decimal.RequireFromString(tt.discount))
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestPointsFor(t *testing.T) {
	tests := []struct {
		total string
		want  int
	}{
		{total: "99.99", want: 0},
		{total: "100", want: 10},
		{total: "250.50", want: 20},
		{total: "0", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.total, func(t *testing.T) {
			if got := domain.PointsFor(decimal.RequireFromString(tt.total), 10); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestSetStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("delivered awards points once", func(t *testing.T) {
		order := validOrder()
		order.Total = decimal.RequireFromString("250.00")

		if got := order.SetStatus(domain.StatusDelivered, now, 10); got != 20 {
			t.Fatalf("expected 20 points, got %d", got)
		}
		if !order.IsDelivered || order.DeliveredAt == nil || !order.DeliveredAt.Equal(now) {
			t.Error("expected delivery to be stamped")
		}
		if !order.IsPaid {
			t.Error("expected cash on delivery order to be paid")
		}

		order.SetStatus(domain.StatusShipped, now, 10)
		if got := order.SetStatus(domain.StatusDelivered, now.Add(time.Hour), 10); got != 0 {
			t.Errorf("expected no second award, got %d", got)
		}
		if !order.DeliveredAt.Equal(now) {
			t.Error("expected first delivery time to be kept")
		}
	})

	t.Run("guest orders earn nothing", func(t *testing.T) {
		order := validOrder()
		order.UserID = ""
		order.Total = decimal.RequireFromString("500")

		if got := order.SetStatus(domain.StatusDelivered, now, 10); got != 0 {
			t.Errorf("expected 0 points, got %d", got)
		}
	})

	t.Run("other statuses do not deliver", func(t *testing.T) {
		order := validOrder()

		if got := order.SetStatus(domain.StatusCancelled, now, 10); got != 0 {
			t.Errorf("expected 0 points, got %d", got)
		}
		if order.IsDelivered || order.Status != domain.StatusCancelled {
			t.Errorf("unexpected order state: %+v", order)
		}
	})
}

func TestParseStatus(t *testing.T) {
	if got, err := domain.ParseStatus(" Shipped "); err != nil || got != domain.StatusShipped {
		t.Errorf("ParseStatus() = %q, %v", got, err)
	}
	if _, err := domain.ParseStatus("lost"); err == nil {
		t.Error("expected error for unknown status")
	}
}
