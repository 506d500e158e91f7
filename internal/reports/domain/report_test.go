package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordersdomain "github.com/dejobratic/cafe/internal/orders/domain"
	"github.com/dejobratic/cafe/internal/reports/domain"
)

var day1 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func order(status ordersdomain.Status, paid bool, total string, created time.Time, items ...ordersdomain.LineItem) ordersdomain.Order {
	return ordersdomain.Order{
		UserID:    "user-1",
		Status:    status,
		IsPaid:    paid,
		Total:     decimal.RequireFromString(total),
		Discount:  decimal.Zero,
		Tax:       decimal.Zero,
		CreatedAt: created,
		Items:     items,
	}
}

func item(id string, price string, qty int) ordersdomain.LineItem {
	return ordersdomain.LineItem{ProductID: id, Name: id, Price: decimal.RequireFromString(price), Quantity: qty}
}

func window() domain.Range {
	return domain.Range{From: day1.Truncate(24 * time.Hour), To: day1.Truncate(24 * time.Hour).AddDate(0, 0, 3)}
}

func TestCountsAsRevenue(t *testing.T) {
	tests := []struct {
		name  string
		order ordersdomain.Order
		want  bool
	}{
		{name: "unpaid pending", order: order(ordersdomain.StatusPending, false, "10", day1), want: false},
		{name: "paid pending", order: order(ordersdomain.StatusPending, true, "10", day1), want: true},
		{name: "paid but cancelled", order: order(ordersdomain.StatusCancelled, true, "10", day1), want: false},
		{
			name:  "delivered",
			order: ordersdomain.Order{Status: ordersdomain.StatusDelivered, IsDelivered: true},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.CountsAsRevenue(tt.order))
		})
	}
}

func TestSummarize(t *testing.T) {
	guest := order(ordersdomain.StatusShipped, true, "30", day1)
	guest.UserID = ""
	orders := []ordersdomain.Order{
		order(ordersdomain.StatusDelivered, true, "100", day1),
		order(ordersdomain.StatusPending, false, "55", day1),
		order(ordersdomain.StatusCancelled, true, "70", day1),
		guest,
	}

	summary := domain.Summarize(window(), orders)

	assert.Equal(t, 4, summary.OrderCount)
	assert.Equal(t, 2, summary.RevenueOrders)
	assert.Equal(t, 1, summary.GuestOrders)
	assert.True(t, summary.Revenue.Equal(decimal.NewFromInt(130)), summary.Revenue.String())
	assert.True(t, summary.AverageOrderValue.Equal(decimal.NewFromInt(65)), summary.AverageOrderValue.String())
	assert.Equal(t, 1, summary.ByStatus[ordersdomain.StatusCancelled])
	assert.Equal(t, 1, summary.ByStatus[ordersdomain.StatusPending])

	empty := domain.Summarize(window(), nil)
	assert.True(t, empty.AverageOrderValue.IsZero())
	assert.Zero(t, empty.OrderCount)
}

func TestRevenueByDay(t *testing.T) {
	orders := []ordersdomain.Order{
		order(ordersdomain.StatusDelivered, true, "10", day1),
		order(ordersdomain.StatusDelivered, true, "15", day1.Add(3*time.Hour)),
		order(ordersdomain.StatusPending, false, "99", day1.AddDate(0, 0, 1)),
		order(ordersdomain.StatusShipped, true, "40", day1.AddDate(0, 0, 2)),
	}

	days := domain.RevenueByDay(window(), orders)

	require.Len(t, days, 3)
	assert.Equal(t, "2026-03-01", days[0].Date)
	assert.Equal(t, 2, days[0].Orders)
	assert.True(t, days[0].Revenue.Equal(decimal.NewFromInt(25)))
	assert.Zero(t, days[1].Orders)
	assert.True(t, days[1].Revenue.IsZero())
	assert.True(t, days[2].Revenue.Equal(decimal.NewFromInt(40)))
}

func TestRankProducts(t *testing.T) {
	orders := []ordersdomain.Order{
		order(ordersdomain.StatusDelivered, true, "0", day1, item("latte", "4.50", 2), item("scone", "3", 1)),
		order(ordersdomain.StatusShipped, true, "0", day1, item("latte", "4.50", 1), item("beans", "20", 1)),
		order(ordersdomain.StatusPending, false, "0", day1, item("scone", "3", 50)),
	}

	ranked := domain.RankProducts(orders, 0)
	require.Len(t, ranked, 3)
	assert.Equal(t, "beans", ranked[0].ProductID)
	assert.Equal(t, "latte", ranked[1].ProductID)
	assert.Equal(t, 3, ranked[1].Quantity)
	assert.True(t, ranked[1].Revenue.Equal(decimal.RequireFromString("13.50")))
	assert.Equal(t, 1, ranked[2].Quantity, "unpaid orders are ignored")

	assert.Len(t, domain.RankProducts(orders, 2), 2)
}

func TestParseRange(t *testing.T) {
	now := time.Date(2026, 3, 31, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		from, to string
		wantFrom string
		wantTo   string
		wantErr  bool
	}{
		{name: "defaults to last thirty days", wantFrom: "2026-03-02", wantTo: "2026-04-01"},
		{name: "explicit bounds include to", from: "2026-01-01", to: "2026-01-31", wantFrom: "2026-01-01", wantTo: "2026-02-01"},
		{name: "single day", from: "2026-02-10", to: "2026-02-10", wantFrom: "2026-02-10", wantTo: "2026-02-11"},
		{name: "reversed", from: "2026-02-10", to: "2026-02-01", wantErr: true},
		{name: "too long", from: "2024-01-01", to: "2026-01-01", wantErr: true},
		{name: "bad date", from: "March", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseRange(tt.from, tt.to, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, got.From.Format("2006-01-02"))
			assert.Equal(t, tt.wantTo, got.To.Format("2006-01-02"))
		})
	}
}
