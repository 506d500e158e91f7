// Package domain computes back-office reports from order snapshots.
package domain

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	ordersdomain "github.com/dejobratic/cafe/internal/orders/domain"
)

const (
	dayLayout = "2006-01-02"
	// MaxRangeDays bounds how much history a single report may scan.
	MaxRangeDays = 366
)

// Range is a half-open [From, To) reporting window.
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewRange builds a window from inclusive calendar days. to is moved to the
// start of the following day.
func NewRange(from, to time.Time) (Range, error) {
	from = from.UTC().Truncate(24 * time.Hour)
	end := to.UTC().Truncate(24*time.Hour).AddDate(0, 0, 1)
	if !end.After(from) {
		return Range{}, errors.New("from must not be after to")
	}
	if end.Sub(from) > MaxRangeDays*24*time.Hour {
		return Range{}, errors.New("range must not exceed 366 days")
	}
	return Range{From: from, To: end}, nil
}

// ParseRange reads YYYY-MM-DD bounds. Missing bounds default to the thirty
// days ending today.
func ParseRange(from, to string, now time.Time) (Range, error) {
	end := now.UTC()
	if to != "" {
		parsed, err := time.Parse(dayLayout, to)
		if err != nil {
			return Range{}, errors.New("to must be a date in YYYY-MM-DD format")
		}
		end = parsed
	}

	start := end.AddDate(0, 0, -29)
	if from != "" {
		parsed, err := time.Parse(dayLayout, from)
		if err != nil {
			return Range{}, errors.New("from must be a date in YYYY-MM-DD format")
		}
		start = parsed
	}
	return NewRange(start, end)
}

type SalesSummary struct {
	Range
	OrderCount        int                         `json:"order_count"`
	RevenueOrders     int                         `json:"revenue_orders"`
	Revenue           decimal.Decimal             `json:"revenue"`
	AverageOrderValue decimal.Decimal             `json:"average_order_value"`
	Discounts         decimal.Decimal             `json:"discounts"`
	Tax               decimal.Decimal             `json:"tax"`
	PointsRedeemed    int                         `json:"points_redeemed"`
	GuestOrders       int                         `json:"guest_orders"`
	ByStatus          map[ordersdomain.Status]int `json:"by_status"`
}

type DailyRevenue struct {
	Date    string          `json:"date"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type ProductPerformance struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category,omitempty"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// CountsAsRevenue reports whether order contributes to revenue: it was paid
// or delivered and has not been cancelled.
func CountsAsRevenue(order ordersdomain.Order) bool {
	if order.Status == ordersdomain.StatusCancelled {
		return false
	}
	return order.IsPaid || order.IsDelivered
}

// Summarize reduces orders into a sales summary. Every order is counted in
// the status breakdown; only revenue orders contribute money.
func Summarize(window Range, orders []ordersdomain.Order) SalesSummary {
	summary := SalesSummary{
		Range:             window,
		OrderCount:        len(orders),
		Revenue:           decimal.Zero,
		AverageOrderValue: decimal.Zero,
		Discounts:         decimal.Zero,
		Tax:               decimal.Zero,
		ByStatus:          make(map[ordersdomain.Status]int),
	}

	for _, order := range orders {
		summary.ByStatus[order.Status]++
		if order.IsGuest() {
			summary.GuestOrders++
		}
		if !CountsAsRevenue(order) {
			continue
		}
		summary.RevenueOrders++
		summary.Revenue = summary.Revenue.Add(order.Total)
		summary.Discounts = summary.Discounts.Add(order.Discount)
		summary.Tax = summary.Tax.Add(order.Tax)
		summary.PointsRedeemed += order.PointsRedeemed
	}

	if summary.RevenueOrders > 0 {
		summary.AverageOrderValue = summary.Revenue.
			Div(decimal.NewFromInt(int64(summary.RevenueOrders))).
			Round(2)
	}
	return summary
}

// RevenueByDay buckets revenue orders by UTC creation date. Days without
// revenue inside window are reported with zero values.
func RevenueByDay(window Range, orders []ordersdomain.Order) []DailyRevenue {
	buckets := make(map[string]*DailyRevenue)
	var days []DailyRevenue

	start := window.From.UTC().Truncate(24 * time.Hour)
	for day := start; day.Before(window.To); day = day.AddDate(0, 0, 1) {
		days = append(days, DailyRevenue{Date: day.Format(dayLayout), Revenue: decimal.Zero})
	}
	for i := range days {
		buckets[days[i].Date] = &days[i]
	}

	for _, order := range orders {
		if !CountsAsRevenue(order) {
			continue
		}
		bucket, ok := buckets[order.CreatedAt.UTC().Format(dayLayout)]
		if !ok {
			continue
		}
		bucket.Orders++
		bucket.Revenue = bucket.Revenue.Add(order.Total)
	}
	return days
}

// RankProducts sums quantity and line revenue per product over revenue
// orders and returns the top limit entries by revenue. A limit of zero or
// less returns every product.
func RankProducts(orders []ordersdomain.Order, limit int) []ProductPerformance {
	byID := make(map[string]*ProductPerformance)
	for _, order := range orders {
		if !CountsAsRevenue(order) {
			continue
		}
		for _, item := range order.Items {
			entry, ok := byID[item.ProductID]
			if !ok {
				entry = &ProductPerformance{ProductID: item.ProductID, Name: item.Name, Revenue: decimal.Zero}
				byID[item.ProductID] = entry
			}
			entry.Quantity += item.Quantity
			entry.Revenue = entry.Revenue.Add(item.Total())
		}
	}

	ranked := make([]ProductPerformance, 0, len(byID))
	for _, entry := range byID {
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if c := ranked[i].Revenue.Cmp(ranked[j].Revenue); c != 0 {
			return c > 0
		}
		if ranked[i].Quantity != ranked[j].Quantity {
			return ranked[i].Quantity > ranked[j].Quantity
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
