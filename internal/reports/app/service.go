package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	catalogdomain "github.com/dejobratic/cafe/internal/catalog/domain"
	ordersdomain "github.com/dejobratic/cafe/internal/orders/domain"
	"github.com/dejobratic/cafe/internal/reports/domain"
	"github.com/dejobratic/cafe/internal/telemetry"
)

const (
	lookupBatchSize   = 100
	lookupConcurrency = 4
)

type OrderSource interface {
	// ListBetween returns orders created in [from, to).
	ListBetween(ctx context.Context, from, to time.Time) ([]ordersdomain.Order, error)
}

type ProductSource interface {
	ProductsByID(ctx context.Context, ids []string) (map[string]catalogdomain.Product, error)
}

// Service computes reports on read from the order ledger.
type Service struct {
	orders   OrderSource
	products ProductSource
}

func NewService(orders OrderSource, products ProductSource) *Service {
	return &Service{orders: orders, products: products}
}

func (s *Service) SalesSummary(ctx context.Context, window domain.Range) (summary *domain.SalesSummary, err error) {
	ctx, span := telemetry.StartSpan(ctx, "Reports.SalesSummary", rangeAttributes(window)...)
	defer func() { telemetry.EndSpan(span, err) }()

	orders, err := s.load(ctx, window)
	if err != nil {
		return nil, err
	}
	telemetry.AddSpanAttributes(span, attribute.Int("report.orders", len(orders)))

	result := domain.Summarize(window, orders)
	return &result, nil
}

func (s *Service) RevenueByDay(ctx context.Context, window domain.Range) (days []domain.DailyRevenue, err error) {
	ctx, span := telemetry.StartSpan(ctx, "Reports.RevenueByDay", rangeAttributes(window)...)
	defer func() { telemetry.EndSpan(span, err) }()

	orders, err := s.load(ctx, window)
	if err != nil {
		return nil, err
	}
	return domain.RevenueByDay(window, orders), nil
}

// ProductPerformance ranks products by revenue and decorates them with
// current catalog metadata. Products no longer in the catalog keep the name
// captured on the order.
func (s *Service) ProductPerformance(ctx context.Context, window domain.Range, limit int) (ranked []domain.ProductPerformance, err error) {
	ctx, span := telemetry.StartSpan(ctx, "Reports.ProductPerformance", append(rangeAttributes(window), attribute.Int("report.limit", limit))...)
	defer func() { telemetry.EndSpan(span, err) }()

	orders, err := s.load(ctx, window)
	if err != nil {
		return nil, err
	}

	ranked = domain.RankProducts(orders, limit)
	ids := make([]string, len(ranked))
	for i, entry := range ranked {
		ids[i] = entry.ProductID
	}

	products, err := s.lookupProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range ranked {
		if product, ok := products[ranked[i].ProductID]; ok {
			ranked[i].Name = product.Name
			ranked[i].Category = string(product.Category)
		}
	}
	return ranked, nil
}

func (s *Service) load(ctx context.Context, window domain.Range) ([]ordersdomain.Order, error) {
	orders, err := s.orders.ListBetween(ctx, window.From, window.To)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	return orders, nil
}

// lookupProducts fetches ids in batches, several batches at a time.
func (s *Service) lookupProducts(ctx context.Context, ids []string) (map[string]catalogdomain.Product, error) {
	var (
		mu     sync.Mutex
		merged = make(map[string]catalogdomain.Product, len(ids))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for start := 0; start < len(ids); start += lookupBatchSize {
		batch := ids[start:min(start+lookupBatchSize, len(ids))]
		g.Go(func() error {
			products, err := s.products.ProductsByID(ctx, batch)
			if err != nil {
				return fmt.Errorf("load products: %w", err)
			}
			mu.Lock()
			defer mu.Unlock()
			for id, product := range products {
				merged[id] = product
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return merged, nil
}

func rangeAttributes(window domain.Range) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("report.from", window.From.Format("2006-01-02")),
		attribute.String("report.to", window.To.Format("2006-01-02")),
	}
}
