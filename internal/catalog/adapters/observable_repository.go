package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dejobratic/cafe/internal/catalog/domain"
	"github.com/dejobratic/cafe/internal/catalog/ports"
	"github.com/dejobratic/cafe/internal/database"
	"github.com/dejobratic/cafe/internal/telemetry"
)

const store = "catalog"

type ObservableRepository struct {
	repo    ports.ProductRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.ProductRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{repo: repo, metrics: metrics}
}

func (r *ObservableRepository) Create(ctx context.Context, product domain.Product) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "ProductRepository.Create", attribute.String("product.id", product.ID))
	defer r.observe(ctx, span, "create_product", time.Now(), &err)

	return r.repo.Create(ctx, product)
}

func (r *ObservableRepository) Update(ctx context.Context, product domain.Product) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "ProductRepository.Update", attribute.String("product.id", product.ID))
	defer r.observe(ctx, span, "update_product", time.Now(), &err)

	return r.repo.Update(ctx, product)
}

func (r *ObservableRepository) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	ctx, span := telemetry.StartSpan(ctx, "ProductRepository.GetByID", attribute.String("product.id", id))
	defer r.observe(ctx, span, "get_product", time.Now(), &err)

	return r.repo.GetByID(ctx, id)
}

func (r *ObservableRepository) GetMany(ctx context.Context, ids []string) (_ []domain.Product, err error) {
	ctx, span := telemetry.StartSpan(ctx, "ProductRepository.GetMany", attribute.Int("product.count", len(ids)))
	defer r.observe(ctx, span, "get_products", time.Now(), &err)

	return r.repo.GetMany(ctx, ids)
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) (_ []domain.Product, err error) {
	attrs := []attribute.KeyValue{
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
		attribute.Bool("filter.best_seller", filter.BestSellerOnly),
	}
	if filter.Category != nil {
		attrs = append(attrs, attribute.String("filter.category", string(*filter.Category)))
	}
	ctx, span := telemetry.StartSpan(ctx, "ProductRepository.List", attrs...)
	defer r.observe(ctx, span, "list_products", time.Now(), &err)

	products, err := r.repo.List(ctx, filter)
	telemetry.AddSpanAttributes(span, attribute.Int("result.count", len(products)))
	return products, err
}

func (r *ObservableRepository) AddReview(ctx context.Context, review domain.Review) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "ProductRepository.AddReview",
		attribute.String("product.id", review.ProductID),
		attribute.Int("review.rating", review.Rating),
	)
	defer r.observe(ctx, span, "add_review", time.Now(), &err)

	return r.repo.AddReview(ctx, review)
}

func (r *ObservableRepository) ListReviews(ctx context.Context, productID string) (_ []domain.Review, err error) {
	ctx, span := telemetry.StartSpan(ctx, "ProductRepository.ListReviews", attribute.String("product.id", productID))
	defer r.observe(ctx, span, "list_reviews", time.Now(), &err)

	return r.repo.ListReviews(ctx, productID)
}

func (r *ObservableRepository) observe(ctx context.Context, span trace.Span, operation string, started time.Time, err *error) {
	r.metrics.RecordQuery(ctx, store, operation, started, *err)
	telemetry.EndSpan(span, *err)
}
