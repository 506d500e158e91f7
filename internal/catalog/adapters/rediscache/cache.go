package rediscache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/dejobratic/cafe/internal/catalog/domain"
	"github.com/dejobratic/cafe/internal/catalog/ports"
	"github.com/dejobratic/cafe/internal/telemetry"
)

const (
	productKeyPrefix = "catalog:product:"
	listKeyPrefix    = "catalog:list:"
	listGenKey       = "catalog:list:gen"
)

// CachedRepository is a read-through cache in front of a ProductRepository.
// Product lookups and listings are cached; every write evicts the product and
// bumps the listing generation so stale pages are never served.
type CachedRepository struct {
	next    ports.ProductRepository
	client  *redis.Client
	baseTTL time.Duration
	logger  *slog.Logger
	group   singleflight.Group
}

func NewCachedRepository(next ports.ProductRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	return &CachedRepository{
		next:    next,
		client:  client,
		baseTTL: ttl,
		logger:  logger,
	}
}

func (c *CachedRepository) Create(ctx context.Context, product domain.Product) error {
	if err := c.next.Create(ctx, product); err != nil {
		return err
	}
	c.invalidate(ctx, product.ID)
	return nil
}

func (c *CachedRepository) Update(ctx context.Context, product domain.Product) error {
	if err := c.next.Update(ctx, product); err != nil {
		return err
	}
	c.invalidate(ctx, product.ID)
	return nil
}

func (c *CachedRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	key := productKeyPrefix + id

	var cached domain.Product
	if c.get(ctx, key, &cached) {
		return &cached, nil
	}

	// Waiting callers share one load; it outlives the first caller's context.
	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (any, error) {
		product, err := c.next.GetByID(shared, id)
		if err != nil {
			return nil, err
		}
		c.set(shared, key, product)
		return product, nil
	})
	if err != nil {
		return nil, err
	}

	product := *v.(*domain.Product)
	return &product, nil
}

func (c *CachedRepository) GetMany(ctx context.Context, ids []string) ([]domain.Product, error) {
	return c.next.GetMany(ctx, ids)
}

func (c *CachedRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Product, error) {
	key, err := c.listKey(ctx, filter)
	if err != nil {
		c.logger.WarnContext(ctx, "catalog cache unavailable", slog.String("error", err.Error()))
		return c.next.List(ctx, filter)
	}

	var cached []domain.Product
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (any, error) {
		products, err := c.next.List(shared, filter)
		if err != nil {
			return nil, err
		}
		c.set(shared, key, products)
		return products, nil
	})
	if err != nil {
		return nil, err
	}

	return append([]domain.Product(nil), v.([]domain.Product)...), nil
}

func (c *CachedRepository) AddReview(ctx context.Context, review domain.Review) error {
	if err := c.next.AddReview(ctx, review); err != nil {
		return err
	}
	c.invalidate(ctx, review.ProductID)
	return nil
}

func (c *CachedRepository) ListReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	return c.next.ListReviews(ctx, productID)
}

func (c *CachedRepository) listKey(ctx context.Context, filter ports.ListFilter) (string, error) {
	gen, err := c.client.Get(ctx, listGenKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("read list generation: %w", err)
	}

	raw, err := json.Marshal(filter)
	if err != nil {
		return "", fmt.Errorf("encode list filter: %w", err)
	}
	sum := sha1.Sum(raw)
	return fmt.Sprintf("%s%d:%s", listKeyPrefix, gen, hex.EncodeToString(sum[:])), nil
}

func (c *CachedRepository) get(ctx context.Context, key string, dst any) bool {
	span := trace.SpanFromContext(ctx)
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		telemetry.AddSpanEvent(span, "cache_miss", attribute.String("cache.key", key))
		return false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "catalog cache get failed", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.WarnContext(ctx, "catalog cache entry corrupt", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	telemetry.AddSpanEvent(span, "cache_hit", attribute.String("cache.key", key))
	return true
}

func (c *CachedRepository) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WarnContext(ctx, "catalog cache encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}

	jitter := time.Duration(rand.Int63n(int64(c.baseTTL/5) + 1))
	if err := c.client.Set(ctx, key, data, c.baseTTL+jitter).Err(); err != nil {
		c.logger.WarnContext(ctx, "catalog cache set failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (c *CachedRepository) invalidate(ctx context.Context, productID string) {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, productKeyPrefix+productID)
	pipe.Incr(ctx, listGenKey)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.WarnContext(ctx, "catalog cache invalidation failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}
