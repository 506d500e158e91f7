package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dejobratic/cafe/internal/catalog/domain"
	"github.com/dejobratic/cafe/internal/catalog/ports"
)

// Repository keeps products and reviews in memory.
type Repository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	reviews  map[string][]domain.Review
}

func NewRepository() *Repository {
	return &Repository{
		products: make(map[string]domain.Product),
		reviews:  make(map[string][]domain.Review),
	}
}

func (r *Repository) Create(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = product
	return nil
}

func (r *Repository) Update(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.products[product.ID]
	if !ok {
		return ports.ErrNotFound
	}
	product.RatingAverage = current.RatingAverage
	product.RatingCount = current.RatingCount
	r.products[product.ID] = product
	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &product, nil
}

func (r *Repository) GetMany(_ context.Context, ids []string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Product
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if product, ok := r.products[id]; ok {
			result = append(result, product)
		}
	}
	return result, nil
}

func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var result []domain.Product
	for _, p := range r.products {
		if p.Archived && !filter.IncludeArchived {
			continue
		}
		if filter.Category != nil && p.Category != *filter.Category {
			continue
		}
		if filter.BestSellerOnly && !p.BestSeller {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	start := (page - 1) * pageSize
	if start >= len(result) {
		return []domain.Product{}, nil
	}
	end := min(start+pageSize, len(result))

	return append([]domain.Product(nil), result[start:end]...), nil
}

func (r *Repository) AddReview(_ context.Context, review domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[review.ProductID]
	if !ok {
		return ports.ErrNotFound
	}
	for _, existing := range r.reviews[review.ProductID] {
		if existing.UserID == review.UserID {
			return ports.ErrDuplicateReview
		}
	}

	r.reviews[review.ProductID] = append(r.reviews[review.ProductID], review)
	product.RatingAverage, product.RatingCount = domain.AddRating(product.RatingAverage, product.RatingCount, review.Rating)
	r.products[product.ID] = product
	return nil
}

func (r *Repository) ListReviews(_ context.Context, productID string) ([]domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reviews := append([]domain.Review(nil), r.reviews[productID]...)
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
