package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dejobratic/cafe/internal/apperr"
	"github.com/dejobratic/cafe/internal/catalog/domain"
	"github.com/dejobratic/cafe/internal/catalog/ports"
)

// Service exposes the catalog use cases.
type Service struct {
	repo  ports.ProductRepository
	users ports.UserDirectory
	now   func() time.Time
}

func NewService(repo ports.ProductRepository, users ports.UserDirectory) *Service {
	return &Service{
		repo:  repo,
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ProductInput carries the editable fields of a product.
type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	Stock       int             `json:"stock"`
	BestSeller  bool            `json:"best_seller"`
}

func (in ProductInput) apply(p *domain.Product) error {
	category, err := domain.ParseCategory(in.Category)
	if err != nil {
		return apperr.Invalid(err.Error())
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.Price = in.Price
	p.Category = category
	p.ImageURL = strings.TrimSpace(in.ImageURL)
	p.Stock = in.Stock
	p.BestSeller = in.BestSeller

	if err := p.Validate(); err != nil {
		return apperr.Invalid(err.Error())
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	now := s.now()
	product := domain.Product{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := input.apply(&product); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct replaces the editable fields of an existing product.
func (s *Service) UpdateProduct(ctx context.Context, id string, input ProductInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.apply(product); err != nil {
		return nil, err
	}
	product.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, *product); err != nil {
		return nil, err
	}
	return product, nil
}

// ArchiveProduct hides a product from the storefront. Archiving twice is a no-op.
func (s *Service) ArchiveProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Archived {
		return product, nil
	}

	product.Archived = true
	product.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, *product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct returns a product. Archived products are only visible to admins.
func (s *Service) GetProduct(ctx context.Context, id string, includeArchived bool) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Archived && !includeArchived {
		return nil, ports.ErrNotFound
	}
	return product, nil
}

func (s *Service) ListProducts(ctx context.Context, filter ports.ListFilter) ([]domain.Product, error) {
	return s.repo.List(ctx, filter)
}

// ProductsByID returns the requested products keyed by id. Missing ids are absent from the map.
func (s *Service) ProductsByID(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	products, err := s.repo.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

// ProductExists reports whether a purchasable product with id exists.
func (s *Service) ProductExists(ctx context.Context, id string) (bool, error) {
	product, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return product.Purchasable(), nil
}

type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// AddReview records a customer's review and updates the product's rating.
func (s *Service) AddReview(ctx context.Context, productID, userID string, input ReviewInput) (*domain.Review, error) {
	if _, err := s.GetProduct(ctx, productID, false); err != nil {
		return nil, err
	}

	name, err := s.users.DisplayName(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve reviewer: %w", err)
	}

	review := domain.Review{
		ID:        uuid.NewString(),
		ProductID: productID,
		UserID:    userID,
		UserName:  name,
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
		CreatedAt: s.now(),
	}
	if err := review.Validate(); err != nil {
		return nil, apperr.Invalid(err.Error())
	}

	if err := s.repo.AddReview(ctx, review); err != nil {
		return nil, err
	}
	return &review, nil
}

func (s *Service) ListReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	if _, err := s.repo.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListReviews(ctx, productID)
}
