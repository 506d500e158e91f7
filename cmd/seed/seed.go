package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	catalogapp "github.com/dejobratic/cafe/internal/catalog/app"
	catalogdomain "github.com/dejobratic/cafe/internal/catalog/domain"
	catalogports "github.com/dejobratic/cafe/internal/catalog/ports"
	identityapp "github.com/dejobratic/cafe/internal/identity/app"
	identitydomain "github.com/dejobratic/cafe/internal/identity/domain"
	identityports "github.com/dejobratic/cafe/internal/identity/ports"
	promotionsapp "github.com/dejobratic/cafe/internal/promotions/app"
	promotionsdomain "github.com/dejobratic/cafe/internal/promotions/domain"
	promotionsports "github.com/dejobratic/cafe/internal/promotions/ports"
)

const dateLayout = "2006-01-02"

// File is the layout of a seed document.
type File struct {
	Admin    *Admin    `yaml:"admin"`
	Products []Product `yaml:"products"`
	Offers   []Offer   `yaml:"offers"`
}

type Admin struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type Product struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Category    string `yaml:"category"`
	ImageURL    string `yaml:"image_url"`
	Stock       int    `yaml:"stock"`
	BestSeller  bool   `yaml:"best_seller"`
}

type Offer struct {
	Code          string `yaml:"code"`
	Description   string `yaml:"description"`
	DiscountType  string `yaml:"discount_type"`
	DiscountValue string `yaml:"discount_value"`
	MinOrderValue string `yaml:"min_order_value"`
	ValidUntil    string `yaml:"valid_until"`
	Active        *bool  `yaml:"active"`
}

// LoadFile reads and parses the seed document at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a seed document. Unknown keys are rejected so typos do not
// silently drop data.
func Parse(data []byte) (*File, error) {
	var file File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse seed yaml: %w", err)
	}
	return &file, nil
}

func (p Product) input() (catalogapp.ProductInput, error) {
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return catalogapp.ProductInput{}, fmt.Errorf("product %q: invalid price %q", p.Name, p.Price)
	}
	return catalogapp.ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       price,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
		BestSeller:  p.BestSeller,
	}, nil
}

func (o Offer) input() (promotionsapp.OfferInput, error) {
	value, err := decimal.NewFromString(o.DiscountValue)
	if err != nil {
		return promotionsapp.OfferInput{}, fmt.Errorf("offer %q: invalid discount_value %q", o.Code, o.DiscountValue)
	}
	minimum := decimal.Zero
	if o.MinOrderValue != "" {
		if minimum, err = decimal.NewFromString(o.MinOrderValue); err != nil {
			return promotionsapp.OfferInput{}, fmt.Errorf("offer %q: invalid min_order_value %q", o.Code, o.MinOrderValue)
		}
	}
	validUntil, err := time.Parse(dateLayout, o.ValidUntil)
	if err != nil {
		return promotionsapp.OfferInput{}, fmt.Errorf("offer %q: valid_until must be YYYY-MM-DD", o.Code)
	}
	return promotionsapp.OfferInput{
		Code:          o.Code,
		Description:   o.Description,
		DiscountType:  o.DiscountType,
		DiscountValue: value,
		MinOrderValue: minimum,
		// Offers stay valid through the whole named day.
		ValidUntil: validUntil.Add(24*time.Hour - time.Second),
		Active:     o.Active,
	}, nil
}

type ProductCatalog interface {
	ListProducts(ctx context.Context, filter catalogports.ListFilter) ([]catalogdomain.Product, error)
	CreateProduct(ctx context.Context, input catalogapp.ProductInput) (*catalogdomain.Product, error)
}

type Accounts interface {
	Register(ctx context.Context, input identityapp.RegisterInput) (*identitydomain.User, error)
	SetRole(ctx context.Context, userID, role string) (*identitydomain.User, error)
}

type Offers interface {
	Create(ctx context.Context, input promotionsapp.OfferInput) (*promotionsdomain.Offer, error)
}

type Seeder struct {
	catalog  ProductCatalog
	accounts Accounts
	offers   Offers
	logger   *slog.Logger
}

// Result counts what a run created and what already existed.
type Result struct {
	AdminCreated    bool
	ProductsCreated int
	ProductsSkipped int
	OffersCreated   int
	OffersSkipped   int
}

// Apply creates everything in file that is not already present. Running it
// twice with the same file is a no-op the second time.
func (s *Seeder) Apply(ctx context.Context, file *File) (Result, error) {
	var result Result

	if file.Admin != nil {
		created, err := s.seedAdmin(ctx, *file.Admin)
		if err != nil {
			return result, err
		}
		result.AdminCreated = created
	}

	for _, p := range file.Products {
		created, err := s.seedProduct(ctx, p)
		if err != nil {
			return result, err
		}
		if created {
			result.ProductsCreated++
		} else {
			result.ProductsSkipped++
		}
	}

	for _, o := range file.Offers {
		input, err := o.input()
		if err != nil {
			return result, err
		}
		_, err = s.offers.Create(ctx, input)
		switch {
		case errors.Is(err, promotionsports.ErrDuplicateCode):
			result.OffersSkipped++
		case err != nil:
			return result, fmt.Errorf("create offer %q: %w", o.Code, err)
		default:
			result.OffersCreated++
		}
	}

	return result, nil
}

func (s *Seeder) seedAdmin(ctx context.Context, admin Admin) (bool, error) {
	user, err := s.accounts.Register(ctx, identityapp.RegisterInput{
		Name:     admin.Name,
		Email:    admin.Email,
		Password: admin.Password,
	})
	if errors.Is(err, identityports.ErrEmailTaken) {
		s.logger.InfoContext(ctx, "admin already exists", "email", admin.Email)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("register admin: %w", err)
	}

	if _, err := s.accounts.SetRole(ctx, user.ID, string(identitydomain.RoleAdmin)); err != nil {
		return false, fmt.Errorf("promote admin: %w", err)
	}
	return true, nil
}

// seedProduct skips products whose name is already in the catalog, archived
// ones included.
func (s *Seeder) seedProduct(ctx context.Context, p Product) (bool, error) {
	existing, err := s.catalog.ListProducts(ctx, catalogports.ListFilter{
		Search:          p.Name,
		IncludeArchived: true,
		Page:            1,
		PageSize:        100,
	})
	if err != nil {
		return false, fmt.Errorf("look up product %q: %w", p.Name, err)
	}
	for _, product := range existing {
		if strings.EqualFold(product.Name, strings.TrimSpace(p.Name)) {
			return false, nil
		}
	}

	input, err := p.input()
	if err != nil {
		return false, err
	}
	if _, err := s.catalog.CreateProduct(ctx, input); err != nil {
		return false, fmt.Errorf("create product %q: %w", p.Name, err)
	}
	return true, nil
}
