package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products on the storefront menu.
type Category string

const (
	CategoryCoffee      Category = "coffee"
	CategoryTea         Category = "tea"
	CategoryBakery      Category = "bakery"
	CategorySnacks      Category = "snacks"
	CategoryBeverages   Category = "beverages"
	CategoryMerchandise Category = "merchandise"
)

var categories = []Category{
	CategoryCoffee,
	CategoryTea,
	CategoryBakery,
	CategorySnacks,
	CategoryBeverages,
	CategoryMerchandise,
}

// ParseCategory normalises a category name.
func ParseCategory(value string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", value)
}

// Product is an item on the menu. Products are archived, never deleted.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Category      Category        `json:"category"`
	ImageURL      string          `json:"image_url"`
	Stock         int             `json:"stock"`
	BestSeller    bool            `json:"best_seller"`
	RatingAverage float64         `json:"rating_average"`
	RatingCount   int             `json:"rating_count"`
	Archived      bool            `json:"archived"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	if p.Price.IsNegative() {
		return errors.New("price must not be negative")
	}
	if !p.Price.Equal(p.Price.Round(2)) {
		return errors.New("price must have at most two decimals")
	}
	if _, err := ParseCategory(string(p.Category)); err != nil {
		return err
	}
	if p.Stock < 0 {
		return errors.New("stock must not be negative")
	}
	return nil
}

// Purchasable reports whether the product can be added to a new order.
func (p Product) Purchasable() bool {
	return !p.Archived
}

// Review is a customer's rating of a product. A customer reviews a product at most once.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func (r Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}
	if len(r.Comment) > 2000 {
		return errors.New("comment must be at most 2000 characters")
	}
	return nil
}

// AddRating folds a new rating into a running average rounded to two places.
func AddRating(average float64, count, rating int) (float64, int) {
	total := decimal.NewFromFloat(average).Mul(decimal.NewFromInt(int64(count))).Add(decimal.NewFromInt(int64(rating)))
	next := count + 1
	avg, _ := total.Div(decimal.NewFromInt(int64(next))).Round(2).Float64()
	return avg, next
}
