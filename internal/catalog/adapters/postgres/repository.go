package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/cafe/internal/catalog/domain"
	"github.com/dejobratic/cafe/internal/catalog/ports"
	"github.com/dejobratic/cafe/internal/database"
)

const productColumns = `
	id, name, description, price, category, image_url, stock,
	best_seller, rating_average, rating_count, archived, created_at, updated_at
`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, p domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.ImageURL, p.Stock,
		p.BestSeller, p.RatingAverage, p.RatingCount, p.Archived, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Update replaces the editable columns. Rating aggregates are owned by AddReview.
func (r *Repository) Update(ctx context.Context, p domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, category = $5, image_url = $6,
		    stock = $7, best_seller = $8, archived = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.ImageURL,
		p.Stock, p.BestSeller, p.Archived, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ports.ErrNotFound
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select product: %w", err)
	}
	return &product, nil
}

func (r *Repository) GetMany(ctx context.Context, ids []string) ([]domain.Product, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1::uuid[])`

	rows, err := r.pool.Query(ctx, query, valid)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return collectProducts(rows)
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Product, error) {
	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1::text IS NULL OR category = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
		  AND (NOT $3 OR best_seller)
		  AND ($4 OR NOT archived)
		ORDER BY name
		LIMIT $5 OFFSET $6
	`

	var category *string
	if filter.Category != nil {
		c := string(*filter.Category)
		category = &c
	}

	rows, err := r.pool.Query(ctx, query,
		category, filter.Search, filter.BestSellerOnly, filter.IncludeArchived,
		pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return collectProducts(rows)
}

func (r *Repository) AddReview(ctx context.Context, review domain.Review) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		insert := `
			INSERT INTO reviews (id, product_id, user_id, user_name, rating, comment, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		if _, err := tx.Exec(ctx, insert,
			review.ID, review.ProductID, review.UserID, review.UserName,
			review.Rating, review.Comment, review.CreatedAt,
		); err != nil {
			if database.IsUniqueViolation(err) {
				return ports.ErrDuplicateReview
			}
			return fmt.Errorf("insert review: %w", err)
		}

		aggregate := `
			UPDATE products
			SET rating_average = ROUND((rating_average * rating_count + $2) / (rating_count + 1), 2),
			    rating_count = rating_count + 1
			WHERE id = $1
		`
		result, err := tx.Exec(ctx, aggregate, review.ProductID, review.Rating)
		if err != nil {
			return fmt.Errorf("update rating aggregate: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ports.ErrNotFound
		}
		return nil
	})
}

func (r *Repository) ListReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, ports.ErrNotFound
	}

	query := `
		SELECT id, product_id, user_id, user_name, rating, comment, created_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(
			&review.ID,
			&review.ProductID,
			&review.UserID,
			&review.UserName,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Category,
		&p.ImageURL,
		&p.Stock,
		&p.BestSeller,
		&p.RatingAverage,
		&p.RatingCount,
		&p.Archived,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func collectProducts(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
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
