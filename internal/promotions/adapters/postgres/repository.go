package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/cafe/internal/database"
	"github.com/dejobratic/cafe/internal/promotions/domain"
	"github.com/dejobratic/cafe/internal/promotions/ports"
)

const offerColumns = `
	id, code, description, discount_type, discount_value, min_order_value,
	valid_until, active, created_at, updated_at
`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, o domain.Offer) error {
	query := `
		INSERT INTO offers (` + offerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		o.ID, o.Code, o.Description, o.DiscountType, o.DiscountValue, o.MinOrderValue,
		o.ValidUntil, o.Active, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ports.ErrDuplicateCode
		}
		return fmt.Errorf("insert offer: %w", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, o domain.Offer) error {
	query := `
		UPDATE offers
		SET code = $2, description = $3, discount_type = $4, discount_value = $5,
		    min_order_value = $6, valid_until = $7, active = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		o.ID, o.Code, o.Description, o.DiscountType, o.DiscountValue,
		o.MinOrderValue, o.ValidUntil, o.Active, o.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ports.ErrDuplicateCode
		}
		return fmt.Errorf("update offer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ports.ErrNotFound
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete offer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ports.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
}

func (r *Repository) GetByCode(ctx context.Context, code string) (*domain.Offer, error) {
	return r.getOne(ctx, `SELECT `+offerColumns+` FROM offers WHERE code = $1`, code)
}

func (r *Repository) getOne(ctx context.Context, query string, arg any) (*domain.Offer, error) {
	offer, err := scanOffer(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select offer: %w", err)
	}
	return &offer, nil
}

func (r *Repository) List(ctx context.Context, activeOnly bool) ([]domain.Offer, error) {
	query := `
		SELECT ` + offerColumns + `
		FROM offers
		WHERE NOT $1 OR (active AND valid_until >= $2)
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, activeOnly, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("query offers: %w", err)
	}
	defer rows.Close()

	var offers []domain.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offers: %w", err)
	}
	return offers, nil
}

func scanOffer(row pgx.Row) (domain.Offer, error) {
	var o domain.Offer
	err := row.Scan(
		&o.ID,
		&o.Code,
		&o.Description,
		&o.DiscountType,
		&o.DiscountValue,
		&o.MinOrderValue,
		&o.ValidUntil,
		&o.Active,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}
