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
	"github.com/dejobratic/cafe/internal/identity/domain"
	"github.com/dejobratic/cafe/internal/identity/ports"
)

const userColumns = `
	u.id, u.name, u.email, u.password_hash, u.role, u.phone, u.email_verified,
	u.addresses, u.payment_methods, u.reward_points,
	ARRAY(SELECT c.code FROM user_coupons c WHERE c.user_id = u.id ORDER BY c.used_at),
	u.created_at, u.updated_at
`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, u domain.User) error {
	query := `
		INSERT INTO users (
			id, name, email, password_hash, role, phone, email_verified,
			addresses, payment_methods, reward_points, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Phone, u.EmailVerified,
		nonNil(u.Addresses), nonNil(u.PaymentMethods), u.RewardPoints, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ports.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, u domain.User) error {
	query := `
		UPDATE users
		SET name = $2, password_hash = $3, role = $4, phone = $5, email_verified = $6,
		    addresses = $7, payment_methods = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		u.ID, u.Name, u.PasswordHash, u.Role, u.Phone, u.EmailVerified,
		nonNil(u.Addresses), nonNil(u.PaymentMethods), u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ports.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users u WHERE u.email = $1`, email)
}

func (r *Repository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &user, nil
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]domain.User, error) {
	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}

	query := `
		SELECT ` + userColumns + `
		FROM users u
		WHERE ($1::text IS NULL OR u.role = $1)
		  AND ($2 = '' OR u.name ILIKE '%' || $2 || '%' OR u.email ILIKE '%' || $2 || '%')
		ORDER BY u.created_at DESC
		LIMIT $3 OFFSET $4
	`

	var role *string
	if filter.Role != nil {
		value := string(*filter.Role)
		role = &value
	}

	rows, err := r.pool.Query(ctx, query, role, filter.Search, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// AdjustPoints is a single conditional update; the CHECK constraint on
// reward_points backs it up.
func (r *Repository) AdjustPoints(ctx context.Context, userID string, delta int) (int, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return 0, ports.ErrNotFound
	}

	query := `
		UPDATE users
		SET reward_points = reward_points + $2, updated_at = $3
		WHERE id = $1 AND reward_points + $2 >= 0
		RETURNING reward_points
	`

	var balance int
	err := r.pool.QueryRow(ctx, query, userID, delta, time.Now().UTC()).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, userID); getErr != nil {
			return 0, getErr
		}
		return 0, ports.ErrInsufficientPoints
	}
	if err != nil {
		return 0, fmt.Errorf("adjust reward points: %w", err)
	}
	return balance, nil
}

func (r *Repository) Wishlist(ctx context.Context, userID string) ([]string, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, ports.ErrNotFound
	}

	rows, err := r.pool.Query(ctx,
		`SELECT product_id::text FROM wishlist_items WHERE user_id = $1 ORDER BY added_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("query wishlist: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect wishlist: %w", err)
	}
	return ids, nil
}

func (r *Repository) AddToWishlist(ctx context.Context, userID, productID string) error {
	query := `
		INSERT INTO wishlist_items (user_id, product_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, userID, productID, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert wishlist item: %w", err)
	}
	return nil
}

func (r *Repository) RemoveFromWishlist(ctx context.Context, userID, productID string) error {
	if _, err := uuid.Parse(productID); err != nil {
		return nil
	}
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID,
	); err != nil {
		return fmt.Errorf("delete wishlist item: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Phone,
		&u.EmailVerified,
		&u.Addresses,
		&u.PaymentMethods,
		&u.RewardPoints,
		&u.UsedCoupons,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
