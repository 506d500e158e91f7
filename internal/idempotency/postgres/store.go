package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/cafe/internal/idempotency"
)

type Store struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewStore(pool *pgxpool.Pool, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = idempotency.DefaultTTL
	}
	return &Store{pool: pool, ttl: ttl}
}

func (s *Store) Get(ctx context.Context, key string) (*idempotency.Response, error) {
	query := `
		SELECT status_code, body, resource_id
		FROM idempotency_keys
		WHERE key = $1
		  AND created_at > now() - make_interval(secs => $2)
		  AND (status_code <> 0 OR created_at > now() - make_interval(secs => $3))
	`

	var resp idempotency.Response
	err := s.pool.QueryRow(ctx, query, key, s.ttl.Seconds(), idempotency.ReservationTimeout.Seconds()).Scan(
		&resp.StatusCode,
		&resp.Body,
		&resp.ResourceID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select idempotency key: %w", err)
	}

	return &resp, nil
}

// Reserve inserts a pending row. Expired rows and abandoned reservations
// are taken over.
func (s *Store) Reserve(ctx context.Context, key string) (bool, error) {
	query := `
		INSERT INTO idempotency_keys (key, status_code, body, resource_id, created_at)
		VALUES ($1, 0, ''::bytea, '', now())
		ON CONFLICT (key) DO UPDATE
		SET status_code = 0,
		    body = ''::bytea,
		    resource_id = '',
		    created_at = EXCLUDED.created_at
		WHERE idempotency_keys.created_at <= now() - make_interval(secs => $2)
		   OR (idempotency_keys.status_code = 0
		       AND idempotency_keys.created_at <= now() - make_interval(secs => $3))
	`

	tag, err := s.pool.Exec(ctx, query, key, s.ttl.Seconds(), idempotency.ReservationTimeout.Seconds())
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Save answers a pending row or inserts one. A stored answer is kept until
// it expires.
func (s *Store) Save(ctx context.Context, key string, response idempotency.Response) error {
	query := `
		INSERT INTO idempotency_keys (key, status_code, body, resource_id, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (key) DO UPDATE
		SET status_code = EXCLUDED.status_code,
		    body = EXCLUDED.body,
		    resource_id = EXCLUDED.resource_id,
		    created_at = EXCLUDED.created_at
		WHERE idempotency_keys.status_code = 0
		   OR idempotency_keys.created_at <= now() - make_interval(secs => $5)
	`

	_, err := s.pool.Exec(ctx, query, key, response.StatusCode, response.Body, response.ResourceID, s.ttl.Seconds())
	if err != nil {
		return fmt.Errorf("insert idempotency key: %w", err)
	}

	return nil
}

func (s *Store) Release(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1 AND status_code = 0`, key); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
