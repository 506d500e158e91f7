package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/cafe/internal/database"
	"github.com/dejobratic/cafe/internal/outbox"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Insert writes events through q so callers can enlist them in their own transaction.
func Insert(ctx context.Context, q database.Querier, events ...outbox.Event) error {
	if len(events) == 0 {
		return nil
	}

	query := `
		INSERT INTO outbox_events (id, sink, type, aggregate_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(query, event.ID, event.Sink, event.Type, event.AggregateID, []byte(event.Payload), event.CreatedAt)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
	}
	return nil
}

func (s *Store) Append(ctx context.Context, events ...outbox.Event) error {
	return Insert(ctx, s.pool, events...)
}

func (s *Store) ClaimPending(ctx context.Context, limit, maxAttempts int, lease time.Duration) ([]outbox.Event, error) {
	query := `
		UPDATE outbox_events
		SET locked_until = now() + make_interval(secs => $3)
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE processed_at IS NULL
			  AND attempts < $2
			  AND (locked_until IS NULL OR locked_until < now())
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, sink, type, aggregate_id, payload, attempts, last_error, created_at
	`

	rows, err := s.pool.Query(ctx, query, limit, maxAttempts, lease.Seconds())
	if err != nil {
		return nil, fmt.Errorf("claim outbox events: %w", err)
	}
	defer rows.Close()

	var events []outbox.Event
	for rows.Next() {
		var event outbox.Event
		var payload []byte
		if err := rows.Scan(
			&event.ID,
			&event.Sink,
			&event.Type,
			&event.AggregateID,
			&payload,
			&event.Attempts,
			&event.LastError,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		event.Payload = payload
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox events: %w", err)
	}

	return events, nil
}

func (s *Store) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE outbox_events
		SET processed_at = now(), attempts = attempts + 1, locked_until = NULL
		WHERE id = $1
	`
	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("mark outbox event processed: %w", err)
	}
	return nil
}

func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE outbox_events
		SET attempts = attempts + 1, last_error = $2, locked_until = NULL
		WHERE id = $1
	`
	if _, err := s.pool.Exec(ctx, query, id, reason); err != nil {
		return fmt.Errorf("mark outbox event failed: %w", err)
	}
	return nil
}
