package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/cafe/internal/notifications/domain"
	"github.com/dejobratic/cafe/internal/notifications/ports"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) AddNotification(ctx context.Context, n domain.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, type, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, n.ID, n.UserID, n.Type, n.Message, n.Read, n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *Repository) ListNotifications(ctx context.Context, userID string, filter ports.ListFilter) ([]domain.Notification, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, nil
	}
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := `
		SELECT id, user_id, type, message, read, created_at
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR NOT read)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, userID, filter.UnreadOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}

	notifications, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Notification, error) {
		var n domain.Notification
		err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Read, &n.CreatedAt)
		return n, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect notifications: %w", err)
	}
	return notifications, nil
}

func (r *Repository) MarkRead(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ports.ErrNotFound
	}

	result, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	result, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return int(result.RowsAffected()), nil
}

func (r *Repository) AddAuditLog(ctx context.Context, entry domain.AuditLog) error {
	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}

	query := `
		INSERT INTO audit_logs (id, actor_id, action, entity, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query,
		entry.ID, entry.ActorID, entry.Action, entry.Entity, entry.EntityID, details, entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (r *Repository) ListAuditLogs(ctx context.Context, filter ports.AuditFilter) ([]domain.AuditLog, error) {
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := `
		SELECT id, actor_id, action, entity, entity_id, details, created_at
		FROM audit_logs
		WHERE ($1 = '' OR entity = $1) AND ($2 = '' OR entity_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, filter.Entity, filter.EntityID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}

	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AuditLog, error) {
		var entry domain.AuditLog
		err := row.Scan(&entry.ID, &entry.ActorID, &entry.Action, &entry.Entity, &entry.EntityID, &entry.Details, &entry.CreatedAt)
		return entry, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect audit logs: %w", err)
	}
	return logs, nil
}

func pageBounds(page, pageSize int) (limit, offset int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	return pageSize, (page - 1) * pageSize
}
