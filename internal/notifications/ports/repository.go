package ports

import (
	"context"

	"github.com/dejobratic/cafe/internal/apperr"
	"github.com/dejobratic/cafe/internal/notifications/domain"
)

type Repository interface {
	// AddNotification ignores a notification whose id is already stored.
	AddNotification(ctx context.Context, n domain.Notification) error
	ListNotifications(ctx context.Context, userID string, filter ListFilter) ([]domain.Notification, error)
	// MarkRead fails with ErrNotFound when the notification does not belong to userID.
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)

	// AddAuditLog ignores an entry whose id is already stored.
	AddAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, filter AuditFilter) ([]domain.AuditLog, error)
}

type ListFilter struct {
	UnreadOnly bool
	Page       int
	PageSize   int
}

type AuditFilter struct {
	Entity   string
	EntityID string
	Page     int
	PageSize int
}

var ErrNotFound = apperr.NotFound("notification not found")
