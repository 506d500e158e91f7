package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/dejobratic/cafe/internal/notifications/domain"
	"github.com/dejobratic/cafe/internal/notifications/ports"
)

type Repository struct {
	mu            sync.RWMutex
	notifications []domain.Notification
	auditLogs     []domain.AuditLog
}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) AddNotification(_ context.Context, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.ContainsFunc(r.notifications, func(existing domain.Notification) bool { return existing.ID == n.ID }) {
		return nil
	}
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *Repository) ListNotifications(_ context.Context, userID string, filter ports.ListFilter) ([]domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		n := r.notifications[i]
		if n.UserID != userID || (filter.UnreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	return paginate(out, filter.Page, filter.PageSize), nil
}

func (r *Repository) MarkRead(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.notifications {
		if r.notifications[i].ID == id && r.notifications[i].UserID == userID {
			r.notifications[i].Read = true
			return nil
		}
	}
	return ports.ErrNotFound
}

func (r *Repository) MarkAllRead(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := 0
	for i := range r.notifications {
		if r.notifications[i].UserID == userID && !r.notifications[i].Read {
			r.notifications[i].Read = true
			changed++
		}
	}
	return changed, nil
}

func (r *Repository) AddAuditLog(_ context.Context, entry domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.ContainsFunc(r.auditLogs, func(existing domain.AuditLog) bool { return existing.ID == entry.ID }) {
		return nil
	}
	r.auditLogs = append(r.auditLogs, entry)
	return nil
}

func (r *Repository) ListAuditLogs(_ context.Context, filter ports.AuditFilter) ([]domain.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.AuditLog
	for i := len(r.auditLogs) - 1; i >= 0; i-- {
		entry := r.auditLogs[i]
		if filter.Entity != "" && entry.Entity != filter.Entity {
			continue
		}
		if filter.EntityID != "" && entry.EntityID != filter.EntityID {
			continue
		}
		out = append(out, entry)
	}
	return paginate(out, filter.Page, filter.PageSize), nil
}

func paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	return items[start:min(start+pageSize, len(items))]
}
