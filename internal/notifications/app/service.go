package app

import (
	"context"

	"github.com/dejobratic/cafe/internal/notifications/domain"
	"github.com/dejobratic/cafe/internal/notifications/ports"
)

type Service struct {
	repo ports.Repository
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListMine(ctx context.Context, userID string, filter ports.ListFilter) ([]domain.Notification, error) {
	return s.repo.ListNotifications(ctx, userID, filter)
}

func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	return s.repo.MarkRead(ctx, userID, id)
}

// MarkAllRead returns the number of notifications that changed.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) ListAuditLogs(ctx context.Context, filter ports.AuditFilter) ([]domain.AuditLog, error) {
	return s.repo.ListAuditLogs(ctx, filter)
}
