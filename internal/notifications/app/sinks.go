package app

import (
	"context"

	"github.com/dejobratic/cafe/internal/notifications/domain"
	"github.com/dejobratic/cafe/internal/notifications/ports"
	"github.com/dejobratic/cafe/internal/outbox"
)

// NotificationSink stores notification events. The event id becomes the
// notification id, so redelivery does not duplicate it.
type NotificationSink struct {
	repo ports.Repository
}

func NewNotificationSink(repo ports.Repository) *NotificationSink {
	return &NotificationSink{repo: repo}
}

func (s *NotificationSink) Handle(ctx context.Context, event outbox.Event) error {
	var payload NotificationPayload
	if err := event.Decode(&payload); err != nil {
		return err
	}

	return s.repo.AddNotification(ctx, domain.Notification{
		ID:        event.ID.String(),
		UserID:    payload.UserID,
		Type:      payload.Type,
		Message:   payload.Message,
		CreatedAt: event.CreatedAt,
	})
}

type AuditSink struct {
	repo ports.Repository
}

func NewAuditSink(repo ports.Repository) *AuditSink {
	return &AuditSink{repo: repo}
}

func (s *AuditSink) Handle(ctx context.Context, event outbox.Event) error {
	var payload AuditPayload
	if err := event.Decode(&payload); err != nil {
		return err
	}

	return s.repo.AddAuditLog(ctx, domain.AuditLog{
		ID:        event.ID.String(),
		ActorID:   payload.ActorID,
		Action:    payload.Action,
		Entity:    payload.Entity,
		EntityID:  payload.EntityID,
		Details:   payload.Details,
		CreatedAt: event.CreatedAt,
	})
}
