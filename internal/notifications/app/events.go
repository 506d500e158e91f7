package app

import (
	"github.com/dejobratic/cafe/internal/notifications/domain"
	"github.com/dejobratic/cafe/internal/outbox"
)

// NotificationPayload is the outbox payload for the notification sink.
type NotificationPayload struct {
	UserID  string      `json:"user_id"`
	Type    domain.Type `json:"type"`
	Message string      `json:"message"`
}

// AuditPayload is the outbox payload for the audit sink.
type AuditPayload struct {
	ActorID  string         `json:"actor_id"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Details  map[string]any `json:"details,omitempty"`
}

func NotificationEvent(aggregateID string, payload NotificationPayload) (outbox.Event, error) {
	return outbox.NewEvent(outbox.SinkNotification, "notification."+string(payload.Type), aggregateID, payload)
}

func AuditEvent(payload AuditPayload) (outbox.Event, error) {
	return outbox.NewEvent(outbox.SinkAudit, payload.Action, payload.EntityID, payload)
}
