package domain

import "time"

type Type string

const (
	TypeOrderPlaced    Type = "order_placed"
	TypePointsRedeemed Type = "points_redeemed"
	TypePointsAwarded  Type = "points_awarded"
	TypeOrderStatus    Type = "order_status"
)

// Notification is an in-app message shown to a single user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditLog records an administrative or commercial action.
type AuditLog struct {
	ID        string         `json:"id"`
	ActorID   string         `json:"actor_id"`
	Action    string         `json:"action"`
	Entity    string         `json:"entity"`
	EntityID  string         `json:"entity_id"`
	Details   map[string]any `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}
