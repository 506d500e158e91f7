package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the relay's view of the outbox table.
type Store interface {
	Append(ctx context.Context, events ...Event) error
	// ClaimPending leases up to limit unprocessed events that have not
	// exhausted maxAttempts. A leased event is invisible to other relays
	// until the lease expires.
	ClaimPending(ctx context.Context, limit, maxAttempts int, lease time.Duration) ([]Event, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}
