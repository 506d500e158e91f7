// Package idempotency stores responses to unsafe requests so that a client
// retrying with the same Idempotency-Key gets the original answer back.
package idempotency

import (
	"context"
	"strings"
	"time"

	"github.com/dejobratic/cafe/internal/apperr"
)

const (
	Header = "Idempotency-Key"

	// DefaultTTL bounds how long a stored response is replayed.
	DefaultTTL = 24 * time.Hour

	// ReservationTimeout is how long an unanswered reservation blocks its
	// key. A request that crashed mid-flight frees the key after this.
	ReservationTimeout = time.Minute

	maxKeyLength = 255
)

var ErrInProgress = apperr.Conflict("a request with this " + Header + " is still being processed")

// Response is a stored answer. A zero StatusCode marks a reservation that
// has not been answered yet.
type Response struct {
	StatusCode int
	Body       []byte
	ResourceID string
}

func (r Response) Pending() bool {
	return r.StatusCode == 0
}

// Store returns nil, nil from Get for unknown or expired keys.
type Store interface {
	Get(ctx context.Context, key string) (*Response, error)
	// Reserve claims key for one request in flight. It reports false when
	// the key is already reserved or answered.
	Reserve(ctx context.Context, key string) (bool, error)
	// Save answers a reservation. An already answered key keeps its first
	// response.
	Save(ctx context.Context, key string, response Response) error
	// Release drops an unanswered reservation so the client may retry.
	Release(ctx context.Context, key string) error
}

// Key scopes a client key to the caller so two callers never share replays.
// It returns "" when the client key is missing or unusable.
func Key(scope, clientKey string) string {
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" || len(clientKey) > maxKeyLength {
		return ""
	}
	if scope == "" {
		scope = "anonymous"
	}
	return scope + ":" + clientKey
}
