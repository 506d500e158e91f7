// Package rediscodes stores one-time verification and reset codes in Redis.
package rediscodes

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dejobratic/cafe/internal/identity/ports"
)

const (
	keyPrefix   = "identity:code:"
	maxAttempts = 5
)

// Store keeps each outstanding code in a hash holding the code and the number
// of wrong guesses. Redis expiry enforces the TTL.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func key(purpose, userID string) string {
	return keyPrefix + purpose + ":" + userID
}

func (s *Store) Save(ctx context.Context, purpose, userID, code string, ttl time.Duration) error {
	k := key(purpose, userID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k, "code", code, "attempts", 0)
		pipe.Expire(ctx, k, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save %s code: %w", purpose, err)
	}
	return nil
}

func (s *Store) Consume(ctx context.Context, purpose, userID, code string) error {
	k := key(purpose, userID)

	stored, err := s.client.HGet(ctx, k, "code").Result()
	if errors.Is(err, redis.Nil) {
		return ports.ErrInvalidCode
	}
	if err != nil {
		return fmt.Errorf("load %s code: %w", purpose, err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		attempts, err := s.client.HIncrBy(ctx, k, "attempts", 1).Result()
		if err != nil {
			return fmt.Errorf("count %s attempt: %w", purpose, err)
		}
		if attempts >= maxAttempts {
			s.client.Del(ctx, k)
		}
		return ports.ErrInvalidCode
	}

	// Only the caller that deletes the key consumes the code.
	deleted, err := s.client.Del(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("consume %s code: %w", purpose, err)
	}
	if deleted == 0 {
		return ports.ErrInvalidCode
	}
	return nil
}
