package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dejobratic/cafe/internal/outbox"
)

// Store keeps outbox events in memory for tests and local runs without Postgres.
type Store struct {
	mu     sync.Mutex
	events map[uuid.UUID]*entry
}

type entry struct {
	event       outbox.Event
	lockedUntil time.Time
}

func NewStore() *Store {
	return &Store{events: make(map[uuid.UUID]*entry)}
}

func (s *Store) Append(_ context.Context, events ...outbox.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range events {
		s.events[event.ID] = &entry{event: event}
	}
	return nil
}

func (s *Store) ClaimPending(_ context.Context, limit, maxAttempts int, lease time.Duration) ([]outbox.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var pending []*entry
	for _, e := range s.events {
		if e.event.ProcessedAt != nil || e.event.Attempts >= maxAttempts || now.Before(e.lockedUntil) {
			continue
		}
		pending = append(pending, e)
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].event.CreatedAt.Before(pending[j].event.CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}

	claimed := make([]outbox.Event, 0, len(pending))
	for _, e := range pending {
		e.lockedUntil = now.Add(lease)
		claimed = append(claimed, e.event)
	}
	return claimed, nil
}

func (s *Store) MarkProcessed(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.events[id]; ok {
		now := time.Now().UTC()
		e.event.Attempts++
		e.event.ProcessedAt = &now
		e.lockedUntil = time.Time{}
	}
	return nil
}

func (s *Store) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.events[id]; ok {
		e.event.Attempts++
		e.event.LastError = reason
		e.lockedUntil = time.Time{}
	}
	return nil
}

// Events returns a snapshot of every stored event ordered by creation time.
func (s *Store) Events() []outbox.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]outbox.Event, 0, len(s.events))
	for _, e := range s.events {
		events = append(events, e.event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })
	return events
}
