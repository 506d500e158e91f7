package memory

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/dejobratic/cafe/internal/identity/ports"
)

// maxCodeAttempts bounds wrong guesses before a code is discarded.
const maxCodeAttempts = 5

type codeEntry struct {
	code      string
	expiresAt time.Time
	attempts  int
}

// CodeStore keeps one-time codes in process memory.
type CodeStore struct {
	mu      sync.Mutex
	entries map[string]codeEntry
	now     func() time.Time
}

func NewCodeStore() *CodeStore {
	return &CodeStore{entries: make(map[string]codeEntry), now: time.Now}
}

func (s *CodeStore) Save(_ context.Context, purpose, userID, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[purpose+":"+userID] = codeEntry{code: code, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *CodeStore) Consume(_ context.Context, purpose, userID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := purpose + ":" + userID
	entry, ok := s.entries[key]
	if !ok || !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return ports.ErrInvalidCode
	}

	if subtle.ConstantTimeCompare([]byte(entry.code), []byte(code)) != 1 {
		entry.attempts++
		if entry.attempts >= maxCodeAttempts {
			delete(s.entries, key)
		} else {
			s.entries[key] = entry
		}
		return ports.ErrInvalidCode
	}

	delete(s.entries, key)
	return nil
}
