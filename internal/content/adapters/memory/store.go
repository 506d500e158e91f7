package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dejobratic/cafe/internal/content/domain"
	"github.com/dejobratic/cafe/internal/content/ports"
)

// Store keeps content in memory. Settings are held as JSON so callers get
// the same copy semantics as a document store.
type Store struct {
	mu       sync.RWMutex
	faqs     map[string]domain.FAQ
	pages    map[string]domain.Page
	settings map[string][]byte
}

func NewStore() *Store {
	return &Store{
		faqs:     make(map[string]domain.FAQ),
		pages:    make(map[string]domain.Page),
		settings: make(map[string][]byte),
	}
}

func (s *Store) ListFAQs(_ context.Context) ([]domain.FAQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	faqs := make([]domain.FAQ, 0, len(s.faqs))
	for _, faq := range s.faqs {
		faqs = append(faqs, faq)
	}
	slices.SortFunc(faqs, func(a, b domain.FAQ) int { return a.Position - b.Position })
	return faqs, nil
}

func (s *Store) SaveFAQ(_ context.Context, faq domain.FAQ) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faqs[faq.ID] = faq
	return nil
}

func (s *Store) GetFAQ(_ context.Context, id string) (*domain.FAQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	faq, ok := s.faqs[id]
	if !ok {
		return nil, ports.ErrFAQNotFound
	}
	return &faq, nil
}

func (s *Store) DeleteFAQ(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.faqs[id]; !ok {
		return ports.ErrFAQNotFound
	}
	delete(s.faqs, id)
	return nil
}

func (s *Store) GetPage(_ context.Context, slug string) (*domain.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, ok := s.pages[slug]
	if !ok {
		return nil, ports.ErrPageNotFound
	}
	return &page, nil
}

func (s *Store) SavePage(_ context.Context, page domain.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[page.Slug] = page
	return nil
}

func (s *Store) ListPages(_ context.Context) ([]domain.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pages := make([]domain.Page, 0, len(s.pages))
	for _, page := range s.pages {
		page.Body = ""
		pages = append(pages, page)
	}
	slices.SortFunc(pages, func(a, b domain.Page) int { return strings.Compare(a.Slug, b.Slug) })
	return pages, nil
}

func (s *Store) GetSetting(_ context.Context, key string, dst any) error {
	s.mu.RLock()
	raw, ok := s.settings[key]
	s.mu.RUnlock()

	if !ok {
		return ports.ErrSettingNotFound
	}
	return json.Unmarshal(raw, dst)
}

func (s *Store) SaveSetting(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = raw
	return nil
}
