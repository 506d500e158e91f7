package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dejobratic/cafe/internal/promotions/domain"
	"github.com/dejobratic/cafe/internal/promotions/ports"
)

type Repository struct {
	mu     sync.RWMutex
	offers map[string]domain.Offer
	now    func() time.Time
}

func NewRepository() *Repository {
	return &Repository{offers: make(map[string]domain.Offer), now: time.Now}
}

func (r *Repository) Create(_ context.Context, offer domain.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.offers {
		if existing.Code == offer.Code {
			return ports.ErrDuplicateCode
		}
	}
	r.offers[offer.ID] = offer
	return nil
}

func (r *Repository) Update(_ context.Context, offer domain.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.offers[offer.ID]; !ok {
		return ports.ErrNotFound
	}
	for id, existing := range r.offers {
		if id != offer.ID && existing.Code == offer.Code {
			return ports.ErrDuplicateCode
		}
	}
	r.offers[offer.ID] = offer
	return nil
}

func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.offers[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.offers, id)
	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	offer, ok := r.offers[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &offer, nil
}

func (r *Repository) GetByCode(_ context.Context, code string) (*domain.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, offer := range r.offers {
		if offer.Code == code {
			return &offer, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *Repository) List(_ context.Context, activeOnly bool) ([]domain.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	var offers []domain.Offer
	for _, offer := range r.offers {
		if activeOnly && (!offer.Active || offer.Expired(now)) {
			continue
		}
		offers = append(offers, offer)
	}
	slices.SortFunc(offers, func(a, b domain.Offer) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return offers, nil
}
