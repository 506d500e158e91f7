package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/dejobratic/cafe/internal/identity/domain"
	"github.com/dejobratic/cafe/internal/identity/ports"
)

type Repository struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	wishlist map[string][]string
}

func NewRepository() *Repository {
	return &Repository{
		users:    make(map[string]domain.User),
		wishlist: make(map[string][]string),
	}
}

func (r *Repository) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return ports.ErrEmailTaken
		}
	}
	r.users[user.ID] = clone(user)
	return nil
}

func (r *Repository) Update(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return ports.ErrNotFound
	}
	user.RewardPoints = stored.RewardPoints
	user.UsedCoupons = stored.UsedCoupons
	r.users[user.ID] = clone(user)
	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	copied := clone(user)
	return &copied, nil
}

func (r *Repository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			copied := clone(user)
			return &copied, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var users []domain.User
	for _, user := range r.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(user.Name), search) && !strings.Contains(user.Email, search) {
			continue
		}
		users = append(users, clone(user))
	}

	slices.SortFunc(users, func(a, b domain.User) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return paginate(users, filter.Page, filter.PageSize), nil
}

func (r *Repository) AdjustPoints(_ context.Context, userID string, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return 0, ports.ErrNotFound
	}
	if user.RewardPoints+delta < 0 {
		return 0, ports.ErrInsufficientPoints
	}
	user.RewardPoints += delta
	r.users[userID] = user
	return user.RewardPoints, nil
}

// Claim marks coupon as used and spends points in one step. Either both
// apply or neither does. An empty coupon or zero points skips that part.
func (r *Repository) Claim(_ context.Context, userID, coupon string, points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return ports.ErrNotFound
	}
	if coupon != "" && user.HasUsedCoupon(coupon) {
		return ports.ErrCouponAlreadyUsed
	}
	if user.RewardPoints < points {
		return ports.ErrInsufficientPoints
	}

	if coupon != "" {
		user.UsedCoupons = append(slices.Clone(user.UsedCoupons), coupon)
	}
	user.RewardPoints -= points
	r.users[userID] = user
	return nil
}

func (r *Repository) Wishlist(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.wishlist[userID]), nil
}

func (r *Repository) AddToWishlist(_ context.Context, userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return ports.ErrNotFound
	}
	if !slices.Contains(r.wishlist[userID], productID) {
		r.wishlist[userID] = append(r.wishlist[userID], productID)
	}
	return nil
}

func (r *Repository) RemoveFromWishlist(_ context.Context, userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.wishlist[userID] = slices.DeleteFunc(r.wishlist[userID], func(id string) bool { return id == productID })
	return nil
}

func clone(user domain.User) domain.User {
	user.Addresses = slices.Clone(user.Addresses)
	user.PaymentMethods = slices.Clone(user.PaymentMethods)
	user.UsedCoupons = slices.Clone(user.UsedCoupons)
	return user
}

func paginate(users []domain.User, page, pageSize int) []domain.User {
	if pageSize <= 0 {
		return users
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(users) {
		return []domain.User{}
	}
	end := min(start+pageSize, len(users))
	return users[start:end]
}
