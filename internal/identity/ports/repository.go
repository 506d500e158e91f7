package ports

import (
	"context"
	"time"

	"github.com/dejobratic/cafe/internal/apperr"
	"github.com/dejobratic/cafe/internal/identity/domain"
	"github.com/dejobratic/cafe/internal/outbox"
)

// UserRepository persists users, their used coupons and their wishlists.
type UserRepository interface {
	// Create fails with ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, user domain.User) error
	// Update replaces profile, credentials, role, addresses and payment methods.
	// Reward points and used coupons are only changed through AdjustPoints and
	// order placement.
	Update(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter ListFilter) ([]domain.User, error)
	// AdjustPoints adds delta to the balance and returns the new balance.
	// It fails with ErrInsufficientPoints instead of going below zero.
	AdjustPoints(ctx context.Context, userID string, delta int) (int, error)

	Wishlist(ctx context.Context, userID string) ([]string, error)
	AddToWishlist(ctx context.Context, userID, productID string) error
	// RemoveFromWishlist succeeds when the product is not on the list.
	RemoveFromWishlist(ctx context.Context, userID, productID string) error
}

type ListFilter struct {
	Search   string
	Role     *domain.Role
	Page     int
	PageSize int
}

// CodeStore keeps short-lived one-time codes keyed by purpose and user.
type CodeStore interface {
	// Save replaces any outstanding code for the same purpose and user.
	Save(ctx context.Context, purpose, userID, code string, ttl time.Duration) error
	// Consume succeeds at most once per saved code.
	Consume(ctx context.Context, purpose, userID, code string) error
}

// Code purposes.
const (
	PurposeVerifyEmail   = "verify_email"
	PurposePasswordReset = "password_reset"
)

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID, role string) (string, time.Time, error)
}

// ProductChecker tells whether a product can be added to a wishlist.
type ProductChecker interface {
	ProductExists(ctx context.Context, id string) (bool, error)
}

// EventAppender queues side effects for the outbox relay.
type EventAppender interface {
	Append(ctx context.Context, events ...outbox.Event) error
}

var (
	ErrNotFound           = apperr.NotFound("user not found")
	ErrEmailTaken         = apperr.Conflict("email is already registered")
	ErrInvalidCredentials = apperr.Unauthorized("invalid email or password")
	ErrInvalidCode        = apperr.Invalid("code is invalid or has expired")
	ErrInsufficientPoints = apperr.Conflict("insufficient reward points")
	ErrCouponAlreadyUsed  = apperr.Conflict("coupon has already been used")
	ErrProductUnavailable = apperr.NotFound("product not found")
	ErrAddressNotFound    = apperr.NotFound("address not found")
	ErrPaymentNotFound    = apperr.NotFound("payment method not found")
)
