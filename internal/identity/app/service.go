package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dejobratic/cafe/internal/apperr"
	"github.com/dejobratic/cafe/internal/identity/domain"
	"github.com/dejobratic/cafe/internal/identity/ports"
	"github.com/dejobratic/cafe/internal/mail"
)

// Service exposes account, profile and wishlist use cases.
type Service struct {
	repo     ports.UserRepository
	codes    ports.CodeStore
	tokens   ports.TokenIssuer
	products ports.ProductChecker
	events   ports.EventAppender
	codeTTL  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

type Dependencies struct {
	Repository ports.UserRepository
	Codes      ports.CodeStore
	Tokens     ports.TokenIssuer
	Products   ports.ProductChecker
	Events     ports.EventAppender
	CodeTTL    time.Duration
	Logger     *slog.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     deps.Repository,
		codes:    deps.Codes,
		tokens:   deps.Tokens,
		products: deps.Products,
		events:   deps.Events,
		codeTTL:  deps.CodeTTL,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// Register creates a customer account and mails an email verification code.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Invalid("name is required")
	}
	email, err := domain.NormalizeEmail(input.Email)
	if err != nil {
		return nil, apperr.Invalid(err.Error())
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, apperr.Invalid(err.Error())
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ports.ErrEmailTaken
	} else if !errors.Is(err, ports.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
		Phone:        strings.TrimSpace(input.Phone),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.sendCode(ctx, user, ports.PurposeVerifyEmail, mail.TemplateVerifyEmail)
	return &user, nil
}

// Session is the result of a successful login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	normalized, err := domain.NormalizeEmail(email)
	if err != nil {
		return nil, ports.ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, normalized)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ports.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ports.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	user, err := s.userByEmailForCode(ctx, email)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return nil
	}
	if err := s.codes.Consume(ctx, ports.PurposeVerifyEmail, user.ID, strings.TrimSpace(code)); err != nil {
		return err
	}

	user.EmailVerified = true
	user.UpdatedAt = s.now()
	return s.repo.Update(ctx, *user)
}

// ResendVerification issues a fresh code. Unknown or verified addresses are ignored.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.lookupForMail(ctx, email)
	if err != nil || user == nil || user.EmailVerified {
		return err
	}
	s.sendCode(ctx, *user, ports.PurposeVerifyEmail, mail.TemplateVerifyEmail)
	return nil
}

// ForgotPassword mails a reset code. Unknown addresses are ignored so the
// response does not reveal which emails are registered.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.lookupForMail(ctx, email)
	if err != nil || user == nil {
		return err
	}
	s.sendCode(ctx, *user, ports.PurposePasswordReset, mail.TemplatePasswordReset)
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := domain.ValidatePassword(newPassword); err != nil {
		return apperr.Invalid(err.Error())
	}
	user, err := s.userByEmailForCode(ctx, email)
	if err != nil {
		return err
	}
	if err := s.codes.Consume(ctx, ports.PurposePasswordReset, user.ID, strings.TrimSpace(code)); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.EmailVerified = true
	user.UpdatedAt = s.now()
	return s.repo.Update(ctx, *user)
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ports.ErrInvalidCredentials
	}
	if err := domain.ValidatePassword(next); err != nil {
		return apperr.Invalid(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = s.now()
	return s.repo.Update(ctx, *user)
}

// userByEmailForCode hides unknown addresses behind the same error as a bad code.
func (s *Service) userByEmailForCode(ctx context.Context, email string) (*domain.User, error) {
	normalized, err := domain.NormalizeEmail(email)
	if err != nil {
		return nil, ports.ErrInvalidCode
	}
	user, err := s.repo.GetByEmail(ctx, normalized)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ports.ErrInvalidCode
	}
	return user, err
}

func (s *Service) lookupForMail(ctx context.Context, email string) (*domain.User, error) {
	normalized, err := domain.NormalizeEmail(email)
	if err != nil {
		return nil, apperr.Invalid(err.Error())
	}
	user, err := s.repo.GetByEmail(ctx, normalized)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

// sendCode stores a one-time code and queues the email carrying it. Failures
// are logged; the caller's request still succeeds.
func (s *Service) sendCode(ctx context.Context, user domain.User, purpose, template string) {
	logger := s.logger.With(slog.String("user_id", user.ID), slog.String("purpose", purpose))

	code, err := newCode()
	if err != nil {
		logger.ErrorContext(ctx, "failed to generate one-time code", slog.Any("error", err))
		return
	}
	if err := s.codes.Save(ctx, purpose, user.ID, code, s.codeTTL); err != nil {
		logger.ErrorContext(ctx, "failed to store one-time code", slog.Any("error", err))
		return
	}

	event, err := mail.NewEvent("user."+purpose, user.ID, mail.Request{
		To:       user.Email,
		Template: template,
		Data: map[string]any{
			"name":       user.Name,
			"code":       code,
			"expires_in": s.codeTTL.String(),
		},
	})
	if err == nil {
		err = s.events.Append(ctx, event)
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to queue code email", slog.Any("error", err))
	}
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// DisplayName returns the name shown on a user's reviews.
func (s *Service) DisplayName(ctx context.Context, userID string) (string, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Name, nil
}

// UsedCoupons lists the coupon codes the user has already redeemed.
func (s *Service) UsedCoupons(ctx context.Context, userID string) ([]string, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.UsedCoupons, nil
}

type ProfileInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, input ProfileInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Invalid("name is required")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Name = name
	user.Phone = strings.TrimSpace(input.Phone)
	user.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, *user); err != nil {
		return nil, err
	}
	return user, nil
}

// SaveAddress adds an address, or replaces it when addr.ID names an existing one.
func (s *Service) SaveAddress(ctx context.Context, userID string, addr domain.Address) (*domain.User, error) {
	if err := addr.Validate(); err != nil {
		return nil, apperr.Invalid(err.Error())
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if addr.ID == "" {
		addr.ID = uuid.NewString()
	} else if !hasAddress(user.Addresses, addr.ID) {
		return nil, ports.ErrAddressNotFound
	}
	user.SaveAddress(addr)
	user.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, *user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) DeleteAddress(ctx context.Context, userID, addressID string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.RemoveAddress(addressID) {
		return nil, ports.ErrAddressNotFound
	}
	user.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, *user); err != nil {
		return nil, err
	}
	return user, nil
}

func hasAddress(addresses []domain.Address, id string) bool {
	for _, a := range addresses {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (s *Service) AddPaymentMethod(ctx context.Context, userID string, pm domain.PaymentMethod) (*domain.User, error) {
	pm.Brand = strings.ToLower(strings.TrimSpace(pm.Brand))
	pm.HolderName = strings.TrimSpace(pm.HolderName)
	if err := pm.Validate(s.now()); err != nil {
		return nil, apperr.Invalid(err.Error())
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	pm.ID = uuid.NewString()
	user.PaymentMethods = append(user.PaymentMethods, pm)
	user.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, *user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) DeletePaymentMethod(ctx context.Context, userID, paymentID string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.RemovePaymentMethod(paymentID) {
		return nil, ports.ErrPaymentNotFound
	}
	user.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, *user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) RewardPoints(ctx context.Context, userID string) (int, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.RewardPoints, nil
}

func (s *Service) Wishlist(ctx context.Context, userID string) ([]string, error) {
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.Wishlist(ctx, userID)
}

func (s *Service) AddToWishlist(ctx context.Context, userID, productID string) error {
	ok, err := s.products.ProductExists(ctx, productID)
	if err != nil {
		return err
	}
	if !ok {
		return ports.ErrProductUnavailable
	}
	return s.repo.AddToWishlist(ctx, userID, productID)
}

// RemoveFromWishlist is idempotent.
func (s *Service) RemoveFromWishlist(ctx context.Context, userID, productID string) error {
	return s.repo.RemoveFromWishlist(ctx, userID, productID)
}

func (s *Service) ListUsers(ctx context.Context, filter ports.ListFilter) ([]domain.User, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) SetRole(ctx context.Context, userID, role string) (*domain.User, error) {
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, apperr.Invalid(err.Error())
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == parsed {
		return user, nil
	}
	user.Role = parsed
	user.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, *user); err != nil {
		return nil, err
	}
	return user, nil
}

// AdjustRewardPoints applies a signed correction to a balance. The balance
// never goes below zero.
func (s *Service) AdjustRewardPoints(ctx context.Context, userID string, delta int) (int, error) {
	if delta == 0 {
		return 0, apperr.Invalid("delta must not be zero")
	}
	return s.repo.AdjustPoints(ctx, userID, delta)
}
