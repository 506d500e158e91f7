package app_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/cafe/internal/auth"
	"github.com/dejobratic/cafe/internal/identity/adapters/memory"
	"github.com/dejobratic/cafe/internal/identity/app"
	"github.com/dejobratic/cafe/internal/identity/domain"
	"github.com/dejobratic/cafe/internal/identity/ports"
	"github.com/dejobratic/cafe/internal/mail"
	outboxmemory "github.com/dejobratic/cafe/internal/outbox/memory"
)

type productSet map[string]bool

func (p productSet) ProductExists(_ context.Context, id string) (bool, error) {
	return p[id], nil
}

type fixture struct {
	service *app.Service
	repo    *memory.Repository
	outbox  *outboxmemory.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	tokens, err := auth.NewTokens("0123456789abcdef0123456789abcdef", time.Hour, "cafe-test")
	require.NoError(t, err)

	repo := memory.NewRepository()
	events := outboxmemory.NewStore()
	service := app.NewService(app.Dependencies{
		Repository: repo,
		Codes:      memory.NewCodeStore(),
		Tokens:     tokens,
		Products:   productSet{"espresso": true},
		Events:     events,
		CodeTTL:    10 * time.Minute,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return fixture{service: service, repo: repo, outbox: events}
}

func (f fixture) register(t *testing.T, email string) *domain.User {
	t.Helper()
	user, err := f.service.Register(context.Background(), app.RegisterInput{
		Name:     "Ada",
		Email:    email,
		Password: "correct horse",
	})
	require.NoError(t, err)
	return user
}

// lastCode returns the code carried by the newest mail event with template.
func (f fixture) lastCode(t *testing.T, template string) string {
	t.Helper()
	events := f.outbox.Events()
	for i := len(events) - 1; i >= 0; i-- {
		var req mail.Request
		require.NoError(t, events[i].Decode(&req))
		if req.Template == template {
			code, _ := req.Data["code"].(string)
			return code
		}
	}
	t.Fatalf("no %s mail queued", template)
	return ""
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("stores lower-cased email and queues verification", func(t *testing.T) {
		f := newFixture(t)
		user := f.register(t, "  Ada@Example.com")

		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, domain.RoleCustomer, user.Role)
		assert.False(t, user.EmailVerified)
		assert.NotEqual(t, "correct horse", user.PasswordHash)
		assert.Len(t, f.lastCode(t, mail.TemplateVerifyEmail), 6)
	})

	t.Run("duplicate email is rejected without creating a user", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "ada@example.com")

		_, err := f.service.Register(ctx, app.RegisterInput{
			Name:     "Impostor",
			Email:    "ADA@example.com",
			Password: "another password",
		})
		assert.ErrorIs(t, err, ports.ErrEmailTaken)

		users, err := f.repo.List(ctx, ports.ListFilter{})
		require.NoError(t, err)
		assert.Len(t, users, 1)
		assert.Equal(t, "Ada", users[0].Name)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		f := newFixture(t)
		tests := []app.RegisterInput{
			{Name: "", Email: "a@example.com", Password: "long enough"},
			{Name: "Ada", Email: "nope", Password: "long enough"},
			{Name: "Ada", Email: "a@example.com", Password: "short"},
		}
		for _, input := range tests {
			_, err := f.service.Register(ctx, input)
			assert.Error(t, err)
		}
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "ada@example.com")

	session, err := f.service.Login(ctx, "ADA@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "ada@example.com", session.User.Email)

	_, err = f.service.Login(ctx, "ada@example.com", "wrong password")
	assert.ErrorIs(t, err, ports.ErrInvalidCredentials)

	_, err = f.service.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ports.ErrInvalidCredentials)
}

func TestVerifyEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.register(t, "ada@example.com")

	assert.ErrorIs(t, f.service.VerifyEmail(ctx, user.Email, "000000x"), ports.ErrInvalidCode)

	code := f.lastCode(t, mail.TemplateVerifyEmail)
	require.NoError(t, f.service.VerifyEmail(ctx, user.Email, code))

	profile, err := f.service.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, profile.EmailVerified)
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.register(t, "ada@example.com")

	require.NoError(t, f.service.ForgotPassword(ctx, "nobody@example.com"), "unknown email is not revealed")
	require.NoError(t, f.service.ForgotPassword(ctx, user.Email))
	code := f.lastCode(t, mail.TemplatePasswordReset)

	require.NoError(t, f.service.ResetPassword(ctx, user.Email, code, "new password!"))
	assert.ErrorIs(t, f.service.ResetPassword(ctx, user.Email, code, "another one!"), ports.ErrInvalidCode, "code is single use")

	_, err := f.service.Login(ctx, user.Email, "new password!")
	assert.NoError(t, err)
	_, err = f.service.Login(ctx, user.Email, "correct horse")
	assert.ErrorIs(t, err, ports.ErrInvalidCredentials)
}

func TestAddresses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.register(t, "ada@example.com")

	home := domain.Address{Label: "home", Line1: "1 Main St", City: "Pune", PostalCode: "411001", Country: "IN"}
	updated, err := f.service.SaveAddress(ctx, user.ID, home)
	require.NoError(t, err)
	require.Len(t, updated.Addresses, 1)
	assert.True(t, updated.Addresses[0].IsDefault)

	work := home
	work.Label, work.IsDefault = "work", true
	updated, err = f.service.SaveAddress(ctx, user.ID, work)
	require.NoError(t, err)
	def, _ := updated.DefaultAddress()
	assert.Equal(t, "work", def.Label)

	_, err = f.service.SaveAddress(ctx, user.ID, domain.Address{ID: "missing", Line1: "x", City: "x", PostalCode: "x", Country: "x"})
	assert.ErrorIs(t, err, ports.ErrAddressNotFound)

	_, err = f.service.DeleteAddress(ctx, user.ID, "missing")
	assert.ErrorIs(t, err, ports.ErrAddressNotFound)
}

func TestPaymentMethods(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.register(t, "ada@example.com")

	next := time.Now().AddDate(1, 0, 0)
	updated, err := f.service.AddPaymentMethod(ctx, user.ID, domain.PaymentMethod{
		Brand: "Visa", Last4: "4242", ExpMonth: int(next.Month()), ExpYear: next.Year(),
	})
	require.NoError(t, err)
	require.Len(t, updated.PaymentMethods, 1)
	assert.Equal(t, "visa", updated.PaymentMethods[0].Brand)

	_, err = f.service.AddPaymentMethod(ctx, user.ID, domain.PaymentMethod{
		Brand: "Visa", Last4: "4242424242424242", ExpMonth: 1, ExpYear: next.Year(),
	})
	assert.Error(t, err)

	updated, err = f.service.DeletePaymentMethod(ctx, user.ID, updated.PaymentMethods[0].ID)
	require.NoError(t, err)
	assert.Empty(t, updated.PaymentMethods)
}

func TestWishlist(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.register(t, "ada@example.com")

	require.NoError(t, f.service.AddToWishlist(ctx, user.ID, "espresso"))
	assert.ErrorIs(t, f.service.AddToWishlist(ctx, user.ID, "unknown"), ports.ErrProductUnavailable)

	ids, err := f.service.Wishlist(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"espresso"}, ids)

	require.NoError(t, f.service.RemoveFromWishlist(ctx, user.ID, "espresso"))
	require.NoError(t, f.service.RemoveFromWishlist(ctx, user.ID, "espresso"))

	ids, err = f.service.Wishlist(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestAdminOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.register(t, "ada@example.com")

	t.Run("set role", func(t *testing.T) {
		updated, err := f.service.SetRole(ctx, user.ID, "admin")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, updated.Role)

		_, err = f.service.SetRole(ctx, user.ID, "owner")
		assert.Error(t, err)
	})

	t.Run("adjust points never goes below zero", func(t *testing.T) {
		balance, err := f.service.AdjustRewardPoints(ctx, user.ID, 25)
		require.NoError(t, err)
		assert.Equal(t, 25, balance)

		_, err = f.service.AdjustRewardPoints(ctx, user.ID, -26)
		assert.ErrorIs(t, err, ports.ErrInsufficientPoints)

		points, err := f.service.RewardPoints(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 25, points)
	})

	t.Run("profile updates keep points", func(t *testing.T) {
		updated, err := f.service.UpdateProfile(ctx, user.ID, app.ProfileInput{Name: "Ada L.", Phone: "555"})
		require.NoError(t, err)
		assert.Equal(t, "Ada L.", updated.Name)
		assert.Equal(t, 25, updated.RewardPoints)

		name, err := f.service.DisplayName(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada L.", name)
	})
}
